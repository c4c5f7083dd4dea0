package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "grocery-scan",
		Short:         "Barcode-driven grocery shopping client",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScanCmd(), newBasketCmd(), newAuthCmd(), newHealthCmd())

	if err := root.Execute(); err != nil {
		log.SetFlags(0)
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
