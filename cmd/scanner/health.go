package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newHealthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Ping the backend",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.RequestTimeout)
			defer cancel()

			status, err := app.client.Health(ctx)
			if err != nil {
				return fmt.Errorf("backend at %s is unreachable: %w", app.cfg.APIURL, err)
			}
			fmt.Printf("%s %s: %s\n", status.Service, status.Version, status.Status)
			return nil
		}),
	}
}
