package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/grocery-scan/internal/events"
	"github.com/example/grocery-scan/internal/pipeline"
	"github.com/example/grocery-scan/internal/resolver"
	"github.com/example/grocery-scan/internal/scanner"
)

func newScanCmd() *cobra.Command {
	var (
		framesDir string
		loop      bool
	)

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Run the acquisition loop and add scanned products to the basket",
		Long: `Run the scan pipeline: sample frames, decode barcodes, resolve each hit
against the product catalog and add available products to the basket.

With --frames the frames are image files read from a directory; without it,
barcode values are read from stdin, one per line (a keyboard-wedge scanner
or a piped list).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.Close()
			return runScan(app, framesDir, loop)
		},
	}
	cmd.Flags().StringVar(&framesDir, "frames", "", "directory of frame images to scan instead of stdin")
	cmd.Flags().BoolVar(&loop, "loop", false, "replay the frame directory indefinitely")
	return cmd
}

func runScan(app *app, framesDir string, loop bool) error {
	var (
		source   scanner.FrameSource
		detector scanner.Detector
	)
	if framesDir != "" {
		source = scanner.NewDirectorySource(framesDir, loop)
		detector = scanner.NewZXingDetector()
	} else {
		source = scanner.NewFeedSource(os.Stdin)
		detector = scanner.NewFeedDetector()
	}

	sessionID := app.session.GuestID()
	scan := scanner.New(sessionID, source, detector, app.bus, scanner.Config{
		Interval: app.cfg.ScanInterval,
		Cooldown: app.cfg.ScanCooldown,
		Width:    1280,
		Height:   720,
	})
	pipe := pipeline.New(sessionID, resolver.New(app.client), app.basket, scan, app.bus)

	app.bus.SubscribeBasketChange(func(evt events.BasketChanged) {
		fmt.Printf("Basket: %d item(s), subtotal %.2f\n", evt.ItemCount, evt.Subtotal)
	})

	// Pull the remote cart before scanning so this session continues where
	// the last one stopped.
	refreshCtx, cancel := context.WithTimeout(context.Background(), app.cfg.RequestTimeout)
	if err := app.basket.Refresh(refreshCtx); err != nil {
		fmt.Printf("Could not load remote cart, starting from local snapshot: %v\n", err)
	}
	cancel()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	scan.Start(ctx)
	defer scan.Stop()

	if status := scan.Status(); !status.Scanning {
		return fmt.Errorf("scanner did not start: %s", status.Message)
	}
	fmt.Println("Scanning. Ctrl-C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	var lastMessage string
	for {
		select {
		case <-sigCh:
			scan.Stop()
			pipe.Wait()
			printTotals(app)
			return nil
		case <-ticker.C:
			status := scan.Status()
			if status.Message != lastMessage && status.Message != "" {
				fmt.Printf("[%s] %s\n", status.Type, status.Message)
				lastMessage = status.Message
			}
			if !status.Scanning && !status.Loading {
				// Source exhausted: the session ended on its own.
				pipe.Wait()
				printTotals(app)
				return nil
			}
		}
	}
}

func printTotals(app *app) {
	totals := app.basket.Totals()
	fmt.Printf("Session done: %d item(s), subtotal %.2f, delivery %.2f, total %.2f\n",
		totals.ItemCount, totals.Subtotal, totals.DeliveryFee, totals.Total)
}
