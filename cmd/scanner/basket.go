package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newBasketCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "basket",
		Short: "Inspect and edit the shopping basket",
	}
	cmd.AddCommand(
		newBasketListCmd(),
		newBasketAddCmd(),
		newBasketSetCmd(),
		newBasketRemoveCmd(),
		newBasketClearCmd(),
		newBasketRefreshCmd(),
	)
	return cmd
}

func withApp(fn func(app *app, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(app, cmd, args)
	}
}

func newBasketListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show the basket contents and totals",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			items := app.basket.Items()
			if len(items) == 0 {
				fmt.Println("Basket is empty")
				return nil
			}
			for _, item := range items {
				fmt.Printf("%-16s %-30s x%-3d @ %8.2f = %8.2f\n",
					item.ID, item.Name, item.Quantity, item.Price, item.Price*float64(item.Quantity))
			}
			totals := app.basket.Totals()
			fmt.Printf("%d item(s), subtotal %.2f, delivery %.2f, total %.2f\n",
				totals.ItemCount, totals.Subtotal, totals.DeliveryFee, totals.Total)
			return nil
		}),
	}
}

func newBasketAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <productId>",
		Short: "Resolve a product id and add it to the basket",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.RequestTimeout)
			defer cancel()

			product, err := app.client.GetProduct(ctx, args[0])
			if err != nil {
				return fmt.Errorf("look up %s: %w", args[0], err)
			}
			app.basket.AddOrIncrement(product)
			fmt.Printf("Added %s\n", product.Name)
			return nil
		}),
	}
}

func newBasketSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <productId> <quantity>",
		Short: "Set the quantity of a basket line (0 removes it)",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			quantity, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("quantity must be a number: %q", args[1])
			}
			app.basket.SetQuantity(args[0], quantity)
			return nil
		}),
	}
}

func newBasketRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <productId>",
		Short: "Remove a line from the basket",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			app.basket.Remove(args[0])
			return nil
		}),
	}
}

func newBasketClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the basket",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			app.basket.Clear()
			return nil
		}),
	}
}

func newBasketRefreshCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Replace the local basket with the remote cart",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.RequestTimeout)
			defer cancel()

			if err := app.basket.Refresh(ctx); err != nil {
				return fmt.Errorf("refresh basket: %w", err)
			}
			totals := app.basket.Totals()
			fmt.Printf("Refreshed: %d item(s), total %.2f\n", totals.ItemCount, totals.Total)
			return nil
		}),
	}
}
