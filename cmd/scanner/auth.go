package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Account registration and login",
	}
	cmd.AddCommand(newRegisterCmd(), newLoginCmd(), newLogoutCmd(), newWhoamiCmd())
	return cmd
}

func newRegisterCmd() *cobra.Command {
	var name string
	cmd := &cobra.Command{
		Use:   "register <email> <password>",
		Short: "Create an account and log in",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.RequestTimeout)
			defer cancel()

			user, err := app.session.Register(ctx, args[0], args[1], name)
			if err != nil {
				return fmt.Errorf("register: %w", err)
			}
			fmt.Printf("Registered and logged in as %s\n", user.Email)
			return nil
		}),
	}
	cmd.Flags().StringVar(&name, "name", "", "display name for the account")
	return cmd
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Log in to an existing account",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.RequestTimeout)
			defer cancel()

			user, err := app.session.Login(ctx, args[0], args[1])
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			fmt.Printf("Logged in as %s\n", user.Email)
			return nil
		}),
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and continue as guest",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), app.cfg.RequestTimeout)
			defer cancel()

			app.session.Logout(ctx)
			fmt.Println("Logged out")
			return nil
		}),
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current identity",
		RunE: withApp(func(app *app, cmd *cobra.Command, args []string) error {
			if user := app.session.User(); user != nil {
				fmt.Printf("Logged in as %s (%s)\n", user.Email, user.ID)
				return nil
			}
			fmt.Printf("Guest session %s\n", app.session.GuestID())
			return nil
		}),
	}
}
