package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"ticktock/internal/repository"
	"ticktock/internal/service"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the database migrates it.
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage user accounts",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "delete [email]",
		Short: "Delete a user together with their tasks, subscriptions and sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			email := service.NormalizeEmail(args[0])
			if err := repository.NewUserRepository(a.db).DeleteByEmail(cmd.Context(), email); err != nil {
				if errors.Is(err, repository.ErrNotFound) {
					return fmt.Errorf("no user with email %q", email)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", email)
			return nil
		},
	})

	return cmd
}

func sessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Manage login sessions",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "purge",
		Short: "Remove expired sessions now",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.auth.PurgeExpiredSessions(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "purged %d expired sessions\n", n)
			return nil
		},
	})

	return cmd
}
