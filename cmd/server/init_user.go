package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tripsync/internal/db"
)

func newInitUserCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "init-user",
		Short: "Create a user if the email is not registered yet",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := bootstrap(); err != nil {
				return err
			}

			created, err := db.EnsureUser(db.DB, name, email, password)
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintf(os.Stdout, "user %s already exists\n", db.NormalizeEmail(email))
				return nil
			}
			fmt.Fprintf(os.Stdout, "created user %s (%s)\n", name, db.NormalizeEmail(email))
			return nil
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "admin", "Display name")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Email (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (required)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
