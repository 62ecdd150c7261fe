package main

import (
	"github.com/spf13/cobra"

	"github.com/juanarrow/credentials/internal/session"
)

// NewLoginCmd creates the login subcommand.
func NewLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and start a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // read-side close

			outcome, err := a.manager.Login(cmd.Context(), session.Credentials{
				Email:    email,
				Password: password,
			})
			if err != nil {
				a.reportFailure(cmd)
				return err
			}

			cmd.Printf("logged in as %s\n", outcome.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
