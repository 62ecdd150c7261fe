package main

import (
	"github.com/spf13/cobra"

	"github.com/juanarrow/credentials/internal/session"
)

// NewRegisterCmd creates the register subcommand.
func NewRegisterCmd() *cobra.Command {
	var name, surname, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // read-side close

			outcome, err := a.manager.Register(cmd.Context(), session.RegistrationInfo{
				Name:     name,
				Surname:  surname,
				Email:    email,
				Password: password,
			})
			if err != nil {
				a.reportFailure(cmd)
				return err
			}

			cmd.Printf("registered %s\n", outcome.User.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "first name")
	cmd.Flags().StringVar(&surname, "surname", "", "family name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}
