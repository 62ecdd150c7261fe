package main

import (
	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout subcommand.
func NewLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear persisted state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // read-side close

			if err := a.manager.Logout(cmd.Context()); err != nil {
				a.reportFailure(cmd)
				return err
			}

			cmd.Println("logged out")
			return nil
		},
	}
}
