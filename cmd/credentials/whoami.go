package main

import (
	"github.com/spf13/cobra"
)

// NewWhoamiCmd creates the whoami subcommand.
func NewWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user, recovering the session if needed",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // read-side close

			if err := a.manager.Recover(cmd.Context()); err != nil {
				a.reportFailure(cmd)
				return err
			}

			user := a.manager.User()
			if user == nil {
				cmd.Println("not signed in")
				return nil
			}

			cmd.Printf("%s %s <%s>\n", user.Name, user.Surname, user.Email)
			return nil
		},
	}
}
