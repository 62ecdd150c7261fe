package main

import (
	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status subcommand.
func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the configured strategy, store and session state",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // read-side close

			cmd.Printf("strategy: %s\n", a.cfg.Strategy)
			cmd.Printf("store:    %s\n", a.cfg.Store.Backend)

			// Recovery failures are informational here; the session state
			// line below reflects them.
			if err := a.manager.Recover(cmd.Context()); err != nil {
				a.reportFailure(cmd)
			}

			if user := a.manager.User(); user != nil {
				cmd.Printf("session:  signed in as %s\n", user.Email)
			} else {
				cmd.Println("session:  signed out")
			}
			return nil
		},
	}
}
