package main

import (
	"github.com/spf13/cobra"

	"github.com/juanarrow/credentials/internal/guard"
)

// NewGuardCmd creates the guard subcommand.
func NewGuardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "guard <path>",
		Short: "Check whether a path is reachable with the current session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // read-side close

			if err := a.manager.Recover(cmd.Context()); err != nil {
				a.reportFailure(cmd)
			}

			g, err := guard.New(func() bool { return a.manager.User() != nil }, a.cfg.Guard.PublicPaths)
			if err != nil {
				return err
			}

			decision := g.Check(args[0])
			if decision.Allowed {
				cmd.Printf("allowed: %s\n", args[0])
				return nil
			}
			cmd.Printf("denied: %s (redirect to %s)\n", args[0], decision.RedirectTo)
			return nil
		},
	}
}
