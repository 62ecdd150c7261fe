package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the credentials CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "credentials - session and authentication toolkit",
		Long: `credentials manages authenticated sessions against either a local
credential store or a remote token-issuing identity provider.`,
		SilenceUsage: true,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Config overrides, layered on top of the config file.
	pf := cmd.PersistentFlags()
	pf.String("strategy", "", "session strategy (local or remote)")
	pf.String("gateway.url", "", "identity provider base URL (remote strategy)")
	pf.String("store.backend", "", "store backend (file, sqlite or redis)")
	pf.String("store.path", "", "store path (file and sqlite backends)")
	pf.String("store.redis_url", "", "redis connection URL (redis backend)")
	pf.String("log.format", "", "log format (json or text)")
	pf.String("log.level", "", "log level (debug, info, warn or error)")

	// Add subcommands
	cmd.AddCommand(NewLoginCmd())
	cmd.AddCommand(NewRegisterCmd())
	cmd.AddCommand(NewLogoutCmd())
	cmd.AddCommand(NewWhoamiCmd())
	cmd.AddCommand(NewStatusCmd())
	cmd.AddCommand(NewWatchCmd())
	cmd.AddCommand(NewGuardCmd())
	cmd.AddCommand(NewConfigCmd())

	return cmd
}
