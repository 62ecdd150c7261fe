package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/juanarrow/credentials/internal/config"
	"github.com/juanarrow/credentials/internal/xdg"
)

// NewConfigCmd creates the config subcommand group.
func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and scaffold configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSchemaCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter config file with the defaults",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output == "" {
				output = config.DefaultPath()
			}
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("refusing to overwrite existing %s", output)
			}

			if err := xdg.EnsureDir(filepath.Dir(output)); err != nil {
				return err
			}

			d := config.Default()
			contents := fmt.Sprintf(`# yaml-language-server: $schema=%s
strategy: %s

# gateway:
#   url: https://identity.example.com
#   timeout: %s

store:
  backend: %s
  path: %s

errors:
  display_duration: %s

log:
  format: %s
  level: %s
`,
				config.SchemaID(),
				d.Strategy,
				d.Gateway.Timeout,
				d.Store.Backend,
				d.Store.Path,
				d.Errors.DisplayDuration,
				d.Log.Format,
				d.Log.Level,
			)

			if err := os.WriteFile(output, []byte(contents), 0o600); err != nil {
				return fmt.Errorf("writing %s: %w", output, err)
			}

			cmd.Printf("wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "destination path (default: XDG config dir)")

	return cmd
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the configuration JSON Schema",
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			cmd.Println(string(data))
			return nil
		},
	}
}
