package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/juanarrow/credentials/internal/observability"
)

const shutdownTimeout = 5 * time.Second

// NewWatchCmd creates the watch subcommand.
func NewWatchCmd() *cobra.Command {
	var metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow session and error state until interrupted",
		Long: `Recover the persisted session, then print every change to the
current user and to the active error as it happens. With --metrics-addr
set, Prometheus metrics and health probes are served while watching.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck // read-side close

			return runWatch(cmd, a, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "metrics/health HTTP address (empty = disabled)")

	return cmd
}

func runWatch(cmd *cobra.Command, a *app, metricsAddr string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var obsErrs <-chan error
	if metricsAddr != "" {
		obs := observability.NewServer(metricsAddr, func() bool { return true })
		errCh, err := obs.Start()
		if err != nil {
			return err
		}
		obsErrs = errCh
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = obs.Stop(shutdownCtx) //nolint:errcheck // Best effort shutdown
		}()
	}

	if err := a.manager.Recover(ctx); err != nil {
		a.reportFailure(cmd)
	}

	users, cancelUsers := a.manager.WatchUser().Watch()
	defer cancelUsers()
	appErrs, cancelErrs := a.classifier.Watch().Watch()
	defer cancelErrs()

	if user := a.manager.User(); user != nil {
		cmd.Printf("user: %s\n", user.Email)
	} else {
		cmd.Println("user: signed out")
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-obsErrs:
			return err
		case user := <-users:
			if user != nil {
				cmd.Printf("user: %s\n", user.Email)
			} else {
				cmd.Println("user: signed out")
			}
		case appErr := <-appErrs:
			if appErr != nil {
				cmd.Printf("error [%s]: %s\n", appErr.Kind, appErr.Message)
			} else {
				cmd.Println("error cleared")
			}
		}
	}
}
