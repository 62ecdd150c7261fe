package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/juanarrow/credentials/internal/apperror"
	"github.com/juanarrow/credentials/internal/config"
	"github.com/juanarrow/credentials/internal/gateway"
	"github.com/juanarrow/credentials/internal/logging"
	"github.com/juanarrow/credentials/internal/session"
	"github.com/juanarrow/credentials/internal/store"
	"github.com/samber/oops"

	nethttp "net/http"
)

// app bundles the wired components every subcommand needs.
type app struct {
	cfg        config.Config
	logger     *slog.Logger
	classifier *apperror.Classifier
	store      store.Store
	manager    session.Manager
}

// newApp loads configuration and wires the store, classifier and session
// manager for the selected strategy.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger := logging.Setup("credentials", version, cfg.Log.Format, logging.ParseLevel(cfg.Log.Level), cmd.ErrOrStderr())
	slog.SetDefault(logger)

	classifier := apperror.New(logger)
	classifier.SetDisplayDuration(cfg.Errors.DisplayDuration)

	st, err := openStore(cfg.Store)
	if err != nil {
		return nil, err
	}

	manager, err := buildManager(cfg, st, classifier, logger)
	if err != nil {
		_ = st.Close() //nolint:errcheck // Best effort cleanup
		return nil, err
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		classifier: classifier,
		store:      st,
		manager:    manager,
	}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

// reportFailure prints the classifier's active error for the user.
func (a *app) reportFailure(cmd *cobra.Command) {
	if appErr := a.classifier.Active(); appErr != nil {
		cmd.PrintErrf("error [%s]: %s\n", appErr.Kind, appErr.Message)
	}
}

func openStore(cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Backend {
	case config.BackendFile:
		return store.NewFile(cfg.Path)
	case config.BackendSQLite:
		return store.NewSQLite(cfg.Path)
	case config.BackendRedis:
		return store.NewRedis(cfg.RedisURL)
	default:
		return nil, oops.Code("VALIDATION_CONFIG").
			With("backend", cfg.Backend).
			Errorf("unknown store backend")
	}
}

func buildManager(cfg config.Config, st store.Store, classifier *apperror.Classifier, logger *slog.Logger) (session.Manager, error) {
	switch cfg.Strategy {
	case config.StrategyLocal:
		return session.NewLocal(st, session.NewArgon2idHasher(), classifier, logger)
	case config.StrategyRemote:
		client := &nethttp.Client{Timeout: cfg.Gateway.Timeout}
		gw, err := gateway.NewHTTP(cfg.Gateway.URL, client, logger)
		if err != nil {
			return nil, err
		}
		return session.NewRemote(gw, st, classifier, logger)
	default:
		return nil, oops.Code("VALIDATION_CONFIG").
			With("strategy", cfg.Strategy).
			Errorf("unknown strategy")
	}
}
