package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hazyhaar/sinapp/auth"
	"github.com/hazyhaar/sinapp/config"
	"github.com/hazyhaar/sinapp/dbopen"
	"github.com/hazyhaar/sinapp/idgen"
	"github.com/hazyhaar/sinapp/interop"
	"github.com/hazyhaar/sinapp/observability"
	"github.com/hazyhaar/sinapp/session"
	"github.com/hazyhaar/sinapp/shield"
	"github.com/hazyhaar/sinapp/web"
	"github.com/hazyhaar/sinapp/wizard"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(opts)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
}

// loadConfig loads the configuration and installs the process logger.
func loadConfig(opts *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// databases holds the open SQLite handles. events is db when both point at
// the same file.
type databases struct {
	db     *sql.DB
	events *sql.DB
}

func openDatabases(cfg *config.Config) (*databases, error) {
	migrations := []dbopen.Migration{auth.Migration}
	if cfg.Session.Backend == "sqlite" {
		migrations = append(migrations, session.Migration)
	}
	shared := cfg.EventsDBPath() == cfg.Database.Path
	if shared {
		migrations = append(migrations, observability.Migration)
	}

	db, err := dbopen.Open(cfg.Database.Path, dbopen.WithMkdirAll(), dbopen.WithMigrations(migrations...))
	if err != nil {
		return nil, fmt.Errorf("main db: %w", err)
	}
	if shared {
		return &databases{db: db, events: db}, nil
	}

	events, err := dbopen.Open(cfg.EventsDBPath(), dbopen.WithMkdirAll(), dbopen.WithMigrations(observability.Migration))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("events db: %w", err)
	}
	return &databases{db: db, events: events}, nil
}

func (d *databases) Close() error {
	err := d.db.Close()
	if d.events != d.db {
		err = errors.Join(err, d.events.Close())
	}
	return err
}

func newCaseCreator(cfg config.InteropConfig, logger *slog.Logger) (interop.CaseCreator, error) {
	if cfg.Mode == "fake" {
		logger.Warn("interop running in fake mode, cases are not filed")
		return interop.NewFake(idgen.Digits(10)), nil
	}
	return interop.NewClient(interop.Options{
		BaseURL:          cfg.BaseURL,
		APIKey:           cfg.APIKey,
		Timeout:          cfg.Timeout,
		BreakerThreshold: cfg.BreakerThreshold,
		BreakerCooldown:  cfg.BreakerCooldown,
		AllowPrivate:     cfg.AllowPrivate,
	}, logger)
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	dbs, err := openDatabases(cfg)
	if err != nil {
		return err
	}
	defer dbs.Close()

	events := observability.NewEventLogger(dbs.events, logger)
	defer events.Close()
	events.StartRetention(ctx, cfg.Events.RetentionDays)

	var store interface {
		session.Store
		session.Purger
	}
	if cfg.Session.Backend == "sqlite" {
		store = session.NewSQLiteStore(dbs.db)
	} else {
		store = session.NewMemoryStore()
	}
	if cfg.Session.JanitorInterval > 0 {
		session.StartJanitor(ctx, store, cfg.Session.JanitorInterval, logger)
	}
	sessions := session.NewManager(store, session.Options{
		CookieName: cfg.Session.CookieName,
		TTL:        cfg.Session.TTL,
		Secure:     cfg.Server.SecureCookies,
	}, logger)

	cases, err := newCaseCreator(cfg.Interop, logger)
	if err != nil {
		return fmt.Errorf("interop: %w", err)
	}

	limiter := shield.NewRateLimiter(cfg.Server.LoginRateLimit, cfg.Server.LoginRateWindow)
	limiter.StartGC(ctx)

	srv, err := web.New(web.Deps{
		Logger:        logger,
		Sessions:      sessions,
		Wizard:        wizard.NewStore(wizard.Definition, logger),
		Users:         auth.NewUsers(dbs.db),
		Cases:         cases,
		Events:        events,
		LoginLimiter:  limiter,
		JWTSecret:     []byte(cfg.Auth.JWTSecret),
		TokenTTL:      cfg.Auth.TokenTTL,
		SecureCookies: cfg.Server.SecureCookies,
	})
	if err != nil {
		return err
	}

	httpSrv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", cfg.Server.Addr, "session_backend", cfg.Session.Backend, "interop_mode", cfg.Interop.Mode)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
