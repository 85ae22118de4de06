package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erazemk/fixitforward/internal/api"
	"github.com/erazemk/fixitforward/internal/catalog"
	"github.com/erazemk/fixitforward/internal/db"
	"github.com/erazemk/fixitforward/internal/events"
	"github.com/erazemk/fixitforward/internal/imaging"
	"github.com/erazemk/fixitforward/internal/metrics"
	"github.com/erazemk/fixitforward/internal/negotiation"
	"github.com/erazemk/fixitforward/internal/session"
	"github.com/erazemk/fixitforward/internal/store"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, app)
		},
	}
	cmd.Flags().StringP("addr", "a", ":8080", "Listen address")
	_ = app.v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func serve(ctx context.Context, app *App) error {
	cfg, log := app.cfg, app.log

	// Accounts, revoked tokens and the signing key always live in SQLite.
	database, err := db.Open(cfg.DB)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()
	if err := db.Migrate(database); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}
	log.Info("database ready", zap.String("path", cfg.DB))

	secret := cfg.JWT.Secret
	if secret == "" {
		if secret, err = store.GetJWTSecret(ctx, database); err != nil {
			return fmt.Errorf("loading JWT secret: %w", err)
		}
	}

	b, err := openBackends(ctx, cfg, database, log)
	if err != nil {
		return err
	}
	defer b.Close()

	var pub events.Multi
	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(cfg.Metrics.Namespace)
		pub = append(pub, m)
	}
	if cfg.NATS.URL != "" {
		nc, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			return err
		}
		defer nc.Close()
		pub = append(pub, nc)
		log.Info("publishing events", zap.String("nats", cfg.NATS.URL))
	}

	items := catalog.New(b.items, catalog.WithPublisher(pub), catalog.WithLogger(log))
	chat := negotiation.New(b.threads, items, negotiation.WithPublisher(pub), negotiation.WithLogger(log))

	tokens := store.NewTokens(database)
	sessions := session.NewManager()
	if m != nil {
		sessions.OnChange = func(n int) { m.Sessions.Set(float64(n)) }
	}

	handler := api.NewRouter(&api.Server{
		Catalog:     items,
		Chat:        chat,
		Images:      imaging.NewLibrary(b.images, items),
		Accounts:    store.NewAccounts(database),
		Revocations: tokens,
		Sessions:    sessions,
		Publisher:   pub,
		Metrics:     m,
		JWTSecret:   secret,
		Log:         log,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go sweep(ctx, sessions, tokens, cfg.Session.SweepInterval, log)

	idle := make(chan struct{})
	go func() {
		defer close(idle)
		<-ctx.Done()
		log.Info("shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("server forced to shutdown", zap.Error(err))
		}
	}()

	log.Info("server started", zap.String("addr", cfg.Addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	<-idle

	log.Info("server stopped, closing stores")
	return nil
}

// sweep drops expired sessions and stale revocations until ctx ends.
func sweep(ctx context.Context, sessions *session.Manager, tokens *store.Tokens, every time.Duration, log *zap.Logger) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := sessions.Sweep(); n > 0 {
				log.Info("expired sessions dropped", zap.Int("count", n))
			}
			if _, err := tokens.Purge(ctx); err != nil {
				log.Warn("purging revoked tokens failed", zap.Error(err))
			}
		}
	}
}
