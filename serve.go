package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/apiclient"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/auth"
	intconfig "github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/config"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/db"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/events"
	router "github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/http/handlers"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/proxy"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/repositories"
	"github.com/Pongsakorn-yo/Devpool-wongnok-web-513600/internal/services"
)

const sessionSweepInterval = 15 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP gateway",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	env, err := intconfig.LoadEnv()
	if err != nil {
		return err
	}
	if env.GinMode != "" {
		gin.SetMode(env.GinMode)
	}

	log, err := intconfig.NewLogger(env.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sqlDB, err := intconfig.ConnectDB(env.MySQLDSN, log)
	if err != nil {
		return err
	}
	defer intconfig.CloseDB()

	if err := db.EnsureSchema(ctx, sqlDB); err != nil {
		return err
	}

	rdb, err := intconfig.ConnectRedis(ctx, env.Redis, log)
	if err != nil {
		return err
	}
	defer rdb.Close()

	provider, err := auth.NewProvider(ctx, env.Keycloak)
	if err != nil {
		return err
	}

	sessionRepo := repositories.SessionRepository{DB: sqlDB}
	sessions := services.SessionService{
		Identity: provider,
		Sessions: sessionRepo,
		States:   auth.NewStateStore(rdb),
		Signer:   auth.NewSessionSigner(env.SessionSecret, env.SessionMaxAge),
		Users: func(bearer string) services.UserAPI {
			return apiclient.New(env.InternalAPIBase, apiclient.StaticToken(bearer), log)
		},
		ClientID: env.Keycloak.ClientID,
		Log:      log.Named("session"),
	}

	bus := events.NewBus(log)
	relay := events.NewRedisRelay(rdb, bus, log.Named("relay"))
	go runRelay(ctx, relay, log)
	go sweepSessions(ctx, sessionRepo, log)

	font, err := services.LoadFont(env.PDFFontPath)
	switch {
	case errors.Is(err, services.ErrNoFont):
		log.Warn("pdf export disabled, set PDF_FONT_PATH", zap.Error(err))
	case err != nil:
		return err
	}

	hd := &handlers.Handler{
		Forwarder: proxy.NewForwarder(env.InternalAPIBase, log.Named("proxy")),
		Sessions:  sessions,
		Bus:       bus,
		Recipes:   apiclient.New(env.InternalAPIBase, nil, log),
		Export:    services.ExportService{Log: log.Named("export"), Font: font},
		Keycloak: handlers.KeycloakSettings{
			Issuer:                env.Keycloak.Issuer(),
			PostLogoutRedirectURI: env.Keycloak.PostLogoutRedirectURI,
		},
		Cookie: handlers.CookieSettings{Secure: strings.HasPrefix(env.Keycloak.RedirectURL, "https://")},
		Checks: map[string]handlers.Check{
			"mysql": intconfig.EnsureDB,
			"redis": func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		},
		Log: log,
	}

	r := router.NewRouter(env, hd, sessions, log)

	srv := &http.Server{
		Addr:              env.AppAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", env.AppAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	log.Info("server stopped")
	return nil
}

// runRelay keeps the cross-instance relay alive until ctx ends.
func runRelay(ctx context.Context, relay *events.RedisRelay, log *zap.Logger) {
	for {
		err := relay.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		log.Warn("event relay stopped, restarting", zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(5 * time.Second):
		}
	}
}

func sweepSessions(ctx context.Context, repo repositories.SessionRepository, log *zap.Logger) {
	t := time.NewTicker(sessionSweepInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := repo.DeleteExpired(ctx, now)
			if err != nil {
				log.Warn("session sweep failed", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Info("expired sessions removed", zap.Int64("count", n))
			}
		}
	}
}
