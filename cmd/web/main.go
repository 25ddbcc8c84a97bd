// Package main provides the entry point for the Tastevine web frontend.
// The service renders server-side pages and talks to the recipe API
// backend; it holds no persistent state of its own beyond sessions.
package main

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/tastevine/web/internal/application/favorites"
	"github.com/tastevine/web/internal/application/reviews"
	"github.com/tastevine/web/internal/infrastructure/config"
	"github.com/tastevine/web/internal/infrastructure/http/apiclient"
	"github.com/tastevine/web/internal/infrastructure/http/webserver"
	"github.com/tastevine/web/internal/infrastructure/session"
	"github.com/tastevine/web/pkg/logger"
)

func main() {
	app := fx.New(
		fx.NopLogger,

		fx.Provide(func() (*config.Config, error) {
			return config.Load("")
		}),

		fx.Provide(func(cfg *config.Config) (*zap.Logger, error) {
			return logger.New(logger.Config{
				Level:       cfg.App.LogLevel,
				Format:      cfg.App.LogFormat,
				Development: cfg.App.Debug,
			})
		}),

		fx.Provide(apiclient.New),
		fx.Provide(newSessionStore),
		fx.Provide(session.NewManager),

		fx.Provide(func(client *apiclient.Client, log *zap.Logger) *favorites.Service {
			return favorites.NewService(client, log)
		}),
		fx.Provide(func(client *apiclient.Client, log *zap.Logger) *reviews.Service {
			return reviews.NewService(client, log)
		}),

		fx.Provide(webserver.NewWebServer),

		fx.Invoke(registerLifecycleHooks),
	)

	app.Run()
}

// newSessionStore picks Redis-backed sessions when configured, else
// the in-process store.
func newSessionStore(cfg *config.Config, log *zap.Logger) (session.Store, error) {
	if cfg.Session.UseRedis {
		log.Info("Using Redis session store", zap.String("addr", cfg.RedisAddr()))
		return session.NewRedisStore(cfg, log)
	}
	return session.NewMemoryStore(log), nil
}

func registerLifecycleHooks(
	lc fx.Lifecycle,
	cfg *config.Config,
	log *zap.Logger,
	client *apiclient.Client,
	store session.Store,
	server *webserver.WebServer,
) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if !client.VerifyConnection(ctx) {
				log.Warn("Backend not reachable at startup; continuing anyway",
					zap.String("backend", cfg.Backend.BaseURL),
				)
			}

			log.Info("Starting web frontend",
				zap.Int("port", cfg.Server.Port),
				zap.String("environment", cfg.App.Environment),
				zap.String("backend", cfg.Backend.BaseURL),
			)

			go func() {
				if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("Web server failed to start", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
			defer cancel()

			if err := server.Shutdown(shutdownCtx); err != nil {
				return err
			}

			switch s := store.(type) {
			case *session.MemoryStore:
				s.Close()
			case *session.RedisStore:
				return s.Close()
			}
			return nil
		},
	})
}
