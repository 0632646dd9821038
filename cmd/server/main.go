package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/youruser/matchboard/internal/api"
	"github.com/youruser/matchboard/internal/config"
	"github.com/youruser/matchboard/internal/constants"
	"github.com/youruser/matchboard/internal/events"
	fxmodules "github.com/youruser/matchboard/internal/fx"
	"github.com/youruser/matchboard/internal/logger"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.NopLogger,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	handler *api.Handler,
	broker *events.Broker,
	cfg *config.Config,
	db *sql.DB,
	log zerolog.Logger,
) {
	zerolog.SetGlobalLevel(logger.ParseLevel(cfg.LogLevel))
	gin.SetMode(gin.ReleaseMode)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: api.NewRouter(handler, log),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal().Err(err).Msg("server failed")
				}
			}()
			// best-effort, like the first manual refresh
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), constants.FetchTimeout)
				defer cancel()
				n, err := handler.RefreshUpcoming(ctx)
				switch {
				case errors.Is(err, api.ErrUpcomingDisabled):
					log.Info().Msg("PANDASCORE_API_KEY not set, skipping upcoming refresh")
				case err != nil:
					log.Warn().Err(err).Msg("failed to load upcoming matches on startup")
				default:
					log.Info().Int("count", n).Msg("loaded upcoming matches on startup")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			log.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			// ends open event streams so Shutdown does not wait on them
			broker.Close()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			if err := db.Close(); err != nil {
				log.Warn().Err(err).Msg("error closing database connection")
			}
			log.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
