package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/tripsync/internal/availability"
	"github.com/tripsync/internal/config"
	"github.com/tripsync/internal/db"
	"github.com/tripsync/internal/handler"
	"github.com/tripsync/internal/logger"
	"github.com/tripsync/internal/router"
	"github.com/tripsync/internal/service"
)

const serviceName = "tripsync"

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "tripsync",
		Short:         "Group trip planning API",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newInitUserCmd(), newRankCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// bootstrap loads config, configures logging and opens the database.
func bootstrap() (config.AppConfig, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.AppConfig{}, zerolog.Nop(), err
	}
	logger.SetLevel(cfg.LogLevel)
	log := logger.New(serviceName)
	cfg.LogSummary(log.Info())

	if err := db.Init(db.Options{
		Driver: cfg.DBDriver,
		Path:   cfg.DatabasePath,
		DSN:    cfg.PostgresDSN,
		Silent: cfg.GinMode == gin.ReleaseMode,
	}); err != nil {
		return config.AppConfig{}, log, err
	}
	return cfg, log, nil
}

func weightsFrom(cfg config.AppConfig) availability.Weights {
	return availability.Weights{
		Can:    cfg.WeightCan,
		Maybe:  cfg.WeightMaybe,
		Cannot: cfg.WeightCannot,
	}
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			gin.SetMode(cfg.GinMode)

			if cfg.SuperUserEmail != "" {
				created, err := db.EnsureUser(db.DB, cfg.SuperUserName, cfg.SuperUserEmail, cfg.SuperUserPassword)
				if err != nil {
					return fmt.Errorf("ensure super user: %w", err)
				}
				if created {
					log.Info().Str("email", cfg.SuperUserEmail).Msg("super user created")
				}
			}

			api := handler.NewAPI(db.DB, handler.Options{
				Weights:      weightsFrom(cfg),
				MaxRangeDays: cfg.MaxRangeDays,
				TopDates:     cfg.TopDates,
				AI: service.AISettings{
					Provider:        cfg.AIProvider,
					OpenAIAPIKey:    cfg.OpenAIAPIKey,
					OpenAIModel:     cfg.OpenAIModel,
					OpenAIBaseURL:   cfg.OpenAIBaseURL,
					DeepSeekAPIKey:  cfg.DeepSeekAPIKey,
					DeepSeekModel:   cfg.DeepSeekModel,
					DeepSeekBaseURL: cfg.DeepSeekURL,
				},
				Flights: service.FlightConfig{
					BaseURL:      cfg.FlightBaseURL,
					ClientID:     cfg.FlightAPIKey,
					ClientSecret: cfg.FlightAPISecret,
				},
				Logger: log,
			})

			engine, err := router.SetupRouter(api, router.Options{
				SessionSecret: cfg.SessionSecret,
				FrontendURLs:  cfg.FrontendURLs,
				RateLimit:     cfg.RateLimit,
				SecureCookies: cfg.SecureCookies,
				Logger:        log,
			})
			if err != nil {
				return err
			}

			return run(cmd.Context(), cfg.ListenAddr, engine, log)
		},
	}
}

// run serves until SIGINT/SIGTERM, then drains for up to ten seconds.
func run(ctx context.Context, addr string, h http.Handler, log zerolog.Logger) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
