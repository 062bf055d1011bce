package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"spot-booking-backend/internal/cache"
	"spot-booking-backend/internal/config"
	"spot-booking-backend/internal/db"
	"spot-booking-backend/internal/handlers"
	"spot-booking-backend/internal/logging"
	"spot-booking-backend/internal/repository"
	"spot-booking-backend/internal/repository/memory"
	"spot-booking-backend/internal/services"
	"spot-booking-backend/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var configPath string

// Execute runs the root command
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "spotbook",
		Short:        "Spot booking marketplace API",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML config file")
	root.AddCommand(newServeCmd(), newMigrateCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var inMemory bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg, inMemory)
		},
	}
	cmd.Flags().BoolVar(&inMemory, "memory", false, "keep all data in process memory instead of PostgreSQL")
	return cmd
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "Apply or roll back database migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return db.Migrate(cfg.Database.ConnString(), args[0] == "up")
		},
	}
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)
	return cfg, nil
}

func serve(ctx context.Context, cfg *config.Config, inMemory bool) error {
	// SIGINT/SIGTERM cancel startup as well as the running server
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	var store *repository.Store
	if inMemory {
		log.Warn().Msg("Using in-memory store, data will not survive a restart")
		store = memory.NewStore()
	} else {
		pool, err := db.Connect(ctx, cfg.Database.ConnString(), cfg.Database.ConnectAttempts)
		if err != nil {
			return fmt.Errorf("failed to connect to database: %w", err)
		}
		defer pool.Close()
		log.Info().Msg("Database connection established")
		store = repository.NewPostgresStore(pool)
	}

	var spotCache cache.Cache = cache.Noop{}
	if cfg.Redis.Addr != "" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer redisCache.Close()
		spotCache = redisCache
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Spot cache enabled")
	}

	var presigner services.Presigner
	if cfg.AWS.S3Bucket != "" {
		s3Presigner, err := storage.NewS3Presigner(ctx, storage.S3Options{
			Region:    cfg.AWS.Region,
			Bucket:    cfg.AWS.S3Bucket,
			AccessKey: cfg.AWS.AccessKey,
			SecretKey: cfg.AWS.SecretKey,
			Endpoint:  cfg.AWS.Endpoint,
			PublicURL: cfg.AWS.PublicURL,
		})
		if err != nil {
			return fmt.Errorf("failed to create S3 presigner: %w", err)
		}
		presigner = s3Presigner
	} else {
		log.Warn().Msg("No S3 bucket configured, image upload URLs are disabled")
	}

	// Initialize services
	now := services.Clock(func() time.Time { return time.Now().UTC() })
	router := handlers.NewRouter(handlers.Services{
		Users:    services.NewUserService(store.Users, cfg.JWT.Secret, cfg.JWT.Expiry),
		Spots:    services.NewSpotService(store, spotCache, cfg.Redis.TTL, now),
		Bookings: services.NewBookingService(store, now),
		Reviews:  services.NewReviewService(store, spotCache, now),
		Images:   services.NewImageService(store, presigner, cfg.AWS.PresignExpiry),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	select {
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
	return nil
}
