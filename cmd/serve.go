package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"

	"github.com/krishkalaria12/recipe-serve/auth"
	"github.com/krishkalaria12/recipe-serve/config"
	"github.com/krishkalaria12/recipe-serve/database"
	handler "github.com/krishkalaria12/recipe-serve/handlers"
	"github.com/krishkalaria12/recipe-serve/logging"
	"github.com/krishkalaria12/recipe-serve/mailer"
	"github.com/krishkalaria12/recipe-serve/recipe"
	"github.com/krishkalaria12/recipe-serve/router"
	"github.com/krishkalaria12/recipe-serve/staging"
	"github.com/krishkalaria12/recipe-serve/storage"
	"github.com/krishkalaria12/recipe-serve/store"
)

const (
	tokenDuration   = 24 * time.Hour
	cookieDuration  = 7 * 24 * time.Hour
	bodyLimit       = 64 << 20
	retryDelay      = 500 * time.Millisecond
	shutdownTimeout = 10 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return err
	}
	logger := logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			logger.Error("error closing the database connection", "error", err)
		}
	}()
	if err := database.Migrate(db); err != nil {
		return err
	}

	assets, closeAssets, err := newAssetStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeAssets()

	area, err := staging.NewArea(cfg.StagingDir, cfg.MaxImageDimension, cfg.MaxImagePixels)
	if err != nil {
		return err
	}

	tokens, err := auth.NewTokenService(cfg.JWTSecret, cfg.PublicURL, tokenDuration)
	if err != nil {
		return err
	}

	st := store.NewGormStore(db)
	mail := mailer.New(mailer.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	}, cfg.PublicURL, logger)
	if !cfg.SMTPEnabled() {
		logger.Warn("SMTP is not configured, verification links are only logged")
	}

	recipes := recipe.NewService(st, area, assets, logger, cfg.UploadConcurrency)
	app := fiber.New(fiber.Config{BodyLimit: bodyLimit})
	router.SetupRoutes(app, router.Handlers{
		Auth:    handler.NewAuthHandler(auth.NewAccounts(st, tokens, mail, logger), cookieDuration, logger),
		Users:   handler.NewUserHandler(st, logger),
		Recipes: handler.NewRecipeHandler(recipes, cfg.MaxImagesPerRecipe, logger),
	}, tokens)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server is listening", "port", cfg.Port, "asset_backend", cfg.AssetBackend)
		errCh <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return app.ShutdownWithContext(shutdownCtx)
}

func newAssetStore(ctx context.Context, cfg config.Config) (storage.AssetStore, func(), error) {
	var (
		backend storage.AssetStore
		closeFn = func() {}
	)

	switch cfg.AssetBackend {
	case config.BackendGCS:
		gcs, err := storage.NewGCSStore(ctx, cfg.GCSBucketName, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		backend = gcs
		closeFn = func() {
			if err := gcs.Close(); err != nil {
				slog.Error("error closing the storage client", "error", err)
			}
		}
	case config.BackendMinio:
		minioStore, err := storage.NewMinioStore(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey,
			cfg.MinioBucket, cfg.MinioUseSSL, cfg.MinioPublicURL)
		if err != nil {
			return nil, nil, err
		}
		backend = minioStore
	default:
		return nil, nil, fmt.Errorf("unknown asset backend %q", cfg.AssetBackend)
	}

	return storage.WithRetry(backend, cfg.UploadRetries, retryDelay, cfg.UploadTimeout), closeFn, nil
}
