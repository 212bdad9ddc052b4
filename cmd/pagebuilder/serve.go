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

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pagebuilder/internal/app"
	"pagebuilder/internal/blob"
	"pagebuilder/internal/config"
	"pagebuilder/internal/search"
	"pagebuilder/internal/session"
	"pagebuilder/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, logger, db, dialect, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer db.Close()
	defer func() { _ = logger.Sync() }()

	if err := cfg.Validate(); err != nil {
		return err
	}

	deps := app.Deps{
		Store:  store.NewSQLStore(db, dialect),
		Logger: logger,
	}

	if strings.TrimSpace(cfg.RedisURL) != "" {
		logger.Info("using redis for session revocation")
		redisStore, err := session.NewRedisStore(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer redisStore.Close()
		deps.Revoker = redisStore
	}

	deps.Blobs, err = openBlobs(ctx, cfg)
	if err != nil {
		return err
	}

	if strings.TrimSpace(cfg.MeiliURL) != "" {
		deps.Meili = search.NewMeili(cfg.MeiliURL, cfg.MeiliMasterKey, logger)
	}

	service, err := app.New(cfg, deps)
	if err != nil {
		return err
	}
	defer service.Close()
	go service.ReindexSearch(ctx)

	httpServer := app.NewHTTPServer(service, cfg.CORSOrigin)
	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpServer.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("pagebuilder listening", zap.String("addr", cfg.Addr), zap.String("database", string(dialect)))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}

func openBlobs(ctx context.Context, cfg config.Config) (blob.Store, error) {
	if cfg.S3.Enabled() {
		return blob.NewS3Store(ctx, blob.S3Config{
			Endpoint:   cfg.S3.Endpoint,
			AccessKey:  cfg.S3.AccessKey,
			SecretKey:  cfg.S3.SecretKey,
			Bucket:     cfg.S3.Bucket,
			UseSSL:     cfg.S3.UseSSL,
			PublicBase: cfg.S3.PublicBase,
		})
	}
	return blob.NewLocalStore(cfg.UploadDir, cfg.UploadPublicBase)
}
