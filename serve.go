package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/boleto/config"
	"github.com/ByLCY/boleto/imagestore"
	"github.com/ByLCY/boleto/logger"
	"github.com/ByLCY/boleto/server"
	"github.com/ByLCY/boleto/storage"
)

func runServer() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	images, err := newImageStore(ctx, cfg)
	if err != nil {
		return err
	}
	if closer, ok := images.(io.Closer); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				log.Warn("close image store", zap.Error(err))
			}
		}()
	}
	archive, err := newArchive(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	var tpl []byte
	if cfg.Template != "" {
		if tpl, err = os.ReadFile(cfg.Template); err != nil {
			return fmt.Errorf("read template: %w", err)
		}
	}

	srv, err := server.New(server.Options{
		Template:          tpl,
		CharacterEncoding: cfg.HTML.CharacterEncoding,
		ZoomRatio:         cfg.HTML.ZoomRatio,
		ImagesURI:         cfg.HTML.ImagesURI,
		Minify:            cfg.HTML.Minify,
		ImageTTL:          cfg.Images.TTL,
		Images:            images,
		Archive:           archive,
		Logger:            log,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown)
	defer cancel()
	log.Info("shutting down")
	return httpServer.Shutdown(shutdownCtx)
}

func newImageStore(ctx context.Context, cfg config.Config) (imagestore.Store, error) {
	switch cfg.Images.Store {
	case "redis":
		return imagestore.NewRedisStore(ctx, imagestore.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	case "", "memory":
		store := imagestore.NewMemoryStore()
		go store.Run(ctx, time.Minute)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown image store %q", cfg.Images.Store)
	}
}

func newArchive(ctx context.Context, cfg config.StorageConfig) (storage.Storage, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "local":
		return storage.NewLocalStorage(cfg.LocalDir)
	case "s3":
		return storage.NewS3Storage(ctx, storage.S3Config{
			Bucket:         cfg.S3Bucket,
			Region:         cfg.S3Region,
			Prefix:         cfg.S3Prefix,
			AccessKeyID:    cfg.S3AccessKeyID,
			SecretKey:      cfg.S3SecretKey,
			Endpoint:       cfg.S3Endpoint,
			ForcePathStyle: cfg.S3ForcePathStyle,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
