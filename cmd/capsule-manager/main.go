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

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/capsule-manager/capsule-manager/internal/application"
	"github.com/capsule-manager/capsule-manager/internal/config"
	"github.com/capsule-manager/capsule-manager/internal/logging"
)

const shutdownGracePeriod = 10 * time.Second

var signalNotify = signal.Notify

// service is the part of application.App that main drives.
type service interface {
	Start() error
	Server() *http.Server
	Close() error
}

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		kingpin.Fatalf("%v", err)
	}

	if err := run(cfg); err != nil {
		kingpin.Fatalf("%v", err)
	}
}

func run(cfg config.Config) error {
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	logEffectiveConfig(logger, cfg)

	app, err := application.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to initialize application", zap.Error(err))
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := serve(app, shutdownGracePeriod, logger); err != nil {
		logger.Error("server stopped with error", zap.Error(err))
		return err
	}
	return nil
}

// serve starts svc, blocks until a shutdown signal arrives and then closes
// svc once the server has drained. svc is closed on every path.
func serve(svc service, timeout time.Duration, logger *zap.Logger) error {
	if err := svc.Start(); err != nil {
		return errors.Join(fmt.Errorf("failed to start server: %w", err), svc.Close())
	}

	shutdown(svc.Server(), timeout, logger)

	if err := svc.Close(); err != nil {
		return fmt.Errorf("failed to close application: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func logEffectiveConfig(logger *zap.Logger, cfg config.Config) {
	safe := cfg.Redacted()
	logger.Info("configuration resolved",
		zap.String("config_path", safe.ConfigPath),
		zap.Int("port", safe.Port),
		zap.String("scheme", safe.Scheme),
		zap.String("mode", safe.Mode),
		zap.Bool("enable_inject_cm_key", safe.EnableInjectCMKey),
		zap.String("log_level", safe.Log.LogLevel),
		zap.Bool("enable_tls", safe.TLS.EnableTLS),
		zap.String("storage_backend", safe.Storage.StorageBackend),
		zap.String("storage_password", safe.Storage.Password),
	)
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
