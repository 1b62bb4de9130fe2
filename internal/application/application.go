package application

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/capsule-manager/capsule-manager/internal/api"
	"github.com/capsule-manager/capsule-manager/internal/config"
	"github.com/capsule-manager/capsule-manager/internal/identity"
	"github.com/capsule-manager/capsule-manager/internal/storage"
	"github.com/capsule-manager/capsule-manager/internal/tlsconfig"
)

const (
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 15 * time.Second
	idleTimeout       = 60 * time.Second
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	storage  storage.Storage
	identity *identity.Identity
	handler  *api.Handler
	router   http.Handler
	logger   *zap.Logger
	server   *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	id, err := identity.Load(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	tlsCfg, err := tlsconfig.New(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to build TLS configuration: %w", err)
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	handler := api.NewHandler(store, id,
		api.ServiceInfo{Mode: cfg.Mode, Scheme: id.Scheme},
		api.WithLogger(logger),
	)
	router := api.NewRouter(handler, logger)

	server := NewServer(cfg, router)
	server.TLSConfig = tlsCfg

	return &App{
		storage:  store,
		identity: id,
		handler:  handler,
		router:   router,
		logger:   logger,
		server:   server,
	}, nil
}

// NewServer creates an HTTP server listening on the configured port.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
}

// Start binds the listening address and serves in a goroutine. Bind errors
// are returned; the server speaks TLS whenever a TLS configuration was built.
func (a *App) Start() error {
	ln, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.server.Addr, err)
	}

	a.logger.Info("server listening",
		zap.String("addr", ln.Addr().String()),
		zap.Bool("tls", a.server.TLSConfig != nil),
	)
	go func() {
		if err := a.serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("server error", zap.Error(err))
		}
	}()
	return nil
}

func (a *App) serve(ln net.Listener) error {
	if a.server.TLSConfig != nil {
		return a.server.ServeTLS(ln, "", "")
	}
	return a.server.Serve(ln)
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Close releases the storage backend. Call it after the server has shut down.
func (a *App) Close() error {
	if err := a.storage.Close(); err != nil {
		return fmt.Errorf("failed to close storage: %w", err)
	}
	return nil
}
