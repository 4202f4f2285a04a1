package bootstrap

import (
	"context"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/propkit/marketing-kit-api/config"
	httpx "github.com/propkit/marketing-kit-api/internal/http"
)

// HTTPServerConfig contains configuration for the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services *ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	if cfg == nil {
		return nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	services := httpx.RouterServices{
		Entitlement: cfg.Services.Entitlement,
		Pipeline:    cfg.Services.Pipeline,
		Webhooks:    cfg.Services.Webhooks,
		Jobs:        cfg.Services.Jobs,
		Provider:    cfg.Services.Provider,
		Store:       cfg.Services.Store,

		UploadRoot: appCfg.Pipeline.WorkDir,
		MaxFiles:   appCfg.Pipeline.MaxUploadFiles,
		MaxBytes:   appCfg.Pipeline.MaxUploadBytes,
		PresignTTL: appCfg.S3.PresignTTL,
		AdminToken: appCfg.Admin.Token,
		Logger:     logger,
	}

	// Order: Recover -> Logging -> Router
	handler := httpx.Recover(logger)(httpx.Logging(logger)(httpx.NewRouter(services)))

	return startServer(logger, handler, appCfg.HTTP.Addr)
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Minute,  // multipart uploads can be large and slow
		WriteTimeout: 10 * time.Minute, // a generation request spans the whole pipeline
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(ctx context.Context, server *http.Server, logger *slog.Logger) error {
	if server == nil {
		return nil
	}

	if logger != nil {
		logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if logger != nil {
		logger.Info("HTTP server stopped")
	}

	return nil
}

// RunWithShutdown starts the HTTP server and blocks until SIGINT/SIGTERM,
// then shuts it down gracefully.
func RunWithShutdown(cfg *HTTPServerConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := StartHTTPServer(cfg)

	<-ctx.Done()
	stop()

	var logger *slog.Logger
	if cfg != nil {
		logger = cfg.Logger
	}
	return ShutdownHTTPServer(context.Background(), server, logger)
}
