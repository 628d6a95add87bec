package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/dgnsrekt/gex-analyzer/internal/analysis"
	"github.com/dgnsrekt/gex-analyzer/internal/config"
	"github.com/dgnsrekt/gex-analyzer/internal/server"
)

const shutdownTimeout = 30 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer logger.Sync()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logger.Error("failed to load .env", zap.Error(err))
		return 1
	}

	srvCfg, err := config.LoadServerConfig()
	if err != nil {
		logger.Error("failed to load server config", zap.Error(err))
		return 1
	}

	// Analytics parameters come from the same YAML and GEX_* variables as the CLI
	appCfg, err := config.Load(os.Getenv("GEX_CONFIG"))
	if err != nil {
		logger.Error("failed to load analysis config", zap.Error(err))
		return 1
	}

	analyzer, err := analysis.New(appCfg.Analysis(), logger)
	if err != nil {
		logger.Error("failed to create analyzer", zap.Error(err))
		return 1
	}

	logger.Info("configuration loaded",
		zap.String("port", srvCfg.Port),
		zap.Int("cacheSize", srvCfg.CacheSize),
		zap.Float64("rateLimitRPS", srvCfg.RateLimitRPS),
		zap.Int("rateLimitBurst", srvCfg.RateLimitBurst),
		zap.Int64("maxBodyBytes", srvCfg.MaxBodyBytes),
		zap.Any("calculator", appCfg.Calculator),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.NewServer(analyzer, srvCfg, logger)
	if err := serve(ctx, ":"+srvCfg.Port, server.NewRouter(srv, logger), logger); err != nil {
		logger.Error("server error", zap.Error(err))
		return 1
	}

	logger.Info("server stopped")
	return 0
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, addr string, handler http.Handler, logger *zap.Logger) error {
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
