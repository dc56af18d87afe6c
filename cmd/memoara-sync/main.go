// Command memoara-sync serves the reminder backup API over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/app"
	"github.com/sandeepkv93/memoara/internal/config"
	"github.com/sandeepkv93/memoara/internal/httpapi"
	"github.com/sandeepkv93/memoara/internal/logging"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "Path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "memoara-sync failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}
	defer log.Sync()

	backend, _, closer, err := app.OpenBackend(cfg, log)
	if err != nil {
		return err
	}
	if backend == nil {
		return fmt.Errorf("sync backend %q cannot serve the sync API", cfg.Sync.Backend)
	}
	if closer != nil {
		defer closer()
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.Options{
		Backend:        backend,
		Authenticator:  app.Authenticator(cfg),
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		RatePerMinute:  cfg.HTTP.RatePerMinute,
		Logger:         log,
	})
	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("sync api listening", zap.String("addr", cfg.HTTP.Addr), zap.String("backend", backend.Name()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info("shutting down sync api")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
