// Command memoara-mcp serves reminders, quests and alarms over MCP on stdio.
//
// Usage:
//
//	./memoara-mcp                  # Start MCP server (stdio)
//	./memoara-mcp -config path     # Use another config file
//
// Configuration is read from ~/.memoara/config.yaml and MEMOARA_ environment
// variables, e.g. MEMOARA_STORAGE__PATH or MEMOARA_SYNC__BACKEND.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/app"
	"github.com/sandeepkv93/memoara/internal/config"
	"github.com/sandeepkv93/memoara/internal/logging"
	"github.com/sandeepkv93/memoara/internal/mcpserver"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "Path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Log, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if cfg.Auth.Token != "" {
		if _, err := a.SignIn(ctx, cfg.Auth.Token); err != nil {
			log.Warn("sign in failed", zap.Error(err))
		}
	}

	go a.Run(ctx, func(n app.Notice) {
		log.Info("notice", zap.String("kind", string(n.Kind)), zap.String("title", n.Title))
	})

	s := mcpserver.NewServer(a)
	if err := server.ServeStdio(s.MCPServer()); err != nil {
		log.Error("server error", zap.Error(err))
	}
}
