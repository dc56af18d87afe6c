package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/sandeepkv93/memoara/internal/app"
	"github.com/sandeepkv93/memoara/internal/config"
	"github.com/sandeepkv93/memoara/internal/logging"
	"github.com/sandeepkv93/memoara/internal/update"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "Path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "memoara failed: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// The terminal belongs to the UI, so only the file core logs.
	cfg.Log.Console = false
	log, err := logging.New(cfg.Log, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.Auth.Token != "" {
		res, err := a.SignIn(ctx, cfg.Auth.Token)
		if err != nil {
			log.Warn("sign in failed", zap.Error(err))
		} else if res.Message != "" {
			log.Info("sign in sync", zap.Bool("success", res.Success), zap.String("message", res.Message))
		}
	}

	go a.Monitor.Run(ctx)

	program := tea.NewProgram(update.NewModel(ctx, a, nil), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
