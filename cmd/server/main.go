package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/shopmindai/profitshare/internal/config"
	"github.com/shopmindai/profitshare/internal/logger"
	"github.com/shopmindai/profitshare/internal/server"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "server:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.ParseServerConfig(args)
	if err != nil {
		return err
	}

	log, err := logger.Initialize(cfg.Upstream.LogLevel, "profitshare-server")
	if err != nil {
		return err
	}
	defer log.Sync()

	log.Info("starting product proxy",
		zap.String("addr", cfg.ServerAddr),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Bool("database", cfg.DatabaseDSN != ""),
	)

	ctx := context.Background()
	app, err := server.NewApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Close(); err != nil {
			log.Error("failed to release resources", zap.Error(err))
		}
	}()

	return app.Run(ctx)
}
