package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"luminachat/internal/app"
	"luminachat/pkg/config"
	"luminachat/pkg/logger"
	"luminachat/pkg/shutdown"
)

func main() {
	_ = godotenv.Load(".env")

	flags := config.ParseFlags()
	cfg, err := config.Load(flags.Config)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	flags.Resolve(&cfg)

	zl, err := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	a, err := app.New(cfg, zl)
	if err != nil {
		zl.Sugar().Fatalf("startup failed: %v", err)
	}

	ctx, cancel := shutdown.SetupSignalHandler(context.Background(), zl)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		zl.Sugar().Fatalf("server exited: %v", err)
	}
}
