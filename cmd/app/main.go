package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/hammer-live/event-bridge/pkg/bridge"
)

func main() {
	PrintVersion()

	dotenvErr := loadDotEnv()
	logger := initLogger(debugFromEnv())
	defer logger.Sync()
	if dotenvErr != nil {
		logger.Warn("dotenv_load_error", zap.Error(dotenvErr))
	}

	cfg, err := loadConfig(logger)
	if err != nil {
		logger.Fatal("config_load_error", zap.Error(err))
	}

	relay := bridge.New(logger)
	registerRoutes(relay, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := runRelay(ctx, relay, cfg, logger); err != nil {
		logger.Fatal("bridge_down", zap.Error(err))
	}
}
