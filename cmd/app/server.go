package main

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hammer-live/event-bridge/pkg/bridge"
)

const shutdownTimeout = 5 * time.Second

// runRelay blocks until ctx is cancelled, then stops the relay.
func runRelay(ctx context.Context, relay *bridge.Relay, cfg bridge.Config, logger *zap.Logger) error {
	if err := relay.Start(ctx, cfg); err != nil {
		return err
	}
	<-ctx.Done()
	logger.Info("shutdown_requested")

	stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return relay.Stop(stopCtx)
}
