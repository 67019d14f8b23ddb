package main

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/hammer-live/event-bridge/pkg/api"
	"github.com/hammer-live/event-bridge/pkg/bridge"
	"github.com/hammer-live/event-bridge/pkg/docs"
	"github.com/hammer-live/event-bridge/pkg/metrics"
)

// registerRoutes mounts the side routes; every other path upgrades to the relay.
func registerRoutes(relay *bridge.Relay, logger *zap.Logger) {
	relay.Handle("/healthz", http.HandlerFunc(api.Health))
	relay.Handle("/status", api.WithCORS(api.NewStatus(relay, logger)))

	// Swagger
	relay.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/swagger.json"),
		httpSwagger.InstanceName("swagger"),
	))
	relay.Handle("/swagger/swagger.json", http.HandlerFunc(docs.JSONHandler))

	// Metrics
	metrics.Init()
	relay.Handle("/metrics", metrics.Handler())
}
