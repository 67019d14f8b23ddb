package main

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/hammer-live/event-bridge/pkg/bridge"
	"github.com/hammer-live/event-bridge/pkg/settings"
)

const (
	defaultPort           = 9696
	defaultMaxConnections = 64
	defaultMaxMessageSize = 1 << 20
)

// loadDotEnv fills the environment from ./.env when the file exists.
func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// loadConfig layers defaults, the optional BRIDGE_CONFIG file and BRIDGE_*
// environment variables, in that order.
func loadConfig(logger *zap.Logger) (bridge.Config, error) {
	cfg := bridge.Config{
		Host:           "localhost",
		Port:           defaultPort,
		MaxConnections: defaultMaxConnections,
		MaxMessageSize: defaultMaxMessageSize,
	}

	if path := getEnv("BRIDGE_CONFIG", ""); path != "" {
		s, err := settings.Load(path, logger)
		if err != nil {
			return cfg, err
		}
		applySettings(&cfg, s)
		logger.Info("settings_loaded", zap.String("file", path))
	}

	cfg.Host = getEnv("BRIDGE_HOST", cfg.Host)
	cfg.Port = getEnvInt(logger, "BRIDGE_PORT", cfg.Port)
	cfg.AuthToken = getEnv("BRIDGE_AUTH_TOKEN", cfg.AuthToken)
	cfg.Debug = getEnvBool(logger, "BRIDGE_DEBUG", cfg.Debug)
	cfg.MaxConnections = getEnvInt(logger, "BRIDGE_MAX_CONNECTIONS", cfg.MaxConnections)
	cfg.MaxMessageSize = int64(getEnvInt(logger, "BRIDGE_MAX_MESSAGE_SIZE", int(cfg.MaxMessageSize)))
	cfg.PingInterval = getEnvDuration(logger, "BRIDGE_PING_INTERVAL", cfg.PingInterval)
	return cfg, nil
}

func applySettings(cfg *bridge.Config, s settings.Settings) {
	if s.Host != "" {
		cfg.Host = s.Host
	}
	if s.Port != 0 {
		cfg.Port = s.Port
	}
	if s.AuthToken != "" {
		cfg.AuthToken = s.AuthToken
	}
	if s.Debug != nil {
		cfg.Debug = *s.Debug
	}
	if s.MaxConnections != 0 {
		cfg.MaxConnections = s.MaxConnections
	}
	if s.MaxMessageSize != 0 {
		cfg.MaxMessageSize = s.MaxMessageSize
	}
	if s.SendBuffer != 0 {
		cfg.SendBuffer = s.SendBuffer
	}
	if s.PingInterval != 0 {
		cfg.PingInterval = s.PingInterval
	}
	if s.WriteTimeout != 0 {
		cfg.WriteTimeout = s.WriteTimeout
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(logger *zap.Logger, key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logger.Warn("invalid env value", zap.String("var", key), zap.Error(err))
		return def
	}
	return n
}

func getEnvBool(logger *zap.Logger, key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		logger.Warn("invalid env value", zap.String("var", key), zap.Error(err))
		return def
	}
	return b
}

func getEnvDuration(logger *zap.Logger, key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logger.Warn("invalid env value", zap.String("var", key), zap.Error(err))
		return def
	}
	return d
}
