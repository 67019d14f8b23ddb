package bridge

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

const (
	defaultHost         = "localhost"
	defaultSendBuffer   = 256
	defaultWriteTimeout = 10 * time.Second

	// per-message deflate bounds
	compressionLevel = 3
	readBufferSize   = 10 * 1024
	writeBufferSize  = 1024

	closeGrace = time.Second
)

// Config is passed to Relay.Start. Only Port, Host, AuthToken and Debug are
// required by the embedding application; the rest bound resources per peer.
type Config struct {
	Host      string
	Port      int
	AuthToken string
	Debug     bool

	MaxConnections int           // 0: unlimited
	MaxMessageSize int64         // bytes, 0: unlimited
	SendBuffer     int           // queued outbound frames per peer
	PingInterval   time.Duration // 0: no heartbeat
	WriteTimeout   time.Duration
}

func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = defaultHost
	}
	if c.SendBuffer <= 0 {
		c.SendBuffer = defaultSendBuffer
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = defaultWriteTimeout
	}
	return c
}

func (c Config) validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	}
	if c.MaxConnections < 0 || c.MaxMessageSize < 0 || c.PingInterval < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidConfig)
	}
	return nil
}

func (c Config) addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
