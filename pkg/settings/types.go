package settings

import "time"

// Settings mirrors bridge.Config in YAML form. Zero fields mean "not set".
type Settings struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	AuthToken      string        `yaml:"authToken"`
	Debug          *bool         `yaml:"debug"`
	MaxConnections int           `yaml:"maxConnections"`
	MaxMessageSize int64         `yaml:"maxMessageSize"`
	SendBuffer     int           `yaml:"sendBuffer"`
	PingInterval   time.Duration `yaml:"pingInterval"`
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
}
