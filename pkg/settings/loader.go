package settings

import (
	"fmt"
	"os"
	"regexp"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var placeholder = regexp.MustCompile(`\$\{([A-Z0-9_]+)\}`)

// Load reads a YAML settings file, substituting ${VAR} placeholders from the
// environment first.
func Load(path string, logger *zap.Logger) (Settings, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	b = placeholder.ReplaceAllFunc(b, func(m []byte) []byte {
		k := string(placeholder.FindSubmatch(m)[1])
		val := os.Getenv(k)
		if val == "" {
			logger.Warn("env variable is empty during settings expansion",
				zap.String("file", path),
				zap.String("var", k))
		}
		return []byte(val)
	})

	var s Settings
	if err := yaml.Unmarshal(b, &s); err != nil {
		return Settings{}, fmt.Errorf("%s: %w", path, err)
	}
	if s.Port < 0 || s.Port > 65535 {
		return Settings{}, fmt.Errorf("%s: port %d out of range", path, s.Port)
	}
	if s.MaxConnections < 0 || s.MaxMessageSize < 0 || s.SendBuffer < 0 || s.PingInterval < 0 || s.WriteTimeout < 0 {
		return Settings{}, fmt.Errorf("%s: negative limit", path)
	}
	return s, nil
}
