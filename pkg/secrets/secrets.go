package secrets

import (
	"os"
	"strings"
	"sync"
)

const hidden = "[HIDDEN]"

var (
	once          sync.Once
	sensitiveEnvs []string

	envNameSensitivePatterns = []string{
		"API_KEY", "TOKEN", "SECRET", "PASSWORD", "ACCESS_KEY", "PRIVATE_KEY",
	}
)

func initSensitiveEnvs() {
	for _, kv := range os.Environ() {
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		name, val := parts[0], parts[1]
		up := strings.ToUpper(name)
		for _, pat := range envNameSensitivePatterns {
			if strings.Contains(up, pat) && val != "" {
				sensitiveEnvs = append(sensitiveEnvs, val)
				break
			}
		}
	}
}

// RedactString hides the values of sensitive environment variables
// (BRIDGE_AUTH_TOKEN and friends) found in s.
func RedactString(s string) string {
	once.Do(initSensitiveEnvs)
	for _, val := range sensitiveEnvs {
		if val == "" {
			continue
		}
		s = strings.ReplaceAll(s, val, hidden)
	}
	return s
}

// RedactSubprotocol keeps the role token of a "role,password" handshake
// header and hides everything after the first comma.
func RedactSubprotocol(header string) string {
	role, rest, found := strings.Cut(header, ",")
	if !found {
		return RedactString(header)
	}
	if strings.TrimSpace(rest) == "" {
		return RedactString(role) + ","
	}
	return RedactString(role) + "," + hidden
}
