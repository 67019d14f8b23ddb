package bridge

import (
	"net/http"
	"strings"

	"github.com/hammer-live/event-bridge/pkg/peers"
)

const subprotocolHeader = "Sec-Websocket-Protocol"

// ParseSubprotocol splits a "role,password" handshake header. Both tokens are
// trimmed; missing tokens are empty and anything past the second comma is
// ignored.
func ParseSubprotocol(header string) (role, password string) {
	if header == "" {
		return "", ""
	}
	parts := strings.Split(header, ",")
	role = strings.TrimSpace(parts[0])
	if len(parts) > 1 {
		password = strings.TrimSpace(parts[1])
	}
	return role, password
}

// handshakeHeader joins repeated subprotocol header lines the way a single
// comma separated line would read.
func handshakeHeader(r *http.Request) string {
	return strings.Join(r.Header.Values(subprotocolHeader), ",")
}

type handshake struct {
	role      peers.Role
	roleToken string
	password  string
}

func parseHandshake(header string) handshake {
	roleToken, password := ParseSubprotocol(header)
	return handshake{
		role:      peers.RoleFromToken(roleToken),
		roleToken: roleToken,
		password:  password,
	}
}

// authorized reports whether password passes the configured token. An empty
// token disables the check.
func authorized(token, password string) bool {
	return token == "" || password == token
}
