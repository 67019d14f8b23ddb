package peers

import (
	"sync"
	"time"
)

// ServerRoleToken is the first subprotocol token that marks the trusted
// chat-dashboard connection.
const ServerRoleToken = "laplace-event-bridge-role-server"

type Role int

const (
	RoleClient Role = iota
	RoleServer
)

// RoleFromToken maps the handshake role token to a Role. Only an exact match
// selects the server role.
func RoleFromToken(token string) Role {
	if token == ServerRoleToken {
		return RoleServer
	}
	return RoleClient
}

// String is also the id prefix ("server-3", "client-4").
func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

func (r Role) IsServer() bool { return r == RoleServer }

func (r Role) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *Role) UnmarshalText(b []byte) error {
	if string(b) == RoleServer.String() {
		*r = RoleServer
	} else {
		*r = RoleClient
	}
	return nil
}

type Peer struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Remote      string    `json:"remote"`
	ConnectedAt time.Time `json:"connectedAt"`
}

// Sender is the connection handle a Peer is registered under.
type Sender interface {
	Send(data []byte) error
	Open() bool
}

// Registry holds the authenticated, open connections of one relay.
type Registry struct {
	mu    sync.RWMutex
	peers map[Sender]Peer
}
