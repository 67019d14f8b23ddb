// Package bridge implements the local event relay: one WebSocket listener
// where the trusted chat dashboard ("server" role) fans messages out to every
// other connected peer, and ordinary clients are acknowledged but never
// relayed.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/net/netutil"

	"github.com/hammer-live/event-bridge/pkg/metrics"
	"github.com/hammer-live/event-bridge/pkg/peers"
	"github.com/hammer-live/event-bridge/pkg/secrets"
)

type route struct {
	pattern string
	handler http.Handler
}

// Relay is safe for concurrent use. The zero value is not usable; call New.
type Relay struct {
	logger   *zap.Logger
	instance string
	nextID   atomic.Uint64

	mu      sync.Mutex
	routes  []route
	current *session
}

// Status is a point-in-time view of the relay.
type Status struct {
	Instance string       `json:"instance"`
	Running  bool         `json:"running"`
	Address  string       `json:"address,omitempty"`
	Peers    []peers.Peer `json:"peers"`
	Servers  int          `json:"servers"`
	Clients  int          `json:"clients"`
}

// New returns a stopped relay. A nil logger discards logs.
func New(logger *zap.Logger) *Relay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Relay{
		logger:   logger,
		instance: uuid.NewString(),
	}
}

// Handle registers a plain HTTP route served next to the WebSocket endpoint.
// Routes take effect on the next Start.
func (r *Relay) Handle(pattern string, h http.Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route{pattern: pattern, handler: h})
}

// Start binds host:port and begins accepting peers. A bind failure is
// returned as *BindError and leaves the relay stopped; a second Start while
// running returns ErrAlreadyStarted.
func (r *Relay) Start(ctx context.Context, cfg Config) error {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current != nil {
		r.logger.Warn("bridge_already_started", zap.String("addr", r.current.ln.Addr().String()))
		return ErrAlreadyStarted
	}

	addr := cfg.addr()
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		r.logger.Error("bridge_bind_failed", zap.String("addr", addr), zap.Error(err))
		return &BindError{Addr: addr, Err: err}
	}
	if cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, cfg.MaxConnections)
	}

	s := &session{
		relay:    r,
		cfg:      cfg,
		logger:   r.logger,
		ln:       ln,
		registry: peers.NewRegistry(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:    readBufferSize,
			WriteBufferSize:   writeBufferSize,
			EnableCompression: true,
			CheckOrigin:       func(*http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	for _, rt := range r.routes {
		mux.Handle(rt.pattern, rt.handler)
	}
	mux.Handle("/", s)
	s.srv = &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("bridge_serve_error", zap.Error(err))
		}
	}()

	r.current = s
	s.updateGauge()
	r.logger.Info("bridge_started",
		zap.String("instance", r.instance),
		zap.String("addr", ln.Addr().String()),
		zap.Bool("auth", cfg.AuthToken != ""),
		zap.Bool("debug", cfg.Debug),
	)
	return nil
}

// Stop closes every peer, empties the registry and closes the listener. It is
// a no-op on a relay that is not running. Close frames are sent concurrently
// and bounded by ctx; peers still open when ctx expires are closed without
// one and the wrapped ctx error is returned.
func (r *Relay) Stop(ctx context.Context) error {
	r.mu.Lock()
	s := r.current
	r.current = nil
	r.mu.Unlock()
	if s == nil {
		return nil
	}

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	deadline := time.Now().Add(closeGrace)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	senders := s.registry.Clear()
	conns := make([]*conn, 0, len(senders))
	for _, snd := range senders {
		if c, ok := snd.(*conn); ok {
			conns = append(conns, c)
			// a peer that stopped reading holds its write lock until deadline
			go c.closeWith(websocket.CloseGoingAway, "relay stopped", deadline)
		}
	}
	s.updateGauge()

	err := s.srv.Shutdown(ctx)

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-ctx.Done():
		for _, c := range conns {
			_ = c.ws.Close()
		}
		if err == nil {
			err = ctx.Err()
		}
	}

	r.logger.Info("bridge_stopped", zap.String("instance", r.instance), zap.Int("peers_closed", len(senders)))
	if err != nil {
		return fmt.Errorf("bridge: stop: %w", err)
	}
	return nil
}

// Running reports whether the relay is between Start and Stop.
func (r *Relay) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current != nil
}

// Addr returns the bound listener address, or nil when stopped.
func (r *Relay) Addr() net.Addr {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == nil {
		return nil
	}
	return r.current.ln.Addr()
}

// Status reports the connected peers of the current run.
func (r *Relay) Status() Status {
	r.mu.Lock()
	s := r.current
	r.mu.Unlock()

	st := Status{Instance: r.instance, Peers: []peers.Peer{}}
	if s == nil {
		return st
	}
	st.Running = true
	st.Address = s.ln.Addr().String()
	st.Peers = s.registry.List()
	st.Servers, st.Clients = s.registry.CountByRole()
	return st
}

func (r *Relay) allocateID(role peers.Role) string {
	return fmt.Sprintf("%s-%d", role, r.nextID.Add(1))
}

// session is one Start..Stop lifetime with its own registry.
type session struct {
	relay    *Relay
	cfg      Config
	logger   *zap.Logger
	ln       net.Listener
	srv      *http.Server
	upgrader websocket.Upgrader
	registry *peers.Registry

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

func (s *session) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	header := handshakeHeader(req)
	hs := parseHandshake(header)

	var respHeader http.Header
	if hs.roleToken != "" {
		respHeader = http.Header{}
		respHeader.Set(subprotocolHeader, hs.roleToken)
	}

	ws, err := s.upgrader.Upgrade(w, req, respHeader)
	if err != nil {
		s.logger.Warn("ws_upgrade_failed", zap.String("remote", req.RemoteAddr), zap.Error(err))
		metrics.PeerErrors.WithLabelValues("upgrade").Inc()
		return
	}

	if !authorized(s.cfg.AuthToken, hs.password) {
		s.logger.Warn("auth_failed",
			zap.String("role", hs.role.String()),
			zap.String("remote", req.RemoteAddr),
			zap.String("subprotocol", secrets.RedactSubprotocol(header)),
		)
		metrics.AuthFailures.WithLabelValues(hs.role.String()).Inc()
		refuse(ws, s.cfg.WriteTimeout)
		return
	}

	p := peers.Peer{
		ID:          s.relay.allocateID(hs.role),
		Role:        hs.role,
		Remote:      req.RemoteAddr,
		ConnectedAt: time.Now(),
	}
	logger := s.logger.With(zap.String("peer_id", p.ID))
	c := newConn(ws, s.cfg, logger)

	// queued ahead of registration so no broadcast can overtake it
	c.sendJSON(established{
		Type:     typeEstablished,
		ClientID: p.ID,
		IsServer: p.Role.IsServer(),
		Message:  welcomeText,
	})

	if !s.register(c, p) {
		c.closeWith(websocket.CloseGoingAway, "relay stopped", time.Now().Add(s.cfg.WriteTimeout))
		return
	}
	defer s.wg.Done()
	defer s.unregister(c)

	go func() {
		defer s.wg.Done()
		c.writePump()
	}()

	err = c.readLoop(func(msg []byte) { s.handleMessage(c, p, msg) })
	if c.Open() {
		logReadEnd(logger, err)
	}
	c.close()
}

func logReadEnd(logger *zap.Logger, err error) {
	var ne net.Error
	switch {
	case errors.Is(err, websocket.ErrReadLimit):
		logger.Warn("ws_message_too_large")
		metrics.PeerErrors.WithLabelValues("read_limit").Inc()
	case errors.As(err, &ne) && ne.Timeout():
		logger.Warn("ws_heartbeat_timeout")
		metrics.PeerErrors.WithLabelValues("heartbeat").Inc()
	case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived):
		logger.Warn("ws_read_error", zap.Error(err))
		metrics.PeerErrors.WithLabelValues("read").Inc()
	}
}

func (s *session) register(c *conn, p peers.Peer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	if err := s.registry.Add(c, p); err != nil {
		s.logger.Error("peer_register_failed", zap.String("peer_id", p.ID), zap.Error(err))
		return false
	}
	s.wg.Add(2)

	metrics.Connections.WithLabelValues(p.Role.String()).Inc()
	s.updateGauge()
	s.logger.Info("peer_connected",
		zap.String("peer_id", p.ID),
		zap.String("role", p.Role.String()),
		zap.String("remote", p.Remote),
	)
	return true
}

func (s *session) unregister(c *conn) {
	p, ok := s.registry.Remove(c)
	if !ok {
		return
	}
	s.updateGauge()
	s.logger.Info("peer_disconnected", zap.String("peer_id", p.ID), zap.String("role", p.Role.String()))
}

func (s *session) updateGauge() {
	servers, clients := s.registry.CountByRole()
	metrics.Peers.WithLabelValues(peers.RoleServer.String()).Set(float64(servers))
	metrics.Peers.WithLabelValues(peers.RoleClient.String()).Set(float64(clients))
}

func (s *session) handleMessage(c *conn, p peers.Peer, raw []byte) {
	payload, kind, err := buildEnvelope(raw, p.ID, time.Now())
	metrics.Messages.WithLabelValues(p.Role.String(), kind).Inc()

	fields := []zap.Field{zap.String("peer_id", p.ID), zap.String("kind", kind)}
	if t := messageType(raw); t != "" {
		fields = append(fields, zap.String("type", t))
	}
	if s.cfg.Debug {
		s.logger.Info("message_received", append(fields, zap.ByteString("payload", logSafe(raw)))...)
	} else {
		s.logger.Debug("message_received", fields...)
	}

	if !p.Role.IsServer() {
		c.sendJSON(clientMessageReceived{
			Type:      typeClientMessageReceived,
			Message:   notRelayedText,
			Timestamp: time.Now().UnixMilli(),
		})
		return
	}
	if err != nil {
		s.logger.Warn("envelope_build_failed", zap.String("peer_id", p.ID), zap.Error(err))
		return
	}

	eligible, failed := s.registry.Broadcast(c, payload, func(to peers.Peer) {
		metrics.Delivered.Inc()
		if s.cfg.Debug {
			s.logger.Info("broadcast_sent", zap.String("from", p.ID), zap.String("to", to.ID))
		}
	})
	for id, ferr := range failed {
		metrics.Dropped.Inc()
		s.logger.Warn("broadcast_send_failed", zap.String("from", p.ID), zap.String("to", id), zap.Error(ferr))
	}

	c.sendJSON(broadcastSuccess{
		Type:        typeBroadcastSuccess,
		ClientCount: eligible,
		Timestamp:   time.Now().UnixMilli(),
	})
}
