package bridge

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/hammer-live/event-bridge/pkg/metrics"
)

// conn owns one upgraded socket. Reads happen on the handler goroutine,
// writes on writePump; Send only queues.
type conn struct {
	ws     *websocket.Conn
	out    chan []byte
	done   chan struct{}
	once   sync.Once
	cfg    Config
	logger *zap.Logger
}

func newConn(ws *websocket.Conn, cfg Config, logger *zap.Logger) *conn {
	ws.EnableWriteCompression(true)
	if err := ws.SetCompressionLevel(compressionLevel); err != nil {
		logger.Debug("ws_compression_level_error", zap.Error(err))
	}
	return &conn{
		ws:     ws,
		out:    make(chan []byte, cfg.SendBuffer),
		done:   make(chan struct{}),
		cfg:    cfg,
		logger: logger,
	}
}

func (c *conn) Send(data []byte) error {
	if !c.Open() {
		return errConnClosed
	}
	select {
	case c.out <- data:
		return nil
	default:
		return errSendBufferFull
	}
}

func (c *conn) Open() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *conn) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("ws_marshal_error", zap.Error(err))
		return
	}
	if err := c.Send(data); err != nil {
		c.logger.Warn("ws_send_error", zap.Error(err))
	}
}

func (c *conn) shutdown() bool {
	stopped := false
	c.once.Do(func() {
		close(c.done)
		stopped = true
	})
	return stopped
}

func (c *conn) close() {
	c.shutdown()
	_ = c.ws.Close()
}

// closeWith sends a close frame, waiting no later than deadline for the
// write lock, and gives the peer closeGrace to answer before the socket is
// torn down.
func (c *conn) closeWith(code int, text string, deadline time.Time) {
	if !c.shutdown() {
		return
	}
	msg := websocket.FormatCloseMessage(code, text)
	_ = c.ws.WriteControl(websocket.CloseMessage, msg, deadline)
	time.AfterFunc(closeGrace, func() { _ = c.ws.Close() })
}

func (c *conn) writePump() {
	var tick <-chan time.Time
	if c.cfg.PingInterval > 0 {
		t := time.NewTicker(c.cfg.PingInterval)
		defer t.Stop()
		tick = t.C
	}
	for {
		select {
		case <-c.done:
			return
		case msg := <-c.out:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteTimeout))
			if err := c.ws.WriteMessage(websocket.TextMessage, msg); err != nil {
				c.logger.Warn("ws_write_error", zap.Error(err))
				metrics.PeerErrors.WithLabelValues("write").Inc()
				c.close()
				return
			}
		case <-tick:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.cfg.WriteTimeout)); err != nil {
				c.logger.Warn("ws_ping_error", zap.Error(err))
				metrics.PeerErrors.WithLabelValues("ping").Inc()
				c.close()
				return
			}
		}
	}
}

// readLoop hands every frame to handle in arrival order and returns the
// error that ended the connection.
func (c *conn) readLoop(handle func([]byte)) error {
	if c.cfg.MaxMessageSize > 0 {
		c.ws.SetReadLimit(c.cfg.MaxMessageSize)
	}
	if c.cfg.PingInterval > 0 {
		wait := 2 * c.cfg.PingInterval
		_ = c.ws.SetReadDeadline(time.Now().Add(wait))
		c.ws.SetPongHandler(func(string) error {
			return c.ws.SetReadDeadline(time.Now().Add(wait))
		})
	}
	for {
		_, msg, err := c.ws.ReadMessage()
		if err != nil {
			return err
		}
		handle(msg)
	}
}

// refuse closes a socket that failed authentication with a policy
// violation and waits briefly for the peer's close reply.
func refuse(ws *websocket.Conn, writeTimeout time.Duration) {
	defer ws.Close()
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, unauthorizedText)
	if err := ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeTimeout)); err != nil {
		return
	}
	_ = ws.SetReadDeadline(time.Now().Add(closeGrace))
	for {
		if _, _, err := ws.NextReader(); err != nil {
			return
		}
	}
}
