package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	Peers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{Name: "bridge_peers", Help: "Registered peers per role"},
		[]string{"role"},
	)
	Connections = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_connections_total", Help: "Authenticated connections"},
		[]string{"role"},
	)
	AuthFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_auth_failures_total", Help: "Connections refused by the token check"},
		[]string{"role"},
	)
	Messages = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_messages_total", Help: "Inbound messages by sender role and payload kind"},
		[]string{"role", "kind"},
	)
	Delivered = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bridge_broadcast_delivered_total", Help: "Broadcast frames queued to peers"},
	)
	Dropped = prometheus.NewCounter(
		prometheus.CounterOpts{Name: "bridge_broadcast_dropped_total", Help: "Broadcast frames that could not be queued"},
	)
	PeerErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "bridge_peer_errors_total", Help: "Socket errors on established peers"},
		[]string{"op"},
	)
)

var once sync.Once

// Init registers the collectors with the default registry. Safe to call more than once.
func Init() {
	once.Do(func() {
		prometheus.MustRegister(Peers, Connections, AuthFailures, Messages)
		prometheus.MustRegister(Delivered, Dropped, PeerErrors)
	})
}

func Handler() http.Handler {
	return promhttp.Handler()
}
