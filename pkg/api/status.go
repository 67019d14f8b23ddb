package api

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/hammer-live/event-bridge/pkg/bridge"
)

type StatusSource interface {
	Status() bridge.Status
}

type Status struct {
	Source StatusSource
	Logger *zap.Logger
}

func NewStatus(src StatusSource, logger *zap.Logger) *Status {
	return &Status{Source: src, Logger: logger}
}

// GET /status
func (s *Status) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	st := s.Source.Status()
	s.Logger.Debug("status_request", zap.Int("servers", st.Servers), zap.Int("clients", st.Clients))
	writeJSON(w, http.StatusOK, st)
}

// GET /healthz
func Health(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
