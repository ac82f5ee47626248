// Package api exposes the local ingest endpoint: operators and sidecar
// tools POST contributions here, and the handler publishes them onto the
// internal bus for the relay to process.
package api

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"time"

	"github.com/zmlAEQ/godtoss-node/internal/p2p/wire"
	"github.com/zmlAEQ/godtoss-node/pkg/bus"
	"github.com/zmlAEQ/godtoss-node/pkg/lifecycle"
	"github.com/zmlAEQ/godtoss-node/pkg/logger"
	"github.com/zmlAEQ/godtoss-node/pkg/metrics"
	"github.com/zmlAEQ/godtoss-node/pkg/trace"
)

type Service struct {
	addr string
	b    *bus.Bus
	srv  *http.Server
}

func New(addr string, b *bus.Bus) *Service {
	return &Service{addr: addr, b: b}
}

func (s *Service) Name() string { return "ingest-api" }

func (s *Service) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ssc/v1/message", s.handleMessage)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	s.srv = &http.Server{Addr: s.addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.ErrorJ("ingest_api", map[string]any{"result": "serve_error", "err": err.Error()})
		}
	}()
	logger.InfoJ("ingest_api", map[string]any{"result": "listening", "addr": s.addr})
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Service) handleMessage(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var msg wire.Ssc
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		metrics.Inc("api_ingest_total", map[string]string{"result": "decode_error"})
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	if err := msg.Validate(); err != nil {
		metrics.Inc("api_ingest_total", map[string]string{"result": "invalid"})
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if msg.TraceID == "" {
		msg.TraceID = trace.NewID()
	}
	s.b.Publish(r.Context(), bus.Event{Kind: bus.KindSsc, Body: msg, TraceID: msg.TraceID})
	metrics.Inc("api_ingest_total", map[string]string{"result": "accepted"})
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]string{"trace_id": msg.TraceID})
}

var _ lifecycle.Service = (*Service)(nil)
