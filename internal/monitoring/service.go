// Package monitoring serves the metrics and health endpoints.
package monitoring

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/zmlAEQ/godtoss-node/pkg/lifecycle"
	"github.com/zmlAEQ/godtoss-node/pkg/logger"
	"github.com/zmlAEQ/godtoss-node/pkg/metrics"
)

type Service struct {
	addr string
	srv  *http.Server
}

func New(addr string) *Service { return &Service{addr: addr} }

func (s *Service) Name() string { return "monitoring" }

func (s *Service) Start(_ context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4")
		_, _ = w.Write([]byte(metrics.DumpProm()))
	})
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
			logger.ErrorJ("monitoring", map[string]any{"result": "serve_error", "err": err.Error()})
		}
	}()
	logger.InfoJ("monitoring", map[string]any{"result": "listening", "addr": s.addr})
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

var _ lifecycle.Service = (*Service)(nil)
