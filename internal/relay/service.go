// Package relay consumes inbound contribution events from the bus, runs the
// cheap usefulness pre-check, and feeds the local-data pipeline. It is the
// only writer path from the network into the mempool.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/zmlAEQ/godtoss-node/internal/p2p/wire"
	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/localdata"
	"github.com/zmlAEQ/godtoss-node/pkg/bus"
	"github.com/zmlAEQ/godtoss-node/pkg/lifecycle"
	"github.com/zmlAEQ/godtoss-node/pkg/logger"
	"github.com/zmlAEQ/godtoss-node/pkg/metrics"
)

type Service struct {
	sub bus.Subscriber
	ld  *localdata.LocalData
}

func New(sub bus.Subscriber, ld *localdata.LocalData) *Service {
	return &Service{sub: sub, ld: ld}
}

func (s *Service) Name() string { return "ssc-relay" }

func (s *Service) Start(ctx context.Context) error {
	if s.sub == nil || s.ld == nil {
		logger.Info("ssc-relay start (idle: no subscription)")
		return nil
	}
	go func() {
		for {
			select {
			case ev := <-s.sub:
				if ev.Kind != bus.KindSsc {
					continue
				}
				msg, ok := ev.Body.(wire.Ssc)
				if !ok {
					metrics.Inc("relay_recv_total", map[string]string{"tag": "", "result": "bad_body"})
					continue
				}
				s.handle(msg)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *Service) Stop(_ context.Context) error {
	logger.Info("ssc-relay stop")
	return nil
}

// Handle runs one message through the filter and pipeline. Exposed for the
// transport callback path and tests; events from the bus go through the
// same code.
func (s *Service) Handle(msg wire.Ssc) { s.handle(msg) }

func (s *Service) handle(msg wire.Ssc) {
	begin := time.Now()
	tag := ssc.Tag(msg.Tag)
	if err := msg.Validate(); err != nil {
		metrics.Inc("relay_recv_total", map[string]string{"tag": msg.Tag, "result": "invalid"})
		return
	}
	if !s.ld.IsDataUseful(tag, msg.StakeholderID()) {
		metrics.Inc("relay_recv_total", map[string]string{"tag": msg.Tag, "result": "ignored"})
		return
	}
	var err error
	switch tag {
	case ssc.TagCommitment:
		err = s.ld.ProcessCommitment(*msg.Commitment)
	case ssc.TagOpening:
		err = s.ld.ProcessOpening(ssc.StakeholderID(msg.Stakeholder), *msg.Opening)
	case ssc.TagShares:
		err = s.ld.ProcessShares(ssc.StakeholderID(msg.Stakeholder), msg.Shares)
	case ssc.TagCertificate:
		err = s.ld.ProcessCertificate(*msg.Certificate)
	}
	durMs := time.Since(begin).Milliseconds()
	result := "ok"
	if err != nil {
		result = classify(err)
		logger.WarnJ("relay_recv", map[string]any{
			"tag": msg.Tag, "result": result, "err": err.Error(),
			"trace_id": msg.TraceID, "latency_ms": durMs,
		})
	} else {
		logger.InfoJ("relay_recv", map[string]any{
			"tag": msg.Tag, "result": result, "trace_id": msg.TraceID, "latency_ms": durMs,
		})
	}
	metrics.Inc("relay_recv_total", map[string]string{"tag": msg.Tag, "result": result})
	metrics.ObserveSummary("ssc_proc_ms", map[string]string{"tag": msg.Tag}, float64(durMs))
}

func classify(err error) string {
	var wp *localdata.WrongPhaseError
	var ur *localdata.UnknownRichmenError
	var de *localdata.DifferentEpochsError
	var pr *localdata.PayloadRejectedError
	switch {
	case errors.Is(err, localdata.ErrCurrentSlotUnknown):
		return "no_slot"
	case errors.As(err, &wp):
		return "wrong_phase"
	case errors.As(err, &ur):
		return "no_richmen"
	case errors.As(err, &de):
		return "epoch_race"
	case errors.As(err, &pr):
		return "rejected"
	}
	return "error"
}

var _ lifecycle.Service = (*Service)(nil)
