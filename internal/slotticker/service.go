// Package slotticker polls the slot clock and drives the per-slot and
// per-epoch obligations of the local-data core: the OnNewSlot hook every
// slot, and Normalize exactly once per epoch boundary (retried on later
// ticks while the new epoch's richmen are still unknown).
package slotticker

import (
	"context"
	"time"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/localdata"
	"github.com/zmlAEQ/godtoss-node/pkg/bus"
	"github.com/zmlAEQ/godtoss-node/pkg/lifecycle"
	"github.com/zmlAEQ/godtoss-node/pkg/logger"
	"github.com/zmlAEQ/godtoss-node/pkg/metrics"
)

type Service struct {
	clock   localdata.SlotOracle
	richmen localdata.RichmenOracle
	global  localdata.GlobalStateStore
	params  localdata.ChainParamsProvider
	ld      *localdata.LocalData
	b       *bus.Bus
	poll    time.Duration

	last        ssc.SlotID
	seen        bool
	normalized  ssc.EpochIndex
	normalizedOK bool
}

func New(clock localdata.SlotOracle, richmen localdata.RichmenOracle, global localdata.GlobalStateStore, params localdata.ChainParamsProvider, ld *localdata.LocalData, b *bus.Bus) *Service {
	poll := params.Current().SlotDuration / 4
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	return &Service{clock: clock, richmen: richmen, global: global, params: params, ld: ld, b: b, poll: poll}
}

func (s *Service) Name() string { return "slot-ticker" }

func (s *Service) Start(ctx context.Context) error {
	go func() {
		ticker := time.NewTicker(s.poll)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.tick(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func (s *Service) Stop(_ context.Context) error {
	logger.Info("slot-ticker stop")
	return nil
}

// Tick runs one poll step. Exposed for tests.
func (s *Service) Tick(ctx context.Context) { s.tick(ctx) }

func (s *Service) tick(ctx context.Context) {
	slot, ok := s.clock.CurrentSlot()
	if !ok {
		return
	}
	if s.seen && slot == s.last {
		return
	}
	s.last = slot
	s.seen = true

	s.ld.OnNewSlot(slot)
	if s.b != nil {
		s.b.Publish(ctx, bus.Event{Kind: bus.KindSlot, Epoch: uint64(slot.Epoch), Slot: uint64(slot.Slot)})
	}

	if !s.normalizedOK {
		// Startup: the store was seeded from the current slot's epoch;
		// nothing to normalize until the next boundary.
		if s.ld.Epoch() == slot.Epoch {
			s.normalized = slot.Epoch
			s.normalizedOK = true
			return
		}
	} else if s.normalized == slot.Epoch {
		return
	}
	stakes, ok := s.richmen.RichmenFor(slot.Epoch)
	if !ok {
		// Richmen not computed yet; keep the old epoch's set and retry on
		// the next tick.
		metrics.Inc("ssc_normalize_deferred_total", nil)
		logger.WarnJ("slot_ticker", map[string]any{
			"op": "normalize", "result": "deferred", "epoch": uint64(slot.Epoch),
		})
		return
	}
	s.ld.Normalize(slot.Epoch, stakes, s.params.Current(), s.global.Snapshot())
	s.normalized = slot.Epoch
	s.normalizedOK = true
	logger.InfoJ("slot_ticker", map[string]any{
		"op": "normalize", "result": "ok", "epoch": uint64(slot.Epoch),
	})
}

var _ lifecycle.Service = (*Service)(nil)
