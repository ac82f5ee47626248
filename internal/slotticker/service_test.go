package slotticker

import (
	"context"
	"strings"
	"testing"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/localdata"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/toss"
	"github.com/zmlAEQ/godtoss-node/pkg/metrics"
)

type fakeClock struct {
	slot ssc.SlotID
	ok   bool
}

func (c *fakeClock) CurrentSlot() (ssc.SlotID, bool) { return c.slot, c.ok }

type fakeRichmen struct {
	stakes ssc.RichmenStakes
	ok     bool
}

func (r *fakeRichmen) RichmenFor(ssc.EpochIndex) (ssc.RichmenStakes, bool) { return r.stakes, r.ok }

type fakeGlobal struct{}

func (fakeGlobal) Snapshot() *ssc.GlobalState { return ssc.NewGlobalState() }

type fakeParams struct{ p ssc.ChainParams }

func (f fakeParams) Current() ssc.ChainParams { return f.p }

type fakeSeeds struct{}

func (fakeSeeds) Draw() toss.Seed { return toss.Seed{} }

func TestNormalizeOnEpochBoundary(t *testing.T) {
	metrics.Reset()
	clock := &fakeClock{slot: ssc.SlotID{Epoch: 0, Slot: 0}, ok: true}
	richmen := &fakeRichmen{stakes: ssc.RichmenStakes{}, ok: true}
	params := fakeParams{p: ssc.DefaultParams()}
	ld := localdata.New(clock, richmen, fakeGlobal{}, params, fakeSeeds{})
	s := New(clock, richmen, fakeGlobal{}, params, ld, nil)

	ctx := context.Background()

	// startup inside epoch 0: the store already carries the right epoch,
	// nothing to normalize
	s.Tick(ctx)
	if strings.Contains(metrics.DumpProm(), "ssc_normalize_total") {
		t.Fatalf("normalized at startup")
	}

	// same slot again is a no-op
	s.Tick(ctx)

	// epoch boundary
	clock.slot = ssc.SlotID{Epoch: 1, Slot: 0}
	s.Tick(ctx)
	if ld.Epoch() != 1 {
		t.Fatalf("epoch after boundary tick = %d, want 1", ld.Epoch())
	}
	if !strings.Contains(metrics.DumpProm(), "ssc_normalize_total 1") {
		t.Fatalf("normalize not recorded: %q", metrics.DumpProm())
	}

	// later slots in the same epoch do not normalize again
	clock.slot = ssc.SlotID{Epoch: 1, Slot: 5}
	s.Tick(ctx)
	if !strings.Contains(metrics.DumpProm(), "ssc_normalize_total 1") {
		t.Fatalf("normalize ran twice in one epoch")
	}
}

func TestNormalizeDeferredUntilRichmenKnown(t *testing.T) {
	metrics.Reset()
	clock := &fakeClock{slot: ssc.SlotID{Epoch: 0, Slot: 0}, ok: true}
	richmen := &fakeRichmen{stakes: ssc.RichmenStakes{}, ok: true}
	params := fakeParams{p: ssc.DefaultParams()}
	ld := localdata.New(clock, richmen, fakeGlobal{}, params, fakeSeeds{})
	s := New(clock, richmen, fakeGlobal{}, params, ld, nil)

	ctx := context.Background()
	s.Tick(ctx)

	// boundary reached before the new epoch's richmen are computed
	richmen.ok = false
	clock.slot = ssc.SlotID{Epoch: 1, Slot: 0}
	s.Tick(ctx)
	if ld.Epoch() != 0 {
		t.Fatalf("normalized without richmen")
	}
	if !strings.Contains(metrics.DumpProm(), "ssc_normalize_deferred_total 1") {
		t.Fatalf("deferral not recorded: %q", metrics.DumpProm())
	}

	// richmen arrive; the next tick catches up
	richmen.ok = true
	clock.slot = ssc.SlotID{Epoch: 1, Slot: 1}
	s.Tick(ctx)
	if ld.Epoch() != 1 {
		t.Fatalf("deferred normalize never ran")
	}
}

func TestNoTickWithoutSlot(t *testing.T) {
	metrics.Reset()
	clock := &fakeClock{ok: false}
	richmen := &fakeRichmen{ok: true}
	params := fakeParams{p: ssc.DefaultParams()}
	ld := localdata.New(clock, richmen, fakeGlobal{}, params, fakeSeeds{})
	s := New(clock, richmen, fakeGlobal{}, params, ld, nil)

	s.Tick(context.Background())
	if strings.Contains(metrics.DumpProm(), "ssc_slot_ticks_total") {
		t.Fatalf("ticked without a known slot")
	}
}
