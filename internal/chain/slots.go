// Package chain provides the concrete collaborators the local-data core is
// wired with: slot clock, richmen table, confirmed-state store, parameter
// provider, and the process-wide seed source.
package chain

import (
	"time"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
)

// SlotClock derives the current slot from wall time: genesis plus a fixed
// slot duration, 10K slots per epoch.
type SlotClock struct {
	genesis time.Time
	params  ssc.ChainParams
	now     func() time.Time
}

func NewSlotClock(genesis time.Time, params ssc.ChainParams) *SlotClock {
	return &SlotClock{genesis: genesis, params: params, now: time.Now}
}

// NewSlotClockAt pins the clock to a custom time source (tests).
func NewSlotClockAt(genesis time.Time, params ssc.ChainParams, now func() time.Time) *SlotClock {
	return &SlotClock{genesis: genesis, params: params, now: now}
}

// CurrentSlot returns the slot the wall clock is in; ok is false before
// genesis.
func (c *SlotClock) CurrentSlot() (ssc.SlotID, bool) {
	elapsed := c.now().Sub(c.genesis)
	if elapsed < 0 {
		return ssc.SlotID{}, false
	}
	total := uint64(elapsed / c.params.SlotDuration)
	per := c.params.SlotsPerEpoch()
	return ssc.SlotID{
		Epoch: ssc.EpochIndex(total / per),
		Slot:  ssc.LocalSlotIndex(total % per),
	}, true
}
