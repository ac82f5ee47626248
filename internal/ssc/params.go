package ssc

import "time"

// ChainParams carries the chain constants the local-data core depends on.
// K is the slot security parameter: one epoch spans 10K slots and the three
// phase windows are derived from it.
type ChainParams struct {
	K             uint64
	MaxBlockSize  int
	SlotDuration  time.Duration
	// MempoolFactor scales MaxBlockSize into the local mempool byte budget.
	// The 2x default is a revisitable limit, not a protocol invariant.
	MempoolFactor int
}

// DefaultParams returns dev-chain parameters.
func DefaultParams() ChainParams {
	return ChainParams{K: 2, MaxBlockSize: 1 << 20, SlotDuration: 2 * time.Second, MempoolFactor: 2}
}

// SlotsPerEpoch is 10K by protocol definition.
func (p ChainParams) SlotsPerEpoch() uint64 { return 10 * p.K }

// MempoolBudget is the local mempool byte budget.
func (p ChainParams) MempoolBudget() int {
	f := p.MempoolFactor
	if f <= 0 {
		f = 2
	}
	return f * p.MaxBlockSize
}
