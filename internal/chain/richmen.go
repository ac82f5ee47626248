package chain

import (
	"sync"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/pkg/logger"
)

// RichmenTable keeps per-epoch eligibility tables. Distributions are
// installed by the chain-sync layer; eligibility is stake >= total*num/den.
// A table is immutable once installed.
type RichmenTable struct {
	mu      sync.RWMutex
	byEpoch map[ssc.EpochIndex]ssc.RichmenStakes
	num     uint64
	den     uint64
}

// NewRichmenTable creates a table with the given eligibility fraction
// (num/den of total stake).
func NewRichmenTable(num, den uint64) *RichmenTable {
	if den == 0 {
		num, den = 1, 1000
	}
	return &RichmenTable{byEpoch: map[ssc.EpochIndex]ssc.RichmenStakes{}, num: num, den: den}
}

// SetDistribution installs the stake distribution for an epoch and derives
// its richmen set. Re-installing an epoch is ignored.
func (t *RichmenTable) SetDistribution(epoch ssc.EpochIndex, stakes map[ssc.StakeholderID]uint64) {
	var total uint64
	for _, s := range stakes {
		total += s
	}
	rich := ssc.RichmenStakes{}
	for id, s := range stakes {
		if s*t.den >= total*t.num {
			rich[id] = s
		}
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.byEpoch[epoch]; ok {
		return
	}
	t.byEpoch[epoch] = rich
	logger.InfoJ("richmen", map[string]any{
		"op": "install", "epoch": uint64(epoch), "eligible": len(rich), "total_stake": total,
	})
}

// StaticRichmen serves one fixed stake distribution for every epoch. Dev
// chains only; production nodes install per-epoch distributions into a
// RichmenTable.
type StaticRichmen struct {
	stakes ssc.RichmenStakes
}

func NewStaticRichmen(stakes map[ssc.StakeholderID]uint64) *StaticRichmen {
	s := make(ssc.RichmenStakes, len(stakes))
	for id, v := range stakes {
		s[id] = v
	}
	return &StaticRichmen{stakes: s}
}

func (s *StaticRichmen) RichmenFor(ssc.EpochIndex) (ssc.RichmenStakes, bool) {
	out := make(ssc.RichmenStakes, len(s.stakes))
	for id, v := range s.stakes {
		out[id] = v
	}
	return out, true
}

// RichmenFor returns the epoch's richmen table; ok is false until the
// epoch's distribution has been installed.
func (t *RichmenTable) RichmenFor(epoch ssc.EpochIndex) (ssc.RichmenStakes, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rich, ok := t.byEpoch[epoch]
	if !ok {
		return nil, false
	}
	out := make(ssc.RichmenStakes, len(rich))
	for id, s := range rich {
		out[id] = s
	}
	return out, true
}
