package chain

import (
	"sync"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/pkg/metrics"
)

// GlobalStore holds the confirmed GodTossing state. Snapshot returns a deep
// copy so no reader ever observes a half-applied block commit.
type GlobalStore struct {
	mu sync.RWMutex
	st *ssc.GlobalState
}

func NewGlobalStore() *GlobalStore {
	return &GlobalStore{st: ssc.NewGlobalState()}
}

func (g *GlobalStore) Snapshot() *ssc.GlobalState {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := ssc.NewGlobalState()
	for id, v := range g.st.Commitments {
		out.Commitments[id] = v
	}
	for id, v := range g.st.Openings {
		out.Openings[id] = v
	}
	for id, v := range g.st.Shares {
		out.Shares[id] = v
	}
	for id, v := range g.st.Certificates {
		out.Certificates[id] = v
	}
	return out
}

// Commit folds a confirmed block payload into the global state. Invoked by
// the block-apply collaborator after a block carrying the payload is
// adopted.
func (g *GlobalStore) Commit(p ssc.Payload) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch pl := p.(type) {
	case ssc.CommitmentsPayload:
		for id, v := range pl.Commitments {
			g.st.Commitments[id] = v
		}
	case ssc.OpeningsPayload:
		for id, v := range pl.Openings {
			g.st.Openings[id] = v
		}
	case ssc.SharesPayload:
		for id, v := range pl.Shares {
			g.st.Shares[id] = v
		}
	case ssc.CertificatesPayload:
		for id, v := range pl.Certificates {
			g.st.Certificates[id] = v
		}
	}
	metrics.Inc("ssc_global_commits_total", map[string]string{"tag": string(p.Tag())})
}

// ResetEpoch clears per-epoch confirmed contributions at an epoch boundary;
// certificates survive until they expire.
func (g *GlobalStore) ResetEpoch() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.st.Commitments = map[ssc.StakeholderID]ssc.SignedCommitment{}
	g.st.Openings = map[ssc.StakeholderID]ssc.Opening{}
	g.st.Shares = map[ssc.StakeholderID]ssc.SharesBundle{}
}
