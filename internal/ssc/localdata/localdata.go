// Package localdata keeps the node's unconfirmed GodTossing contributions:
// an epoch-scoped working-set with a byte budget, fed by the network layer
// and drained by block assembly. Reads take a consistent snapshot under a
// short read lock; applyPayload and Normalize are the only writers and
// serialize on the write lock, so no caller ever observes a half-applied
// payload.
package localdata

import (
	"sync"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/toss"
	"github.com/zmlAEQ/godtoss-node/pkg/logger"
	"github.com/zmlAEQ/godtoss-node/pkg/metrics"
)

// SlotOracle reports current slotting; ok is false before the node has
// synced timing.
type SlotOracle interface {
	CurrentSlot() (ssc.SlotID, bool)
}

// RichmenOracle reports the stake table for an epoch; ok is false until the
// epoch's snapshot is computed.
type RichmenOracle interface {
	RichmenFor(epoch ssc.EpochIndex) (ssc.RichmenStakes, bool)
}

// GlobalStateStore supplies snapshots of the confirmed chain state.
type GlobalStateStore interface {
	Snapshot() *ssc.GlobalState
}

// ChainParamsProvider supplies current chain parameters.
type ChainParamsProvider interface {
	Current() ssc.ChainParams
}

// SeedSource draws an independent seed per call. Thread-safe.
type SeedSource interface {
	Draw() toss.Seed
}

// LocalData owns the local mempool state. At rest, sizeBytes equals the
// serialized size of the modifier and every entry belongs to epoch.
type LocalData struct {
	mu        sync.RWMutex
	epoch     ssc.EpochIndex
	modifier  ssc.TossModifier
	sizeBytes int

	slots   SlotOracle
	richmen RichmenOracle
	global  GlobalStateStore
	params  ChainParamsProvider
	seeds   SeedSource
}

// New creates the store, seeded from the current slot's epoch when slotting
// is already known.
func New(slots SlotOracle, richmen RichmenOracle, global GlobalStateStore, params ChainParamsProvider, seeds SeedSource) *LocalData {
	ld := &LocalData{
		modifier: ssc.NewTossModifier(),
		slots:    slots,
		richmen:  richmen,
		global:   global,
		params:   params,
		seeds:    seeds,
	}
	if slot, ok := slots.CurrentSlot(); ok {
		ld.epoch = slot.Epoch
	}
	ld.sizeBytes = ld.modifier.SizeBytes()
	return ld
}

// Epoch returns the epoch the working-set is valid for.
func (ld *LocalData) Epoch() ssc.EpochIndex {
	ld.mu.RLock()
	defer ld.mu.RUnlock()
	return ld.epoch
}

// SizeBytes returns the current serialized size of the working-set.
func (ld *LocalData) SizeBytes() int {
	ld.mu.RLock()
	defer ld.mu.RUnlock()
	return ld.sizeBytes
}

// snapshot returns a consistent (epoch, modifier) view. The modifier maps
// are never mutated in place, so sharing them read-only is safe.
func (ld *LocalData) snapshot() (ssc.EpochIndex, ssc.TossModifier) {
	ld.mu.RLock()
	defer ld.mu.RUnlock()
	return ld.epoch, ld.modifier
}

// IsDataUseful is the cheap pre-fetch filter: false when slotting is
// unknown, the tag is out of phase, or a contribution of that kind from the
// stakeholder already exists in the combined view. Read-only.
func (ld *LocalData) IsDataUseful(tag ssc.Tag, id ssc.StakeholderID) bool {
	useful := ld.isDataUseful(tag, id)
	verdict := "no"
	if useful {
		verdict = "yes"
	}
	metrics.Inc("ssc_useful_total", map[string]string{"tag": string(tag), "useful": verdict})
	return useful
}

func (ld *LocalData) isDataUseful(tag ssc.Tag, id ssc.StakeholderID) bool {
	slot, ok := ld.slots.CurrentSlot()
	if !ok {
		return false
	}
	if !ssc.IsGoodSlotForTag(tag, slot.Slot, ld.params.Current()) {
		return false
	}
	_, mod := ld.snapshot()
	if mod.Has(tag, id) {
		return false
	}
	if ld.global.Snapshot().Has(tag, id) {
		return false
	}
	return true
}

// ProcessCommitment admits a single dealer's signed commitment.
func (ld *LocalData) ProcessCommitment(sc ssc.SignedCommitment) error {
	id := ssc.StakeholderOf(sc.PubKey)
	return ld.processData(ssc.TagCommitment, ssc.CommitmentsPayload{
		Commitments: map[ssc.StakeholderID]ssc.SignedCommitment{id: sc},
	})
}

// ProcessOpening admits a single stakeholder's opening.
func (ld *LocalData) ProcessOpening(id ssc.StakeholderID, o ssc.Opening) error {
	return ld.processData(ssc.TagOpening, ssc.OpeningsPayload{
		Openings: map[ssc.StakeholderID]ssc.Opening{id: o},
	})
}

// ProcessShares admits a single stakeholder's decrypted-shares bundle.
func (ld *LocalData) ProcessShares(id ssc.StakeholderID, bundle ssc.SharesBundle) error {
	return ld.processData(ssc.TagShares, ssc.SharesPayload{
		Shares: map[ssc.StakeholderID]ssc.SharesBundle{id: bundle},
	})
}

// ProcessCertificate admits a single holder's VSS certificate.
func (ld *LocalData) ProcessCertificate(cert ssc.VssCertificate) error {
	id := ssc.StakeholderOf(cert.PubKey)
	return ld.processData(ssc.TagCertificate, ssc.CertificatesPayload{
		Certificates: map[ssc.StakeholderID]ssc.VssCertificate{id: cert},
	})
}

func (ld *LocalData) processData(tag ssc.Tag, payload ssc.Payload) error {
	slot, ok := ld.slots.CurrentSlot()
	if !ok {
		metrics.Inc("ssc_process_total", map[string]string{"tag": string(tag), "result": "no_slot"})
		return ErrCurrentSlotUnknown
	}
	params := ld.params.Current()
	if !ssc.IsGoodSlotForTag(tag, slot.Slot, params) {
		metrics.Inc("ssc_process_total", map[string]string{"tag": string(tag), "result": "wrong_phase"})
		return &WrongPhaseError{Tag: tag, Slot: slot}
	}
	epoch := ld.Epoch()
	// Fresh seed per call, drawn outside the write lock and never reused.
	seed := ld.seeds.Draw()
	stakes, ok := ld.richmen.RichmenFor(epoch)
	if !ok {
		metrics.Inc("ssc_process_total", map[string]string{"tag": string(tag), "result": "no_richmen"})
		return &UnknownRichmenError{Epoch: epoch}
	}
	global := ld.global.Snapshot()

	if err := ld.applyPayload(tag, payload, epoch, stakes, global, params, seed); err != nil {
		return err
	}
	metrics.Inc("ssc_process_total", map[string]string{"tag": string(tag), "result": "ok"})
	logger.InfoJ("ssc_local", map[string]any{
		"op": "process", "tag": string(tag), "epoch": uint64(epoch),
		"slot": uint64(slot.Slot), "size_bytes": ld.SizeBytes(),
	})
	return nil
}

// applyPayload is the single atomic read-modify-write transaction. A
// rejection leaves the store byte-for-byte unchanged, including when the
// eager refresh branch was taken.
func (ld *LocalData) applyPayload(tag ssc.Tag, payload ssc.Payload, epoch ssc.EpochIndex, stakes ssc.RichmenStakes, global *ssc.GlobalState, params ssc.ChainParams, seed toss.Seed) error {
	ld.mu.Lock()
	defer ld.mu.Unlock()

	if ld.epoch != epoch {
		metrics.Inc("ssc_process_total", map[string]string{"tag": string(tag), "result": "epoch_race"})
		return &DifferentEpochsError{Stored: ld.epoch, Given: epoch}
	}

	ctx := toss.Context{Epoch: epoch, Richmen: stakes, Global: global, Seed: seed}

	base := ld.modifier
	refreshed := false
	if ld.sizeBytes >= params.MempoolBudget() {
		// Budget exhausted: evict by re-deriving the working-set from
		// scratch before verifying the new payload.
		base = toss.Refresh(ctx, base)
		refreshed = true
		metrics.Inc("ssc_refresh_total", nil)
	}

	next, err := toss.VerifyAndApply(ctx, base, payload)
	if err != nil {
		metrics.Inc("ssc_process_total", map[string]string{"tag": string(tag), "result": "rejected"})
		return &PayloadRejectedError{Reason: err}
	}

	ld.modifier = next
	if refreshed {
		ld.sizeBytes = next.SizeBytes()
	} else {
		// Additive path: the accumulator only grew, so incrementing by the
		// payload's own size keeps the invariant without a full re-encode.
		ld.sizeBytes += ssc.SizeBytes(payload)
	}
	metrics.SetGauge("ssc_local_size_bytes", nil, int64(ld.sizeBytes))
	return nil
}

// GetLocalPayload extracts the payload to include in a block at the given
// slot. On an epoch mismatch it degrades to an empty certificates payload
// and warns; this mirrors a long-standing caller expectation and never
// fails.
func (ld *LocalData) GetLocalPayload(slot ssc.SlotID) ssc.Payload {
	epoch, mod := ld.snapshot()
	if slot.Epoch != epoch {
		logger.WarnJ("ssc_local", map[string]any{
			"op": "get_payload", "result": "wrong_epoch",
			"expected_epoch": uint64(epoch), "given_epoch": uint64(slot.Epoch),
		})
		return ssc.CertificatesPayload{Certificates: map[ssc.StakeholderID]ssc.VssCertificate{}}
	}
	params := ld.params.Current()
	switch {
	case params.IsCommitmentIdx(slot.Slot):
		return ssc.CommitmentsPayload{Commitments: mod.Commitments}
	case params.IsOpeningIdx(slot.Slot):
		return ssc.OpeningsPayload{Openings: mod.Openings}
	case params.IsSharesIdx(slot.Slot):
		return ssc.SharesPayload{Shares: mod.Shares}
	default:
		return ssc.CertificatesPayload{Certificates: mod.Certificates}
	}
}

// Normalize replaces the working-set on an epoch boundary: every existing
// entry is re-validated under the new context, the rest are dropped, and
// the size is recomputed exactly.
func (ld *LocalData) Normalize(epoch ssc.EpochIndex, stakes ssc.RichmenStakes, params ssc.ChainParams, global *ssc.GlobalState) {
	seed := ld.seeds.Draw()
	ld.mu.Lock()
	defer ld.mu.Unlock()

	ctx := toss.Context{Epoch: epoch, Richmen: stakes, Global: global, Seed: seed}
	kept := toss.Normalize(ctx, ld.modifier)
	dropped := countEntries(ld.modifier) - countEntries(kept)
	ld.epoch = epoch
	ld.modifier = kept
	ld.sizeBytes = kept.SizeBytes()

	metrics.Inc("ssc_normalize_total", nil)
	metrics.SetGauge("ssc_local_size_bytes", nil, int64(ld.sizeBytes))
	logger.InfoJ("ssc_local", map[string]any{
		"op": "normalize", "epoch": uint64(epoch),
		"dropped": dropped, "size_bytes": ld.sizeBytes,
	})
}

// OnNewSlot is called once per slot by the slot ticker. Phase-based GC of
// stale contributions is deferred; the hook must stay harmless and
// unconditional because external callers rely on invoking it every slot.
func (ld *LocalData) OnNewSlot(slot ssc.SlotID) {
	metrics.Inc("ssc_slot_ticks_total", nil)
	_ = slot
}

func countEntries(m ssc.TossModifier) int {
	return len(m.Commitments) + len(m.Openings) + len(m.Shares) + len(m.Certificates)
}
