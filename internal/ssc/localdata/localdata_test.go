package localdata

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"testing"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/toss"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/vss"
	"github.com/zmlAEQ/godtoss-node/pkg/metrics"
)

type stubSlots struct {
	slot ssc.SlotID
	ok   bool
}

func (s *stubSlots) CurrentSlot() (ssc.SlotID, bool) { return s.slot, s.ok }

type stubRichmen struct {
	stakes ssc.RichmenStakes
	ok     bool
}

func (s *stubRichmen) RichmenFor(ssc.EpochIndex) (ssc.RichmenStakes, bool) { return s.stakes, s.ok }

type stubGlobal struct {
	st *ssc.GlobalState
}

func (s *stubGlobal) Snapshot() *ssc.GlobalState {
	if s.st == nil {
		return ssc.NewGlobalState()
	}
	return s.st
}

type stubParams struct {
	p ssc.ChainParams
}

func (s *stubParams) Current() ssc.ChainParams { return s.p }

type stubSeeds struct{}

func (stubSeeds) Draw() toss.Seed { return toss.Seed{} }

type fixture struct {
	slots   *stubSlots
	richmen *stubRichmen
	global  *stubGlobal
	params  *stubParams
	ld      *LocalData

	priv   ed25519.PrivateKey
	id     ssc.StakeholderID
	vssPub ed25519.PublicKey
}

// newFixture wires a store at epoch 5, slot 1 (commitment phase with K=2),
// with one richman stakeholder.
func newFixture(t *testing.T) *fixture {
	t.Helper()
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("keygen: %v", err)
	}
	vssPub, _, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatalf("vss keygen: %v", err)
	}
	id := ssc.StakeholderOf(pub)
	f := &fixture{
		slots:   &stubSlots{slot: ssc.SlotID{Epoch: 5, Slot: 1}, ok: true},
		richmen: &stubRichmen{stakes: ssc.RichmenStakes{id: 100}, ok: true},
		global:  &stubGlobal{},
		params:  &stubParams{p: ssc.ChainParams{K: 2, MaxBlockSize: 1 << 20, MempoolFactor: 2}},
		priv:    priv,
		id:      id,
		vssPub:  vssPub,
	}
	f.ld = New(f.slots, f.richmen, f.global, f.params, stubSeeds{})
	return f
}

func (f *fixture) commitment(epoch ssc.EpochIndex) ssc.SignedCommitment {
	secret := []byte("secret-" + string(f.id))
	return vss.SignCommitment(f.priv, epoch, ssc.Commitment{
		Proof:  vss.SecretProof(secret),
		Shares: map[string][]byte{hex.EncodeToString(f.vssPub): []byte("enc")},
	})
}

func TestNewSeedsEpochFromSlot(t *testing.T) {
	f := newFixture(t)
	if got := f.ld.Epoch(); got != 5 {
		t.Fatalf("epoch = %d, want 5", got)
	}
	if f.ld.SizeBytes() != f.ld.modifier.SizeBytes() {
		t.Fatalf("initial size %d != serialized size %d", f.ld.SizeBytes(), f.ld.modifier.SizeBytes())
	}
}

func TestProcessCommitment(t *testing.T) {
	metrics.Reset()
	f := newFixture(t)
	sc := f.commitment(5)
	before := f.ld.SizeBytes()

	if err := f.ld.ProcessCommitment(sc); err != nil {
		t.Fatalf("valid commitment rejected: %v", err)
	}
	pay := ssc.CommitmentsPayload{Commitments: map[ssc.StakeholderID]ssc.SignedCommitment{f.id: sc}}
	if got, want := f.ld.SizeBytes(), before+ssc.SizeBytes(pay); got != want {
		t.Fatalf("size after admit = %d, want %d", got, want)
	}
	if !f.ld.modifier.Has(ssc.TagCommitment, f.id) {
		t.Fatalf("commitment not stored")
	}
	dump := metrics.DumpProm()
	if !strings.Contains(dump, `ssc_process_total{result="ok",tag="commitment"} 1`) {
		t.Fatalf("missing ok counter in %q", dump)
	}
}

func TestProcessWithoutSlot(t *testing.T) {
	f := newFixture(t)
	f.slots.ok = false
	if err := f.ld.ProcessCommitment(f.commitment(5)); !errors.Is(err, ErrCurrentSlotUnknown) {
		t.Fatalf("got %v, want ErrCurrentSlotUnknown", err)
	}
}

func TestProcessWrongPhase(t *testing.T) {
	f := newFixture(t)
	// slot 1 is commitment phase; openings are not acceptable there
	err := f.ld.ProcessOpening(f.id, ssc.Opening{Secret: []byte("s")})
	var wp *WrongPhaseError
	if !errors.As(err, &wp) {
		t.Fatalf("got %v, want WrongPhaseError", err)
	}
	if wp.Tag != ssc.TagOpening {
		t.Fatalf("error tag = %s", wp.Tag)
	}
}

func TestProcessWithoutRichmen(t *testing.T) {
	f := newFixture(t)
	f.richmen.ok = false
	err := f.ld.ProcessCommitment(f.commitment(5))
	var ur *UnknownRichmenError
	if !errors.As(err, &ur) {
		t.Fatalf("got %v, want UnknownRichmenError", err)
	}
	if ur.Epoch != 5 {
		t.Fatalf("error epoch = %d", ur.Epoch)
	}
}

func TestRejectionLeavesStoreUnchanged(t *testing.T) {
	f := newFixture(t)
	sc := f.commitment(5)
	if err := f.ld.ProcessCommitment(sc); err != nil {
		t.Fatalf("setup: %v", err)
	}
	size := f.ld.SizeBytes()

	err := f.ld.ProcessCommitment(sc)
	var pr *PayloadRejectedError
	if !errors.As(err, &pr) {
		t.Fatalf("got %v, want PayloadRejectedError", err)
	}
	if !errors.Is(err, toss.ErrDuplicateContributor) {
		t.Fatalf("reason = %v, want ErrDuplicateContributor", pr.Reason)
	}
	if f.ld.SizeBytes() != size {
		t.Fatalf("rejection changed size: %d -> %d", size, f.ld.SizeBytes())
	}
}

func TestEpochRaceRejected(t *testing.T) {
	f := newFixture(t)
	sc := f.commitment(5)
	pay := ssc.CommitmentsPayload{Commitments: map[ssc.StakeholderID]ssc.SignedCommitment{f.id: sc}}

	// a rollover between the epoch snapshot and the transaction shows up as
	// a stale epoch argument
	err := f.ld.applyPayload(ssc.TagCommitment, pay, 4, f.richmen.stakes, f.global.Snapshot(), f.params.p, toss.Seed{})
	var de *DifferentEpochsError
	if !errors.As(err, &de) {
		t.Fatalf("got %v, want DifferentEpochsError", err)
	}
	if de.Stored != 5 || de.Given != 4 {
		t.Fatalf("stored/given = %d/%d", de.Stored, de.Given)
	}
}

func TestIsDataUseful(t *testing.T) {
	f := newFixture(t)
	if !f.ld.IsDataUseful(ssc.TagCommitment, f.id) {
		t.Fatalf("fresh commitment reported useless")
	}
	if f.ld.IsDataUseful(ssc.TagOpening, f.id) {
		t.Fatalf("out-of-phase opening reported useful")
	}

	if err := f.ld.ProcessCommitment(f.commitment(5)); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if f.ld.IsDataUseful(ssc.TagCommitment, f.id) {
		t.Fatalf("already-held commitment reported useful")
	}

	other := ssc.StakeholderID("ffff")
	g := ssc.NewGlobalState()
	g.Commitments[other] = ssc.SignedCommitment{}
	f.global.st = g
	if f.ld.IsDataUseful(ssc.TagCommitment, other) {
		t.Fatalf("confirmed commitment reported useful")
	}

	f.slots.ok = false
	if f.ld.IsDataUseful(ssc.TagCertificate, "aaaa") {
		t.Fatalf("useful without known slot")
	}
}

func TestGetLocalPayloadPhaseDispatch(t *testing.T) {
	f := newFixture(t)
	if err := f.ld.ProcessCommitment(f.commitment(5)); err != nil {
		t.Fatalf("setup: %v", err)
	}

	p := f.ld.GetLocalPayload(ssc.SlotID{Epoch: 5, Slot: 1})
	cp, ok := p.(ssc.CommitmentsPayload)
	if !ok {
		t.Fatalf("commitment slot returned %T", p)
	}
	if _, ok := cp.Commitments[f.id]; !ok {
		t.Fatalf("held commitment missing from payload")
	}

	if _, ok := f.ld.GetLocalPayload(ssc.SlotID{Epoch: 5, Slot: 9}).(ssc.OpeningsPayload); !ok {
		t.Fatalf("opening slot returned wrong payload type")
	}
	if _, ok := f.ld.GetLocalPayload(ssc.SlotID{Epoch: 5, Slot: 17}).(ssc.SharesPayload); !ok {
		t.Fatalf("shares slot returned wrong payload type")
	}
	if _, ok := f.ld.GetLocalPayload(ssc.SlotID{Epoch: 5, Slot: 6}).(ssc.CertificatesPayload); !ok {
		t.Fatalf("gap slot returned wrong payload type")
	}
}

func TestGetLocalPayloadWrongEpochDegrades(t *testing.T) {
	f := newFixture(t)
	p := f.ld.GetLocalPayload(ssc.SlotID{Epoch: 6, Slot: 1})
	cp, ok := p.(ssc.CertificatesPayload)
	if !ok {
		t.Fatalf("epoch mismatch returned %T, want empty certificates", p)
	}
	if len(cp.Certificates) != 0 {
		t.Fatalf("degraded payload not empty")
	}
}

func TestNormalizeRecomputesExactSize(t *testing.T) {
	metrics.Reset()
	f := newFixture(t)
	if err := f.ld.ProcessCommitment(f.commitment(5)); err != nil {
		t.Fatalf("setup: %v", err)
	}

	// rollover: the epoch-5 commitment is stale under epoch 6
	f.ld.Normalize(6, f.richmen.stakes, f.params.p, f.global.Snapshot())

	if got := f.ld.Epoch(); got != 6 {
		t.Fatalf("epoch after normalize = %d, want 6", got)
	}
	if f.ld.modifier.Has(ssc.TagCommitment, f.id) {
		t.Fatalf("stale commitment survived normalize")
	}
	if f.ld.SizeBytes() != f.ld.modifier.SizeBytes() {
		t.Fatalf("size %d != serialized size %d after normalize", f.ld.SizeBytes(), f.ld.modifier.SizeBytes())
	}
	if !strings.Contains(metrics.DumpProm(), "ssc_normalize_total 1") {
		t.Fatalf("normalize counter missing")
	}
}

func TestBudgetExhaustionTriggersRefresh(t *testing.T) {
	metrics.Reset()
	f := newFixture(t)
	// budget below even the empty working-set size forces the eviction
	// branch on the next admit
	f.params.p.MaxBlockSize = 4
	f.params.p.MempoolFactor = 1

	if err := f.ld.ProcessCommitment(f.commitment(5)); err != nil {
		t.Fatalf("admit after refresh failed: %v", err)
	}
	if !f.ld.modifier.Has(ssc.TagCommitment, f.id) {
		t.Fatalf("commitment missing after refresh path")
	}
	// refresh path recomputes the size exactly
	if f.ld.SizeBytes() != f.ld.modifier.SizeBytes() {
		t.Fatalf("size %d != serialized size %d after refresh", f.ld.SizeBytes(), f.ld.modifier.SizeBytes())
	}
	if !strings.Contains(metrics.DumpProm(), "ssc_refresh_total 1") {
		t.Fatalf("refresh counter missing")
	}
}

// Full epoch walkthrough: commitment in its window, opening in its window,
// shares in theirs, certificates whenever.
func TestEpochScenario(t *testing.T) {
	f := newFixture(t)

	cert := vss.NewCertificate(f.priv, f.vssPub, 9)
	if err := f.ld.ProcessCertificate(cert); err != nil {
		t.Fatalf("certificate: %v", err)
	}
	if err := f.ld.ProcessCommitment(f.commitment(5)); err != nil {
		t.Fatalf("commitment: %v", err)
	}

	f.slots.slot = ssc.SlotID{Epoch: 5, Slot: 9}
	secret := []byte("secret-" + string(f.id))
	if err := f.ld.ProcessOpening(f.id, ssc.Opening{Secret: secret}); err != nil {
		t.Fatalf("opening: %v", err)
	}

	f.slots.slot = ssc.SlotID{Epoch: 5, Slot: 17}
	if err := f.ld.ProcessShares(f.id, ssc.SharesBundle{f.id: []byte("dec")}); err != nil {
		t.Fatalf("shares: %v", err)
	}

	mod := f.ld.modifier
	for _, tag := range []ssc.Tag{ssc.TagCommitment, ssc.TagOpening, ssc.TagShares, ssc.TagCertificate} {
		if !mod.Has(tag, f.id) {
			t.Fatalf("missing %s after full epoch", tag)
		}
	}
}
