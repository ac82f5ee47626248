// Package toss is the pure GodTossing evaluator: it verifies candidate
// payloads against the combined confirmed+local view and folds them into a
// working-set. It holds no state of its own; every operation takes explicit
// epoch/richmen/global context and a caller-supplied seed and returns a new
// accumulator, leaving its inputs untouched.
package toss

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"sort"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
	"github.com/zmlAEQ/godtoss-node/internal/ssc/vss"
)

// Seed is an isolated randomness draw; one per evaluation, never retained.
type Seed [32]byte

// Context is the read-only evaluation context: the epoch being accumulated,
// its richmen table, the confirmed global state, and the per-call seed.
type Context struct {
	Epoch   ssc.EpochIndex
	Richmen ssc.RichmenStakes
	Global  *ssc.GlobalState
	Seed    Seed
}

// Rejection reasons. Closed set; callers wrap, never extend.
var (
	ErrDuplicateContributor    = errors.New("duplicate contributor")
	ErrAlreadyConfirmed        = errors.New("contribution already confirmed")
	ErrNotRichman              = errors.New("contributor not in richmen set")
	ErrWrongStakeholder        = errors.New("stakeholder id does not match public key")
	ErrWrongEpoch              = errors.New("commitment signed for a different epoch")
	ErrMalformedCommitment     = errors.New("malformed commitment")
	ErrBadCommitmentSignature  = errors.New("bad commitment signature")
	ErrNoCommitment            = errors.New("no matching commitment")
	ErrOpeningMismatch         = errors.New("opening does not match commitment proof")
	ErrMalformedShares         = errors.New("malformed shares bundle")
	ErrSharesWithoutCert       = errors.New("shares sender holds no vss certificate")
	ErrShareNotAddressed       = errors.New("share not addressed to sender vss key")
	ErrCertificateExpired      = errors.New("certificate expired")
	ErrBadCertificateSignature = errors.New("bad certificate signature")
)

// VerifyAndApply validates every contribution in the payload against the
// context and the accumulator, and returns a new accumulator containing
// them. On any rejection the input accumulator is returned unchanged with
// the reason.
func VerifyAndApply(ctx Context, mod ssc.TossModifier, p ssc.Payload) (ssc.TossModifier, error) {
	acc := mod.Clone()
	switch pl := p.(type) {
	case ssc.CommitmentsPayload:
		for _, id := range sortedIDs(pl.Stakeholders()) {
			if err := applyCommitment(ctx, &acc, id, pl.Commitments[id]); err != nil {
				return mod, err
			}
		}
	case ssc.OpeningsPayload:
		for _, id := range sortedIDs(pl.Stakeholders()) {
			if err := applyOpening(ctx, &acc, id, pl.Openings[id]); err != nil {
				return mod, err
			}
		}
	case ssc.SharesPayload:
		for _, id := range sortedIDs(pl.Stakeholders()) {
			if err := applyShares(ctx, &acc, id, pl.Shares[id]); err != nil {
				return mod, err
			}
		}
	case ssc.CertificatesPayload:
		for _, id := range sortedIDs(pl.Stakeholders()) {
			if err := applyCertificate(ctx, &acc, id, pl.Certificates[id]); err != nil {
				return mod, err
			}
		}
	default:
		return mod, ErrMalformedCommitment
	}
	return acc, nil
}

// Normalize re-derives a working-set from scratch: every entry of the old
// modifier that still verifies under the new context is re-admitted, the
// rest are dropped silently. Certificates go first so share bundles can
// find their senders' keys.
func Normalize(ctx Context, mod ssc.TossModifier) ssc.TossModifier {
	acc := ssc.NewTossModifier()
	for _, id := range sortedCertIDs(mod.Certificates) {
		_ = applyCertificate(ctx, &acc, id, mod.Certificates[id])
	}
	for _, id := range sortedCommitmentIDs(mod.Commitments) {
		_ = applyCommitment(ctx, &acc, id, mod.Commitments[id])
	}
	for _, id := range sortedOpeningIDs(mod.Openings) {
		_ = applyOpening(ctx, &acc, id, mod.Openings[id])
	}
	for _, id := range sortedShareIDs(mod.Shares) {
		_ = applyShares(ctx, &acc, id, mod.Shares[id])
	}
	return acc
}

// Refresh is the eviction pass run when the mempool budget is exhausted. It
// is the same full re-derivation as Normalize under the current context; the
// drop-and-rederive policy is deliberate but revisitable.
func Refresh(ctx Context, mod ssc.TossModifier) ssc.TossModifier {
	return Normalize(ctx, mod)
}

func applyCommitment(ctx Context, acc *ssc.TossModifier, id ssc.StakeholderID, sc ssc.SignedCommitment) error {
	if _, ok := ctx.Richmen[id]; !ok {
		return ErrNotRichman
	}
	if ssc.StakeholderOf(sc.PubKey) != id {
		return ErrWrongStakeholder
	}
	if ctx.Global.Has(ssc.TagCommitment, id) {
		return ErrAlreadyConfirmed
	}
	if acc.Has(ssc.TagCommitment, id) {
		return ErrDuplicateContributor
	}
	if sc.Epoch != ctx.Epoch {
		return ErrWrongEpoch
	}
	if len(sc.Commitment.Proof) != sha256.Size || len(sc.Commitment.Shares) == 0 {
		return ErrMalformedCommitment
	}
	if !vss.VerifyCommitmentSignature(sc) {
		return ErrBadCommitmentSignature
	}
	acc.Commitments[id] = sc
	return nil
}

func applyOpening(ctx Context, acc *ssc.TossModifier, id ssc.StakeholderID, o ssc.Opening) error {
	if ctx.Global.Has(ssc.TagOpening, id) {
		return ErrAlreadyConfirmed
	}
	if acc.Has(ssc.TagOpening, id) {
		return ErrDuplicateContributor
	}
	sc, err := lookupCommitment(ctx, acc, id)
	if err != nil {
		return err
	}
	if !vss.VerifyOpening(sc.Commitment, o) {
		return ErrOpeningMismatch
	}
	acc.Openings[id] = o
	return nil
}

func applyShares(ctx Context, acc *ssc.TossModifier, id ssc.StakeholderID, bundle ssc.SharesBundle) error {
	if ctx.Global.Has(ssc.TagShares, id) {
		return ErrAlreadyConfirmed
	}
	if acc.Has(ssc.TagShares, id) {
		return ErrDuplicateContributor
	}
	if len(bundle) == 0 {
		return ErrMalformedShares
	}
	cert, ok := lookupCertificate(ctx, acc, id)
	if !ok {
		return ErrSharesWithoutCert
	}
	dealers := make([]ssc.StakeholderID, 0, len(bundle))
	for dealer, share := range bundle {
		if len(share) == 0 {
			return ErrMalformedShares
		}
		dealers = append(dealers, dealer)
	}
	sort.Slice(dealers, func(i, j int) bool { return dealers[i] < dealers[j] })
	for _, dealer := range dealers {
		if _, err := lookupCommitment(ctx, acc, dealer); err != nil {
			return err
		}
	}
	// Probabilistic spot check, index drawn from the per-call seed: the
	// chosen dealer's commitment must carry an encrypted share addressed to
	// the sender's vss key.
	dealer := dealers[pickIndex(ctx.Seed, len(dealers))]
	sc, _ := lookupCommitment(ctx, acc, dealer)
	if _, ok := sc.Commitment.Shares[hex.EncodeToString(cert.VssKey)]; !ok {
		return ErrShareNotAddressed
	}
	acc.Shares[id] = bundle
	return nil
}

func applyCertificate(ctx Context, acc *ssc.TossModifier, id ssc.StakeholderID, cert ssc.VssCertificate) error {
	if _, ok := ctx.Richmen[id]; !ok {
		return ErrNotRichman
	}
	if ssc.StakeholderOf(cert.PubKey) != id {
		return ErrWrongStakeholder
	}
	if ctx.Global.Has(ssc.TagCertificate, id) {
		return ErrAlreadyConfirmed
	}
	if acc.Has(ssc.TagCertificate, id) {
		return ErrDuplicateContributor
	}
	if cert.ExpiryEpoch < ctx.Epoch {
		return ErrCertificateExpired
	}
	if !vss.VerifyCertificateSignature(cert) {
		return ErrBadCertificateSignature
	}
	acc.Certificates[id] = cert
	return nil
}

func lookupCommitment(ctx Context, acc *ssc.TossModifier, id ssc.StakeholderID) (ssc.SignedCommitment, error) {
	if sc, ok := acc.Commitments[id]; ok {
		return sc, nil
	}
	if ctx.Global != nil {
		if sc, ok := ctx.Global.Commitments[id]; ok {
			return sc, nil
		}
	}
	return ssc.SignedCommitment{}, ErrNoCommitment
}

func lookupCertificate(ctx Context, acc *ssc.TossModifier, id ssc.StakeholderID) (ssc.VssCertificate, bool) {
	if c, ok := acc.Certificates[id]; ok {
		return c, true
	}
	if ctx.Global != nil {
		if c, ok := ctx.Global.Certificates[id]; ok {
			return c, true
		}
	}
	return ssc.VssCertificate{}, false
}

func pickIndex(seed Seed, n int) int {
	if n <= 1 {
		return 0
	}
	return int(binary.BigEndian.Uint64(seed[:8]) % uint64(n))
}

func sortedIDs(ids []ssc.StakeholderID) []ssc.StakeholderID {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func sortedCommitmentIDs(m map[ssc.StakeholderID]ssc.SignedCommitment) []ssc.StakeholderID {
	ids := make([]ssc.StakeholderID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return sortedIDs(ids)
}

func sortedOpeningIDs(m map[ssc.StakeholderID]ssc.Opening) []ssc.StakeholderID {
	ids := make([]ssc.StakeholderID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return sortedIDs(ids)
}

func sortedShareIDs(m map[ssc.StakeholderID]ssc.SharesBundle) []ssc.StakeholderID {
	ids := make([]ssc.StakeholderID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return sortedIDs(ids)
}

func sortedCertIDs(m map[ssc.StakeholderID]ssc.VssCertificate) []ssc.StakeholderID {
	ids := make([]ssc.StakeholderID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return sortedIDs(ids)
}
