// Package ssc holds the shared-seed-computation (GodTossing) data model: the
// epoch/slot coordinates, the four contribution kinds exchanged during an
// epoch, the four block-payload shapes, and the local working-set layered on
// top of the confirmed chain state.
package ssc

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// EpochIndex identifies a protocol epoch. Monotonically increasing.
type EpochIndex uint64

// LocalSlotIndex is a slot position inside one epoch.
type LocalSlotIndex uint64

// SlotID pins a slot to its epoch.
type SlotID struct {
	Epoch EpochIndex     `json:"epoch"`
	Slot  LocalSlotIndex `json:"slot"`
}

// StakeholderID is the stable identifier of a stake-holding participant,
// derived from its public key.
type StakeholderID string

// StakeholderOf derives the stakeholder id from a signing public key.
func StakeholderOf(pub []byte) StakeholderID {
	sum := sha256.Sum256(pub)
	return StakeholderID(hex.EncodeToString(sum[:20]))
}

// RichmenStakes maps eligible stakeholders to their stake weight for one
// specific epoch. Immutable once fetched.
type RichmenStakes map[StakeholderID]uint64

// Tag names one of the four contribution kinds.
type Tag string

const (
	TagCommitment  Tag = "commitment"
	TagOpening     Tag = "opening"
	TagShares      Tag = "shares"
	TagCertificate Tag = "certificate"
)

// Commitment is the first-phase message: a proof digest of the dealer's
// secret plus one encrypted share per participant VSS key (hex encoded).
type Commitment struct {
	Proof  []byte            `json:"proof"`
	Shares map[string][]byte `json:"shares"`
}

// SignedCommitment binds a commitment to its dealer for a given epoch.
type SignedCommitment struct {
	PubKey     []byte     `json:"pub_key"`
	Epoch      EpochIndex `json:"epoch"`
	Commitment Commitment `json:"commitment"`
	Sig        []byte     `json:"sig"`
}

// Opening reveals the secret behind an earlier commitment.
type Opening struct {
	Secret []byte `json:"secret"`
}

// SharesBundle carries the shares a participant decrypted on behalf of
// dealers that failed to reveal, keyed by dealer id.
type SharesBundle map[StakeholderID][]byte

// VssCertificate publishes the VSS public key a stakeholder uses to receive
// encrypted shares. Valid until ExpiryEpoch inclusive.
type VssCertificate struct {
	VssKey      []byte     `json:"vss_key"`
	ExpiryEpoch EpochIndex `json:"expiry_epoch"`
	PubKey      []byte     `json:"pub_key"`
	Sig         []byte     `json:"sig"`
}

// SizeBytes returns the canonical serialized size of v. All mempool size
// accounting and the store size invariant use this single encoder.
func SizeBytes(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return len(b)
}
