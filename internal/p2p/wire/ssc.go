package wire

import (
	"errors"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
)

// Topic names for pubsub channels (stable identifiers).
const (
	TopicSsc = "godtoss/ssc/v1"
)

// Ssc is the wire form of one GodTossing contribution. Exactly one of the
// four bodies is set, matching Tag. JSON with lower_snake_case keys and
// base64 []byte fields.
type Ssc struct {
	Tag         string                `json:"tag"`
	Stakeholder string                `json:"stakeholder,omitempty"`
	Commitment  *ssc.SignedCommitment `json:"commitment,omitempty"`
	Opening     *ssc.Opening          `json:"opening,omitempty"`
	Shares      ssc.SharesBundle      `json:"shares,omitempty"`
	Certificate *ssc.VssCertificate   `json:"certificate,omitempty"`
	TraceID     string                `json:"trace_id,omitempty"`
}

var ErrBadMessage = errors.New("ssc wire message malformed")

// Validate checks that the message carries exactly the body its tag names.
func (w Ssc) Validate() error {
	switch ssc.Tag(w.Tag) {
	case ssc.TagCommitment:
		if w.Commitment == nil {
			return ErrBadMessage
		}
	case ssc.TagOpening:
		if w.Opening == nil || w.Stakeholder == "" {
			return ErrBadMessage
		}
	case ssc.TagShares:
		if len(w.Shares) == 0 || w.Stakeholder == "" {
			return ErrBadMessage
		}
	case ssc.TagCertificate:
		if w.Certificate == nil {
			return ErrBadMessage
		}
	default:
		return ErrBadMessage
	}
	return nil
}

// StakeholderID resolves the contributor the message is about. For
// commitments and certificates it is derived from the embedded public key.
func (w Ssc) StakeholderID() ssc.StakeholderID {
	switch ssc.Tag(w.Tag) {
	case ssc.TagCommitment:
		if w.Commitment != nil {
			return ssc.StakeholderOf(w.Commitment.PubKey)
		}
	case ssc.TagCertificate:
		if w.Certificate != nil {
			return ssc.StakeholderOf(w.Certificate.PubKey)
		}
	}
	return ssc.StakeholderID(w.Stakeholder)
}

// FromCommitment wraps a signed commitment for gossip.
func FromCommitment(sc ssc.SignedCommitment, traceID string) Ssc {
	return Ssc{Tag: string(ssc.TagCommitment), Commitment: &sc, TraceID: traceID}
}

// FromOpening wraps an opening for gossip.
func FromOpening(id ssc.StakeholderID, o ssc.Opening, traceID string) Ssc {
	return Ssc{Tag: string(ssc.TagOpening), Stakeholder: string(id), Opening: &o, TraceID: traceID}
}

// FromShares wraps a shares bundle for gossip.
func FromShares(id ssc.StakeholderID, b ssc.SharesBundle, traceID string) Ssc {
	return Ssc{Tag: string(ssc.TagShares), Stakeholder: string(id), Shares: b, TraceID: traceID}
}

// FromCertificate wraps a certificate for gossip.
func FromCertificate(cert ssc.VssCertificate, traceID string) Ssc {
	return Ssc{Tag: string(ssc.TagCertificate), Certificate: &cert, TraceID: traceID}
}
