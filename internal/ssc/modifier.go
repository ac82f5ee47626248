package ssc

// TossModifier is the accumulated, not-yet-confirmed working-set of
// contributions: four parallel maps, at most one entry per stakeholder per
// map per epoch. Entries are treated as immutable once inserted; mutation
// always goes through Clone, so snapshots handed to readers stay stable.
type TossModifier struct {
	Commitments  map[StakeholderID]SignedCommitment `json:"commitments"`
	Openings     map[StakeholderID]Opening          `json:"openings"`
	Shares       map[StakeholderID]SharesBundle     `json:"shares"`
	Certificates map[StakeholderID]VssCertificate   `json:"certificates"`
}

func NewTossModifier() TossModifier {
	return TossModifier{
		Commitments:  map[StakeholderID]SignedCommitment{},
		Openings:     map[StakeholderID]Opening{},
		Shares:       map[StakeholderID]SharesBundle{},
		Certificates: map[StakeholderID]VssCertificate{},
	}
}

// Clone copies the four maps. Entry values are shared; they are never
// mutated in place.
func (m TossModifier) Clone() TossModifier {
	out := NewTossModifier()
	for id, v := range m.Commitments {
		out.Commitments[id] = v
	}
	for id, v := range m.Openings {
		out.Openings[id] = v
	}
	for id, v := range m.Shares {
		out.Shares[id] = v
	}
	for id, v := range m.Certificates {
		out.Certificates[id] = v
	}
	return out
}

// Has reports whether a contribution of the given kind from the given
// stakeholder is already present.
func (m TossModifier) Has(tag Tag, id StakeholderID) bool {
	switch tag {
	case TagCommitment:
		_, ok := m.Commitments[id]
		return ok
	case TagOpening:
		_, ok := m.Openings[id]
		return ok
	case TagShares:
		_, ok := m.Shares[id]
		return ok
	case TagCertificate:
		_, ok := m.Certificates[id]
		return ok
	}
	return false
}

// SizeBytes is the canonical serialized size of the working-set.
func (m TossModifier) SizeBytes() int { return SizeBytes(m) }

// GlobalState mirrors the confirmed (blockchain-included) contributions for
// the current epoch. Read-only from the local-data core's perspective.
type GlobalState struct {
	Commitments  map[StakeholderID]SignedCommitment `json:"commitments"`
	Openings     map[StakeholderID]Opening          `json:"openings"`
	Shares       map[StakeholderID]SharesBundle     `json:"shares"`
	Certificates map[StakeholderID]VssCertificate   `json:"certificates"`
}

func NewGlobalState() *GlobalState {
	return &GlobalState{
		Commitments:  map[StakeholderID]SignedCommitment{},
		Openings:     map[StakeholderID]Opening{},
		Shares:       map[StakeholderID]SharesBundle{},
		Certificates: map[StakeholderID]VssCertificate{},
	}
}

func (g *GlobalState) Has(tag Tag, id StakeholderID) bool {
	if g == nil {
		return false
	}
	switch tag {
	case TagCommitment:
		_, ok := g.Commitments[id]
		return ok
	case TagOpening:
		_, ok := g.Openings[id]
		return ok
	case TagShares:
		_, ok := g.Shares[id]
		return ok
	case TagCertificate:
		_, ok := g.Certificates[id]
		return ok
	}
	return false
}
