package ssc

// Payload is the closed union of the four block-payload shapes. Exactly one
// concrete type exists per tag; dispatch must stay exhaustive.
type Payload interface {
	Tag() Tag
	// Stakeholders lists the contributors carried by the payload.
	Stakeholders() []StakeholderID
}

type CommitmentsPayload struct {
	Commitments map[StakeholderID]SignedCommitment `json:"commitments"`
}

type OpeningsPayload struct {
	Openings map[StakeholderID]Opening `json:"openings"`
}

type SharesPayload struct {
	Shares map[StakeholderID]SharesBundle `json:"shares"`
}

type CertificatesPayload struct {
	Certificates map[StakeholderID]VssCertificate `json:"certificates"`
}

func (CommitmentsPayload) Tag() Tag  { return TagCommitment }
func (OpeningsPayload) Tag() Tag     { return TagOpening }
func (SharesPayload) Tag() Tag       { return TagShares }
func (CertificatesPayload) Tag() Tag { return TagCertificate }

func (p CommitmentsPayload) Stakeholders() []StakeholderID {
	out := make([]StakeholderID, 0, len(p.Commitments))
	for id := range p.Commitments {
		out = append(out, id)
	}
	return out
}

func (p OpeningsPayload) Stakeholders() []StakeholderID {
	out := make([]StakeholderID, 0, len(p.Openings))
	for id := range p.Openings {
		out = append(out, id)
	}
	return out
}

func (p SharesPayload) Stakeholders() []StakeholderID {
	out := make([]StakeholderID, 0, len(p.Shares))
	for id := range p.Shares {
		out = append(out, id)
	}
	return out
}

func (p CertificatesPayload) Stakeholders() []StakeholderID {
	out := make([]StakeholderID, 0, len(p.Certificates))
	for id := range p.Certificates {
		out = append(out, id)
	}
	return out
}
