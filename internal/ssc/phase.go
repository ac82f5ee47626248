package ssc

// Phase windows inside one epoch of 10K slots:
//
//	commitment [0, 2K)   opening [4K, 6K)   shares [8K, 10K)
//
// The gaps leave time for contributions to reach the chain before the next
// phase depends on them. Certificates have no window.

func (p ChainParams) IsCommitmentIdx(idx LocalSlotIndex) bool {
	return uint64(idx) < 2*p.K
}

func (p ChainParams) IsOpeningIdx(idx LocalSlotIndex) bool {
	return uint64(idx) >= 4*p.K && uint64(idx) < 6*p.K
}

func (p ChainParams) IsSharesIdx(idx LocalSlotIndex) bool {
	return uint64(idx) >= 8*p.K && uint64(idx) < 10*p.K
}

// IsGoodSlotForTag reports whether a contribution kind is acceptable at the
// given slot index. Certificates are acceptable at any slot.
func IsGoodSlotForTag(tag Tag, idx LocalSlotIndex, p ChainParams) bool {
	switch tag {
	case TagCommitment:
		return p.IsCommitmentIdx(idx)
	case TagOpening:
		return p.IsOpeningIdx(idx)
	case TagShares:
		return p.IsSharesIdx(idx)
	case TagCertificate:
		return true
	}
	return false
}
