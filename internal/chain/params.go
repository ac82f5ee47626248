package chain

import "github.com/zmlAEQ/godtoss-node/internal/ssc"

// StaticParams serves fixed chain parameters.
type StaticParams struct {
	p ssc.ChainParams
}

func NewStaticParams(p ssc.ChainParams) *StaticParams { return &StaticParams{p: p} }

func (s *StaticParams) Current() ssc.ChainParams { return s.p }
