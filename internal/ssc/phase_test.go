package ssc

import "testing"

func TestPhaseWindows(t *testing.T) {
	p := ChainParams{K: 2} // epoch of 20 slots: commitment [0,4), opening [8,12), shares [16,20)

	cases := []struct {
		tag  Tag
		idx  LocalSlotIndex
		want bool
	}{
		{TagCommitment, 0, true},
		{TagCommitment, 3, true},
		{TagCommitment, 4, false},
		{TagCommitment, 19, false},
		{TagOpening, 7, false},
		{TagOpening, 8, true},
		{TagOpening, 11, true},
		{TagOpening, 12, false},
		{TagShares, 15, false},
		{TagShares, 16, true},
		{TagShares, 19, true},
		{TagCertificate, 0, true},
		{TagCertificate, 7, true},
		{TagCertificate, 19, true},
	}
	for _, c := range cases {
		if got := IsGoodSlotForTag(c.tag, c.idx, p); got != c.want {
			t.Fatalf("IsGoodSlotForTag(%s, %d) = %v, want %v", c.tag, c.idx, got, c.want)
		}
	}
}

func TestPhaseWindowsDisjoint(t *testing.T) {
	p := ChainParams{K: 3}
	for idx := uint64(0); idx < p.SlotsPerEpoch(); idx++ {
		n := 0
		for _, tag := range []Tag{TagCommitment, TagOpening, TagShares} {
			if IsGoodSlotForTag(tag, LocalSlotIndex(idx), p) {
				n++
			}
		}
		if n > 1 {
			t.Fatalf("slot %d acceptable for %d phases", idx, n)
		}
	}
}

func TestUnknownTagNeverGood(t *testing.T) {
	if IsGoodSlotForTag(Tag("bogus"), 0, DefaultParams()) {
		t.Fatalf("unknown tag accepted")
	}
}

func TestMempoolBudget(t *testing.T) {
	p := ChainParams{MaxBlockSize: 100, MempoolFactor: 2}
	if got := p.MempoolBudget(); got != 200 {
		t.Fatalf("budget = %d, want 200", got)
	}
	p.MempoolFactor = 0
	if got := p.MempoolBudget(); got != 200 {
		t.Fatalf("default-factor budget = %d, want 200", got)
	}
}
