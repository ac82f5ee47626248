package chain

import (
	"crypto/rand"

	"github.com/zmlAEQ/godtoss-node/internal/ssc/toss"
)

// CryptoSeedSource draws independent seeds from the OS CSPRNG. Safe for
// concurrent use; every Draw is an isolated value.
type CryptoSeedSource struct{}

func NewSeedSource() *CryptoSeedSource { return &CryptoSeedSource{} }

func (*CryptoSeedSource) Draw() toss.Seed {
	var s toss.Seed
	_, _ = rand.Read(s[:])
	return s
}
