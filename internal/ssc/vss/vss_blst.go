//go:build blst

package vss

import (
	blst "github.com/supranational/blst/bindings/go"
)

const dstBLS = "BLS_SIG_BLS12381G2_XMD:SHA-256_SSWU_RO_NUL_"

// verifyBLS verifies a min-pk BLS12-381 signature (48-byte pk, 96-byte sig).
func verifyBLS(pub, digest, sig []byte) bool {
	pk := new(blst.P1Affine).Uncompress(pub)
	if pk == nil {
		return false
	}
	sg := new(blst.P2Affine).Uncompress(sig)
	if sg == nil {
		return false
	}
	return sg.Verify(true, pk, true, digest, []byte(dstBLS))
}
