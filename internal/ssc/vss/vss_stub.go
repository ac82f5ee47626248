//go:build !blst

package vss

// verifyBLS rejects BLS-keyed signatures when built without the 'blst' tag.
func verifyBLS(_, _, _ []byte) bool { return false }
