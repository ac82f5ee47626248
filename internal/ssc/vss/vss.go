// Package vss implements the signature and digest checks behind GodTossing
// contributions. The default build verifies ed25519 stakeholder signatures;
// 48-byte BLS12-381 keys are verified through blst when built with the
// 'blst' tag and rejected otherwise.
package vss

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/zmlAEQ/godtoss-node/internal/ssc"
)

const (
	dstCommitment  = "godtoss/commitment/v1"
	dstCertificate = "godtoss/certificate/v1"

	blsPubKeySize = 48
)

// CommitmentDigest is the message a dealer signs: domain tag, epoch, proof,
// and the encrypted shares in key order.
func CommitmentDigest(epoch ssc.EpochIndex, c ssc.Commitment) []byte {
	h := sha256.New()
	h.Write([]byte(dstCommitment))
	var eb [8]byte
	binary.BigEndian.PutUint64(eb[:], uint64(epoch))
	h.Write(eb[:])
	h.Write(c.Proof)
	keys := make([]string, 0, len(c.Shares))
	for k := range c.Shares {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write(c.Shares[k])
	}
	return h.Sum(nil)
}

// CertificateDigest is the message a certificate holder signs.
func CertificateDigest(vssKey []byte, expiry ssc.EpochIndex) []byte {
	h := sha256.New()
	h.Write([]byte(dstCertificate))
	var eb [8]byte
	binary.BigEndian.PutUint64(eb[:], uint64(expiry))
	h.Write(eb[:])
	h.Write(vssKey)
	return h.Sum(nil)
}

// SignCommitment produces a dealer-signed commitment for an epoch.
func SignCommitment(priv ed25519.PrivateKey, epoch ssc.EpochIndex, c ssc.Commitment) ssc.SignedCommitment {
	return ssc.SignedCommitment{
		PubKey:     append([]byte(nil), priv.Public().(ed25519.PublicKey)...),
		Epoch:      epoch,
		Commitment: c,
		Sig:        ed25519.Sign(priv, CommitmentDigest(epoch, c)),
	}
}

// VerifyCommitmentSignature checks the dealer signature over the commitment.
func VerifyCommitmentSignature(sc ssc.SignedCommitment) bool {
	digest := CommitmentDigest(sc.Epoch, sc.Commitment)
	return verifySig(sc.PubKey, digest, sc.Sig)
}

// NewCertificate produces a signed VSS certificate.
func NewCertificate(priv ed25519.PrivateKey, vssKey []byte, expiry ssc.EpochIndex) ssc.VssCertificate {
	return ssc.VssCertificate{
		VssKey:      append([]byte(nil), vssKey...),
		ExpiryEpoch: expiry,
		PubKey:      append([]byte(nil), priv.Public().(ed25519.PublicKey)...),
		Sig:         ed25519.Sign(priv, CertificateDigest(vssKey, expiry)),
	}
}

// VerifyCertificateSignature checks the holder signature over the VSS key
// and expiry.
func VerifyCertificateSignature(cert ssc.VssCertificate) bool {
	digest := CertificateDigest(cert.VssKey, cert.ExpiryEpoch)
	return verifySig(cert.PubKey, digest, cert.Sig)
}

func verifySig(pub, digest, sig []byte) bool {
	switch len(pub) {
	case ed25519.PublicKeySize:
		if len(sig) != ed25519.SignatureSize {
			return false
		}
		return ed25519.Verify(ed25519.PublicKey(pub), digest, sig)
	case blsPubKeySize:
		return verifyBLS(pub, digest, sig)
	}
	return false
}

// VerifyOpening checks a revealed secret against the commitment proof.
func VerifyOpening(c ssc.Commitment, o ssc.Opening) bool {
	if len(o.Secret) == 0 {
		return false
	}
	sum := sha256.Sum256(o.Secret)
	return bytes.Equal(sum[:], c.Proof)
}

// SecretProof derives the proof digest a commitment must carry for a secret.
func SecretProof(secret []byte) []byte {
	sum := sha256.Sum256(secret)
	return sum[:]
}
