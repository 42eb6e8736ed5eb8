// Package signature wraps the EdDSA-style signing keypair each endorser
// holds for the lifetime of its process (spec.md §3, §4.1).
//
// Every signed message in Nimble is a bit-exact, fixed-width byte
// concatenation (spec.md §6) — never a self-describing envelope — so that a
// verifier needs nothing beyond crypto/ed25519 and the per-verb layout table
// to reproduce and check a signature. This mirrors the teacher's own
// commitment to an exact, independently reproducible signed root
// (massifs/rootsigner.go), generalized from ECDSA-over-COSE to a bare
// ed25519 signature over raw bytes (see DESIGN.md for why the COSE envelope
// itself is not carried forward).
package signature

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
)

// PublicKeySize and SignatureSize are the raw ed25519 widths.
const (
	PublicKeySize = ed25519.PublicKeySize
	SignatureSize = ed25519.SignatureSize
)

// ErrInvalidPublicKey is returned when raw bytes cannot be interpreted as an
// ed25519 public key.
var ErrInvalidPublicKey = errors.New("signature: invalid public key length")

// PublicKey is the raw ed25519 public key of an endorser. It is immutable
// for the lifetime of the endorser instance that generated it (spec.md §3).
type PublicKey struct {
	raw ed25519.PublicKey
}

// PublicKeyFromBytes validates and wraps raw public key bytes.
func PublicKeyFromBytes(raw []byte) (PublicKey, error) {
	if len(raw) != PublicKeySize {
		return PublicKey{}, fmt.Errorf("%w: got %d bytes", ErrInvalidPublicKey, len(raw))
	}
	pk := make(ed25519.PublicKey, PublicKeySize)
	copy(pk, raw)
	return PublicKey{raw: pk}, nil
}

// Bytes returns the raw public key bytes.
func (p PublicKey) Bytes() []byte {
	out := make([]byte, PublicKeySize)
	copy(out, p.raw)
	return out
}

// String is a stable map key for a public key: its hex-free raw byte
// string. Used as the ConnectionStore map key; Receipt ordering compares
// Bytes() instead.
func (p PublicKey) String() string {
	return string(p.raw)
}

// Verify checks sig against message under this public key.
func (p PublicKey) Verify(message, sig []byte) bool {
	if len(sig) != SignatureSize || len(p.raw) != PublicKeySize {
		return false
	}
	return ed25519.Verify(p.raw, message, sig)
}

// KeyPair is a process-scoped ed25519 signing keypair. An endorser creates
// exactly one at startup (spec.md §3: "The signing key is created once at
// endorser startup"); it must never be held as a package-level singleton
// (spec.md §9) — callers own an instance and pass it explicitly.
type KeyPair struct {
	public  PublicKey
	private ed25519.PrivateKey
}

// Generate creates a fresh random keypair.
func Generate() (KeyPair, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return KeyPair{}, fmt.Errorf("signature: generating keypair: %w", err)
	}
	return KeyPair{public: PublicKey{raw: pub}, private: priv}, nil
}

// PublicKey returns the keypair's public half.
func (k KeyPair) PublicKey() PublicKey {
	return k.public
}

// Sign signs message and returns the raw signature bytes.
func (k KeyPair) Sign(message []byte) []byte {
	return ed25519.Sign(k.private, message)
}

// SelfSign produces the self-signature over the keypair's own public key
// bytes, used by GetPublicKey to bind a key to its endorser without a PKI
// (spec.md §4.1).
func (k KeyPair) SelfSign() []byte {
	return k.Sign(k.public.Bytes())
}
