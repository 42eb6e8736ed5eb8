// Package digest provides the 32-byte collision-resistant hash used
// throughout Nimble to chain ledger tails and identify handles.
package digest

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Size is the width, in bytes, of a Digest.
const Size = 32

// Digest is a fixed 32-byte hash value. The zero value is the distinguished
// zero-digest used as the genesis predecessor and, for append calls, as the
// unconditional-append sentinel (spec.md §4.1).
type Digest [Size]byte

// Zero is the distinguished all-zero digest.
var Zero Digest

// IsZero reports whether d is the all-zero digest.
func (d Digest) IsZero() bool {
	return d == Zero
}

// Bytes returns a copy of the digest's underlying bytes.
func (d Digest) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, d[:])
	return out
}

// Equal reports whether d and other hold the same bytes.
func (d Digest) Equal(other Digest) bool {
	return bytes.Equal(d[:], other[:])
}

// String renders the digest as lowercase hex, for logging.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// FromBytes copies raw into a Digest. It returns false if raw is not exactly
// Size bytes long.
func FromBytes(raw []byte) (Digest, bool) {
	var d Digest
	if len(raw) != Size {
		return d, false
	}
	copy(d[:], raw)
	return d, true
}

// Sum computes H(parts[0] ‖ parts[1] ‖ ... ) over the concatenation of parts,
// in order. This is the system hash H referenced throughout spec.md.
func Sum(parts ...[]byte) Digest {
	h := sha256.New()
	for _, p := range parts {
		h.Write(p)
	}
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// BigEndianHeight encodes a ledger height as the big-endian uint64 used in
// every chained-hash and signed-message layout in spec.md §4.1/§6.
func BigEndianHeight(height uint64) []byte {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], height)
	return buf[:]
}

// ChainNext computes tail_new = H(tail_old ‖ blockHash ‖ heightNew_be64), the
// append-chaining rule of spec.md §3/§4.1. Genesis is the special case
// tail_0 = H(0^32 ‖ handle ‖ 0^64), which callers obtain by passing the
// zero digest as tailOld, the handle bytes as blockHash, and height 0.
func ChainNext(tailOld Digest, blockHash []byte, heightNew uint64) Digest {
	return Sum(tailOld[:], blockHash, BigEndianHeight(heightNew))
}
