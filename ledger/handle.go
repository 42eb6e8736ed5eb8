// Package ledger holds the data types shared by the endorser and
// coordinator tiers: Handle, Nonce, and Receipt (spec.md §3).
package ledger

import (
	"encoding/hex"
	"errors"
)

// HandleSize is the fixed width, in bytes, of a ledger handle.
const HandleSize = 32

// Handle is the opaque 32-byte identifier of a ledger, coordinator-supplied
// and treated by the endorser as opaque and unique (spec.md §3).
type Handle [HandleSize]byte

// ErrInvalidHandle is returned when raw bytes cannot form a Handle.
var ErrInvalidHandle = errors.New("ledger: handle must be exactly 32 bytes")

// HandleFromBytes validates and wraps raw handle bytes.
func HandleFromBytes(raw []byte) (Handle, error) {
	var h Handle
	if len(raw) != HandleSize {
		return h, ErrInvalidHandle
	}
	copy(h[:], raw)
	return h, nil
}

// Bytes returns a copy of the handle's underlying bytes.
func (h Handle) Bytes() []byte {
	out := make([]byte, HandleSize)
	copy(out, h[:])
	return out
}

// String renders the handle as lowercase hex, for logging.
func (h Handle) String() string {
	return hex.EncodeToString(h[:])
}
