package ledger

import (
	"errors"

	"github.com/google/uuid"
)

// NonceSize is the fixed width, in bytes, of a client freshness nonce.
const NonceSize = 16

// Nonce is a 16-byte client-chosen freshness value included in read receipts
// to bind a signature to a specific query (spec.md §3). A UUID is exactly 16
// bytes wide, so Nonce is backed by google/uuid rather than a bare array.
type Nonce uuid.UUID

// ErrInvalidNonce is returned when raw bytes cannot form a Nonce.
var ErrInvalidNonce = errors.New("ledger: nonce must be exactly 16 bytes")

// NewNonce generates a fresh random nonce.
func NewNonce() Nonce {
	return Nonce(uuid.New())
}

// NonceFromBytes validates and wraps raw nonce bytes.
func NonceFromBytes(raw []byte) (Nonce, error) {
	if len(raw) != NonceSize {
		return Nonce{}, ErrInvalidNonce
	}
	id, err := uuid.FromBytes(raw)
	if err != nil {
		return Nonce{}, ErrInvalidNonce
	}
	return Nonce(id), nil
}

// Bytes returns a copy of the nonce's underlying bytes.
func (n Nonce) Bytes() []byte {
	id := uuid.UUID(n)
	out := make([]byte, NonceSize)
	copy(out, id[:])
	return out
}

// String renders the nonce in canonical UUID form, for logging.
func (n Nonce) String() string {
	return uuid.UUID(n).String()
}
