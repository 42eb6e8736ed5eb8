// Package transport implements the length-prefixed TCP framing that
// rpcwire messages travel over (spec.md §6: "Endorser binds to a single
// TCP listener"). It knows nothing about CBOR or the endorser/coordinator
// verbs; it only moves opaque byte frames.
package transport

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
)

// MaxFrameSize bounds a single frame so a corrupt or hostile length
// prefix cannot force an unbounded allocation.
const MaxFrameSize = 64 << 20 // 64MiB

// ErrFrameTooLarge is returned by ReadFrame when the declared length
// exceeds MaxFrameSize.
var ErrFrameTooLarge = errors.New("transport: frame exceeds maximum size")

// WriteFrame writes payload as a big-endian uint32 length prefix
// followed by the payload bytes.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("transport: writing frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("transport: writing frame payload: %w", err)
	}
	return nil
}

// ReadFrame reads one length-prefixed frame written by WriteFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("transport: reading frame length: %w", err)
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > MaxFrameSize {
		return nil, ErrFrameTooLarge
	}
	payload := make([]byte, n)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("transport: reading frame payload: %w", err)
	}
	return payload, nil
}

// Dial opens a plain TCP connection to addr. Each rpcwire call dials a
// fresh connection (spec.md §4.4: "one outstanding request per endorser
// stub is sufficient"), so no in-band request multiplexing is needed.
func Dial(addr string) (net.Conn, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: dialing %s: %w", addr, err)
	}
	return conn, nil
}

// Listen binds a TCP listener at addr.
func Listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("transport: listening on %s: %w", addr, err)
	}
	return ln, nil
}
