package rpcwire

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Marshal CBOR-encodes v, for use as an Envelope or Reply Payload.
func Marshal(v any) ([]byte, error) {
	b, err := cbor.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("rpcwire: encoding payload: %w", err)
	}
	return b, nil
}

// Unmarshal CBOR-decodes data into v.
func Unmarshal(data []byte, v any) error {
	if err := cbor.Unmarshal(data, v); err != nil {
		return fmt.Errorf("rpcwire: decoding payload: %w", err)
	}
	return nil
}
