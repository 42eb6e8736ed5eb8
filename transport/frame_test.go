package transport_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/forestrie/nimble/transport"
)

func TestWriteReadFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("the quick brown fox")

	require.NoError(t, transport.WriteFrame(&buf, payload))

	got, err := transport.ReadFrame(&buf)
	require.NoError(t, err)
	require.Equal(t, payload, got)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	oversized := uint32(transport.MaxFrameSize) + 1
	buf.Write([]byte{byte(oversized >> 24), byte(oversized >> 16), byte(oversized >> 8), byte(oversized)})

	_, err := transport.ReadFrame(&buf)
	require.ErrorIs(t, err, transport.ErrFrameTooLarge)
}

func TestReadFrameRejectsTruncatedPayload(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0, 0, 0, 10})
	buf.Write([]byte("short"))

	_, err := transport.ReadFrame(&buf)
	require.Error(t, err)
}
