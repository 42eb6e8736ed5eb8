package ledger_test

import (
	"testing"

	"github.com/forestrie/nimble/ledger"
	"github.com/forestrie/nimble/signature"
	"github.com/stretchr/testify/require"
)

func mustKeyPair(t *testing.T) signature.KeyPair {
	t.Helper()
	kp, err := signature.Generate()
	require.NoError(t, err)
	return kp
}

func TestReceiptOrderingIsDeterministic(t *testing.T) {
	kp1 := mustKeyPair(t)
	kp2 := mustKeyPair(t)
	kp3 := mustKeyPair(t)

	entries := []ledger.ReceiptEntry{
		{PublicKey: kp3.PublicKey(), Signature: []byte("c")},
		{PublicKey: kp1.PublicKey(), Signature: []byte("a")},
		{PublicKey: kp2.PublicKey(), Signature: []byte("b")},
	}

	r1 := ledger.NewReceipt(entries)

	reversed := []ledger.ReceiptEntry{entries[2], entries[1], entries[0]}
	r2 := ledger.NewReceipt(reversed)

	require.Equal(t, r1.Len(), 3)
	for i := range r1.Entries {
		require.True(t, r1.Entries[i].PublicKey.Bytes() != nil)
		require.Equal(t, r1.Entries[i].PublicKey.Bytes(), r2.Entries[i].PublicKey.Bytes())
	}
}

func TestHandleRoundTrip(t *testing.T) {
	raw := make([]byte, ledger.HandleSize)
	for i := range raw {
		raw[i] = byte(i)
	}
	h, err := ledger.HandleFromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, raw, h.Bytes())

	_, err = ledger.HandleFromBytes(raw[:10])
	require.ErrorIs(t, err, ledger.ErrInvalidHandle)
}

func TestNonceRoundTrip(t *testing.T) {
	n := ledger.NewNonce()
	raw := n.Bytes()
	require.Len(t, raw, ledger.NonceSize)

	n2, err := ledger.NonceFromBytes(raw)
	require.NoError(t, err)
	require.Equal(t, n, n2)
}
