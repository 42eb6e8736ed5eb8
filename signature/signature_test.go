package signature_test

import (
	"testing"

	"github.com/forestrie/nimble/signature"
	"github.com/stretchr/testify/require"
)

func TestSignVerifyRoundTrip(t *testing.T) {
	kp, err := signature.Generate()
	require.NoError(t, err)

	message := []byte("tail || handle || height")
	sig := kp.Sign(message)
	require.True(t, kp.PublicKey().Verify(message, sig))
}

func TestVerifyFailsOnAlteredByte(t *testing.T) {
	kp, err := signature.Generate()
	require.NoError(t, err)

	message := []byte("tail || handle || height")
	sig := kp.Sign(message)

	altered := append([]byte(nil), message...)
	altered[0] ^= 0xff
	require.False(t, kp.PublicKey().Verify(altered, sig))

	alteredSig := append([]byte(nil), sig...)
	alteredSig[0] ^= 0xff
	require.False(t, kp.PublicKey().Verify(message, alteredSig))
}

func TestSelfSignature(t *testing.T) {
	kp, err := signature.Generate()
	require.NoError(t, err)

	sig := kp.SelfSign()
	require.True(t, kp.PublicKey().Verify(kp.PublicKey().Bytes(), sig))
}

func TestPublicKeyFromBytesRejectsWrongLength(t *testing.T) {
	_, err := signature.PublicKeyFromBytes([]byte{1, 2, 3})
	require.ErrorIs(t, err, signature.ErrInvalidPublicKey)
}
