package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	token, expiresAt, err := signer.Generate("intent-1", "certificates/intent-1.pdf")
	require.NoError(t, err)
	require.True(t, expiresAt.After(time.Now()))

	id, relPath, parsedExpiry, err := signer.Parse(token)
	require.NoError(t, err)
	require.Equal(t, "intent-1", id)
	require.Equal(t, "certificates/intent-1.pdf", relPath)
	require.Equal(t, expiresAt.Unix(), parsedExpiry.Unix())
}

func TestSignedURLRejectsTamperedToken(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	token, _, err := signer.Generate("intent-1", "certificates/intent-1.pdf")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	parts[0] = "intent-2"
	_, _, _, err = signer.Parse(strings.Join(parts, "."))
	require.ErrorContains(t, err, "signature")
}

func TestSignedURLRejectsForeignSecret(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)
	other := NewSignedURLSigner("other-secret", time.Hour)

	token, _, err := signer.Generate("intent-1", "certificates/intent-1.pdf")
	require.NoError(t, err)

	_, _, _, err = other.Parse(token)
	require.ErrorContains(t, err, "signature")
}

func TestSignedURLRejectsExpiredToken(t *testing.T) {
	signer := &SignedURLSigner{secret: []byte("test-secret"), ttl: -time.Minute}

	token, _, err := signer.Generate("intent-1", "certificates/intent-1.pdf")
	require.NoError(t, err)

	_, _, _, err = signer.Parse(token)
	require.ErrorContains(t, err, "expired")
}

func TestSignedURLRejectsMalformedToken(t *testing.T) {
	signer := NewSignedURLSigner("test-secret", time.Hour)

	_, _, _, err := signer.Parse("not-a-token")
	require.ErrorContains(t, err, "malformed")
}
