package storage

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignedURLRoundTrip(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, expiresAt, err := signer.Generate("exp-1", 42, "algebra_2_20260829.zip")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	claim, err := signer.Parse(token, false)
	require.NoError(t, err)
	assert.Equal(t, "exp-1", claim.ExportID)
	assert.Equal(t, int64(42), claim.AssignmentID)
	assert.Equal(t, "algebra_2_20260829.zip", claim.Bundle)
}

func TestSignedURLRejectsTampering(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("exp-1", 42, "bundle.zip")
	require.NoError(t, err)

	_, err = signer.Parse(token+"x", false)
	assert.Error(t, err)

	other := NewSignedURLSigner("other-secret", time.Hour)
	_, err = other.Parse(token, false)
	assert.Error(t, err)
}

func TestSignedURLRejectsRewrittenClaim(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	token, _, err := signer.Generate("exp-1", 42, "bundle.zip")
	require.NoError(t, err)

	// re-point the claim at a different assignment while keeping the
	// original signature
	encoded, signature, found := strings.Cut(token, ".")
	require.True(t, found)
	body, err := base64.RawURLEncoding.DecodeString(encoded)
	require.NoError(t, err)
	var claim DownloadClaim
	require.NoError(t, json.Unmarshal(body, &claim))
	claim.AssignmentID = 99
	forged, err := json.Marshal(claim)
	require.NoError(t, err)

	forgedToken := base64.RawURLEncoding.EncodeToString(forged) + "." + signature
	_, err = signer.Parse(forgedToken, false)
	assert.Error(t, err)
}

func TestSignedURLExpiry(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Nanosecond)
	token, _, err := signer.Generate("exp-1", 42, "bundle.zip")
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	_, err = signer.Parse(token, false)
	assert.Error(t, err)

	claim, err := signer.Parse(token, true)
	require.NoError(t, err)
	assert.Equal(t, "bundle.zip", claim.Bundle)
}

func TestSignedURLRequiresInputs(t *testing.T) {
	signer := NewSignedURLSigner("secret", time.Hour)
	_, _, err := signer.Generate("", 42, "bundle.zip")
	assert.Error(t, err)
	_, _, err = signer.Generate("exp-1", 0, "bundle.zip")
	assert.Error(t, err)
	_, _, err = signer.Generate("exp-1", 42, "")
	assert.Error(t, err)
}
