package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DownloadClaim is the payload embedded in a signed download token. The
// assignment ID is part of the signed claim so a leaked token stays scoped
// to one export of one assignment.
type DownloadClaim struct {
	ExportID     string `json:"exportId"`
	AssignmentID int64  `json:"assignmentId"`
	Bundle       string `json:"bundle"`
	ExpiresAt    int64  `json:"expiresAt"`
}

// SignedURLSigner mints and verifies download tokens for stored bundles.
// Token layout: base64url(claim JSON) "." base64url(HMAC-SHA256 over the
// encoded claim).
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner constructs a signer with the provided secret and TTL.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &SignedURLSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Generate signs a download claim for the stored bundle.
func (s *SignedURLSigner) Generate(exportID string, assignmentID int64, bundle string) (string, time.Time, error) {
	if exportID == "" || bundle == "" || assignmentID <= 0 {
		return "", time.Time{}, fmt.Errorf("export ID, assignment ID and bundle name required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	claim := DownloadClaim{
		ExportID:     exportID,
		AssignmentID: assignmentID,
		Bundle:       bundle,
		ExpiresAt:    expiresAt.Unix(),
	}
	body, err := json.Marshal(claim)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("encode claim: %w", err)
	}
	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + s.sign(encoded), expiresAt, nil
}

// Parse verifies the signature and expiry and returns the embedded claim.
// When allowExpired is true the expiry check is skipped (cleanup paths).
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (*DownloadClaim, error) {
	encoded, signature, found := strings.Cut(token, ".")
	if !found || encoded == "" || signature == "" {
		return nil, fmt.Errorf("invalid token format")
	}
	// verify before decoding so unsigned input never reaches the JSON parser
	if !hmac.Equal([]byte(s.sign(encoded)), []byte(signature)) {
		return nil, fmt.Errorf("invalid token signature")
	}

	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode claim: %w", err)
	}
	var claim DownloadClaim
	if err := json.Unmarshal(body, &claim); err != nil {
		return nil, fmt.Errorf("decode claim: %w", err)
	}

	if !allowExpired && time.Now().After(time.Unix(claim.ExpiresAt, 0)) {
		return nil, fmt.Errorf("token expired")
	}
	return &claim, nil
}

func (s *SignedURLSigner) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(encoded))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
