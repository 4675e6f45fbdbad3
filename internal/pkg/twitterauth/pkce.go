package twitterauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// verifierBytes is the amount of randomness behind a code verifier. 32 bytes
// encode to 43 base64url characters, the RFC 7636 minimum verifier length.
const verifierBytes = 32

// GenerateVerifier returns a fresh PKCE code verifier: base64url without
// padding over cryptographically secure random bytes. There is no fallback
// randomness source; if crypto/rand fails the whole flow must abort.
func GenerateVerifier() (string, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("secure random source unavailable: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DeriveChallenge computes the S256 code challenge for a verifier per
// RFC 7636: base64url (no padding) of the SHA-256 digest.
func DeriveChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState returns an unguessable anti-CSRF state token. It shares the
// randomness source with GenerateVerifier but is an independent value.
func GenerateState() (string, error) {
	b := make([]byte, verifierBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("secure random source unavailable: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
