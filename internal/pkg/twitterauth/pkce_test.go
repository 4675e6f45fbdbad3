package twitterauth

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveChallengeRFC7636Vector(t *testing.T) {
	// Appendix B of RFC 7636
	const verifier = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	const want = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	assert.Equal(t, want, DeriveChallenge(verifier))
	// Deterministic
	assert.Equal(t, DeriveChallenge(verifier), DeriveChallenge(verifier))
}

func TestGenerateVerifierShape(t *testing.T) {
	v, err := GenerateVerifier()
	require.NoError(t, err)

	// 32 bytes -> 43 unpadded base64url chars, the RFC minimum
	assert.Len(t, v, 43)
	assert.Regexp(t, regexp.MustCompile(`^[A-Za-z0-9_-]+$`), v)
}

func TestGeneratedValuesNeverRepeat(t *testing.T) {
	v1, err := GenerateVerifier()
	require.NoError(t, err)
	v2, err := GenerateVerifier()
	require.NoError(t, err)
	s1, err := GenerateState()
	require.NoError(t, err)
	s2, err := GenerateState()
	require.NoError(t, err)

	assert.NotEqual(t, v1, v2)
	assert.NotEqual(t, s1, s2)
	assert.NotEqual(t, v1, s1)
	assert.NotEqual(t, v2, s2)
}
