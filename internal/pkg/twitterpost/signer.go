package twitterpost

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"
)

// OAuth1Credentials holds the app and user keys needed to sign requests
// against the v1.1-style OAuth 1.0a endpoints.
type OAuth1Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

// Valid reports whether all four keys are present.
func (c OAuth1Credentials) Valid() bool {
	return c.ConsumerKey != "" && c.ConsumerSecret != "" && c.AccessToken != "" && c.AccessSecret != ""
}

type signer struct {
	creds OAuth1Credentials
	nonce func() string
	now   func() time.Time
}

func newSigner(creds OAuth1Credentials) *signer {
	return &signer{
		creds: creds,
		nonce: generateNonce,
		now:   time.Now,
	}
}

func generateNonce() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("nonce generation failed: %v", err))
	}
	return strings.ToUpper(base64.RawURLEncoding.EncodeToString(b))
}

// percentEncode applies the stricter RFC 3986 encoding OAuth 1.0a requires.
func percentEncode(s string) string {
	encoded := url.QueryEscape(s)
	encoded = strings.ReplaceAll(encoded, "+", "%20")
	encoded = strings.ReplaceAll(encoded, "*", "%2A")
	encoded = strings.ReplaceAll(encoded, "%7E", "~")
	return encoded
}

// AuthorizationHeader builds the OAuth header for a request. Only oauth_*
// parameters and query/form parameters take part in the signature base;
// JSON bodies do not.
func (s *signer) AuthorizationHeader(method, rawURL string, params map[string]string) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     s.creds.ConsumerKey,
		"oauth_nonce":            s.nonce(),
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        fmt.Sprintf("%d", s.now().Unix()),
		"oauth_token":            s.creds.AccessToken,
		"oauth_version":          "1.0",
	}

	all := make(map[string]string, len(oauthParams)+len(params))
	for k, v := range oauthParams {
		all[k] = v
	}
	for k, v := range params {
		all[k] = v
	}

	oauthParams["oauth_signature"] = s.signature(method, rawURL, all)

	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf(`%s="%s"`, percentEncode(k), percentEncode(oauthParams[k])))
	}
	return "OAuth " + strings.Join(parts, ", ")
}

func (s *signer) signature(method, rawURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}

	base := strings.Join([]string{
		strings.ToUpper(method),
		percentEncode(rawURL),
		percentEncode(strings.Join(pairs, "&")),
	}, "&")

	signingKey := percentEncode(s.creds.ConsumerSecret) + "&" + percentEncode(s.creds.AccessSecret)
	mac := hmac.New(sha1.New, []byte(signingKey))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
