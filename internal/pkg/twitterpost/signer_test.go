package twitterpost

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Known-answer test using the signature example from the Twitter OAuth 1.0a
// developer documentation.
func TestSignatureKnownAnswer(t *testing.T) {
	s := newSigner(OAuth1Credentials{
		ConsumerKey:    "xvz1evFS4wEEPTGEFPHBog",
		ConsumerSecret: "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
		AccessToken:    "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
		AccessSecret:   "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
	})
	s.nonce = func() string { return "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg" }
	s.now = func() time.Time { return time.Unix(1318622958, 0) }

	sig := s.signature("POST", "https://api.twitter.com/1.1/statuses/update.json", map[string]string{
		"status":                 "Hello Ladies + Gentlemen, a signed OAuth request!",
		"include_entities":       "true",
		"oauth_consumer_key":     "xvz1evFS4wEEPTGEFPHBog",
		"oauth_nonce":            "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg",
		"oauth_signature_method": "HMAC-SHA1",
		"oauth_timestamp":        "1318622958",
		"oauth_token":            "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
		"oauth_version":          "1.0",
	})

	assert.Equal(t, "hCtSmYh+iHYCEqBWrE7C7hYmtUk=", sig)
}

func TestAuthorizationHeaderShape(t *testing.T) {
	s := newSigner(OAuth1Credentials{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
	})

	header := s.AuthorizationHeader("POST", "https://api.twitter.com/2/tweets", nil)

	assert.True(t, strings.HasPrefix(header, "OAuth "))
	assert.Contains(t, header, `oauth_consumer_key="ck"`)
	assert.Contains(t, header, `oauth_token="at"`)
	assert.Contains(t, header, `oauth_signature_method="HMAC-SHA1"`)
	assert.Contains(t, header, `oauth_version="1.0"`)
	assert.Contains(t, header, "oauth_signature=")
}

func TestPercentEncode(t *testing.T) {
	assert.Equal(t, "Hello%20Ladies%20%2B%20Gentlemen%2C%20a%20signed%20OAuth%20request%21", percentEncode("Hello Ladies + Gentlemen, a signed OAuth request!"))
	assert.Equal(t, "An%20encoded%20string%21", percentEncode("An encoded string!"))
	assert.Equal(t, "~abc", percentEncode("~abc"))
	assert.Equal(t, "%2A", percentEncode("*"))
}

func TestPostReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasPrefix(r.Header.Get("Authorization"), "OAuth "))

		var req tweetRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "great point!", req.Text)
		require.NotNil(t, req.Reply)
		assert.Equal(t, "12345", req.Reply.InReplyToTweetID)

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"data":{"id":"67890","text":"great point!"}}`))
	}))
	defer server.Close()

	poster := NewPosterWithEndpoint(OAuth1Credentials{
		ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as",
	}, server.URL)

	id, err := poster.PostReply(context.Background(), "12345", "great point!")
	require.NoError(t, err)
	assert.Equal(t, "67890", id)
}

func TestPostReplyRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"title":"Forbidden"}`))
	}))
	defer server.Close()

	poster := NewPosterWithEndpoint(OAuth1Credentials{
		ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as",
	}, server.URL)

	_, err := poster.PostReply(context.Background(), "12345", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rejected")
}

func TestPostReplyMissingCredentials(t *testing.T) {
	poster := NewPosterWithEndpoint(OAuth1Credentials{}, "http://localhost:1")
	_, err := poster.PostReply(context.Background(), "12345", "hi")
	assert.Error(t, err)
}

func TestPostReplyMissingArguments(t *testing.T) {
	poster := NewPosterWithEndpoint(OAuth1Credentials{
		ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as",
	}, "http://localhost:1")
	_, err := poster.PostReply(context.Background(), "", "hi")
	assert.Error(t, err)
}
