package twitterauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, tokenHandler, identityHandler http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	if tokenHandler != nil {
		mux.HandleFunc("/2/oauth2/token", tokenHandler)
	}
	if identityHandler != nil {
		mux.HandleFunc("/2/users/me", identityHandler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		RedirectURI:  "https://replybot.example/connect/x/callback",
		TokenURL:     srv.URL + "/2/oauth2/token",
		IdentityURL:  srv.URL + "/2/users/me",
	})
}

func TestExchangeSuccess(t *testing.T) {
	var gotForm url.Values
	var gotUser, gotPass string
	var gotBearer string

	client := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			gotForm = r.PostForm
			gotUser, gotPass, _ = r.BasicAuth()
			_ = json.NewEncoder(w).Encode(map[string]string{
				"access_token":  "tok1",
				"refresh_token": "ref1",
			})
		},
		func(w http.ResponseWriter, r *http.Request) {
			gotBearer = r.Header.Get("Authorization")
			_, _ = w.Write([]byte(`{"data":{"id":"1","username":"alice"}}`))
		},
	)

	cred, err := client.Exchange(context.Background(), "valid-code", "the-verifier")
	require.NoError(t, err)

	assert.Equal(t, "alice", cred.AccountHandle)
	assert.Equal(t, "tok1", cred.AccessToken)
	assert.Equal(t, "ref1", cred.RefreshToken)

	assert.Equal(t, "authorization_code", gotForm.Get("grant_type"))
	assert.Equal(t, "valid-code", gotForm.Get("code"))
	assert.Equal(t, "the-verifier", gotForm.Get("code_verifier"))
	assert.Equal(t, "https://replybot.example/connect/x/callback", gotForm.Get("redirect_uri"))
	assert.Equal(t, "client-id", gotForm.Get("client_id"))
	assert.Equal(t, "client-id", gotUser)
	assert.Equal(t, "client-secret", gotPass)
	assert.Equal(t, "Bearer tok1", gotBearer)
}

func TestExchangeMissingAccessToken(t *testing.T) {
	client := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			// 200 OK but no usable token
			_, _ = w.Write([]byte(`{"token_type":"bearer"}`))
		},
		func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("identity endpoint must not be called without a token")
		},
	)

	cred, err := client.Exchange(context.Background(), "valid-code", "the-verifier")
	require.Error(t, err)
	assert.Nil(t, cred)
	assert.Equal(t, KindIncompleteTokenResponse, KindOf(err))
}

func TestExchangeProviderRejection(t *testing.T) {
	client := newTestClient(t,
		func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":"invalid_request"}`, http.StatusBadRequest)
		},
		nil,
	)

	_, err := client.Exchange(context.Background(), "bad-code", "the-verifier")
	require.Error(t, err)
	assert.Equal(t, KindProviderRejected, KindOf(err))
	assert.Contains(t, err.Error(), "invalid_request")
}

func TestExchangeIdentityLookupFailure(t *testing.T) {
	for name, identity := range map[string]http.HandlerFunc{
		"http error": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
		},
		"missing username": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
		},
	} {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t,
				func(w http.ResponseWriter, r *http.Request) {
					_ = json.NewEncoder(w).Encode(map[string]string{"access_token": "tok1"})
				},
				identity,
			)

			cred, err := client.Exchange(context.Background(), "valid-code", "the-verifier")
			require.Error(t, err)
			assert.Nil(t, cred)
			assert.Equal(t, KindIdentityLookupFailed, KindOf(err))
		})
	}
}

func TestExchangeValidatesInputs(t *testing.T) {
	client := NewClient(Config{ClientID: "id", ClientSecret: "secret"})

	_, err := client.Exchange(context.Background(), "", "verifier")
	assert.Equal(t, KindMissingOAuthParameters, KindOf(err))

	_, err = client.Exchange(context.Background(), "code", "")
	assert.Equal(t, KindMissingOAuthParameters, KindOf(err))
}

func TestExchangeRequiresConfiguredCredentials(t *testing.T) {
	client := NewClient(Config{})

	_, err := client.Exchange(context.Background(), "code", "verifier")
	require.Error(t, err)
	assert.Equal(t, KindCredentialsNotConfigured, KindOf(err))
	assert.True(t, IsConfigError(err))
}

func TestAuthorizationURLParameters(t *testing.T) {
	client := NewClient(Config{
		ClientID:    "client-id",
		RedirectURI: "https://replybot.example/connect/x/callback",
	})

	raw := client.AuthorizationURL("state123", "challenge456")
	u, err := url.Parse(raw)
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "https://replybot.example/connect/x/callback", q.Get("redirect_uri"))
	assert.Equal(t, "tweet.read tweet.write users.read offline.access", q.Get("scope"))
	assert.Equal(t, "state123", q.Get("state"))
	assert.Equal(t, "challenge456", q.Get("code_challenge"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
}
