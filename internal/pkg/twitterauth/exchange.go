package twitterauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/replybot-ai/replybot/internal/pkg/env"
)

const (
	defaultAuthorizeURL = "https://twitter.com/i/oauth2/authorize"
	defaultTokenURL     = "https://api.twitter.com/2/oauth2/token"
	defaultIdentityURL  = "https://api.twitter.com/2/users/me"

	// Scopes requested for the connected account: read/write tweets, read the
	// profile, and offline access for the refresh token.
	defaultScopes = "tweet.read tweet.write users.read offline.access"
)

// Config holds the provider endpoints and app credentials for the exchange
// client. The client secret stays server-side; it is never written to any
// store or response.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthorizeURL string
	TokenURL     string
	IdentityURL  string
	Scopes       string
	HTTPClient   *http.Client
}

// ConfigFromEnv builds the provider config from environment variables,
// deriving the redirect target from the public base URL.
func ConfigFromEnv() Config {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}

	return Config{
		ClientID:     strings.TrimSpace(env.GetEnv("TWITTER_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("TWITTER_CLIENT_SECRET", "")),
		RedirectURI:  base + "/connect/x/callback",
	}
}

// Credential is the outcome of a successful exchange: the connected account's
// public handle plus its tokens. A Credential without a handle is never
// surfaced; see Exchange.
type Credential struct {
	AccountHandle string `json:"account_handle"`
	AccessToken   string `json:"-"`
	RefreshToken  string `json:"-"`
}

// Exchanger redeems an authorization code and verifier for a Credential.
type Exchanger interface {
	Exchange(ctx context.Context, code, verifier string) (*Credential, error)
}

// Client talks to the provider's token and identity endpoints.
type Client struct {
	cfg Config
}

func NewClient(cfg Config) *Client {
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = defaultAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.IdentityURL == "" {
		cfg.IdentityURL = defaultIdentityURL
	}
	if cfg.Scopes == "" {
		cfg.Scopes = defaultScopes
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{cfg: cfg}
}

// AuthorizationURL builds the provider redirect URL for one attempt.
func (c *Client) AuthorizationURL(state, challenge string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", c.cfg.ClientID)
	q.Set("redirect_uri", c.cfg.RedirectURI)
	q.Set("scope", c.cfg.Scopes)
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	q.Set("code_challenge_method", "S256")

	return c.cfg.AuthorizeURL + "?" + q.Encode()
}

// RedirectURI returns the callback target registered with the provider.
func (c *Client) RedirectURI() string {
	return c.cfg.RedirectURI
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type identityResponse struct {
	Data struct {
		Username string `json:"username"`
	} `json:"data"`
}

// Exchange redeems the authorization code for tokens and resolves the
// connected account's handle. It validates its inputs structurally but not
// the session's age; it is stateless per call.
func (c *Client) Exchange(ctx context.Context, code, verifier string) (*Credential, error) {
	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return nil, newError(KindCredentialsNotConfigured, "X OAuth credentials not configured")
	}
	if code == "" || verifier == "" {
		return nil, newError(KindMissingOAuthParameters, "missing required parameters: code or code_verifier")
	}

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("redirect_uri", c.cfg.RedirectURI)
	form.Set("code_verifier", verifier)
	form.Set("client_id", c.cfg.ClientID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, wrapError(KindProviderUnreachable, "token request could not be built", err)
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, wrapError(KindProviderUnreachable, "token endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapError(KindMalformedProviderResponse, "token response could not be read", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, newError(KindProviderRejected, fmt.Sprintf("provider error (%d): %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var token tokenResponse
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, wrapError(KindMalformedProviderResponse, "invalid token response", err)
	}

	// A 2xx without a usable token is still a failure.
	if token.AccessToken == "" {
		return nil, newError(KindIncompleteTokenResponse, "no access token received from provider")
	}

	handle, err := c.lookupHandle(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	return &Credential{
		AccountHandle: handle,
		AccessToken:   token.AccessToken,
		RefreshToken:  token.RefreshToken,
	}, nil
}

// lookupHandle resolves the account behind a fresh access token. A credential
// without a known owning handle is useless, so any failure here fails the
// whole exchange.
func (c *Client) lookupHandle(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.IdentityURL, nil)
	if err != nil {
		return "", wrapError(KindIdentityLookupFailed, "identity request could not be built", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return "", wrapError(KindIdentityLookupFailed, "identity endpoint unreachable", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapError(KindIdentityLookupFailed, "identity response could not be read", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", newError(KindIdentityLookupFailed, fmt.Sprintf("identity lookup failed (%d)", resp.StatusCode))
	}

	var identity identityResponse
	if err := json.Unmarshal(body, &identity); err != nil {
		return "", wrapError(KindIdentityLookupFailed, "invalid identity response", err)
	}
	if identity.Data.Username == "" {
		return "", newError(KindIdentityLookupFailed, "no username in identity response")
	}

	return identity.Data.Username, nil
}
