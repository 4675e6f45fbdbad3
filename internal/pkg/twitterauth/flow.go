package twitterauth

import (
	"context"
	"crypto/subtle"
	"time"
)

// SessionTTL bounds how long a pending authorization attempt stays valid.
// The provider's own codes expire far sooner; anything older is a reload of
// a dead attempt and is treated as not found.
const SessionTTL = 10 * time.Minute

// Session is the state that must survive the redirect round trip to the
// provider. Exactly one per user; a new attempt overwrites the previous one.
type Session struct {
	UserID       uint      `json:"user_id"`
	State        string    `json:"state"`
	CodeVerifier string    `json:"code_verifier"`
	CreatedAt    time.Time `json:"created_at"`
}

// SessionStore persists in-flight sessions across the navigation boundary.
// Load returns (nil, nil) when no session exists; Clear is a no-op when
// nothing is stored.
type SessionStore interface {
	SaveSession(ctx context.Context, s Session) error
	LoadSession(ctx context.Context, userID uint) (*Session, error)
	ClearSession(ctx context.Context, userID uint) error
}

// CredentialStore persists the connected account credential.
type CredentialStore interface {
	SaveCredential(ctx context.Context, userID uint, cred Credential) error
	LoadCredential(ctx context.Context, userID uint) (*Credential, error)
	ClearCredential(ctx context.Context, userID uint) error
}

// AuthorizeClient is what the initiator needs from the provider client.
type AuthorizeClient interface {
	Exchanger
	AuthorizationURL(state, challenge string) string
}

// Flow drives the PKCE connection lifecycle: initiation, callback validation,
// exchange, and credential storage. Stores are injected so the flow can be
// exercised without Redis or MySQL.
type Flow struct {
	client   AuthorizeClient
	sessions SessionStore
	creds    CredentialStore
	now      func() time.Time
}

func NewFlow(client AuthorizeClient, sessions SessionStore, creds CredentialStore) *Flow {
	return &Flow{
		client:   client,
		sessions: sessions,
		creds:    creds,
		now:      time.Now,
	}
}

// Begin starts a new authorization attempt for the signed-in user: generates
// PKCE parameters, persists the session (overwriting any previous attempt),
// confirms the write, and returns the provider redirect URL.
func (f *Flow) Begin(ctx context.Context, userID uint) (string, error) {
	if userID == 0 {
		return "", newError(KindAuthenticationRequired, "sign in before connecting an account")
	}

	verifier, err := GenerateVerifier()
	if err != nil {
		return "", wrapError(KindMalformedProviderResponse, "connection failed", err)
	}
	state, err := GenerateState()
	if err != nil {
		return "", wrapError(KindMalformedProviderResponse, "connection failed", err)
	}

	authURL := f.client.AuthorizationURL(state, DeriveChallenge(verifier))
	if authURL == "" {
		return "", newError(KindMalformedProviderResponse, "connection failed")
	}

	sess := Session{
		UserID:       userID,
		State:        state,
		CodeVerifier: verifier,
		CreatedAt:    f.now(),
	}
	if err := f.sessions.SaveSession(ctx, sess); err != nil {
		// A dual-tier store may have written one tier before failing.
		_ = f.sessions.ClearSession(ctx, userID)
		return "", wrapError(KindMalformedProviderResponse, "connection failed", err)
	}

	// Read-back confirmation: the browser is about to navigate away, so the
	// session write must be durable before we hand out the redirect.
	stored, err := f.sessions.LoadSession(ctx, userID)
	if err != nil || stored == nil || stored.State != state {
		_ = f.sessions.ClearSession(ctx, userID)
		return "", newError(KindMalformedProviderResponse, "connection failed")
	}

	return authURL, nil
}

// CallbackParams carries the untrusted query parameters of the provider
// redirect. Everything here must be validated before use.
type CallbackParams struct {
	Code             string
	State            string
	ErrorCode        string
	ErrorDescription string
}

// CallbackStatus tags the outcome of callback processing.
type CallbackStatus string

const (
	StatusConnected        CallbackStatus = "connected"
	StatusDenied           CallbackStatus = "denied"
	StatusAlreadyProcessed CallbackStatus = "already_processed"
)

// CallbackResult is transient; it is reported to the UI and never persisted.
type CallbackResult struct {
	Status        CallbackStatus
	AccountHandle string
	Message       string
}

// HandleCallback validates the provider redirect against the persisted
// session and performs the token exchange. The session is deleted on every
// terminal outcome, success or failure, so a replayed callback cannot redeem
// anything twice.
func (f *Flow) HandleCallback(ctx context.Context, userID uint, p CallbackParams) (*CallbackResult, error) {
	if userID == 0 {
		return nil, newError(KindAuthenticationRequired, "sign in before connecting an account")
	}

	if p.ErrorCode != "" {
		_ = f.sessions.ClearSession(ctx, userID)
		msg := p.ErrorCode
		if p.ErrorDescription != "" {
			msg = msg + ": " + p.ErrorDescription
		}
		return &CallbackResult{Status: StatusDenied, Message: msg}, nil
	}

	if p.Code == "" || p.State == "" {
		return nil, newError(KindMissingOAuthParameters, "missing authorization code or state parameter")
	}

	sess, err := f.sessions.LoadSession(ctx, userID)
	if err != nil {
		return nil, wrapError(KindSessionNotFound, "session not found or expired", err)
	}
	if sess == nil || f.now().Sub(sess.CreatedAt) > SessionTTL {
		if sess != nil {
			_ = f.sessions.ClearSession(ctx, userID)
		}
		// Back navigation replays the same callback URL after the session was
		// consumed. If the account is already connected that is a no-op, not
		// an error.
		if cred, credErr := f.creds.LoadCredential(ctx, userID); credErr == nil && cred != nil {
			return &CallbackResult{
				Status:        StatusAlreadyProcessed,
				AccountHandle: cred.AccountHandle,
				Message:       "account already connected",
			}, nil
		}
		return nil, newError(KindSessionNotFound, "session not found or expired")
	}

	if subtle.ConstantTimeCompare([]byte(sess.State), []byte(p.State)) != 1 {
		_ = f.sessions.ClearSession(ctx, userID)
		return nil, newError(KindStateMismatch, "state validation failed")
	}

	cred, err := f.client.Exchange(ctx, p.Code, sess.CodeVerifier)
	// One attempt per session: drop it no matter how the exchange went.
	_ = f.sessions.ClearSession(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := f.creds.SaveCredential(ctx, userID, *cred); err != nil {
		return nil, wrapError(KindMalformedProviderResponse, "failed to store credential", err)
	}

	return &CallbackResult{Status: StatusConnected, AccountHandle: cred.AccountHandle}, nil
}

// Disconnect removes the stored credential and any lingering session. Safe to
// call when nothing is stored.
func (f *Flow) Disconnect(ctx context.Context, userID uint) error {
	if userID == 0 {
		return newError(KindAuthenticationRequired, "sign in before disconnecting")
	}
	if err := f.creds.ClearCredential(ctx, userID); err != nil {
		return err
	}
	return f.sessions.ClearSession(ctx, userID)
}

// Connected reports the stored credential for the user, if any.
func (f *Flow) Connected(ctx context.Context, userID uint) (*Credential, error) {
	if userID == 0 {
		return nil, nil
	}
	return f.creds.LoadCredential(ctx, userID)
}
