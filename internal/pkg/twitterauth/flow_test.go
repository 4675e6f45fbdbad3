package twitterauth

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryStore backs the flow without Redis or MySQL.
type memoryStore struct {
	sessions map[uint]Session
	creds    map[uint]Credential
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		sessions: make(map[uint]Session),
		creds:    make(map[uint]Credential),
	}
}

func (m *memoryStore) SaveSession(_ context.Context, s Session) error {
	m.sessions[s.UserID] = s
	return nil
}

func (m *memoryStore) LoadSession(_ context.Context, userID uint) (*Session, error) {
	s, ok := m.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *memoryStore) ClearSession(_ context.Context, userID uint) error {
	delete(m.sessions, userID)
	return nil
}

func (m *memoryStore) SaveCredential(_ context.Context, userID uint, cred Credential) error {
	m.creds[userID] = cred
	return nil
}

func (m *memoryStore) LoadCredential(_ context.Context, userID uint) (*Credential, error) {
	c, ok := m.creds[userID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *memoryStore) ClearCredential(_ context.Context, userID uint) error {
	delete(m.creds, userID)
	return nil
}

// fakeProvider implements AuthorizeClient with canned behavior.
type fakeProvider struct {
	cred        *Credential
	exchangeErr error
	exchanged   int
	lastCode    string
	lastVerif   string
}

func (f *fakeProvider) AuthorizationURL(state, challenge string) string {
	q := url.Values{}
	q.Set("state", state)
	q.Set("code_challenge", challenge)
	return "https://provider.example/authorize?" + q.Encode()
}

func (f *fakeProvider) Exchange(_ context.Context, code, verifier string) (*Credential, error) {
	f.exchanged++
	f.lastCode = code
	f.lastVerif = verifier
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.cred, nil
}

func newTestFlow(provider *fakeProvider) (*Flow, *memoryStore) {
	store := newMemoryStore()
	return NewFlow(provider, store, store), store
}

func TestBeginPersistsSessionAndBuildsURL(t *testing.T) {
	flow, store := newTestFlow(&fakeProvider{})

	authURL, err := flow.Begin(context.Background(), 7)
	require.NoError(t, err)

	sess := store.sessions[7]
	require.NotEmpty(t, sess.State)
	require.NotEmpty(t, sess.CodeVerifier)
	assert.NotEqual(t, sess.State, sess.CodeVerifier)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	assert.Equal(t, sess.State, u.Query().Get("state"))
	assert.Equal(t, DeriveChallenge(sess.CodeVerifier), u.Query().Get("code_challenge"))
}

func TestBeginRequiresSignedInUser(t *testing.T) {
	flow, _ := newTestFlow(&fakeProvider{})

	_, err := flow.Begin(context.Background(), 0)
	require.Error(t, err)
	assert.Equal(t, KindAuthenticationRequired, KindOf(err))
}

// partialWriteStore simulates a dual-tier store that persists the session in
// its first tier before the write as a whole fails.
type partialWriteStore struct {
	*memoryStore
}

func (p *partialWriteStore) SaveSession(ctx context.Context, s Session) error {
	_ = p.memoryStore.SaveSession(ctx, s)
	return errors.New("second tier unavailable")
}

func TestBeginSaveFailureLeavesNoSessionBehind(t *testing.T) {
	store := &partialWriteStore{memoryStore: newMemoryStore()}
	flow := NewFlow(&fakeProvider{}, store, store)

	_, err := flow.Begin(context.Background(), 7)
	require.Error(t, err)
	assert.Empty(t, store.sessions)
}

func TestBeginOverwritesPreviousAttempt(t *testing.T) {
	flow, store := newTestFlow(&fakeProvider{})

	_, err := flow.Begin(context.Background(), 7)
	require.NoError(t, err)
	first := store.sessions[7]

	_, err = flow.Begin(context.Background(), 7)
	require.NoError(t, err)
	second := store.sessions[7]

	assert.NotEqual(t, first.State, second.State)
	assert.NotEqual(t, first.CodeVerifier, second.CodeVerifier)
	assert.Len(t, store.sessions, 1)
}

func TestCallbackSuccess(t *testing.T) {
	provider := &fakeProvider{cred: &Credential{
		AccountHandle: "alice",
		AccessToken:   "tok1",
		RefreshToken:  "ref1",
	}}
	flow, store := newTestFlow(provider)

	_, err := flow.Begin(context.Background(), 7)
	require.NoError(t, err)
	sess := store.sessions[7]

	res, err := flow.HandleCallback(context.Background(), 7, CallbackParams{
		Code:  "valid-code",
		State: sess.State,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusConnected, res.Status)
	assert.Equal(t, "alice", res.AccountHandle)
	assert.Equal(t, "valid-code", provider.lastCode)
	assert.Equal(t, sess.CodeVerifier, provider.lastVerif)

	// Session consumed, credential stored
	assert.Empty(t, store.sessions)
	assert.Equal(t, Credential{AccountHandle: "alice", AccessToken: "tok1", RefreshToken: "ref1"}, store.creds[7])
}

func TestCallbackStateMismatch(t *testing.T) {
	provider := &fakeProvider{cred: &Credential{AccountHandle: "alice"}}
	flow, store := newTestFlow(provider)

	store.sessions[7] = Session{UserID: 7, State: "abc123", CodeVerifier: "v", CreatedAt: time.Now()}

	_, err := flow.HandleCallback(context.Background(), 7, CallbackParams{
		Code:  "valid-code",
		State: "xyz789",
	})
	require.Error(t, err)
	assert.Equal(t, KindStateMismatch, KindOf(err))

	// Never exchanged, nothing stored, session gone
	assert.Zero(t, provider.exchanged)
	assert.Empty(t, store.creds)
	assert.Empty(t, store.sessions)
}

func TestCallbackSessionNotFound(t *testing.T) {
	flow, store := newTestFlow(&fakeProvider{})

	res, err := flow.HandleCallback(context.Background(), 7, CallbackParams{
		Code:  "valid-code",
		State: "abc123",
	})
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Equal(t, KindSessionNotFound, KindOf(err))
	assert.Empty(t, store.creds)
}

func TestCallbackExpiredSession(t *testing.T) {
	flow, store := newTestFlow(&fakeProvider{})

	store.sessions[7] = Session{
		UserID:       7,
		State:        "abc123",
		CodeVerifier: "v",
		CreatedAt:    time.Now().Add(-SessionTTL - time.Minute),
	}

	_, err := flow.HandleCallback(context.Background(), 7, CallbackParams{
		Code:  "valid-code",
		State: "abc123",
	})
	require.Error(t, err)
	assert.Equal(t, KindSessionNotFound, KindOf(err))
	assert.Empty(t, store.sessions)
}

func TestCallbackDenied(t *testing.T) {
	provider := &fakeProvider{}
	flow, store := newTestFlow(provider)

	store.sessions[7] = Session{UserID: 7, State: "abc123", CodeVerifier: "v", CreatedAt: time.Now()}

	res, err := flow.HandleCallback(context.Background(), 7, CallbackParams{
		ErrorCode:        "access_denied",
		ErrorDescription: "user said no",
	})
	require.NoError(t, err)

	assert.Equal(t, StatusDenied, res.Status)
	assert.Contains(t, res.Message, "access_denied")
	assert.Zero(t, provider.exchanged)
	assert.Empty(t, store.sessions)
	assert.Empty(t, store.creds)
}

func TestCallbackExchangeFailureClearsSession(t *testing.T) {
	provider := &fakeProvider{exchangeErr: newError(KindIncompleteTokenResponse, "no access token received from provider")}
	flow, store := newTestFlow(provider)

	store.sessions[7] = Session{UserID: 7, State: "abc123", CodeVerifier: "v", CreatedAt: time.Now()}

	_, err := flow.HandleCallback(context.Background(), 7, CallbackParams{
		Code:  "valid-code",
		State: "abc123",
	})
	require.Error(t, err)
	assert.Equal(t, KindIncompleteTokenResponse, KindOf(err))
	assert.Empty(t, store.creds)
	assert.Empty(t, store.sessions)
}

func TestCallbackReplayAfterSuccessIsNoOp(t *testing.T) {
	provider := &fakeProvider{cred: &Credential{AccountHandle: "alice", AccessToken: "tok1"}}
	flow, store := newTestFlow(provider)

	_, err := flow.Begin(context.Background(), 7)
	require.NoError(t, err)
	state := store.sessions[7].State

	params := CallbackParams{Code: "valid-code", State: state}
	_, err = flow.HandleCallback(context.Background(), 7, params)
	require.NoError(t, err)

	// Back navigation re-runs the exact same callback URL.
	res, err := flow.HandleCallback(context.Background(), 7, params)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyProcessed, res.Status)
	assert.Equal(t, "alice", res.AccountHandle)
	assert.Equal(t, 1, provider.exchanged)
}

func TestDisconnectClearsEverythingAndIsIdempotent(t *testing.T) {
	flow, store := newTestFlow(&fakeProvider{})

	store.sessions[7] = Session{UserID: 7, State: "abc123", CreatedAt: time.Now()}
	store.creds[7] = Credential{AccountHandle: "alice"}

	require.NoError(t, flow.Disconnect(context.Background(), 7))
	assert.Empty(t, store.sessions)
	assert.Empty(t, store.creds)

	// Nothing stored: still not an error
	require.NoError(t, flow.Disconnect(context.Background(), 7))
}

func TestErrorKindOfForeignError(t *testing.T) {
	assert.Equal(t, ErrorKind(""), KindOf(errors.New("plain")))
}
