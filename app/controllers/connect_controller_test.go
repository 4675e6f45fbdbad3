package controllers

import (
	"context"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/replybot-ai/replybot/internal/pkg/twitterauth"
)

type stubStore struct {
	mu       sync.Mutex
	sessions map[uint]twitterauth.Session
	creds    map[uint]twitterauth.Credential
}

var (
	_ twitterauth.SessionStore    = (*stubStore)(nil)
	_ twitterauth.CredentialStore = (*stubStore)(nil)
)

func newStubStore() *stubStore {
	return &stubStore{
		sessions: make(map[uint]twitterauth.Session),
		creds:    make(map[uint]twitterauth.Credential),
	}
}

func (s *stubStore) SaveSession(_ context.Context, sess twitterauth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.UserID] = sess
	return nil
}

func (s *stubStore) LoadSession(_ context.Context, userID uint) (*twitterauth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return &sess, nil
}

func (s *stubStore) ClearSession(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

func (s *stubStore) SaveCredential(_ context.Context, userID uint, cred twitterauth.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds[userID] = cred
	return nil
}

func (s *stubStore) LoadCredential(_ context.Context, userID uint) (*twitterauth.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[userID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *stubStore) ClearCredential(_ context.Context, userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.creds, userID)
	return nil
}

func (s *stubStore) session(userID uint) *twitterauth.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	return &sess
}

func (s *stubStore) credential(userID uint) *twitterauth.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[userID]
	if !ok {
		return nil
	}
	return &cred
}

type stubProvider struct {
	cred *twitterauth.Credential
	err  error
}

func (p *stubProvider) AuthorizationURL(state, challenge string) string {
	return "https://provider.test/authorize?state=" + state + "&code_challenge=" + challenge
}

func (p *stubProvider) Exchange(_ context.Context, code, verifier string) (*twitterauth.Credential, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.cred, nil
}

func setupConnectApp(t *testing.T, store *stubStore, provider *stubProvider, userID uint) *fiber.App {
	t.Helper()

	SetConnectFlow(twitterauth.NewFlow(provider, store, store))
	t.Cleanup(func() { SetConnectFlow(nil) })

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		c.Locals(FROM_PROTECTED, userID != 0)
		return c.Next()
	})
	app.Get("/connect/x", func(c *fiber.Ctx) error {
		return handleConnectStartAs(c, userID)
	})
	app.Get("/connect/x/callback", func(c *fiber.Ctx) error {
		return handleConnectCallbackAs(c, userID)
	})
	app.Post("/connect/x/disconnect", func(c *fiber.Ctx) error {
		return handleDisconnectAs(c, userID)
	})
	return app
}

func TestHandleConnectStartRedirectsToProvider(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{cred: &twitterauth.Credential{AccountHandle: "alice"}}
	app := setupConnectApp(t, store, provider, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/connect/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	location := resp.Header.Get("Location")
	assert.Contains(t, location, "https://provider.test/authorize")

	sess := store.session(7)
	require.NotNil(t, sess)
	assert.Contains(t, location, "state="+sess.State)
}

func TestHandleConnectStartRequiresLogin(t *testing.T) {
	store := newStubStore()
	app := setupConnectApp(t, store, &stubProvider{}, 0)

	resp, err := app.Test(httptest.NewRequest("GET", "/connect/x", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/login", resp.Header.Get("Location"))
	assert.Empty(t, store.sessions)
}

func TestHandleConnectCallbackStoresCredential(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{cred: &twitterauth.Credential{
		AccountHandle: "alice",
		AccessToken:   "tok1",
	}}
	app := setupConnectApp(t, store, provider, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/connect/x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	sess := store.session(7)
	require.NotNil(t, sess)

	resp, err = app.Test(httptest.NewRequest("GET", "/connect/x/callback?code=abc&state="+sess.State, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))

	cred := store.credential(7)
	require.NotNil(t, cred)
	assert.Equal(t, "alice", cred.AccountHandle)
	assert.Nil(t, store.session(7))
}

func TestHandleConnectCallbackStateMismatch(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{cred: &twitterauth.Credential{AccountHandle: "alice"}}
	app := setupConnectApp(t, store, provider, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/connect/x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/connect/x/callback?code=abc&state=forged", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Nil(t, store.credential(7))
}

func TestHandleConnectCallbackDenied(t *testing.T) {
	store := newStubStore()
	app := setupConnectApp(t, store, &stubProvider{}, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/connect/x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/connect/x/callback?error=access_denied", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Nil(t, store.credential(7))
	assert.Nil(t, store.session(7))
}

func TestHandleConnectCallbackSuccessFlashNamesHandle(t *testing.T) {
	store := newStubStore()
	provider := &stubProvider{cred: &twitterauth.Credential{AccountHandle: "alice"}}
	app := setupConnectApp(t, store, provider, 7)

	resp, err := app.Test(httptest.NewRequest("GET", "/connect/x", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	sess := store.session(7)
	require.NotNil(t, sess)

	resp, err = app.Test(httptest.NewRequest("GET", "/connect/x/callback?code=abc&state="+sess.State, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)

	// The success notice carries the connected handle via the flash cookie.
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "alice")
}

func TestHandleDisconnect(t *testing.T) {
	store := newStubStore()
	store.creds[7] = twitterauth.Credential{AccountHandle: "alice"}
	app := setupConnectApp(t, store, &stubProvider{}, 7)

	resp, err := app.Test(httptest.NewRequest("POST", "/connect/x/disconnect", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/", resp.Header.Get("Location"))
	assert.Nil(t, store.credential(7))
}
