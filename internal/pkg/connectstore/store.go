package connectstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/replybot-ai/replybot/app/models"
	"github.com/replybot-ai/replybot/internal/pkg/twitterauth"
)

const (
	sessionKeyPrefix    = "connect:session:"
	credentialKeyPrefix = "connect:credential:"

	// Credential cache entries just shadow the database row.
	credentialCacheTTL = time.Hour
)

// Store persists OAuth sessions and connected-account credentials across the
// provider redirect. It writes through two tiers: Redis (short-lived,
// authoritative on read) and MySQL (fallback in case the cache was flushed
// during the round trip). The read-priority order lives here and nowhere else.
type Store struct {
	rdb        *redis.Client
	db         *gorm.DB
	sessionTTL time.Duration
}

var _ twitterauth.SessionStore = (*Store)(nil)
var _ twitterauth.CredentialStore = (*Store)(nil)

func New(rdb *redis.Client, db *gorm.DB, sessionTTL time.Duration) *Store {
	if sessionTTL <= 0 {
		sessionTTL = twitterauth.SessionTTL
	}
	return &Store{rdb: rdb, db: db, sessionTTL: sessionTTL}
}

func sessionKey(userID uint) string {
	return fmt.Sprintf("%s%d", sessionKeyPrefix, userID)
}

func credentialKey(userID uint) string {
	return fmt.Sprintf("%s%d", credentialKeyPrefix, userID)
}

// SaveSession stores the in-flight attempt in both tiers, replacing any
// previous attempt for the same user.
func (s *Store) SaveSession(ctx context.Context, sess twitterauth.Session) error {
	payload, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKey(sess.UserID), payload, s.sessionTTL).Err(); err != nil {
		return err
	}

	row := models.OAuthSession{
		UserID:       sess.UserID,
		State:        sess.State,
		CodeVerifier: sess.CodeVerifier,
		CreatedAt:    sess.CreatedAt,
	}
	if err := s.db.Where("user_id = ?", sess.UserID).Delete(&models.OAuthSession{}).Error; err != nil {
		return err
	}
	return s.db.Create(&row).Error
}

// LoadSession reads the short-lived tier first and falls back to the
// database. Stale database rows (older than the session TTL) are dropped and
// reported as absent. Returns (nil, nil) when no session exists.
func (s *Store) LoadSession(ctx context.Context, userID uint) (*twitterauth.Session, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(userID)).Result()
	if err == nil {
		var sess twitterauth.Session
		if uerr := json.Unmarshal([]byte(raw), &sess); uerr == nil {
			return &sess, nil
		}
		// Unreadable cache entry; fall through to the durable tier.
		_ = s.rdb.Del(ctx, sessionKey(userID)).Err()
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var row models.OAuthSession
	if err := s.db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if time.Since(row.CreatedAt) > s.sessionTTL {
		_ = s.db.Where("user_id = ?", userID).Delete(&models.OAuthSession{}).Error
		return nil, nil
	}

	return &twitterauth.Session{
		UserID:       row.UserID,
		State:        row.State,
		CodeVerifier: row.CodeVerifier,
		CreatedAt:    row.CreatedAt,
	}, nil
}

// ClearSession removes the attempt from both tiers; a no-op when empty.
func (s *Store) ClearSession(ctx context.Context, userID uint) error {
	if err := s.rdb.Del(ctx, sessionKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return s.db.Where("user_id = ?", userID).Delete(&models.OAuthSession{}).Error
}

// SaveCredential upserts the connected-account row and primes the cache.
func (s *Store) SaveCredential(ctx context.Context, userID uint, cred twitterauth.Credential) error {
	var row models.ConnectedAccount
	err := s.db.Where("user_id = ?", userID).First(&row).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		row = models.ConnectedAccount{
			UserID:        userID,
			AccountHandle: cred.AccountHandle,
			AccessToken:   cred.AccessToken,
			RefreshToken:  cred.RefreshToken,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		row.AccountHandle = cred.AccountHandle
		row.AccessToken = cred.AccessToken
		row.RefreshToken = cred.RefreshToken
		if err := s.db.Save(&row).Error; err != nil {
			return err
		}
	}

	return s.cacheCredential(ctx, userID, cred)
}

// LoadCredential reads the cache first, then the database, re-priming the
// cache on a miss. Returns (nil, nil) when the user has no connected account.
func (s *Store) LoadCredential(ctx context.Context, userID uint) (*twitterauth.Credential, error) {
	raw, err := s.rdb.Get(ctx, credentialKey(userID)).Result()
	if err == nil {
		var cached cachedCredential
		if uerr := json.Unmarshal([]byte(raw), &cached); uerr == nil {
			cred := cached.toCredential()
			return &cred, nil
		}
		_ = s.rdb.Del(ctx, credentialKey(userID)).Err()
	} else if !errors.Is(err, redis.Nil) {
		return nil, err
	}

	var row models.ConnectedAccount
	if err := s.db.Where("user_id = ?", userID).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	cred := twitterauth.Credential{
		AccountHandle: row.AccountHandle,
		AccessToken:   row.AccessToken,
		RefreshToken:  row.RefreshToken,
	}
	_ = s.cacheCredential(ctx, userID, cred)
	return &cred, nil
}

// ClearCredential removes the credential from both tiers; a no-op when empty.
func (s *Store) ClearCredential(ctx context.Context, userID uint) error {
	if err := s.rdb.Del(ctx, credentialKey(userID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return s.db.Where("user_id = ?", userID).Delete(&models.ConnectedAccount{}).Error
}

// cachedCredential exists because Credential hides its tokens from JSON; the
// cache tier needs them round-tripped.
type cachedCredential struct {
	AccountHandle string `json:"account_handle"`
	AccessToken   string `json:"access_token"`
	RefreshToken  string `json:"refresh_token"`
}

func (c cachedCredential) toCredential() twitterauth.Credential {
	return twitterauth.Credential{
		AccountHandle: c.AccountHandle,
		AccessToken:   c.AccessToken,
		RefreshToken:  c.RefreshToken,
	}
}

func (s *Store) cacheCredential(ctx context.Context, userID uint, cred twitterauth.Credential) error {
	payload, err := json.Marshal(cachedCredential{
		AccountHandle: cred.AccountHandle,
		AccessToken:   cred.AccessToken,
		RefreshToken:  cred.RefreshToken,
	})
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, credentialKey(userID), payload, credentialCacheTTL).Err()
}
