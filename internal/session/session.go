package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyon/internal/billing"
	"studyon/internal/metrics"
)

const keyPrefix = "studyon:session:"

var (
	ErrNotFound     = errors.New("session not found")
	ErrInvalidToken = errors.New("session holds a malformed token")
)

// TokenRefresher exchanges a refresh token for a fresh pair. Satisfied by
// billing.Client.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (*billing.TokenPair, error)
}

// Session is the server-side record behind a session cookie. It carries the
// billing token pair so handlers never store tokens anywhere else.
type Session struct {
	ID           string   `json:"-"`
	Username     string   `json:"username"`
	Roles        []string `json:"roles"`
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
}

func (s *Session) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Manager stores sessions in Redis and keeps their billing tokens fresh:
// every Load checks the access token's expiry and, when it is within the
// refresh window, swaps the pair through the billing service before the
// request proceeds. A failed refresh is fatal for that request.
type Manager struct {
	rdb     *redis.Client
	billing TokenRefresher
	ttl     time.Duration

	now   func() time.Time
	newID func() string
}

func NewManager(rdb *redis.Client, refresher TokenRefresher, ttl time.Duration) *Manager {
	return &Manager{
		rdb:     rdb,
		billing: refresher,
		ttl:     ttl,
		now:     time.Now,
		newID:   uuid.NewString,
	}
}

// Create opens a session for a freshly authenticated billing account.
func (m *Manager) Create(ctx context.Context, account *billing.UserAccount) (*Session, error) {
	sess := &Session{
		ID:           m.newID(),
		Username:     account.Username,
		Roles:        account.Roles,
		AccessToken:  account.Token,
		RefreshToken: account.RefreshToken,
	}

	if err := m.save(ctx, sess); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	metrics.SessionsActive.Inc()
	return sess, nil
}

// Load fetches a session and runs the token-refresh sub-protocol. The error
// wraps billing failures, so callers can tell a vanished session apart from
// an unreachable billing service.
func (m *Manager) Load(ctx context.Context, id string) (*Session, error) {
	data, err := m.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	sess := &Session{}
	if err := json.Unmarshal(data, sess); err != nil {
		return nil, ErrNotFound
	}
	sess.ID = id

	claims, err := billing.DecodeToken(sess.AccessToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	if claims.RefreshDue(m.now()) {
		pair, err := m.billing.RefreshToken(ctx, sess.RefreshToken)
		if err != nil {
			metrics.RecordTokenRefresh("failure")
			return nil, fmt.Errorf("token refresh failed: %w", err)
		}

		sess.AccessToken = pair.Token
		sess.RefreshToken = pair.RefreshToken
		if fresh, err := billing.DecodeToken(pair.Token); err == nil {
			sess.Username = fresh.Username
			sess.Roles = fresh.Roles
		}

		if err := m.save(ctx, sess); err != nil {
			return nil, fmt.Errorf("failed to store refreshed session: %w", err)
		}
		metrics.RecordTokenRefresh("success")
	}

	return sess, nil
}

func (m *Manager) Delete(ctx context.Context, id string) error {
	if err := m.rdb.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	metrics.SessionsActive.Dec()
	return nil
}

func (m *Manager) save(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return m.rdb.Set(ctx, keyPrefix+sess.ID, data, m.ttl).Err()
}
