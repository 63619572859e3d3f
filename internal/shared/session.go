package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Session is the authenticated state attached to a bearer token.
type Session struct {
	Token    string    `json:"-"`
	UserID   int64     `json:"user_id"`
	Email    string    `json:"email"`
	IssuedAt time.Time `json:"issued_at"`
}

// SessionManager stores bearer-token sessions in Redis with a sliding TTL.
type SessionManager struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, prefix string, ttl time.Duration) *SessionManager {
	if prefix == "" {
		prefix = "mototrade_session"
	}
	return &SessionManager{client: client, prefix: prefix, ttl: ttl}
}

// Create issues a new session token for the user.
func (sm *SessionManager) Create(ctx context.Context, userID int64, email string) (*Session, error) {
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	sess := &Session{
		Token:    token,
		UserID:   userID,
		Email:    email,
		IssuedAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(sess)
	if err != nil {
		return nil, err
	}
	if err := sm.client.Set(ctx, sm.key(token), payload, sm.ttl).Err(); err != nil {
		return nil, fmt.Errorf("session: store: %w", err)
	}
	return sess, nil
}

// Load resolves a token to its session and slides the expiry.
func (sm *SessionManager) Load(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrTokenMissing
	}
	payload, err := sm.client.Get(ctx, sm.key(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrTokenInvalid
		}
		return nil, fmt.Errorf("session: load: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, fmt.Errorf("session: decode: %w", err)
	}
	sess.Token = token
	_ = sm.client.Expire(ctx, sm.key(token), sm.ttl).Err()
	return &sess, nil
}

// Destroy invalidates the token.
func (sm *SessionManager) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := sm.client.Del(ctx, sm.key(token)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("session: destroy: %w", err)
	}
	return nil
}

// TokenFromRequest extracts the bearer token from the Authorization header.
func TokenFromRequest(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	const scheme = "Bearer "
	if !strings.HasPrefix(header, scheme) {
		return ""
	}
	return strings.TrimSpace(header[len(scheme):])
}

func (sm *SessionManager) key(token string) string {
	return sm.prefix + ":" + token
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("session: generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
