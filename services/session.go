package services

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/kampungalert/api/authz"
)

// SessionTTL bounds both the Redis session and the issued token.
const SessionTTL = 24 * time.Hour

// SessionStore is the server-side session backend. The Redis implementation
// is the only one used in production; tests substitute an in-memory fake.
type SessionStore interface {
	Set(ctx context.Context, sessionID string, principal *authz.Principal, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (*authz.Principal, error)
	Del(ctx context.Context, sessionID string) error
}

// RedisSessionStore keeps principals as JSON under session:<id> keys.
type RedisSessionStore struct {
	Client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{Client: client}
}

func sessionKey(id string) string { return "session:" + id }

func (s *RedisSessionStore) Set(ctx context.Context, sessionID string, principal *authz.Principal, ttl time.Duration) error {
	payload, err := json.Marshal(principal)
	if err != nil {
		return fmt.Errorf("failed to marshal principal: %w", err)
	}
	return s.Client.Set(ctx, sessionKey(sessionID), payload, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (*authz.Principal, error) {
	payload, err := s.Client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	var principal authz.Principal
	if err := json.Unmarshal(payload, &principal); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session principal: %w", err)
	}
	return &principal, nil
}

func (s *RedisSessionStore) Del(ctx context.Context, sessionID string) error {
	return s.Client.Del(ctx, sessionKey(sessionID)).Err()
}

// SessionService resolves request credentials to a Principal and runs the
// login/logout flow.
type SessionService struct {
	PG        *sql.DB
	Store     SessionStore
	jwtSecret []byte
}

func NewSessionService(pg *sql.DB, store SessionStore, jwtSecret string) *SessionService {
	return &SessionService{PG: pg, Store: store, jwtSecret: []byte(jwtSecret)}
}

// LoginResult carries both credentials: the session ID goes into an HTTP-only
// cookie for the dashboard, the token into Authorization headers for API
// clients. Both resolve to the same Principal.
type LoginResult struct {
	SessionID string           `json:"-"`
	Token     string           `json:"token"`
	Principal *authz.Principal `json:"principal"`
}

type tokenClaims struct {
	UserID   int64   `json:"uid"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	Kampung  *string `json:"kampung,omitempty"`
	jwt.RegisteredClaims
}

// Login verifies credentials and establishes a session.
//
// Accounts migrated from the old system still carry plaintext passwords.
// When bcrypt verification fails, the stored value is compared directly; on
// an exact match the password is rehashed with bcrypt and persisted before
// the session is created, so each legacy account is upgraded on its first
// successful login.
func (s *SessionService) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var (
		userID      int64
		storedHash  string
		rawRole     string
		kampungName sql.NullString
	)
	err := s.PG.QueryRowContext(ctx, `
		SELECT id, password_hash, role, kampung_name FROM users WHERE username = $1`,
		username).Scan(&userID, &storedHash, &rawRole, &kampungName)
	if err == sql.ErrNoRows {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(password)) != nil {
		if subtle.ConstantTimeCompare([]byte(storedHash), []byte(password)) != 1 {
			return nil, ErrInvalidCredentials
		}
		if err := s.rehashPassword(ctx, userID, password); err != nil {
			return nil, err
		}
	}

	role, ok := authz.NormalizeRole(rawRole)
	if !ok {
		return nil, fmt.Errorf("user %d has unknown role %q", userID, rawRole)
	}

	principal := &authz.Principal{
		UserID:   userID,
		Username: username,
		Role:     role,
	}
	if kampungName.Valid && kampungName.String != "" {
		principal.Kampung = &kampungName.String
	}

	sessionID := uuid.NewString()
	if err := s.Store.Set(ctx, sessionID, principal, SessionTTL); err != nil {
		return nil, fmt.Errorf("failed to store session: %w", err)
	}

	token, err := s.issueToken(principal)
	if err != nil {
		return nil, err
	}

	log.Printf("login: user=%s role=%s", username, role)
	return &LoginResult{SessionID: sessionID, Token: token, Principal: principal}, nil
}

func (s *SessionService) rehashPassword(ctx context.Context, userID int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to rehash password: %w", err)
	}
	if _, err := s.PG.ExecContext(ctx,
		`UPDATE users SET password_hash = $1 WHERE id = $2`, string(hash), userID); err != nil {
		return fmt.Errorf("failed to persist rehashed password: %w", err)
	}
	log.Printf("upgraded legacy password for user %d", userID)
	return nil
}

func (s *SessionService) issueToken(principal *authz.Principal) (string, error) {
	now := time.Now()
	claims := tokenClaims{
		UserID:   principal.UserID,
		Username: principal.Username,
		Role:     string(principal.Role),
		Kampung:  principal.Kampung,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// ResolveSession looks the session ID up in the store. Missing and expired
// sessions both come back as ErrUnauthenticated.
func (s *SessionService) ResolveSession(ctx context.Context, sessionID string) (*authz.Principal, error) {
	if sessionID == "" {
		return nil, ErrUnauthenticated
	}
	return s.Store.Get(ctx, sessionID)
}

// ResolveToken validates a bearer token and rebuilds the Principal from its
// claims. The role is normalized again in case the token was minted against
// an old session payload.
func (s *SessionService) ResolveToken(tokenString string) (*authz.Principal, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthenticated
	}

	role, ok := authz.NormalizeRole(claims.Role)
	if !ok {
		return nil, ErrUnauthenticated
	}
	principal := &authz.Principal{
		UserID:   claims.UserID,
		Username: claims.Username,
		Role:     role,
	}
	if claims.Kampung != nil && *claims.Kampung != "" {
		principal.Kampung = claims.Kampung
	}
	return principal, nil
}

// Logout drops the server-side session. Unknown session IDs are not an
// error; logout is idempotent.
func (s *SessionService) Logout(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if err := s.Store.Del(ctx, sessionID); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
