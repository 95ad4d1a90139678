package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kampungalert/api/authz"
)

// memorySessionStore is the in-memory stand-in for Redis used in tests.
type memorySessionStore struct {
	sessions map[string]*authz.Principal
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{sessions: map[string]*authz.Principal{}}
}

func (s *memorySessionStore) Set(ctx context.Context, sessionID string, principal *authz.Principal, ttl time.Duration) error {
	s.sessions[sessionID] = principal
	return nil
}

func (s *memorySessionStore) Get(ctx context.Context, sessionID string) (*authz.Principal, error) {
	principal, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrUnauthenticated
	}
	return principal, nil
}

func (s *memorySessionStore) Del(ctx context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func userRow(id int64, hash, role string, kampung interface{}) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "password_hash", "role", "kampung_name"}).
		AddRow(id, hash, role, kampung)
}

func TestLogin_BcryptSuccess(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, password_hash, role, kampung_name FROM users WHERE username = \\$1").
		WithArgs("rahman").
		WillReturnRows(userRow(5, string(hash), "ketua kampung", "Kampung Baru"))

	store := newMemorySessionStore()
	svc := NewSessionService(pg, store, "test-secret")

	result, err := svc.Login(context.Background(), "rahman", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
	assert.NotEmpty(t, result.Token)

	// Legacy role spelling normalized at the boundary.
	assert.Equal(t, authz.RoleKetuaKampung, result.Principal.Role)
	require.NotNil(t, result.Principal.Kampung)
	assert.Equal(t, "Kampung Baru", *result.Principal.Kampung)

	// The session resolves to the same principal.
	principal, err := svc.ResolveSession(context.Background(), result.SessionID)
	require.NoError(t, err)
	assert.Equal(t, result.Principal, principal)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_WrongPassword(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, password_hash, role, kampung_name FROM users").
		WithArgs("rahman").
		WillReturnRows(userRow(5, string(hash), "ketua_kampung", "Kampung Baru"))

	svc := NewSessionService(pg, newMemorySessionStore(), "test-secret")

	_, err = svc.Login(context.Background(), "rahman", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_UnknownUser(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	mock.ExpectQuery("SELECT id, password_hash, role, kampung_name FROM users").
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id", "password_hash", "role", "kampung_name"}))

	svc := NewSessionService(pg, newMemorySessionStore(), "test-secret")

	_, err = svc.Login(context.Background(), "ghost", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_LegacyPlaintextRehashedOnFirstLogin(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	// Account migrated from the old system stores the raw password.
	mock.ExpectQuery("SELECT id, password_hash, role, kampung_name FROM users").
		WithArgs("pakcik").
		WillReturnRows(userRow(8, "kampung123", "admin", nil))

	// The plaintext match triggers a bcrypt rehash before the session is made.
	mock.ExpectExec("UPDATE users SET password_hash = \\$1 WHERE id = \\$2").
		WithArgs(sqlmock.AnyArg(), int64(8)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := newMemorySessionStore()
	svc := NewSessionService(pg, store, "test-secret")

	result, err := svc.Login(context.Background(), "pakcik", "kampung123")
	require.NoError(t, err)
	assert.Equal(t, authz.RoleKplbHQ, result.Principal.Role)
	assert.Nil(t, result.Principal.Kampung)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogin_LegacyPlaintextMismatchStaysPlaintext(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	mock.ExpectQuery("SELECT id, password_hash, role, kampung_name FROM users").
		WithArgs("pakcik").
		WillReturnRows(userRow(8, "kampung123", "admin", nil))

	svc := NewSessionService(pg, newMemorySessionStore(), "test-secret")

	// No rehash UPDATE is expected on a failed login.
	_, err = svc.Login(context.Background(), "pakcik", "kampung124")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestResolveToken_RoundTrip(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, password_hash, role, kampung_name FROM users").
		WithArgs("rahman").
		WillReturnRows(userRow(5, string(hash), "ketua_kampung", "Kampung Baru"))

	svc := NewSessionService(pg, newMemorySessionStore(), "test-secret")

	result, err := svc.Login(context.Background(), "rahman", "secret123")
	require.NoError(t, err)

	principal, err := svc.ResolveToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, int64(5), principal.UserID)
	assert.Equal(t, authz.RoleKetuaKampung, principal.Role)
	require.NotNil(t, principal.Kampung)
	assert.Equal(t, "Kampung Baru", *principal.Kampung)
}

func TestResolveToken_WrongSecretRejected(t *testing.T) {
	pg, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer pg.Close()

	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.MinCost)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT id, password_hash, role, kampung_name FROM users").
		WithArgs("rahman").
		WillReturnRows(userRow(5, string(hash), "ketua_kampung", "Kampung Baru"))

	issuer := NewSessionService(pg, newMemorySessionStore(), "test-secret")
	result, err := issuer.Login(context.Background(), "rahman", "secret123")
	require.NoError(t, err)

	verifier := NewSessionService(pg, newMemorySessionStore(), "other-secret")
	_, err = verifier.ResolveToken(result.Token)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveSession_MissingIsUnauthenticated(t *testing.T) {
	svc := NewSessionService(nil, newMemorySessionStore(), "test-secret")

	_, err := svc.ResolveSession(context.Background(), "no-such-session")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.ResolveSession(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogout_Idempotent(t *testing.T) {
	store := newMemorySessionStore()
	store.sessions["abc"] = &authz.Principal{UserID: 1, Role: authz.RoleKplbHQ}

	svc := NewSessionService(nil, store, "test-secret")

	require.NoError(t, svc.Logout(context.Background(), "abc"))
	_, err := svc.ResolveSession(context.Background(), "abc")
	assert.ErrorIs(t, err, ErrUnauthenticated)

	// Logging out again, or with no session at all, still succeeds.
	assert.NoError(t, svc.Logout(context.Background(), "abc"))
	assert.NoError(t, svc.Logout(context.Background(), ""))
}
