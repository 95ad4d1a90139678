package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kampungalert/api/authz"
	"github.com/kampungalert/api/services"
)

type fakeSessionStore struct {
	sessions map[string]*authz.Principal
}

func (s *fakeSessionStore) Set(ctx context.Context, sessionID string, principal *authz.Principal, ttl time.Duration) error {
	s.sessions[sessionID] = principal
	return nil
}

func (s *fakeSessionStore) Get(ctx context.Context, sessionID string) (*authz.Principal, error) {
	principal, ok := s.sessions[sessionID]
	if !ok {
		return nil, services.ErrUnauthenticated
	}
	return principal, nil
}

func (s *fakeSessionStore) Del(ctx context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func authTestRouter(store *fakeSessionStore) *gin.Engine {
	sessions := services.NewSessionService(nil, store, "test-secret")
	r := gin.New()
	r.GET("/protected", AuthRequired(sessions), func(c *gin.Context) {
		principal := getPrincipal(c)
		c.JSON(http.StatusOK, gin.H{"username": principal.Username})
	})
	return r
}

func TestAuthRequired_NoCredentialIs401(t *testing.T) {
	r := authTestRouter(&fakeSessionStore{sessions: map[string]*authz.Principal{}})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_UnknownSessionIs401(t *testing.T) {
	r := authTestRouter(&fakeSessionStore{sessions: map[string]*authz.Principal{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "expired-session"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_SessionCookieResolves(t *testing.T) {
	store := &fakeSessionStore{sessions: map[string]*authz.Principal{
		"sess-1": {UserID: 5, Username: "rahman", Role: authz.RoleKetuaKampung},
	}}
	r := authTestRouter(store)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "sess-1"})
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "rahman")
}

func TestAuthRequired_GarbageBearerIs401(t *testing.T) {
	r := authTestRouter(&fakeSessionStore{sessions: map[string]*authz.Principal{}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
