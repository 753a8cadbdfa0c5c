package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/pkg/jwt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubBlacklist map[string]bool

func (s stubBlacklist) IsRevoked(_ context.Context, token string) (bool, error) {
	return s[token], nil
}

type stubProfiles map[string]*domain.Profile

func (s stubProfiles) FindByUserID(userID string) (*domain.Profile, error) {
	if p, ok := s[userID]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type failingBlacklist struct{}

func (failingBlacklist) IsRevoked(context.Context, string) (bool, error) {
	return false, errors.New("db down")
}

func newAuthRouter(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{}, mw...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "role": GetUserRole(c), "username": GetUsername(c)})
	})
	r.GET("/test", handlers...)
	return r
}

func do(r http.Handler, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour)
	token, err := manager.GenerateToken("u1", "ana")
	require.NoError(t, err)
	bannedToken, err := manager.GenerateToken("u2", "bia")
	require.NoError(t, err)
	revokedToken, err := manager.GenerateToken("u1", "ana-antiga")
	require.NoError(t, err)
	ghostToken, err := manager.GenerateToken("u3", "ghost")
	require.NoError(t, err)

	auth := NewAuthenticator(manager,
		stubBlacklist{revokedToken: true},
		stubProfiles{
			"u1": {UserID: "u1", Role: domain.RoleModerador},
			"u2": {UserID: "u2", Role: domain.RoleUsuario, IsBanned: true},
		},
	)
	r := newAuthRouter(auth.Required())

	w := do(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"u1","role":"moderador","username":"ana"}`, w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, "garbage").Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, revokedToken).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, ghostToken).Code)

	w = do(r, bannedToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "banida")
}

func TestAuthRequired_BlacklistFailure(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour)
	token, err := manager.GenerateToken("u1", "ana")
	require.NoError(t, err)

	auth := NewAuthenticator(manager, failingBlacklist{}, stubProfiles{"u1": {UserID: "u1"}})
	w := do(newAuthRouter(auth.Required()), token)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestAuthOptional(t *testing.T) {
	manager := jwt.NewManager("secret", time.Hour)
	token, err := manager.GenerateToken("u1", "ana")
	require.NoError(t, err)

	auth := NewAuthenticator(manager, stubBlacklist{}, stubProfiles{"u1": {UserID: "u1", Role: domain.RoleVIP}})
	r := newAuthRouter(auth.Optional())

	w := do(r, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":"","role":"","username":""}`, w.Body.String())

	w = do(r, "garbage")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_id":""`)

	w = do(r, token)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"vip"`)
}
