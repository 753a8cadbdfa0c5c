package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
	"github.com/gtracker/forum-backend/pkg/jwt"
	pkglogger "github.com/gtracker/forum-backend/pkg/logger"
	"gorm.io/gorm"
)

const (
	ctxUserID   = "userID"
	ctxUsername = "username"
	ctxRole     = "role"
	ctxToken    = "token"
)

// RevocationChecker answers whether a token was logged out
type RevocationChecker interface {
	IsRevoked(ctx context.Context, token string) (bool, error)
}

// ProfileLookup loads the role and ban flag of the caller
type ProfileLookup interface {
	FindByUserID(userID string) (*domain.Profile, error)
}

// Authenticator verifies bearer tokens against the signing key, the
// blacklist and the caller's profile
type Authenticator struct {
	jwt       *jwt.Manager
	blacklist RevocationChecker
	profiles  ProfileLookup
}

// NewAuthenticator creates an Authenticator
func NewAuthenticator(jwtManager *jwt.Manager, blacklist RevocationChecker, profiles ProfileLookup) *Authenticator {
	return &Authenticator{jwt: jwtManager, blacklist: blacklist, profiles: profiles}
}

// Required rejects requests without a valid, unrevoked token of a user that
// is not banned
func (a *Authenticator) Required() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			common.ErrorResponse(c, http.StatusUnauthorized, "Token não fornecido", nil)
			return
		}
		if appErr := a.authenticate(c, token); appErr != nil {
			common.ErrorResponse(c, appErr.Status(), appErr.Message, nil)
			return
		}
		c.Next()
	}
}

// Optional identifies the caller when a valid token is sent and lets
// anonymous requests through
func (a *Authenticator) Optional() gin.HandlerFunc {
	return func(c *gin.Context) {
		if token, ok := bearerToken(c); ok {
			if appErr := a.authenticate(c, token); appErr != nil {
				clearIdentity(c)
			}
		}
		c.Next()
	}
}

func (a *Authenticator) authenticate(c *gin.Context, token string) *common.AppError {
	revoked, err := a.blacklist.IsRevoked(c.Request.Context(), token)
	if err != nil {
		log := pkglogger.WithRequest(GetRequestID(c), "")
		log.Error().Err(err).Msg("token blacklist check failed")
		return common.NewInternal("Erro ao validar token", err)
	}
	if revoked {
		return common.NewUnauthorized("Token inválido")
	}

	claims, err := a.jwt.VerifyToken(token)
	if err != nil {
		if errors.Is(err, jwt.ErrExpiredToken) {
			return common.NewUnauthorized("Token expirado")
		}
		return common.NewUnauthorized("Token inválido ou expirado")
	}

	profile, err := a.profiles.FindByUserID(claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return common.NewUnauthorized("Usuário não encontrado")
		}
		return common.NewInternal("Erro ao carregar perfil", err)
	}
	if profile.IsBanned {
		return common.NewForbidden("Sua conta está banida")
	}

	c.Set(ctxUserID, claims.UserID)
	c.Set(ctxUsername, claims.Username)
	c.Set(ctxRole, profile.Role)
	c.Set(ctxToken, token)
	return nil
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func clearIdentity(c *gin.Context) {
	for _, key := range []string{ctxUserID, ctxUsername, ctxRole, ctxToken} {
		delete(c.Keys, key)
	}
}

// GetUserID authenticated user id, empty for anonymous requests
func GetUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// GetUsername extracts the username from context
func GetUsername(c *gin.Context) string {
	return c.GetString(ctxUsername)
}

// GetUserRole role loaded from the caller's profile
func GetUserRole(c *gin.Context) domain.Role {
	if role, ok := c.Get(ctxRole); ok {
		if r, ok := role.(domain.Role); ok {
			return r
		}
	}
	return ""
}

// GetToken raw bearer token of the request
func GetToken(c *gin.Context) string {
	return c.GetString(ctxToken)
}
