package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gtracker/forum-backend/internal/common"
	"github.com/gtracker/forum-backend/internal/domain"
)

// RequireRole admits callers whose role level reaches the lowest level among
// allowed. Must run after Authenticator.Required.
func RequireRole(allowed ...domain.Role) gin.HandlerFunc {
	names := make([]string, len(allowed))
	for i, r := range allowed {
		names[i] = string(r)
	}
	denied := "Acesso restrito. Cargos permitidos: " + strings.Join(names, ", ")

	return func(c *gin.Context) {
		if GetUserID(c) == "" {
			common.ErrorResponse(c, http.StatusUnauthorized, "Não autenticado", nil)
			return
		}
		if !domain.HasMinimumRole(GetUserRole(c), allowed...) {
			common.ErrorResponse(c, http.StatusForbidden, denied, nil)
			return
		}
		c.Next()
	}
}

// RequireModerator moderador or above
func RequireModerator() gin.HandlerFunc {
	return RequireRole(domain.RoleModerador)
}

// RequireAdmin admin or above
func RequireAdmin() gin.HandlerFunc {
	return RequireRole(domain.RoleAdmin)
}

// RequireMaster master only
func RequireMaster() gin.HandlerFunc {
	return RequireRole(domain.RoleMaster)
}
