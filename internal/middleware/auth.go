package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/avitalak/salon-api/internal/model"
	"github.com/avitalak/salon-api/internal/service/auth"
	"github.com/avitalak/salon-api/pkg/httputil"
)

const ContextClaims = "claims"

type AuthMiddleware struct {
	authService auth.Service
}

func NewAuthMiddleware(authService auth.Service) *AuthMiddleware {
	return &AuthMiddleware{authService: authService}
}

// Authenticate verifies the bearer token and stores the claims in context.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			httputil.AbortWithError(c, http.StatusUnauthorized, "missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			httputil.AbortWithError(c, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		claims, err := m.authService.ValidateToken(parts[1])
		if err != nil {
			httputil.AbortWithError(c, http.StatusUnauthorized, "invalid token")
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireAdmin aborts unless the authenticated user is an admin. Must run
// after Authenticate.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := ClaimsFromContext(c)
		if claims == nil || claims.Role != model.RoleAdmin {
			httputil.AbortWithError(c, http.StatusForbidden, "admin access required")
			return
		}
		c.Next()
	}
}

// ClaimsFromContext returns the authenticated claims, or nil on
// unauthenticated routes.
func ClaimsFromContext(c *gin.Context) *model.TokenClaims {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil
	}
	claims, ok := v.(*model.TokenClaims)
	if !ok {
		return nil
	}
	return claims
}
