package middleware

import (
	"fmt"
	"net/http"
	"strings"

	userService "github.com/Dnl30T/Avisos-FOA/internal/modules/user/service"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/Dnl30T/Avisos-FOA/pkg/response"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	auth userService.AuthService
}

func NewAuthMiddleware(auth userService.AuthService) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			return
		}

		principal, err := m.auth.Authenticate(c.Request.Context(), tokenString)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		c.Set(response.PrincipalKey, principal)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func (m *AuthMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, err := response.GetPrincipal(c)
		if err != nil {
			response.ResponseError(c, err)
			c.Abort()
			return
		}

		if !m.auth.IsAdmin(principal) {
			response.ResponseError(c, fmt.Errorf("%w: admin access required", apperror.ErrForbidden))
			c.Abort()
			return
		}

		c.Next()
	}
}
