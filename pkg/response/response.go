package response

import (
	"errors"
	"log"
	"net/http"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/gin-gonic/gin"
)

// PrincipalKey is the gin context key RequireAuth stores the signed-in principal under.
const PrincipalKey = "principal"

// GetPrincipal retrieves the authenticated principal from the context
func GetPrincipal(c *gin.Context) (*entity.Principal, error) {
	value, exists := c.Get(PrincipalKey)
	if !exists {
		return nil, apperror.ErrUnauthorized
	}

	principal, ok := value.(*entity.Principal)
	if !ok || principal == nil {
		return nil, apperror.ErrUnauthorized
	}

	return principal, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code >= http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	var validationErr *apperror.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(code, gin.H{"error": err.Error(), "fields": validationErr.Fields})
		return
	}

	c.JSON(code, gin.H{"error": err.Error()})
}
