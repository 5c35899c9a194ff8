package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pk46/tasker/internal/domain"
	"github.com/pk46/tasker/internal/service"
)

const identityKey = "identity"

// Auth is the authentication gate applied to every non-public route.
type Auth struct {
	AuthService *service.AuthService
}

// RequireAuth validates the bearer credential and attaches the resulting
// identity to the request context. Any failure inside verification,
// including a panic, degrades to a 401 instead of crashing the pipeline.
func (m *Auth) RequireAuth(c *gin.Context) {
	id, err := m.authenticate(c)
	if err != nil {
		abortUnauthenticated(c)
		return
	}

	c.Set(identityKey, id)
	c.Next()
}

func (m *Auth) authenticate(c *gin.Context) (id domain.Identity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("authenticate panic: %v", r)
		}
	}()
	return m.AuthService.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
}

// GetIdentity returns the identity the gate attached to this request.
func GetIdentity(c *gin.Context) (domain.Identity, bool) {
	value, ok := c.Get(identityKey)
	if !ok {
		return domain.Identity{}, false
	}
	id, ok := value.(domain.Identity)
	return id, ok
}

func abortUnauthenticated(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"error":             "unauthenticated",
		"error_description": "Missing or invalid credentials.",
	})
}
