package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pk46/tasker/internal/authz"
	"github.com/pk46/tasker/internal/http/middleware"
	"github.com/pk46/tasker/internal/service"
)

// UserHandler exposes the user endpoints guarded by the authorization
// policy.
type UserHandler struct {
	Auth *service.AuthService
}

// NewUserHandler wires dependencies.
func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{Auth: auth}
}

// GetUser handles GET /api/users/:id. Visible to admins and the user
// themselves.
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Missing or invalid credentials."})
		return
	}

	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "Invalid user id."})
		return
	}

	if !authz.IsAdminOrSelf(id, targetID) {
		respondAuthError(c, service.NewForbidden("You can only view your own profile."))
		return
	}

	user, err := h.Auth.GetUser(c.Request.Context(), targetID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ListUsers handles GET /api/users. Admin only.
func (h *UserHandler) ListUsers(c *gin.Context) {
	id, ok := middleware.GetIdentity(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Missing or invalid credentials."})
		return
	}

	if !authz.IsAdmin(id) {
		respondAuthError(c, service.NewForbidden("Admin role required."))
		return
	}

	users, err := h.Auth.ListUsers(c.Request.Context())
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}
