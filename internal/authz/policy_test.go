package authz_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pk46/tasker/internal/authz"
	"github.com/pk46/tasker/internal/domain"
)

func TestIsAdminOrSelf(t *testing.T) {
	tests := []struct {
		name     string
		role     domain.Role
		userID   int64
		targetID int64
		want     bool
	}{
		{"admin matching id", domain.RoleAdmin, 1, 1, true},
		{"admin different id", domain.RoleAdmin, 1, 2, true},
		{"user matching id", domain.RoleUser, 1, 1, true},
		{"user different id", domain.RoleUser, 1, 2, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := domain.Identity{Username: "someone", UserID: tt.userID, Role: tt.role}
			require.Equal(t, tt.want, authz.IsAdminOrSelf(id, tt.targetID))
		})
	}
}

func TestIsAdmin(t *testing.T) {
	require.True(t, authz.IsAdmin(domain.Identity{Role: domain.RoleAdmin}))
	require.False(t, authz.IsAdmin(domain.Identity{Role: domain.RoleUser}))
}

func TestIsSelf(t *testing.T) {
	id := domain.Identity{UserID: 7, Role: domain.RoleUser}
	require.True(t, authz.IsSelf(id, 7))
	require.False(t, authz.IsSelf(id, 8))
}
