// Package authz holds the pure authorization decisions of the service.
// The functions are deterministic over their inputs and perform no I/O;
// handlers combine them with externally supplied ownership ids.
package authz

import "github.com/pk46/tasker/internal/domain"

// IsAdmin reports whether the identity carries the admin role.
func IsAdmin(id domain.Identity) bool {
	return id.Role == domain.RoleAdmin
}

// IsSelf reports whether the identity refers to the target user.
func IsSelf(id domain.Identity, targetID int64) bool {
	return id.UserID == targetID
}

// IsAdminOrSelf reports whether the identity may act on a resource owned
// by the target user.
func IsAdminOrSelf(id domain.Identity, targetID int64) bool {
	return IsAdmin(id) || IsSelf(id, targetID)
}
