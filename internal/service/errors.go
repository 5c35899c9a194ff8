package service

import (
	"fmt"
	"net/http"
)

// AuthError is the explicit failure kind surfaced to the request boundary.
// The description is safe to return to clients; verification internals
// never appear here.
type AuthError struct {
	Code        string
	Description string
	Status      int
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

func newAuthError(code, desc string, status int) *AuthError {
	return &AuthError{Code: code, Description: desc, Status: status}
}

// Wrong username and wrong password are reported identically so the login
// endpoint cannot be used to enumerate usernames.
func errInvalidCredentials() *AuthError {
	return newAuthError("invalid_credentials", "Invalid username or password.", http.StatusUnauthorized)
}

func errTooManyAttempts() *AuthError {
	return newAuthError("too_many_attempts", "Too many failed login attempts. Try again later.", http.StatusTooManyRequests)
}

func errInvalidToken() *AuthError {
	return newAuthError("invalid_token", "Invalid or expired token.", http.StatusUnauthorized)
}

func errUnauthenticated() *AuthError {
	return newAuthError("unauthenticated", "Missing or invalid credentials.", http.StatusUnauthorized)
}

// NewForbidden is used by handlers when the authorization policy denies an
// authenticated identity.
func NewForbidden(desc string) *AuthError {
	return newAuthError("forbidden", desc, http.StatusForbidden)
}

func errUserNotFound() *AuthError {
	return newAuthError("user_not_found", "User not found.", http.StatusNotFound)
}
