package domain

// Identity is the authenticated principal reconstructed from a verified
// access token. It lives for the duration of a single request and is
// never cached across requests.
type Identity struct {
	Username string
	UserID   int64
	Role     Role
}
