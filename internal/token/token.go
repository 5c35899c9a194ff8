package token

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	gojose "github.com/go-jose/go-jose/v4"
	gojwt "github.com/go-jose/go-jose/v4/jwt"
	"go.uber.org/zap"

	"github.com/pk46/tasker/internal/config"
	"github.com/pk46/tasker/internal/domain"
)

// Kind discriminates what a token may be used for.
type Kind string

const (
	KindAccess  Kind = "ACCESS"
	KindRefresh Kind = "REFRESH"
)

// ErrInvalidToken is the only failure a caller sees from Verify. Signature
// mismatch, malformed structure and expiry all collapse into it so that no
// verification internals leak to the request boundary.
var ErrInvalidToken = errors.New("invalid token")

// Claims are the verified contents of a session token. UserID and Role are
// only present on access tokens.
type Claims struct {
	Subject  string
	UserID   int64
	Role     domain.Role
	Kind     Kind
	IssuedAt time.Time
	Expiry   time.Time
}

type customClaims struct {
	UserID int64  `json:"userId,omitempty"`
	Role   string `json:"role,omitempty"`
	Kind   string `json:"tokenType"`
}

// Codec signs and verifies session tokens with a process-wide HMAC key.
// It is purely computational and safe for concurrent use.
type Codec struct {
	key        []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	node       *snowflake.Node
	now        func() time.Time
}

// NewCodec constructs a codec around the given signing key.
func NewCodec(key []byte, accessTTL, refreshTTL time.Duration, node *snowflake.Node) *Codec {
	return &Codec{
		key:        key,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		node:       node,
		now:        time.Now,
	}
}

// LoadKey resolves the signing key from configuration. Without a configured
// secret a random key is generated, which invalidates all previously issued
// tokens on restart.
func LoadKey(cfg config.Config, logger *zap.Logger) ([]byte, error) {
	if cfg.JWTSecret == "" {
		logger.Warn("no JWT_SECRET configured, generating random key; tokens will be invalidated on restart")
		key := make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		return key, nil
	}
	key, err := base64.StdEncoding.DecodeString(cfg.JWTSecret)
	if err != nil {
		return nil, fmt.Errorf("decode JWT_SECRET: %w", err)
	}
	logger.Info("JWT signing key loaded from configuration")
	return key, nil
}

// IssueAccessToken mints a short-lived token carrying the user's identity
// claims.
func (c *Codec) IssueAccessToken(user domain.User) (string, error) {
	return c.sign(user.Username, c.accessTTL, customClaims{
		UserID: user.ID,
		Role:   string(user.Role),
		Kind:   string(KindAccess),
	})
}

// IssueRefreshToken mints a long-lived token that carries only the subject.
// Role and id are re-resolved from storage when the token is redeemed.
func (c *Codec) IssueRefreshToken(username string) (string, error) {
	return c.sign(username, c.refreshTTL, customClaims{Kind: string(KindRefresh)})
}

func (c *Codec) sign(subject string, ttl time.Duration, custom customClaims) (string, error) {
	signer, err := gojose.NewSigner(
		gojose.SigningKey{Algorithm: gojose.HS256, Key: c.key},
		(&gojose.SignerOptions{}).WithType("JWT"),
	)
	if err != nil {
		return "", fmt.Errorf("new signer: %w", err)
	}

	now := c.now().UTC()
	std := gojwt.Claims{
		ID:       c.node.Generate().String(),
		Subject:  subject,
		IssuedAt: gojwt.NewNumericDate(now),
		Expiry:   gojwt.NewNumericDate(now.Add(ttl)),
	}

	raw, err := gojwt.Signed(signer).Claims(std).Claims(custom).Serialize()
	if err != nil {
		return "", fmt.Errorf("serialize token: %w", err)
	}
	return raw, nil
}

// Verify checks signature and expiry and returns the embedded claims.
// A token whose expiry instant has been reached is already invalid.
func (c *Codec) Verify(raw string) (Claims, error) {
	parsed, err := gojwt.ParseSigned(raw, []gojose.SignatureAlgorithm{gojose.HS256})
	if err != nil {
		return Claims{}, ErrInvalidToken
	}

	var std gojwt.Claims
	var custom customClaims
	if err := parsed.Claims(c.key, &std, &custom); err != nil {
		return Claims{}, ErrInvalidToken
	}

	if std.Expiry == nil || !c.now().Before(std.Expiry.Time()) {
		return Claims{}, ErrInvalidToken
	}

	kind := Kind(custom.Kind)
	if kind != KindAccess && kind != KindRefresh {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		Subject: std.Subject,
		UserID:  custom.UserID,
		Kind:    kind,
		Expiry:  std.Expiry.Time(),
	}
	if std.IssuedAt != nil {
		claims.IssuedAt = std.IssuedAt.Time()
	}
	if custom.Role != "" {
		role, ok := domain.ParseRole(custom.Role)
		if !ok {
			return Claims{}, ErrInvalidToken
		}
		claims.Role = role
	}
	return claims, nil
}
