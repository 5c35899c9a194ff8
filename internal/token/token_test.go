package token

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"

	"github.com/pk46/tasker/internal/domain"
)

func newTestCodec(t *testing.T, key []byte) *Codec {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return NewCodec(key, 15*time.Minute, 7*24*time.Hour, node)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t, []byte("0123456789abcdef0123456789abcdef"))
	user := domain.User{ID: 42, Username: "alice", Role: domain.RoleAdmin}

	raw, err := codec.IssueAccessToken(user)
	require.NoError(t, err)
	require.NotEmpty(t, raw)

	claims, err := codec.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "alice", claims.Subject)
	require.Equal(t, int64(42), claims.UserID)
	require.Equal(t, domain.RoleAdmin, claims.Role)
	require.Equal(t, KindAccess, claims.Kind)
}

func TestRefreshTokenCarriesOnlySubject(t *testing.T) {
	codec := newTestCodec(t, []byte("0123456789abcdef0123456789abcdef"))

	raw, err := codec.IssueRefreshToken("bob")
	require.NoError(t, err)

	claims, err := codec.Verify(raw)
	require.NoError(t, err)
	require.Equal(t, "bob", claims.Subject)
	require.Equal(t, KindRefresh, claims.Kind)
	require.Zero(t, claims.UserID)
	require.Empty(t, claims.Role)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	codec := newTestCodec(t, []byte("0123456789abcdef0123456789abcdef"))
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }

	raw, err := codec.IssueAccessToken(domain.User{ID: 1, Username: "alice", Role: domain.RoleUser})
	require.NoError(t, err)

	codec.now = func() time.Time { return issued.Add(16 * time.Minute) }
	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsTokenExactlyAtExpiry(t *testing.T) {
	codec := newTestCodec(t, []byte("0123456789abcdef0123456789abcdef"))
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	codec.now = func() time.Time { return issued }

	raw, err := codec.IssueAccessToken(domain.User{ID: 1, Username: "alice", Role: domain.RoleUser})
	require.NoError(t, err)

	codec.now = func() time.Time { return issued.Add(15 * time.Minute) }
	_, err = codec.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)

	codec.now = func() time.Time { return issued.Add(15*time.Minute - time.Second) }
	_, err = codec.Verify(raw)
	require.NoError(t, err)
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	codecA := newTestCodec(t, []byte("0123456789abcdef0123456789abcdef"))
	codecB := newTestCodec(t, []byte("fedcba9876543210fedcba9876543210"))

	raw, err := codecA.IssueAccessToken(domain.User{ID: 7, Username: "alice", Role: domain.RoleUser})
	require.NoError(t, err)

	_, err = codecB.Verify(raw)
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	codec := newTestCodec(t, []byte("0123456789abcdef0123456789abcdef"))

	for _, raw := range []string{"", "not-a-token", "a.b.c", "eyJhbGciOiJub25lIn0.e30."} {
		_, err := codec.Verify(raw)
		require.ErrorIs(t, err, ErrInvalidToken, "input %q", raw)
	}
}
