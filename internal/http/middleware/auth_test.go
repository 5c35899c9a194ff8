package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pk46/tasker/internal/domain"
	"github.com/pk46/tasker/internal/http/middleware"
	"github.com/pk46/tasker/internal/ratelimit"
	"github.com/pk46/tasker/internal/service"
	"github.com/pk46/tasker/internal/token"
)

func newGate(t *testing.T) (*middleware.Auth, *token.Codec) {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	codec := token.NewCodec([]byte("0123456789abcdef0123456789abcdef"), 15*time.Minute, 7*24*time.Hour, node)
	limiter := ratelimit.NewMemoryLimiter(5, 5*time.Minute)
	svc := service.NewAuthService(emptyUserRepo{}, limiter, codec, zap.NewNop())
	return &middleware.Auth{AuthService: svc}, codec
}

func runGate(gate *middleware.Auth, header string) (*httptest.ResponseRecorder, *gin.Context) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/users/1", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}
	gate.RequireAuth(c)
	return w, c
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	gate, _ := newGate(t)

	w, c := runGate(gate, "")
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "unauthenticated")
}

func TestRequireAuthRejectsMalformedHeader(t *testing.T) {
	gate, _ := newGate(t)

	for _, header := range []string{"Bearer", "Token abc", "Bearer bad.token"} {
		w, c := runGate(gate, header)
		require.True(t, c.IsAborted(), "header %q", header)
		require.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
	}
}

func TestRequireAuthRejectsRefreshToken(t *testing.T) {
	gate, codec := newGate(t)

	refresh, err := codec.IssueRefreshToken("alice")
	require.NoError(t, err)

	w, c := runGate(gate, "Bearer "+refresh)
	require.True(t, c.IsAborted())
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthAttachesIdentity(t *testing.T) {
	gate, codec := newGate(t)

	access, err := codec.IssueAccessToken(domain.User{ID: 42, Username: "alice", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, c := runGate(gate, "Bearer "+access)
	require.False(t, c.IsAborted())

	id, ok := middleware.GetIdentity(c)
	require.True(t, ok)
	require.Equal(t, domain.Identity{Username: "alice", UserID: 42, Role: domain.RoleAdmin}, id)
}

// The gate never needs storage; authentication works purely off the token.
type emptyUserRepo struct{}

func (emptyUserRepo) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}

func (emptyUserRepo) GetByID(ctx context.Context, id int64) (domain.User, error) {
	return domain.User{}, pgx.ErrNoRows
}

func (emptyUserRepo) List(ctx context.Context) ([]domain.User, error) {
	return nil, nil
}
