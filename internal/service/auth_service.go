package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/pk46/tasker/internal/domain"
	"github.com/pk46/tasker/internal/password"
	"github.com/pk46/tasker/internal/ratelimit"
	"github.com/pk46/tasker/internal/repository"
	"github.com/pk46/tasker/internal/token"
)

// AuthService orchestrates the credential verifier, the login limiter and
// the token codec into the login, refresh and authenticate flows.
type AuthService struct {
	users   repository.UserRepository
	limiter ratelimit.LoginLimiter
	codec   *token.Codec
	logger  *zap.Logger
	tracer  trace.Tracer
}

// NewAuthService wires dependencies.
func NewAuthService(users repository.UserRepository, limiter ratelimit.LoginLimiter, codec *token.Codec, logger *zap.Logger) *AuthService {
	return &AuthService{
		users:   users,
		limiter: limiter,
		codec:   codec,
		logger:  logger,
		tracer:  otel.Tracer("github.com/pk46/tasker/internal/service"),
	}
}

// Login authenticates a username/password pair. clientKey is the caller's
// network address and scopes the brute-force counter together with the
// attempted username.
func (s *AuthService) Login(ctx context.Context, username, pass, clientKey string) (*LoginResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Login")
	defer span.End()

	key := ratelimit.Key(clientKey, username)
	blocked, err := s.limiter.IsBlocked(ctx, key)
	if err != nil {
		// Counter backend failures must not take the login path down.
		s.log().Warn("login limiter unavailable", zap.Error(err))
	}
	if blocked {
		s.audit("login.blocked", "username", username, "client", clientKey)
		return nil, errTooManyAttempts()
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
		}
		s.recordFailure(ctx, key, username)
		return nil, errInvalidCredentials()
	}

	ok, err := password.Verify(pass, user.PasswordHash)
	if err != nil || !ok {
		s.recordFailure(ctx, key, username)
		return nil, errInvalidCredentials()
	}

	if err := s.limiter.RecordSuccess(ctx, key); err != nil {
		s.log().Warn("reset attempt counter failed", zap.Error(err))
	}

	result, err := s.issueTokens(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.audit("login.success", "user_id", user.ID, "username", user.Username)
	return result, nil
}

// Refresh redeems a refresh token for a fresh access/refresh pair. The
// user record is re-resolved so a role change since the original login is
// reflected, and a deleted account can no longer refresh.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	ctx, span := s.startSpan(ctx, "AuthService.Refresh")
	defer span.End()

	claims, err := s.codec.Verify(refreshToken)
	if err != nil || claims.Kind != token.KindRefresh {
		return nil, errInvalidToken()
	}

	user, err := s.users.GetByUsername(ctx, claims.Subject)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			span.RecordError(err)
		}
		return nil, errInvalidToken()
	}

	result, err := s.issueTokens(user)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	s.audit("refresh.success", "user_id", user.ID, "username", user.Username)
	return result, nil
}

// Authenticate turns a raw Authorization header into a request identity.
// Every failure collapses into an unauthenticated result; refresh tokens
// are rejected as session credentials.
func (s *AuthService) Authenticate(ctx context.Context, header string) (domain.Identity, error) {
	_, span := s.startSpan(ctx, "AuthService.Authenticate")
	defer span.End()

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return domain.Identity{}, errUnauthenticated()
	}

	claims, err := s.codec.Verify(parts[1])
	if err != nil || claims.Kind != token.KindAccess {
		return domain.Identity{}, errUnauthenticated()
	}

	return domain.Identity{
		Username: claims.Subject,
		UserID:   claims.UserID,
		Role:     claims.Role,
	}, nil
}

// GetUser returns the public projection of a stored user.
func (s *AuthService) GetUser(ctx context.Context, id int64) (UserView, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UserView{}, errUserNotFound()
		}
		return UserView{}, err
	}
	return newUserView(user), nil
}

// ListUsers returns all stored users. Handlers restrict it to admins.
func (s *AuthService) ListUsers(ctx context.Context) ([]UserView, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]UserView, 0, len(users))
	for _, user := range users {
		views = append(views, newUserView(user))
	}
	return views, nil
}

func (s *AuthService) issueTokens(user domain.User) (*LoginResult, error) {
	access, err := s.codec.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.codec.IssueRefreshToken(user.Username)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		Type:         "Bearer",
		User:         newUserView(user),
	}, nil
}

func (s *AuthService) recordFailure(ctx context.Context, key, username string) {
	if err := s.limiter.RecordFailure(ctx, key); err != nil {
		s.log().Warn("record failed attempt", zap.Error(err))
	}
	s.audit("login.failure", "username", username)
}

func (s *AuthService) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	if s == nil || s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return s.tracer.Start(ctx, name)
}

func (s *AuthService) audit(event string, attrs ...any) {
	logger := s.log()
	if logger == nil {
		return
	}
	fields := make([]zap.Field, 0, len(attrs)/2+2)
	fields = append(fields, zap.String("event", event), zap.Time("timestamp", time.Now().UTC()))
	for i := 0; i+1 < len(attrs); i += 2 {
		key, ok := attrs[i].(string)
		if !ok {
			continue
		}
		fields = append(fields, zap.Any(key, attrs[i+1]))
	}
	logger.Info("audit", fields...)
}

func (s *AuthService) log() *zap.Logger {
	if s != nil && s.logger != nil {
		return s.logger
	}
	return zap.L()
}
