package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"

	"github.com/kindredapp/kindred-go/internal/domain"
)

var tracer = otel.Tracer("auth")

// AuthService resolves opaque bearer sessions to the acting person id.
// Session issuance itself (login, account linking) belongs to the hosted
// identity provider; this service only stores and verifies the mapping.
type AuthService struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAuthService(rdb *redis.Client, ttl time.Duration) *AuthService {
	return &AuthService{rdb: rdb, ttl: ttl}
}

func sessionKey(token string) string {
	return "kd:session:" + token
}

// Issue stores a new session for personID and returns the bearer token.
func (s *AuthService) Issue(ctx context.Context, personID string) (string, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Issue")
	defer span.End()

	token := uuid.NewString()
	if err := s.rdb.Set(ctx, sessionKey(token), personID, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "AuthService.Issue: failed to store session")
	}
	return token, nil
}

// Verify resolves a bearer token to the acting person id.
func (s *AuthService) Verify(ctx context.Context, token string) (string, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.Verify")
	defer span.End()

	personID, err := s.rdb.Get(ctx, sessionKey(token)).Result()
	if err == redis.Nil {
		return "", domain.ErrUnauthorized
	}
	if err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "AuthService.Verify: session lookup failed")
	}
	return personID, nil
}

// Revoke drops the session.
func (s *AuthService) Revoke(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, sessionKey(token)).Err()
}
