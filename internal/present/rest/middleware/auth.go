package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kindredapp/kindred-go/internal/domain"
)

var tracer = otel.Tracer("auth")

// SessionVerifier resolves a bearer token to the acting person id.
type SessionVerifier interface {
	Verify(ctx context.Context, token string) (string, error)
}

type AuthMiddleware struct {
	auth SessionVerifier
}

func NewAuthMiddleware(auth SessionVerifier) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// IdentifyRequester resolves the bearer session, if any, and stashes the
// acting person id in the request context. Requests without a valid session
// pass through unidentified; write handlers enforce presence themselves.
func (s *AuthMiddleware) IdentifyRequester(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Auth.Middleware.IdentifyRequester")
		defer span.End()

		authHeader := c.Request().Header.Get("authorization")
		if authHeader != "" {
			split := strings.Split(authHeader, " ")
			if len(split) == 2 && split[0] == "Bearer" {
				personID, err := s.auth.Verify(ctx, split[1])
				if err != nil {
					span.RecordError(errors.Wrap(err, "AuthMiddleware.IdentifyRequester: session verify failed"))
				} else {
					ctx = context.WithValue(ctx, domain.RequesterIDCtxKey, personID)
					span.SetAttributes(attribute.String("RequesterId", personID))
				}
			}
		}

		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// RequesterID extracts the acting person id, if identified.
func RequesterID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(domain.RequesterIDCtxKey).(string)
	return id, ok && id != ""
}
