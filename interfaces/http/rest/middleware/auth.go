package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"ontology-backend/domain/core/entities"
	"ontology-backend/pkg/auth"
	"ontology-backend/pkg/common"
	pkgerrors "ontology-backend/pkg/errors"
)

// APIKeyHeader carries the client's API key.
const APIKeyHeader = "x-api-key"

// KeyValidator checks an API key for an endpoint.
type KeyValidator interface {
	Validate(ctx context.Context, plain, endpoint string) (*entities.APIKey, error)
}

// ErrorResponder renders errors in the response envelope.
type ErrorResponder interface {
	Handle(w http.ResponseWriter, r *http.Request, err error)
}

// APIKeyAuth admits requests carrying a valid x-api-key. The key's uname
// becomes the acting user; its client ID keys the rate limiter.
func APIKeyAuth(keys KeyValidator, limiter auth.RateLimiter, errs ErrorResponder, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, err := keys.Validate(r.Context(), r.Header.Get(APIKeyHeader), r.URL.Path)
			if err != nil {
				errs.Handle(w, r, err)
				return
			}

			if limiter != nil {
				allowed, err := limiter.Allow(r.Context(), key.ClientID)
				if err != nil {
					logger.Error("Rate limiter error", zap.Error(err))
					errs.Handle(w, r, pkgerrors.NewInternalError("rate limiter failure").WithCause(err))
					return
				}
				if !allowed {
					errs.Handle(w, r, pkgerrors.NewRateLimitError("Rate limit exceeded"))
					return
				}
			}

			ctx := common.WithClientID(r.Context(), key.ClientID)
			ctx = common.WithUname(ctx, key.Uname)
			ctx = common.WithUserID(ctx, key.UserID)

			logger.Debug("Request authenticated by API key",
				zap.String("clientId", key.ClientID),
				zap.String("path", r.URL.Path),
			)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// TokenValidator validates bearer tokens.
type TokenValidator interface {
	ValidateToken(token string) (*auth.Claims, error)
}

// JWTAuth admits requests with a valid bearer token.
func JWTAuth(validator TokenValidator, errs ErrorResponder, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError("Missing authentication token"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token", zap.Error(err), zap.String("path", r.URL.Path))
				message := "Invalid token"
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					message = "Token has expired"
				case errors.Is(err, auth.ErrInvalidSignature):
					message = "Invalid token signature"
				}
				errs.Handle(w, r, pkgerrors.NewUnauthorizedError(message))
				return
			}

			ctx := common.WithUserID(r.Context(), claims.UserID)
			if claims.Uname != "" {
				ctx = common.WithUname(ctx, claims.Uname)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}
