// Package middleware resolves the acting player for HTTP requests.
//
// Identity is provisioned outside this service. When a signing secret is
// configured, callers present a Bearer JWT whose subject is the player id;
// otherwise the service sits behind a gateway that sets X-Player-ID.
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nexumi/nexumi-core/internal/logger"
)

type contextKey string

const playerIDKey contextKey = "player_id"

// ErrInvalidToken is returned when a bearer token cannot be verified
var ErrInvalidToken = errors.New("invalid identity token")

// IdentityConfig configures how the acting player is resolved
type IdentityConfig struct {
	// JWTSecret enables bearer token verification. Empty means the
	// X-Player-ID header is trusted as set by the gateway.
	JWTSecret string
	Now       func() time.Time
}

// WithPlayerID stores the authenticated player id on the context
func WithPlayerID(ctx context.Context, playerID string) context.Context {
	return context.WithValue(ctx, playerIDKey, playerID)
}

// PlayerIDFromContext returns the authenticated player id, if any
func PlayerIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(playerIDKey).(string)
	return id, ok && id != ""
}

// Identity resolves the acting player and the client session for every
// request. Requests without identity pass through anonymously; routes that
// need a player wrap themselves with RequirePlayer.
func Identity(cfg IdentityConfig) func(http.Handler) http.Handler {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if sid := strings.TrimSpace(r.Header.Get(HeaderSessionID)); sid != "" {
				if len(sid) > MaxSessionIDLength {
					sid = sid[:MaxSessionIDLength]
				}
				ctx = logger.WithSessionID(ctx, sid)
			}

			playerID, err := resolvePlayer(r, cfg)
			if err != nil {
				logger.FromContext(ctx).Warn(LogMsgTokenRejected, "error", err, "path", r.URL.Path)
				http.Error(w, ErrMsgInvalidToken, http.StatusUnauthorized)
				return
			}
			if playerID != "" {
				ctx = WithPlayerID(ctx, playerID)
				ctx = logger.WithPlayerID(ctx, playerID)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequirePlayer rejects requests that carry no player identity
func RequirePlayer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := PlayerIDFromContext(r.Context()); !ok {
			http.Error(w, ErrMsgMissingIdentity, http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func resolvePlayer(r *http.Request, cfg IdentityConfig) (string, error) {
	if cfg.JWTSecret == "" {
		return strings.TrimSpace(r.Header.Get(HeaderPlayerID)), nil
	}

	header := r.Header.Get(HeaderAuthorization)
	if header == "" {
		return "", nil
	}
	if !strings.HasPrefix(header, BearerPrefix) {
		return "", fmt.Errorf("%w: expected bearer scheme", ErrInvalidToken)
	}
	return ParsePlayerToken(strings.TrimSpace(header[len(BearerPrefix):]), cfg.JWTSecret, cfg.Now)
}

// ParsePlayerToken verifies an HS256 token and returns its subject
func ParsePlayerToken(raw, secret string, now func() time.Time) (string, error) {
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return []byte(secret), nil
	},
		jwt.WithValidMethods([]string{SigningMethodHS256}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	sub := strings.TrimSpace(claims.Subject)
	if sub == "" {
		return "", fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return sub, nil
}

// IssuePlayerToken signs a token for playerID. Used by tooling and tests;
// production tokens come from the identity provider.
func IssuePlayerToken(playerID, secret string, now time.Time, ttl time.Duration) (string, error) {
	claims := jwt.RegisteredClaims{
		Subject:   playerID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
