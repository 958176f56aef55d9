// Package guard holds the request middleware that sits in front of the API
// handlers: bearer authentication, role checks, security headers and rate
// limiting.
package guard

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	"github.com/MrJamesThe3rd/invoicebox/internal/actor"
	"github.com/MrJamesThe3rd/invoicebox/internal/auth"
	"github.com/MrJamesThe3rd/invoicebox/internal/http/respond"
	"github.com/MrJamesThe3rd/invoicebox/internal/user"
)

type TokenVerifier interface {
	Verify(ctx context.Context, raw string) (actor.Actor, *auth.Claims, error)
}

type claimsKey struct{}

// ClaimsFromContext returns the verified token claims of the request.
func ClaimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return c, ok
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")

	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}

	return strings.TrimSpace(token)
}

// Authenticate rejects requests without a valid bearer token and stores the
// actor and claims on the request context.
func Authenticate(tokens TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				respond.Error(w, r, auth.ErrInvalidToken)
				return
			}

			a, claims, err := tokens.Verify(r.Context(), raw)
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			ctx := actor.WithActor(r.Context(), a)
			ctx = context.WithValue(ctx, claimsKey{}, claims)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole lets through only actors with one of the given roles.
func RequireRole(roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			a, err := actor.FromContext(r.Context())
			if err != nil {
				respond.Error(w, r, err)
				return
			}

			if !slices.Contains(roles, a.Role()) {
				respond.Error(w, r, user.ErrForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecureHeaders sets the standard browser hardening headers. In strict mode
// plain HTTP requests are redirected to HTTPS.
func SecureHeaders(strict bool) func(http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'",
		SSLRedirect:           strict,
		STSSeconds:            stsSeconds(strict),
		SSLProxyHeaders:       map[string]string{"X-Forwarded-Proto": "https"},
	})

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := sec.Process(w, r); err != nil {
				slog.Warn("secure headers blocked request", "path", r.URL.Path, "error", err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func stsSeconds(strict bool) int64 {
	if strict {
		return 31536000
	}

	return 0
}

// RateLimit allows perMinute requests per client. Authenticated requests are
// keyed by user, the rest by IP. Zero disables the limit.
func RateLimit(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			respond.JSON(w, http.StatusTooManyRequests, map[string]string{
				"error": http.StatusText(http.StatusTooManyRequests),
				"code":  "rate_limited",
			})
		}),
	)
}

func rateLimitKey(r *http.Request) (string, error) {
	if a, err := actor.FromContext(r.Context()); err == nil {
		return "user:" + a.UserID().String(), nil
	}

	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}

	return "ip:" + key, nil
}
