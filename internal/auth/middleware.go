package auth

import (
	"context"
	"net/http"
	"strings"

	svcErr "github.com/oggyb/picfeed/internal/errors"
	"github.com/oggyb/picfeed/internal/httpx"
)

type ctxKey struct{}

// Middleware attaches the caller's identity when a bearer token is present.
// Requests without a token pass through anonymously; a malformed or
// invalid token is rejected with 401.
func Middleware(p *Provider) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.Error(w, r, svcErr.Unauthorized("invalid token format"))
				return
			}

			id, err := p.Validate(token)
			if err != nil {
				httpx.Error(w, r, svcErr.Unauthorized("invalid or expired token"))
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// CurrentActor returns the caller's identity, if any.
func CurrentActor(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(Identity)
	return id, ok && id.Subject != ""
}

// RequireActor is CurrentActor for mutations.
func RequireActor(ctx context.Context) (Identity, error) {
	id, ok := CurrentActor(ctx)
	if !ok {
		return Identity{}, svcErr.Unauthorized("Unauthorized")
	}
	return id, nil
}
