package middleware

import (
	"context"
	"net/http"

	"github.com/admitkit/admitkit"
)

type identityContextKey struct{}

// IdentityFromContext retrieves the identity stored by [Guard].
func IdentityFromContext(ctx context.Context) (admitkit.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey{}).(admitkit.Identity)
	return identity, ok
}

// Guard returns middleware that authenticates every request through the
// pipeline. The credential is looked up in the Authorization header first,
// then the session cookie. Rejected requests receive the AUTHENTICATION
// fault envelope and never reach the next handler.
func Guard(pipeline *admitkit.Pipeline) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if pipeline == nil {
				admitkit.WriteFault(w, admitkit.Classify(admitkit.ErrPipelineNotReady))
				return
			}

			raw, _ := pipeline.Tokens().FromRequest(r)

			identity, err := pipeline.Authenticate(raw)
			if err != nil {
				admitkit.WriteFault(w, admitkit.Classify(err))
				return
			}

			ctx := context.WithValue(r.Context(), identityContextKey{}, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that rejects authenticated identities
// lacking the given role. It must run after [Guard].
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok {
				admitkit.WriteFault(w, admitkit.Classify(admitkit.ErrTokenMissing))
				return
			}
			if identity.Role != role {
				admitkit.WriteFault(w, admitkit.Classify(admitkit.ErrPermissionDenied))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
