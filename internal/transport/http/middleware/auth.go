package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/baechuer/chatcpe-service/internal/domain"
)

// Authenticator resolves a bearer token to the stored user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.User, error)
}

type WriteErrFunc func(http.ResponseWriter, *http.Request, error)

// Authenticate reads Authorization: Bearer <jwt> and stores the user in the
// request context.
//
// With required=false a request without the header continues anonymously,
// but a header that is present and bad is still rejected.
func Authenticate(authn Authenticator, required bool, writeErr WriteErrFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := strings.TrimSpace(r.Header.Get("Authorization"))
			if h == "" {
				if required {
					writeErr(w, r, domain.ErrTokenMissing())
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			scheme, raw, ok := strings.Cut(h, " ")
			raw = strings.TrimSpace(raw)
			if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
				writeErr(w, r, domain.ErrTokenInvalid())
				return
			}

			u, err := authn.Authenticate(r.Context(), raw)
			if err != nil {
				writeErr(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
