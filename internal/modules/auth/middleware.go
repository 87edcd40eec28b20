package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/eskrenkovic/matchroom/internal/modules/core"
)

var errMissingToken = errors.New("missing token")

// Authenticator resolves a bearer token into an identity.
type Authenticator interface {
	Authenticate(token string) (core.Identity, error)
}

// TokenFromRequest reads the bearer token from the Authorization header,
// falling back to the token query parameter used by websocket clients.
func TokenFromRequest(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	return r.URL.Query().Get("token")
}

func AuthenticationMiddleware(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				core.WriteUnauthorized(w, r, errMissingToken)
				return
			}

			identity, err := authenticator.Authenticate(token)
			if err != nil {
				core.WriteUnauthorized(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(core.WithIdentity(r.Context(), identity)))
		})
	}
}
