package auth

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/coindeck/coindeck/internal/contract"
)

// Middleware resolves a Principal for each request, from a bearer identity
// token or from the session cookie, and injects it into the request context.
// Requests with neither are rejected with 401 before reaching any handler.
func Middleware(service *Service, sessions SessionStore, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := resolvePrincipal(r, service, sessions, cookieName)
			if !ok {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(contract.ErrorResponse{Message: "Unauthorized"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
		})
	}
}

func resolvePrincipal(r *http.Request, service *Service, sessions SessionStore, cookieName string) (Principal, bool) {
	if authorization := r.Header.Get("Authorization"); strings.HasPrefix(authorization, "Bearer ") {
		claims, err := service.ParseToken(strings.TrimPrefix(authorization, "Bearer "))
		if err != nil {
			return Principal{}, false
		}
		return PrincipalFromClaims(claims), true
	}

	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return Principal{}, false
	}
	principal, err := sessions.Get(r.Context(), cookie.Value)
	if err != nil {
		return Principal{}, false
	}
	return principal, true
}
