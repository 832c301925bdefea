package auth

import (
	"context"
	"errors"

	"github.com/coindeck/coindeck/internal/models"
)

// Principal is the authenticated user attached to a request. It is the typed
// form of the session claims; handlers never see raw claim maps.
type Principal struct {
	Subject  string `json:"sub"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// PrincipalFromClaims converts a verified claim set into a Principal
func PrincipalFromClaims(claims *models.Claims) Principal {
	return Principal{
		Subject:  claims.Subject,
		Username: claims.Username,
		Email:    claims.Email,
	}
}

type contextKey string

const principalKey contextKey = "principal"

// ErrNoPrincipal is returned when a request context carries no authenticated
// principal.
var ErrNoPrincipal = errors.New("no principal in context")

// WithPrincipal attaches a principal to the context
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext extracts the authenticated principal from the context
func PrincipalFromContext(ctx context.Context) (Principal, error) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.Subject == "" {
		return Principal{}, ErrNoPrincipal
	}
	return p, nil
}
