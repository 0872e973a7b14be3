package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken lo devuelven los verifiers cuando el token no es aceptable.
var ErrInvalidToken = errors.New("invalid token")

// Claims es lo único que el servicio necesita del proveedor de identidad:
// quién es el caller. El rol se resuelve contra el registro de principals.
type Claims struct {
	UserID string
	Email  string
}

// AuthVerifier verifica un token y devuelve claims o error.
type AuthVerifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

type claimsKey struct{}

// WithClaims adjunta los claims verificados al contexto del request.
func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFromContext(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	if !ok || c.UserID == "" {
		return Claims{}, false
	}
	return c, true
}
