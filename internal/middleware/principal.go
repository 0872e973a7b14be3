package middleware

import (
	"context"
	"errors"
	"net/http"

	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/platform/logger"
)

// PrincipalGetter resuelve el id autenticado contra el registro de principals.
type PrincipalGetter interface {
	Get(ctx context.Context, id string) (principals.Principal, error)
}

// ResolvePrincipal convierte claims en un Principal con rol.
// Un id desconocido deja el request sin principal (los handlers dan 401).
func ResolvePrincipal(people PrincipalGetter, log logger.Logger) func(http.Handler) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			p, err := people.Get(r.Context(), claims.UserID)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(principals.WithPrincipal(r.Context(), p)))
			case errors.Is(err, principals.ErrNotFound):
				next.ServeHTTP(w, r)
			default:
				log.Error("resolve principal failed", logger.Fields{"user_id": claims.UserID, "err": err})
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
		})
	}
}
