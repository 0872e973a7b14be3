package authz

import (
	"encoding/json"
	"errors"
	"net/http"

	"pet-health-sharing/internal/domain/principals"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, engine *Engine) {
	r.Get("/pets/{petID}/permissions", effectiveHandler(engine))
}

type effectiveResponse struct {
	PetID   string          `json:"pet_id"`
	Actions map[Action]bool `json:"actions"`
}

// effectiveHandler godoc
// @Summary Acciones permitidas sobre una mascota
// @Description Devuelve, para el usuario autenticado, qué acciones puede ejecutar sobre la mascota. Sin ninguna acción permitida responde 403.
// @Tags authz
// @Produce json
// @Param petID path string true "Pet ID"
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} effectiveResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/permissions [get]
func effectiveHandler(engine *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		petID := chi.URLParam(r, "petID")
		actions, err := engine.Effective(r.Context(), p, petID)
		if err != nil {
			if errors.Is(err, ErrPetNotFound) {
				http.Error(w, err.Error(), http.StatusNotFound)
				return
			}
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		allowed := false
		for _, v := range actions {
			allowed = allowed || v
		}
		if !allowed {
			http.Error(w, ErrDenied.Error(), http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(effectiveResponse{PetID: petID, Actions: actions})
	}
}
