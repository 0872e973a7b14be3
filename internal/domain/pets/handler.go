package pets

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health-sharing/internal/domain/authz"
	"pet-health-sharing/internal/domain/principals"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets", func(pr chi.Router) {
		pr.Post("/", createPetHandler(svc))
		pr.Get("/", listPetsHandler(svc))

		pr.Get("/{petID}", getPetHandler(svc))
		pr.Patch("/{petID}", updatePetHandler(svc))
		pr.Delete("/{petID}", deletePetHandler(svc))
	})

	// Pacientes del veterinario (grants activos)
	r.Get("/me/patients", listPatientsHandler(svc))
}

type createPetRequest struct {
	Name              string   `json:"name"`
	Species           string   `json:"species"`
	Breed             string   `json:"breed"`
	Gender            string   `json:"gender" enums:"male,female,unknown"`
	BirthDate         string   `json:"birth_date"` // YYYY-MM-DD opcional
	Weight            *float64 `json:"weight"`
	Color             string   `json:"color"`
	Allergies         []string `json:"allergies"`
	ChronicConditions []string `json:"chronic_conditions"`
	Notes             string   `json:"notes"`
}

type updatePetRequest struct {
	Name              *string   `json:"name"`
	Species           *string   `json:"species"`
	Breed             *string   `json:"breed"`
	Gender            *string   `json:"gender"`
	BirthDate         *string   `json:"birth_date"` // null limpia
	Weight            *float64  `json:"weight"`     // null limpia
	Color             *string   `json:"color"`
	Allergies         *[]string `json:"allergies"`
	ChronicConditions *[]string `json:"chronic_conditions"`
	Notes             *string   `json:"notes"`
}

type petResponse struct {
	ID                string     `json:"id"`
	OwnerID           string     `json:"owner_id"`
	Name              string     `json:"name"`
	Species           string     `json:"species"`
	Breed             string     `json:"breed"`
	Gender            Gender     `json:"gender"`
	BirthDate         *time.Time `json:"birth_date,omitempty"`
	Weight            *float64   `json:"weight,omitempty"`
	Color             string     `json:"color,omitempty"`
	Allergies         []string   `json:"allergies"`
	ChronicConditions []string   `json:"chronic_conditions"`
	Notes             string     `json:"notes"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type ownerContact struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type patientResponse struct {
	PetID       string        `json:"pet_id"`
	Pet         *petResponse  `json:"pet,omitempty"` // nil sin viewOwnerInfo
	GrantID     string        `json:"grant_id"`
	AccessLevel string        `json:"access_level"`
	GrantedAt   time.Time     `json:"granted_at"`
	Owner       *ownerContact `json:"owner,omitempty"`
}

// createPetHandler godoc
// @Summary Registrar mascota
// @Description Crea una mascota a nombre del dueño autenticado. Solo usuarios con rol owner.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param payload body createPetRequest true "Datos de la mascota"
// @Success 201 {object} petResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /pets [post]
func createPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createPetRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var bd *time.Time
		if strings.TrimSpace(req.BirthDate) != "" {
			t, err := time.Parse("2006-01-02", req.BirthDate)
			if err != nil {
				http.Error(w, "birth_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			bd = &t
		}

		p, err := svc.Create(r.Context(), actor, CreateInput{
			Name:              req.Name,
			Species:           req.Species,
			Breed:             req.Breed,
			Gender:            req.Gender,
			BirthDate:         bd,
			Weight:            req.Weight,
			Color:             req.Color,
			Allergies:         req.Allergies,
			ChronicConditions: req.ChronicConditions,
			Notes:             req.Notes,
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toPetResponse(p))
	}
}

// listPetsHandler godoc
// @Summary Listar mis mascotas
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Success 200 {array} petResponse
// @Failure 401 {string} string "unauthorized"
// @Router /pets [get]
func listPetsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByOwner(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]petResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPetResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// getPetHandler godoc
// @Summary Perfil de mascota
// @Description Dueño siempre; veterinario con grant activo y viewOwnerInfo.
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {object} petResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [get]
func getPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		p, err := svc.Get(r.Context(), actor, chi.URLParam(r, "petID"))
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(p))
	}
}

// updatePetHandler godoc
// @Summary Actualizar mascota (PATCH)
// @Description Dueño siempre; veterinario con grant activo y editPetInfo. birth_date y weight aceptan null para limpiar.
// @Tags pets
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body updatePetRequest true "Campos a modificar"
// @Success 200 {object} petResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [patch]
func updatePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		// Decodificamos a map primero para detectar campos presentes con null.
		var raw map[string]json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var req updatePetRequest
		b, _ := json.Marshal(raw)
		dec := json.NewDecoder(strings.NewReader(string(b)))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Name:              req.Name,
			Species:           req.Species,
			Breed:             req.Breed,
			Gender:            req.Gender,
			Color:             req.Color,
			Allergies:         req.Allergies,
			ChronicConditions: req.ChronicConditions,
			Notes:             req.Notes,
		}

		if _, exists := raw["birth_date"]; exists {
			in.BirthDate.Present = true
			if req.BirthDate != nil {
				t, err := time.Parse("2006-01-02", *req.BirthDate)
				if err != nil {
					http.Error(w, "birth_date must be YYYY-MM-DD or null", http.StatusBadRequest)
					return
				}
				in.BirthDate.Value = &t
			}
		}
		if _, exists := raw["weight"]; exists {
			in.Weight = Optional[float64]{Present: true, Value: req.Weight}
		}

		updated, err := svc.Update(r.Context(), actor, chi.URLParam(r, "petID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toPetResponse(updated))
	}
}

// deletePetHandler godoc
// @Summary Eliminar mascota
// @Description Solo el dueño. Revoca los grants activos y borra las fichas médicas de la mascota.
// @Tags pets
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID} [delete]
func deletePetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), actor, chi.URLParam(r, "petID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// listPatientsHandler godoc
// @Summary Mis pacientes
// @Description Mascotas con grant activo para el veterinario autenticado. El perfil y el contacto del dueño solo se incluyen con viewOwnerInfo.
// @Tags pets
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Success 200 {array} patientResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Router /me/patients [get]
func listPatientsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListPatients(r.Context(), actor)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]patientResponse, 0, len(items))
		for _, it := range items {
			pr := patientResponse{
				PetID:       it.Pet.ID,
				GrantID:     it.Grant.ID,
				AccessLevel: string(it.Grant.AccessLevel),
				GrantedAt:   it.Grant.GrantedAt,
			}
			if !it.Limited {
				pet := toPetResponse(it.Pet)
				pr.Pet = &pet
			}
			if it.Owner != nil {
				pr.Owner = &ownerContact{
					ID:    it.Owner.ID,
					Name:  it.Owner.Name,
					Email: it.Owner.Email,
					Phone: it.Owner.Phone,
				}
			}
			out = append(out, pr)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, authz.ErrDenied), errors.Is(err, ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, authz.ErrPetNotFound), errors.Is(err, ErrNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func toPetResponse(p Pet) petResponse {
	allergies := p.Allergies
	if allergies == nil {
		allergies = []string{}
	}
	chronic := p.ChronicConditions
	if chronic == nil {
		chronic = []string{}
	}
	return petResponse{
		ID:                p.ID,
		OwnerID:           p.OwnerID,
		Name:              p.Name,
		Species:           p.Species,
		Breed:             p.Breed,
		Gender:            p.Gender,
		BirthDate:         p.BirthDate,
		Weight:            p.Weight,
		Color:             p.Color,
		Allergies:         allergies,
		ChronicConditions: chronic,
		Notes:             p.Notes,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
