package accessgrants

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health-sharing/internal/domain/principals"
	"pet-health-sharing/internal/ports/lookup"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service, people PrincipalLookup, pets lookup.PetLookup) {
	// Acciones del dueño sobre una mascota
	r.Route("/pets/{petID}/grants", func(gr chi.Router) {
		gr.Post("/", createGrantHandler(svc))
		gr.Get("/", listGrantsByPetHandler(svc))
	})

	// Solo quien otorgó puede revocar
	r.Post("/grants/{grantID}/revoke", revokeGrantHandler(svc))

	// Panel del dueño: grants activos agrupados por veterinario
	r.Get("/me/grants", listMyGrantsHandler(svc, people, pets))
}

type permissionsPayload struct {
	ViewMedicalHistory   bool `json:"view_medical_history"`
	AddMedicalRecords    bool `json:"add_medical_records"`
	EditMedicalRecords   bool `json:"edit_medical_records"`
	DeleteMedicalRecords bool `json:"delete_medical_records"`
	AddPrescriptions     bool `json:"add_prescriptions"`
	ScheduleAppointments bool `json:"schedule_appointments"`
	EditPetInfo          bool `json:"edit_pet_info"`
	ViewOwnerInfo        bool `json:"view_owner_info"`
}

type createGrantRequest struct {
	VeterinarianID string              `json:"veterinarian_id"`
	AccessLevel    AccessLevel         `json:"access_level" enums:"read,write"`
	Permissions    *permissionsPayload `json:"permissions"` // omitido => permisos por defecto
	Notes          string              `json:"notes"`
}

type grantResponse struct {
	ID             string             `json:"id"`
	PetID          string             `json:"pet_id"`
	VeterinarianID string             `json:"veterinarian_id"`
	GrantedByID    string             `json:"granted_by_id"`
	AccessLevel    AccessLevel        `json:"access_level"`
	Permissions    permissionsPayload `json:"permissions"`
	IsRevoked      bool               `json:"is_revoked"`
	RevokedAt      *time.Time         `json:"revoked_at,omitempty"`
	RevokedByID    string             `json:"revoked_by_id,omitempty"`
	Notes          string             `json:"notes"`
	GrantedAt      time.Time          `json:"granted_at"`
}

type vetSummary struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Clinic         string `json:"clinic"`
	Specialization string `json:"specialization"`
}

type sharedPetSummary struct {
	GrantID     string             `json:"grant_id"`
	PetID       string             `json:"pet_id"`
	Name        string             `json:"name"`
	Species     string             `json:"species"`
	AccessLevel AccessLevel        `json:"access_level"`
	Permissions permissionsPayload `json:"permissions"`
	GrantedAt   time.Time          `json:"granted_at"`
}

type vetGrantsResponse struct {
	Veterinarian vetSummary         `json:"veterinarian"`
	Pets         []sharedPetSummary `json:"pets"`
	GrantedAt    time.Time          `json:"granted_at"`
}

// createGrantHandler godoc
// @Summary Otorgar acceso a un veterinario
// @Description Solo el dueño de la mascota. Falla con 409 si ya existe un grant activo para el mismo veterinario.
// @Tags grants
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body createGrantRequest true "Veterinario, nivel y permisos"
// @Success 201 {object} grantResponse
// @Failure 400 {string} string "invalid json / invalid input / user is not a veterinarian"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found / veterinarian not found"
// @Failure 409 {string} string "access already granted to this veterinarian"
// @Router /pets/{petID}/grants [post]
func createGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createGrantRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.VeterinarianID) == "" {
			http.Error(w, "veterinarian_id required", http.StatusBadRequest)
			return
		}

		in := CreateInput{
			PetID:          chi.URLParam(r, "petID"),
			VeterinarianID: req.VeterinarianID,
			GrantedByID:    p.ID,
			AccessLevel:    req.AccessLevel,
			Notes:          req.Notes,
		}
		if req.Permissions != nil {
			perms := fromPayload(*req.Permissions)
			in.Permissions = &perms
		}

		g, err := svc.Create(r.Context(), in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrInvalidRole):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, err.Error(), http.StatusNotFound)
			case errors.Is(err, ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			case errors.Is(err, ErrConflict):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusCreated, toGrantResponse(g))
	}
}

// listGrantsByPetHandler godoc
// @Summary Historial de grants de una mascota
// @Description Incluye grants revocados. Solo el dueño.
// @Tags grants
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Success 200 {array} grantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/grants [get]
func listGrantsByPetHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListByPet(r.Context(), chi.URLParam(r, "petID"), p.ID)
		if err != nil {
			switch {
			case errors.Is(err, ErrNotFound):
				http.Error(w, "pet not found", http.StatusNotFound)
			case errors.Is(err, ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		out := make([]grantResponse, 0, len(items))
		for _, g := range items {
			out = append(out, toGrantResponse(g))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// revokeGrantHandler godoc
// @Summary Revocar un grant
// @Description Solo quien otorgó el grant. Revocar dos veces es idempotente (200).
// @Tags grants
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param grantID path string true "ID del grant"
// @Success 200 {object} grantResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "forbidden"
// @Failure 404 {string} string "grant not found"
// @Router /grants/{grantID}/revoke [post]
func revokeGrantHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		g, err := svc.Revoke(r.Context(), chi.URLParam(r, "grantID"), p.ID)
		if err != nil && !errors.Is(err, ErrAlreadyRevoked) {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrForbidden):
				http.Error(w, "forbidden", http.StatusForbidden)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "grant not found", http.StatusNotFound)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		writeJSON(w, http.StatusOK, toGrantResponse(g))
	}
}

// listMyGrantsHandler godoc
// @Summary Panel de accesos compartidos del dueño
// @Description Grants activos otorgados por el usuario, agrupados por veterinario.
// @Tags grants
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Success 200 {array} vetGrantsResponse
// @Failure 401 {string} string "unauthorized"
// @Failure 500 {string} string "internal error"
// @Router /me/grants [get]
func listMyGrantsHandler(svc *Service, people PrincipalLookup, pets lookup.PetLookup) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListActiveGrantedBy(r.Context(), p.ID)
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		groups := GroupByVeterinarian(items)
		out := make([]vetGrantsResponse, 0, len(groups))
		for _, grp := range groups {
			resp, err := toVetGrantsResponse(r.Context(), grp, people, pets)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			out = append(out, resp)
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toVetGrantsResponse(ctx context.Context, grp VeterinarianGrants, people PrincipalLookup, pets lookup.PetLookup) (vetGrantsResponse, error) {
	resp := vetGrantsResponse{
		Veterinarian: vetSummary{ID: grp.VeterinarianID},
		Pets:         make([]sharedPetSummary, 0, len(grp.Grants)),
		GrantedAt:    grp.FirstGrantedAt,
	}

	vet, err := people.Get(ctx, grp.VeterinarianID)
	switch {
	case err == nil:
		resp.Veterinarian = vetSummary{
			ID:             vet.ID,
			Name:           vet.Name,
			Email:          vet.Email,
			Clinic:         vet.Clinic,
			Specialization: vet.Specialization,
		}
	case !errors.Is(err, principals.ErrNotFound):
		return vetGrantsResponse{}, err
	}

	for _, g := range grp.Grants {
		pet, found, err := pets.LookupPet(ctx, g.PetID)
		if err != nil {
			return vetGrantsResponse{}, err
		}
		if !found {
			// grant huérfano: la mascota ya no existe
			continue
		}
		resp.Pets = append(resp.Pets, sharedPetSummary{
			GrantID:     g.ID,
			PetID:       pet.ID,
			Name:        pet.Name,
			Species:     pet.Species,
			AccessLevel: g.AccessLevel,
			Permissions: toPayload(g.Permissions),
			GrantedAt:   g.GrantedAt,
		})
	}
	return resp, nil
}

func fromPayload(p permissionsPayload) Permissions {
	return Permissions{
		ViewMedicalHistory:   p.ViewMedicalHistory,
		AddMedicalRecords:    p.AddMedicalRecords,
		EditMedicalRecords:   p.EditMedicalRecords,
		DeleteMedicalRecords: p.DeleteMedicalRecords,
		AddPrescriptions:     p.AddPrescriptions,
		ScheduleAppointments: p.ScheduleAppointments,
		EditPetInfo:          p.EditPetInfo,
		ViewOwnerInfo:        p.ViewOwnerInfo,
	}
}

func toPayload(p Permissions) permissionsPayload {
	return permissionsPayload{
		ViewMedicalHistory:   p.ViewMedicalHistory,
		AddMedicalRecords:    p.AddMedicalRecords,
		EditMedicalRecords:   p.EditMedicalRecords,
		DeleteMedicalRecords: p.DeleteMedicalRecords,
		AddPrescriptions:     p.AddPrescriptions,
		ScheduleAppointments: p.ScheduleAppointments,
		EditPetInfo:          p.EditPetInfo,
		ViewOwnerInfo:        p.ViewOwnerInfo,
	}
}

func toGrantResponse(g Grant) grantResponse {
	return grantResponse{
		ID:             g.ID,
		PetID:          g.PetID,
		VeterinarianID: g.VeterinarianID,
		GrantedByID:    g.GrantedByID,
		AccessLevel:    g.AccessLevel,
		Permissions:    toPayload(g.Permissions),
		IsRevoked:      g.IsRevoked,
		RevokedAt:      g.RevokedAt,
		RevokedByID:    g.RevokedByID,
		Notes:          g.Notes,
		GrantedAt:      g.GrantedAt,
	}
}

// writeJSON está duplicado en handlers de distintos módulos
// para no crear un paquete de helpers compartido por una sola función.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
