package principals

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"pet-health-sharing/internal/ports/auth"

	"github.com/go-chi/chi/v5"
)

// TokenIssuer firma un token de sesión para un principal recién registrado.
// Es nil cuando la identidad la emite un proveedor externo (o en modo dev).
type TokenIssuer interface {
	Issue(userID, email string, ttl time.Duration) (string, error)
}

const sessionTTL = 24 * time.Hour

func RegisterRoutes(r chi.Router, svc *Service, issuer TokenIssuer) {
	r.Post("/users", registerHandler(svc, issuer))
	r.Get("/me", meHandler())
	r.Patch("/me", updateProfileHandler(svc))
	r.Get("/veterinarians", listVeterinariansHandler(svc))
}

type registerRequest struct {
	Name           string `json:"name"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	Role           string `json:"role" enums:"owner,veterinarian"`
	Clinic         string `json:"clinic"`
	License        string `json:"license"`
	Specialization string `json:"specialization"`
}

type principalResponse struct {
	ID              string    `json:"id"`
	Role            Role      `json:"role"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Phone           string    `json:"phone,omitempty"`
	Clinic          string    `json:"clinic,omitempty"`
	License         string    `json:"license,omitempty"`
	Specialization  string    `json:"specialization,omitempty"`
	ProfileComplete bool      `json:"profile_completed"`
	CreatedAt       time.Time `json:"created_at"`
}

type updateProfileRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Clinic         *string `json:"clinic"`
	License        *string `json:"license"`
	Specialization *string `json:"specialization"`
}

type registerResponse struct {
	principalResponse
	Token string `json:"token,omitempty"`
}

// registerHandler godoc
// @Summary Registrar usuario
// @Description Crea un principal con rol fijo (owner, veterinarian). Los veterinarios requieren clinic, license y specialization.
// @Description Si el request trae un token válido, el id del principal es el del proveedor de identidad.
// @Tags users
// @Accept json
// @Produce json
// @Param payload body registerRequest true "Datos del usuario"
// @Success 201 {object} registerResponse
// @Failure 400 {string} string "invalid input"
// @Failure 403 {string} string "admin accounts cannot self-register"
// @Failure 409 {string} string "email already registered / principal already registered"
// @Router /users [post]
func registerHandler(svc *Service, issuer TokenIssuer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		if role, ok := ParseRole(req.Role); ok && role == RoleAdmin {
			http.Error(w, "admin accounts cannot self-register", http.StatusForbidden)
			return
		}

		in := RegisterInput{
			Name:           req.Name,
			Email:          req.Email,
			Phone:          req.Phone,
			Role:           req.Role,
			Clinic:         req.Clinic,
			License:        req.License,
			Specialization: req.Specialization,
		}
		// Con identidad externa el principal hereda su id.
		if c, ok := auth.ClaimsFromContext(r.Context()); ok {
			in.ID = c.UserID
			if strings.TrimSpace(in.Email) == "" {
				in.Email = c.Email
			}
		}

		p, err := svc.Register(r.Context(), in)
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrEmailTaken), errors.Is(err, ErrAlreadyRegistered):
				http.Error(w, err.Error(), http.StatusConflict)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}

		resp := registerResponse{principalResponse: toPrincipalResponse(p)}
		if issuer != nil {
			token, err := issuer.Issue(p.ID, p.Email, sessionTTL)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			resp.Token = token
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// meHandler godoc
// @Summary Perfil del usuario autenticado
// @Tags users
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Success 200 {object} principalResponse
// @Failure 401 {string} string "unauthorized"
// @Router /me [get]
func meHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		writeJSON(w, http.StatusOK, toPrincipalResponse(p))
	}
}

// updateProfileHandler godoc
// @Summary Editar perfil propio
// @Description Actualiza nombre y teléfono; clinic, license y specialization solo para veterinarios. El rol y el email no cambian.
// @Tags users
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param payload body updateProfileRequest true "Campos a modificar"
// @Success 200 {object} principalResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Router /me [patch]
func updateProfileHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateProfileRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		updated, err := svc.UpdateProfile(r.Context(), p.ID, UpdateProfileInput{
			Name:           req.Name,
			Phone:          req.Phone,
			Clinic:         req.Clinic,
			License:        req.License,
			Specialization: req.Specialization,
		})
		if err != nil {
			switch {
			case errors.Is(err, ErrInvalidInput):
				http.Error(w, err.Error(), http.StatusBadRequest)
			case errors.Is(err, ErrNotFound):
				http.Error(w, "unauthorized", http.StatusUnauthorized)
			default:
				http.Error(w, "internal error", http.StatusInternalServerError)
			}
			return
		}
		writeJSON(w, http.StatusOK, toPrincipalResponse(updated))
	}
}

// listVeterinariansHandler godoc
// @Summary Listar veterinarios
// @Description Directorio para que un dueño elija a quién compartir una mascota.
// @Tags users
// @Produce json
// @Success 200 {array} principalResponse
// @Failure 401 {string} string "unauthorized"
// @Router /veterinarians [get]
func listVeterinariansHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		items, err := svc.ListVeterinarians(r.Context())
		if err != nil {
			http.Error(w, "internal error", http.StatusInternalServerError)
			return
		}

		out := make([]principalResponse, 0, len(items))
		for _, p := range items {
			out = append(out, toPrincipalResponse(p))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func toPrincipalResponse(p Principal) principalResponse {
	return principalResponse{
		ID:              p.ID,
		Role:            p.Role,
		Name:            p.Name,
		Email:           p.Email,
		Phone:           p.Phone,
		Clinic:          p.Clinic,
		License:         p.License,
		Specialization:  p.Specialization,
		ProfileComplete: p.ProfileComplete(),
		CreatedAt:       p.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
