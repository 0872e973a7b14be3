package records

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"pet-health-sharing/internal/domain/authz"
	"pet-health-sharing/internal/domain/principals"

	"github.com/go-chi/chi/v5"
)

func RegisterRoutes(r chi.Router, svc *Service) {
	r.Route("/pets/{petID}/records", func(rr chi.Router) {
		rr.Get("/", listRecordsHandler(svc))
		rr.Post("/", createRecordHandler(svc))
		rr.Patch("/{recordID}", updateRecordHandler(svc))
		rr.Delete("/{recordID}", deleteRecordHandler(svc))
	})
}

type attachmentPayload struct {
	Filename string `json:"filename"`
	FileURL  string `json:"file_url"`
	FileType string `json:"file_type"`
}

// createRecordRequest es el cuerpo para registrar una ficha médica.
type createRecordRequest struct {
	Type           RecordType          `json:"type" enums:"vaccination,checkup,medication,surgery,lab_result,other"`
	Date           string              `json:"date"` // RFC3339, opcional
	VeterinarianID string              `json:"veterinarian_id"`
	Notes          string              `json:"notes"`
	Attachments    []attachmentPayload `json:"attachments"`
}

type updateRecordRequest struct {
	Type           *RecordType         `json:"type"`
	Date           *string             `json:"date"`
	VeterinarianID *string             `json:"veterinarian_id"`
	Notes          *string             `json:"notes"`
	Attachments    []attachmentPayload `json:"attachments"`
}

type recordResponse struct {
	ID             string              `json:"id"`
	PetID          string              `json:"pet_id"`
	Type           RecordType          `json:"type"`
	Date           time.Time           `json:"date"`
	VeterinarianID string              `json:"veterinarian_id"`
	Notes          string              `json:"notes"`
	Attachments    []attachmentPayload `json:"attachments"`
	CreatedBy      string              `json:"created_by"`
	UpdatedBy      string              `json:"updated_by"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// listRecordsHandler godoc
// @Summary Listar fichas médicas
// @Description Dueño siempre; veterinario con grant activo y viewMedicalHistory. Orden: fecha descendente.
// @Tags records
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param limit query int false "Máximo (1-200). Por defecto 50"
// @Param types query string false "CSV de tipos (ej: vaccination,surgery)"
// @Param from query string false "Fecha mínima (RFC3339)"
// @Param to query string false "Fecha máxima (RFC3339)"
// @Param q query string false "Texto libre en notas y adjuntos"
// @Success 200 {array} recordResponse
// @Failure 400 {string} string "Parámetros de filtro inválidos"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/records [get]
func listRecordsHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		filter, err := parseListFilter(r)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		items, err := svc.List(r.Context(), actor, chi.URLParam(r, "petID"), filter)
		if err != nil {
			writeError(w, err)
			return
		}

		out := make([]recordResponse, 0, len(items))
		for _, rec := range items {
			out = append(out, toRecordResponse(rec))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// createRecordHandler godoc
// @Summary Crear ficha médica
// @Description Dueño siempre; veterinario con addMedicalRecords. Requiere al menos un adjunto. Si el actor es veterinario, queda como veterinario de la ficha.
// @Tags records
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param payload body createRecordRequest true "Ficha médica"
// @Success 201 {object} recordResponse
// @Failure 400 {string} string "invalid input / falta adjunto"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "pet not found"
// @Router /pets/{petID}/records [post]
func createRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req createRecordRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		var date *time.Time
		if strings.TrimSpace(req.Date) != "" {
			t, err := time.Parse(time.RFC3339, req.Date)
			if err != nil {
				http.Error(w, "date must be RFC3339", http.StatusBadRequest)
				return
			}
			date = &t
		}

		rec, err := svc.Create(r.Context(), actor, chi.URLParam(r, "petID"), CreateInput{
			Type:           req.Type,
			Date:           date,
			VeterinarianID: req.VeterinarianID,
			Notes:          req.Notes,
			Attachments:    fromPayloads(req.Attachments),
		})
		if err != nil {
			writeError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, toRecordResponse(rec))
	}
}

// updateRecordHandler godoc
// @Summary Actualizar ficha médica
// @Description Dueño siempre; veterinario con editMedicalRecords (no importa quién creó la ficha). Los adjuntos solo se reemplazan con una lista no vacía.
// @Tags records
// @Accept json
// @Produce json
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param recordID path string true "ID de la ficha"
// @Param payload body updateRecordRequest true "Campos a modificar"
// @Success 200 {object} recordResponse
// @Failure 400 {string} string "invalid input"
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "pet or record not found"
// @Router /pets/{petID}/records/{recordID} [patch]
func updateRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		var req updateRecordRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}

		in := UpdateInput{
			Type:           req.Type,
			VeterinarianID: req.VeterinarianID,
			Notes:          req.Notes,
			Attachments:    fromPayloads(req.Attachments),
		}
		if req.Date != nil {
			t, err := time.Parse(time.RFC3339, *req.Date)
			if err != nil {
				http.Error(w, "date must be RFC3339", http.StatusBadRequest)
				return
			}
			in.Date = &t
		}

		rec, err := svc.Update(r.Context(), actor, chi.URLParam(r, "petID"), chi.URLParam(r, "recordID"), in)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toRecordResponse(rec))
	}
}

// deleteRecordHandler godoc
// @Summary Eliminar ficha médica
// @Description Dueño siempre; veterinario con deleteMedicalRecords.
// @Tags records
// @Param X-Debug-User-ID header string false "Solo en modo dev"
// @Param Authorization header string false "Bearer token"
// @Param petID path string true "ID de la mascota"
// @Param recordID path string true "ID de la ficha"
// @Success 204
// @Failure 401 {string} string "unauthorized"
// @Failure 403 {string} string "not authorized"
// @Failure 404 {string} string "pet or record not found"
// @Router /pets/{petID}/records/{recordID} [delete]
func deleteRecordHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := principals.FromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}

		if err := svc.Delete(r.Context(), actor, chi.URLParam(r, "petID"), chi.URLParam(r, "recordID")); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func parseListFilter(r *http.Request) (ListFilter, error) {
	q := r.URL.Query()

	filter := ListFilter{Limit: defaultLimit}
	if v := q.Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= maxLimit {
			filter.Limit = n
		}
	}

	// types=vaccination,surgery
	if v := strings.TrimSpace(q.Get("types")); v != "" {
		for _, p := range strings.Split(v, ",") {
			t := RecordType(strings.ToLower(strings.TrimSpace(p)))
			if t == "" {
				continue
			}
			if !t.Valid() {
				return ListFilter{}, errors.New("unknown record type " + string(t))
			}
			filter.Types = append(filter.Types, t)
		}
	}

	if v := strings.TrimSpace(q.Get("from")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("from must be RFC3339")
		}
		filter.From = &t
	}
	if v := strings.TrimSpace(q.Get("to")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return ListFilter{}, errors.New("to must be RFC3339")
		}
		filter.To = &t
	}

	filter.Query = strings.TrimSpace(q.Get("q"))
	return filter, nil
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, authz.ErrDenied):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, authz.ErrPetNotFound):
		http.Error(w, "pet not found", http.StatusNotFound)
	case errors.Is(err, ErrNotFound):
		http.Error(w, "medical record not found", http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func fromPayloads(in []attachmentPayload) []Attachment {
	if len(in) == 0 {
		return nil
	}
	out := make([]Attachment, 0, len(in))
	for _, a := range in {
		out = append(out, Attachment{Filename: a.Filename, FileURL: a.FileURL, FileType: a.FileType})
	}
	return out
}

func toRecordResponse(rec MedicalRecord) recordResponse {
	atts := make([]attachmentPayload, 0, len(rec.Attachments))
	for _, a := range rec.Attachments {
		atts = append(atts, attachmentPayload{Filename: a.Filename, FileURL: a.FileURL, FileType: a.FileType})
	}
	return recordResponse{
		ID:             rec.ID,
		PetID:          rec.PetID,
		Type:           rec.Type,
		Date:           rec.Date,
		VeterinarianID: rec.VeterinarianID,
		Notes:          rec.Notes,
		Attachments:    atts,
		CreatedBy:      rec.CreatedBy,
		UpdatedBy:      rec.UpdatedBy,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
