package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-health-sharing/internal/domain/records"
)

type recordRepo struct {
	mu   sync.RWMutex
	byID map[string]records.MedicalRecord
}

func NewRecordRepo() records.Repository {
	return &recordRepo{
		byID: make(map[string]records.MedicalRecord),
	}
}

func (r *recordRepo) Create(ctx context.Context, rec records.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if rec.ID == "" {
		return errors.New("record id required")
	}
	if _, exists := r.byID[rec.ID]; exists {
		return errors.New("record already exists")
	}
	r.byID[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *recordRepo) GetByID(ctx context.Context, id string) (records.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.byID[id]
	if !ok {
		return records.MedicalRecord{}, records.ErrNotFound
	}
	return cloneRecord(rec), nil
}

func (r *recordRepo) ListByPet(ctx context.Context, petID string, filter records.ListFilter) ([]records.MedicalRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	out := make([]records.MedicalRecord, 0)
	for _, rec := range r.byID {
		if rec.PetID != petID {
			continue
		}

		if len(filter.Types) > 0 {
			ok := false
			for _, t := range filter.Types {
				if rec.Type == t {
					ok = true
					break
				}
			}
			if !ok {
				continue
			}
		}

		if filter.From != nil && rec.Date.Before(*filter.From) {
			continue
		}
		if filter.To != nil && rec.Date.After(*filter.To) {
			continue
		}

		if q := strings.TrimSpace(filter.Query); q != "" {
			if !strings.Contains(searchText(rec), strings.ToLower(q)) {
				continue
			}
		}

		out = append(out, cloneRecord(rec))
	}

	// Más reciente primero
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *recordRepo) Update(ctx context.Context, rec records.MedicalRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[rec.ID]; !ok {
		return records.ErrNotFound
	}
	r.byID[rec.ID] = cloneRecord(rec)
	return nil
}

func (r *recordRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byID[id]; !ok {
		return records.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *recordRepo) DeleteByPet(ctx context.Context, petID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, rec := range r.byID {
		if rec.PetID == petID {
			delete(r.byID, id)
			n++
		}
	}
	return n, nil
}

func searchText(rec records.MedicalRecord) string {
	var b strings.Builder
	b.WriteString(rec.Notes)
	for _, a := range rec.Attachments {
		b.WriteString(" ")
		b.WriteString(a.Filename)
	}
	return strings.ToLower(b.String())
}

func cloneRecord(rec records.MedicalRecord) records.MedicalRecord {
	rec.Attachments = append([]records.Attachment(nil), rec.Attachments...)
	return rec
}
