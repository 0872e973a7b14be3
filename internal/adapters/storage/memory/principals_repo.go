package memory

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"pet-health-sharing/internal/domain/principals"
)

type principalRepo struct {
	mu      sync.RWMutex
	byID    map[string]principals.Principal
	byEmail map[string]string
}

func NewPrincipalRepo() principals.Repository {
	return &principalRepo{
		byID:    make(map[string]principals.Principal),
		byEmail: make(map[string]string),
	}
}

func (r *principalRepo) Create(ctx context.Context, p principals.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("principal id required")
	}
	if _, exists := r.byID[p.ID]; exists {
		return principals.ErrAlreadyRegistered
	}
	email := strings.ToLower(p.Email)
	if _, taken := r.byEmail[email]; taken {
		return principals.ErrEmailTaken
	}

	r.byID[p.ID] = p
	r.byEmail[email] = p.ID
	return nil
}

func (r *principalRepo) GetByID(ctx context.Context, id string) (principals.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.byID[id]
	if !ok {
		return principals.Principal{}, principals.ErrNotFound
	}
	return p, nil
}

func (r *principalRepo) Update(ctx context.Context, p principals.Principal) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.byID[p.ID]
	if !ok {
		return principals.ErrNotFound
	}
	cur.Name = p.Name
	cur.Phone = p.Phone
	cur.Clinic = p.Clinic
	cur.License = p.License
	cur.Specialization = p.Specialization
	r.byID[p.ID] = cur
	return nil
}

func (r *principalRepo) ListByRole(ctx context.Context, role principals.Role) ([]principals.Principal, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]principals.Principal, 0)
	for _, p := range r.byID {
		if p.Role == role {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out, nil
}
