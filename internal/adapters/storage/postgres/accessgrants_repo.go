package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"pet-health-sharing/internal/domain/accessgrants"
)

type AccessGrantsRepo struct {
	db *sql.DB
}

func NewAccessGrantsRepo(db *sql.DB) *AccessGrantsRepo {
	return &AccessGrantsRepo{db: db}
}

const grantColumns = `
	id, pet_id, veterinarian_id, granted_by_id,
	access_level, permissions,
	is_revoked, revoked_at, revoked_by_id,
	notes, granted_at`

// permissionsDoc es la forma persistida en la columna jsonb.
type permissionsDoc struct {
	ViewMedicalHistory   bool `json:"viewMedicalHistory"`
	AddMedicalRecords    bool `json:"addMedicalRecords"`
	EditMedicalRecords   bool `json:"editMedicalRecords"`
	DeleteMedicalRecords bool `json:"deleteMedicalRecords"`
	AddPrescriptions     bool `json:"addPrescriptions"`
	ScheduleAppointments bool `json:"scheduleAppointments"`
	EditPetInfo          bool `json:"editPetInfo"`
	ViewOwnerInfo        bool `json:"viewOwnerInfo"`
}

func (r *AccessGrantsRepo) Create(ctx context.Context, g accessgrants.Grant) error {
	perms, err := json.Marshal(permissionsDoc(g.Permissions))
	if err != nil {
		return fmt.Errorf("postgres: encode permissions: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pet_access (`+grantColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,FALSE,NULL,NULL,$7,$8)
	`,
		g.ID,
		g.PetID,
		g.VeterinarianID,
		g.GrantedByID,
		string(g.AccessLevel),
		perms,
		g.Notes,
		g.GrantedAt,
	)
	if uniqueViolationOn(err, "pet_access_one_active_idx") {
		return accessgrants.ErrConflict
	}
	return err
}

func (r *AccessGrantsRepo) GetByID(ctx context.Context, id string) (accessgrants.Grant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+grantColumns+` FROM pet_access WHERE id = $1`, id)
	g, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accessgrants.Grant{}, fmt.Errorf("grant %w", accessgrants.ErrNotFound)
		}
		return accessgrants.Grant{}, err
	}
	return g, nil
}

func (r *AccessGrantsRepo) FindActive(ctx context.Context, petID, veterinarianID string) (accessgrants.Grant, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+grantColumns+`
		FROM pet_access
		WHERE pet_id = $1 AND veterinarian_id = $2 AND NOT is_revoked
	`, petID, veterinarianID)
	g, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return accessgrants.Grant{}, accessgrants.ErrNotFound
		}
		return accessgrants.Grant{}, err
	}
	return g, nil
}

func (r *AccessGrantsRepo) ListActiveByVeterinarian(ctx context.Context, veterinarianID string) ([]accessgrants.Grant, error) {
	return r.list(ctx, `WHERE veterinarian_id = $1 AND NOT is_revoked`, veterinarianID)
}

func (r *AccessGrantsRepo) ListActiveByGrantor(ctx context.Context, grantedByID string) ([]accessgrants.Grant, error) {
	return r.list(ctx, `WHERE granted_by_id = $1 AND NOT is_revoked`, grantedByID)
}

func (r *AccessGrantsRepo) ListByPet(ctx context.Context, petID string) ([]accessgrants.Grant, error) {
	return r.list(ctx, `WHERE pet_id = $1`, petID)
}

// Revoke es un UPDATE condicional: de dos revocaciones concurrentes solo una
// afecta la fila. Con 0 filas distinguimos inexistente de ya revocado.
func (r *AccessGrantsRepo) Revoke(ctx context.Context, id, revokedByID string, at time.Time) (accessgrants.Grant, error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE pet_access
		SET is_revoked = TRUE, revoked_at = $2, revoked_by_id = $3
		WHERE id = $1 AND NOT is_revoked
		RETURNING `+grantColumns,
		id, at, revokedByID,
	)
	g, err := scanGrant(row)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return accessgrants.Grant{}, err
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM pet_access WHERE id = $1)`, id).Scan(&exists); err != nil {
		return accessgrants.Grant{}, err
	}
	if !exists {
		return accessgrants.Grant{}, fmt.Errorf("grant %w", accessgrants.ErrNotFound)
	}
	return accessgrants.Grant{}, accessgrants.ErrAlreadyRevoked
}

func (r *AccessGrantsRepo) list(ctx context.Context, where string, arg string) ([]accessgrants.Grant, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+grantColumns+` FROM pet_access `+where+` ORDER BY granted_at ASC`, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]accessgrants.Grant, 0)
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGrant(s scanner) (accessgrants.Grant, error) {
	var (
		g         accessgrants.Grant
		level     string
		perms     []byte
		revokedAt sql.NullTime
		revokedBy sql.NullString
	)
	if err := s.Scan(
		&g.ID,
		&g.PetID,
		&g.VeterinarianID,
		&g.GrantedByID,
		&level,
		&perms,
		&g.IsRevoked,
		&revokedAt,
		&revokedBy,
		&g.Notes,
		&g.GrantedAt,
	); err != nil {
		return accessgrants.Grant{}, err
	}

	var doc permissionsDoc
	if err := json.Unmarshal(perms, &doc); err != nil {
		return accessgrants.Grant{}, fmt.Errorf("postgres: decode permissions: %w", err)
	}

	g.AccessLevel = accessgrants.AccessLevel(level)
	g.Permissions = accessgrants.Permissions(doc)
	g.RevokedAt = fromNullTime(revokedAt)
	g.RevokedByID = revokedBy.String
	return g, nil
}
