package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"pet-health-sharing/internal/domain/pets"
)

type PetsRepo struct {
	db *sql.DB
}

func NewPetsRepo(db *sql.DB) *PetsRepo {
	return &PetsRepo{db: db}
}

const petColumns = `
	id, owner_id,
	name, species, breed, gender,
	birth_date, weight, color,
	allergies, chronic_conditions, notes,
	created_at, updated_at`

func (r *PetsRepo) Create(ctx context.Context, p pets.Pet) error {
	allergies, chronic, err := encodeLists(p)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO pets (`+petColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`,
		p.ID,
		p.OwnerID,
		p.Name,
		p.Species,
		p.Breed,
		string(p.Gender),
		toNullTime(p.BirthDate), // birth_date es DATE
		toNullFloat(p.Weight),
		p.Color,
		allergies,
		chronic,
		p.Notes,
		p.CreatedAt,
		p.UpdatedAt,
	)
	return err
}

func (r *PetsRepo) Update(ctx context.Context, p pets.Pet) error {
	allergies, chronic, err := encodeLists(p)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE pets
		SET
			name = $2,
			species = $3,
			breed = $4,
			gender = $5,
			birth_date = $6,
			weight = $7,
			color = $8,
			allergies = $9,
			chronic_conditions = $10,
			notes = $11,
			updated_at = $12
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Species,
		p.Breed,
		string(p.Gender),
		toNullTime(p.BirthDate),
		toNullFloat(p.Weight),
		p.Color,
		allergies,
		chronic,
		p.Notes,
		p.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func (r *PetsRepo) GetByID(ctx context.Context, id string) (pets.Pet, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id)
	p, err := scanPet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return pets.Pet{}, pets.ErrNotFound
		}
		return pets.Pet{}, err
	}
	return p, nil
}

func (r *PetsRepo) ListByOwner(ctx context.Context, ownerID string) ([]pets.Pet, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+petColumns+`
		FROM pets
		WHERE owner_id = $1
		ORDER BY created_at ASC
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]pets.Pet, 0)
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Delete borra la fila; medical_records cae por ON DELETE CASCADE.
func (r *PetsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return pets.ErrNotFound
	}
	return nil
}

func scanPet(s scanner) (pets.Pet, error) {
	var (
		p         pets.Pet
		gender    string
		bd        sql.NullTime
		weight    sql.NullFloat64
		allergies []byte
		chronic   []byte
	)
	if err := s.Scan(
		&p.ID,
		&p.OwnerID,
		&p.Name,
		&p.Species,
		&p.Breed,
		&gender,
		&bd,
		&weight,
		&p.Color,
		&allergies,
		&chronic,
		&p.Notes,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return pets.Pet{}, err
	}

	p.Gender = pets.Gender(gender)
	p.BirthDate = fromNullTime(bd)
	if weight.Valid {
		w := weight.Float64
		p.Weight = &w
	}
	if err := json.Unmarshal(allergies, &p.Allergies); err != nil {
		return pets.Pet{}, fmt.Errorf("postgres: decode allergies: %w", err)
	}
	if err := json.Unmarshal(chronic, &p.ChronicConditions); err != nil {
		return pets.Pet{}, fmt.Errorf("postgres: decode chronic_conditions: %w", err)
	}
	return p, nil
}

func encodeLists(p pets.Pet) (allergies, chronic []byte, err error) {
	if allergies, err = json.Marshal(nonNil(p.Allergies)); err != nil {
		return nil, nil, fmt.Errorf("postgres: encode allergies: %w", err)
	}
	if chronic, err = json.Marshal(nonNil(p.ChronicConditions)); err != nil {
		return nil, nil, fmt.Errorf("postgres: encode chronic_conditions: %w", err)
	}
	return allergies, chronic, nil
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
