package postgres

import (
	"context"
	"database/sql"
	"errors"

	"pet-health-sharing/internal/domain/principals"
)

type PrincipalsRepo struct {
	db *sql.DB
}

func NewPrincipalsRepo(db *sql.DB) *PrincipalsRepo {
	return &PrincipalsRepo{db: db}
}

const principalColumns = `id, role, name, email, phone, clinic, license, specialization, created_at`

func (r *PrincipalsRepo) Create(ctx context.Context, p principals.Principal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO principals (`+principalColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		p.ID,
		string(p.Role),
		p.Name,
		p.Email,
		p.Phone,
		p.Clinic,
		p.License,
		p.Specialization,
		p.CreatedAt,
	)
	switch {
	case uniqueViolationOn(err, "principals_email_key"):
		return principals.ErrEmailTaken
	case uniqueViolationOn(err, "principals_pkey"):
		return principals.ErrAlreadyRegistered
	}
	return err
}

func (r *PrincipalsRepo) Update(ctx context.Context, p principals.Principal) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE principals
		SET name = $2, phone = $3, clinic = $4, license = $5, specialization = $6
		WHERE id = $1
	`,
		p.ID,
		p.Name,
		p.Phone,
		p.Clinic,
		p.License,
		p.Specialization,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return principals.ErrNotFound
	}
	return nil
}

func (r *PrincipalsRepo) GetByID(ctx context.Context, id string) (principals.Principal, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+principalColumns+` FROM principals WHERE id = $1`, id)
	p, err := scanPrincipal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return principals.Principal{}, principals.ErrNotFound
		}
		return principals.Principal{}, err
	}
	return p, nil
}

func (r *PrincipalsRepo) ListByRole(ctx context.Context, role principals.Role) ([]principals.Principal, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+principalColumns+`
		FROM principals
		WHERE role = $1
		ORDER BY name ASC
	`, string(role))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]principals.Principal, 0)
	for rows.Next() {
		p, err := scanPrincipal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanPrincipal(s scanner) (principals.Principal, error) {
	var p principals.Principal
	var role string
	if err := s.Scan(
		&p.ID,
		&role,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.Clinic,
		&p.License,
		&p.Specialization,
		&p.CreatedAt,
	); err != nil {
		return principals.Principal{}, err
	}
	p.Role = principals.Role(role)
	return p, nil
}
