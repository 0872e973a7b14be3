package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"pet-health-sharing/internal/domain/records"
)

type RecordsRepo struct {
	db *sql.DB
}

func NewRecordsRepo(db *sql.DB) *RecordsRepo {
	return &RecordsRepo{db: db}
}

const recordColumns = `
	id, pet_id, record_type, date,
	veterinarian_id, notes, attachments,
	created_by, updated_by, created_at, updated_at`

type attachmentDoc struct {
	Filename string `json:"filename"`
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
}

func (r *RecordsRepo) Create(ctx context.Context, rec records.MedicalRecord) error {
	atts, err := encodeAttachments(rec.Attachments)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO medical_records (`+recordColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`,
		rec.ID,
		rec.PetID,
		string(rec.Type),
		rec.Date,
		rec.VeterinarianID,
		rec.Notes,
		atts,
		rec.CreatedBy,
		rec.UpdatedBy,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	return err
}

func (r *RecordsRepo) GetByID(ctx context.Context, id string) (records.MedicalRecord, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM medical_records WHERE id = $1`, id)
	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return records.MedicalRecord{}, records.ErrNotFound
		}
		return records.MedicalRecord{}, err
	}
	return rec, nil
}

func (r *RecordsRepo) ListByPet(ctx context.Context, petID string, filter records.ListFilter) ([]records.MedicalRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}

	// Construcción incremental de WHERE con placeholders numerados
	var (
		where = []string{"pet_id = $1"}
		args  = []any{petID}
	)
	next := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if len(filter.Types) > 0 {
		ph := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			ph = append(ph, next(string(t)))
		}
		where = append(where, "record_type IN ("+strings.Join(ph, ",")+")")
	}
	if filter.From != nil {
		where = append(where, "date >= "+next(*filter.From))
	}
	if filter.To != nil {
		where = append(where, "date <= "+next(*filter.To))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		p := next("%" + q + "%")
		where = append(where, "(notes ILIKE "+p+" OR attachments::text ILIKE "+p+")")
	}

	query := `SELECT ` + recordColumns + ` FROM medical_records WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY date DESC LIMIT ` + next(limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]records.MedicalRecord, 0)
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *RecordsRepo) Update(ctx context.Context, rec records.MedicalRecord) error {
	atts, err := encodeAttachments(rec.Attachments)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE medical_records
		SET
			record_type = $2,
			date = $3,
			veterinarian_id = $4,
			notes = $5,
			attachments = $6,
			updated_by = $7,
			updated_at = $8
		WHERE id = $1
	`,
		rec.ID,
		string(rec.Type),
		rec.Date,
		rec.VeterinarianID,
		rec.Notes,
		atts,
		rec.UpdatedBy,
		rec.UpdatedAt,
	)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *RecordsRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return records.ErrNotFound
	}
	return nil
}

func (r *RecordsRepo) DeleteByPet(ctx context.Context, petID string) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE pet_id = $1`, petID)
	if err != nil {
		return 0, err
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func scanRecord(s scanner) (records.MedicalRecord, error) {
	var (
		rec  records.MedicalRecord
		typ  string
		atts []byte
	)
	if err := s.Scan(
		&rec.ID,
		&rec.PetID,
		&typ,
		&rec.Date,
		&rec.VeterinarianID,
		&rec.Notes,
		&atts,
		&rec.CreatedBy,
		&rec.UpdatedBy,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return records.MedicalRecord{}, err
	}

	var docs []attachmentDoc
	if err := json.Unmarshal(atts, &docs); err != nil {
		return records.MedicalRecord{}, fmt.Errorf("postgres: decode attachments: %w", err)
	}

	rec.Type = records.RecordType(typ)
	rec.Attachments = make([]records.Attachment, 0, len(docs))
	for _, d := range docs {
		rec.Attachments = append(rec.Attachments, records.Attachment(d))
	}
	return rec, nil
}

func encodeAttachments(in []records.Attachment) ([]byte, error) {
	docs := make([]attachmentDoc, 0, len(in))
	for _, a := range in {
		docs = append(docs, attachmentDoc(a))
	}
	b, err := json.Marshal(docs)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode attachments: %w", err)
	}
	return b, nil
}
