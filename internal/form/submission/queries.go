package submission

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sheikharifulislam/OpnForm/internal"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type Queries struct {
	db internal.DBTX
}

func New(db internal.DBTX) *Queries {
	return &Queries{db: db}
}

const createSubmission = `
INSERT INTO form_submissions (form_id, public_id, data, is_partial, submitter_ip)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, form_id, public_id, data, is_partial, submitter_ip, created_at, updated_at
`

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Submission, error) {
	data, err := json.Marshal(arg.Data)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to encode submission data: %w", err)
	}

	row := q.db.QueryRow(ctx, createSubmission,
		arg.FormID,
		pgtype.UUID{Bytes: arg.PublicID, Valid: true},
		data,
		arg.IsPartial,
		arg.SubmitterIP,
	)
	return scanSubmission(row)
}

const updateSubmission = `
UPDATE form_submissions
SET data = $2, is_partial = $3, updated_at = now()
WHERE id = $1
RETURNING id, form_id, public_id, data, is_partial, submitter_ip, created_at, updated_at
`

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (Submission, error) {
	data, err := json.Marshal(arg.Data)
	if err != nil {
		return Submission{}, fmt.Errorf("failed to encode submission data: %w", err)
	}

	row := q.db.QueryRow(ctx, updateSubmission, arg.Key, data, arg.IsPartial)
	return scanSubmission(row)
}

const getByPublicID = `
SELECT id, form_id, public_id, data, is_partial, submitter_ip, created_at, updated_at
FROM form_submissions
WHERE form_id = $1 AND public_id = $2
`

func (q *Queries) GetByPublicID(ctx context.Context, formID uuid.UUID, publicID uuid.UUID) (Submission, error) {
	row := q.db.QueryRow(ctx, getByPublicID, formID, pgtype.UUID{Bytes: publicID, Valid: true})
	return scanSubmission(row)
}

const getByKey = `
SELECT id, form_id, public_id, data, is_partial, submitter_ip, created_at, updated_at
FROM form_submissions
WHERE form_id = $1 AND id = $2
`

func (q *Queries) GetByKey(ctx context.Context, formID uuid.UUID, key int64) (Submission, error) {
	row := q.db.QueryRow(ctx, getByKey, formID, key)
	return scanSubmission(row)
}

const listByFormID = `
SELECT id, form_id, public_id, data, is_partial, submitter_ip, created_at, updated_at
FROM form_submissions
WHERE form_id = $1 AND is_partial = false
ORDER BY created_at DESC
`

func (q *Queries) ListByFormID(ctx context.Context, formID uuid.UUID) ([]Submission, error) {
	rows, err := q.db.Query(ctx, listByFormID, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var submissions []Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		submissions = append(submissions, s)
	}
	return submissions, rows.Err()
}

const countByFormID = `
SELECT count(*) FROM form_submissions WHERE form_id = $1 AND is_partial = false
`

func (q *Queries) CountByFormID(ctx context.Context, formID uuid.UUID) (int64, error) {
	var count int64
	err := q.db.QueryRow(ctx, countByFormID, formID).Scan(&count)
	return count, err
}

func scanSubmission(row pgx.Row) (Submission, error) {
	var s Submission
	var data []byte
	err := row.Scan(&s.Key, &s.FormID, &s.PublicID, &data, &s.IsPartial, &s.SubmitterIP, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return Submission{}, err
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &s.Data); err != nil {
			return Submission{}, fmt.Errorf("failed to decode submission data: %w", err)
		}
	}
	return s, nil
}
