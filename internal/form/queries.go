package form

import (
	"context"
	"encoding/json"

	"github.com/sheikharifulislam/OpnForm/internal"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Queries struct {
	db internal.DBTX
}

func New(db internal.DBTX) *Queries {
	return &Queries{db: db}
}

const createForm = `
INSERT INTO forms (workspace_id, creator_id, title, slug, properties, visibility, editable_submissions, enable_partial_submissions)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id, workspace_id, creator_id, title, slug, properties, visibility, editable_submissions, enable_partial_submissions, removed_properties, created_at, updated_at
`

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Form, error) {
	properties, err := json.Marshal(arg.Properties)
	if err != nil {
		return Form{}, err
	}

	row := q.db.QueryRow(ctx, createForm,
		arg.WorkspaceID,
		arg.CreatorID,
		arg.Title,
		arg.Slug,
		properties,
		arg.Visibility,
		arg.EditableSubmissions,
		arg.EnablePartialSubmissions,
	)
	return scanForm(row)
}

const updateForm = `
UPDATE forms
SET title = $2,
    slug = $3,
    properties = $4,
    visibility = $5,
    editable_submissions = $6,
    enable_partial_submissions = $7,
    removed_properties = $8,
    updated_at = now()
WHERE id = $1
RETURNING id, workspace_id, creator_id, title, slug, properties, visibility, editable_submissions, enable_partial_submissions, removed_properties, created_at, updated_at
`

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (Form, error) {
	properties, err := json.Marshal(arg.Properties)
	if err != nil {
		return Form{}, err
	}
	removed, err := json.Marshal(arg.RemovedProperties)
	if err != nil {
		return Form{}, err
	}

	row := q.db.QueryRow(ctx, updateForm,
		arg.ID,
		arg.Title,
		arg.Slug,
		properties,
		arg.Visibility,
		arg.EditableSubmissions,
		arg.EnablePartialSubmissions,
		removed,
	)
	return scanForm(row)
}

const deleteForm = `
DELETE FROM forms
WHERE id = $1
`

func (q *Queries) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteForm, id)
	return err
}

const getFormByID = `
SELECT id, workspace_id, creator_id, title, slug, properties, visibility, editable_submissions, enable_partial_submissions, removed_properties, created_at, updated_at
FROM forms
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (Form, error) {
	row := q.db.QueryRow(ctx, getFormByID, id)
	return scanForm(row)
}

const getFormBySlug = `
SELECT id, workspace_id, creator_id, title, slug, properties, visibility, editable_submissions, enable_partial_submissions, removed_properties, created_at, updated_at
FROM forms
WHERE slug = $1
`

func (q *Queries) GetBySlug(ctx context.Context, slug string) (Form, error) {
	row := q.db.QueryRow(ctx, getFormBySlug, slug)
	return scanForm(row)
}

const listFormsByWorkspace = `
SELECT id, workspace_id, creator_id, title, slug, properties, visibility, editable_submissions, enable_partial_submissions, removed_properties, created_at, updated_at
FROM forms
WHERE workspace_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Form, error) {
	rows, err := q.db.Query(ctx, listFormsByWorkspace, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var forms []Form
	for rows.Next() {
		f, err := scanForm(rows)
		if err != nil {
			return nil, err
		}
		forms = append(forms, f)
	}
	return forms, rows.Err()
}

func scanForm(row pgx.Row) (Form, error) {
	var f Form
	var properties, removed []byte
	err := row.Scan(
		&f.ID,
		&f.WorkspaceID,
		&f.CreatorID,
		&f.Title,
		&f.Slug,
		&properties,
		&f.Visibility,
		&f.EditableSubmissions,
		&f.EnablePartialSubmissions,
		&removed,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return Form{}, err
	}
	if len(properties) > 0 {
		if err := json.Unmarshal(properties, &f.Properties); err != nil {
			return Form{}, err
		}
	}
	if len(removed) > 0 {
		if err := json.Unmarshal(removed, &f.RemovedProperties); err != nil {
			return Form{}, err
		}
	}
	return f, nil
}
