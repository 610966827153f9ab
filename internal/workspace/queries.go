package workspace

import (
	"context"

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

const createWorkspace = `
INSERT INTO workspaces (name, slug, owner_id)
VALUES ($1, $2, $3)
RETURNING id, name, slug, owner_id, created_at, updated_at
`

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Workspace, error) {
	row := q.db.QueryRow(ctx, createWorkspace, arg.Name, arg.Slug, pgtype.UUID{Bytes: arg.OwnerID, Valid: true})
	return scanWorkspace(row)
}

const getWorkspaceByID = `
SELECT id, name, slug, owner_id, created_at, updated_at
FROM workspaces
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (Workspace, error) {
	return scanWorkspace(q.db.QueryRow(ctx, getWorkspaceByID, id))
}

const getWorkspaceBySlug = `
SELECT id, name, slug, owner_id, created_at, updated_at
FROM workspaces
WHERE slug = $1
`

func (q *Queries) GetBySlug(ctx context.Context, slug string) (Workspace, error) {
	return scanWorkspace(q.db.QueryRow(ctx, getWorkspaceBySlug, slug))
}

const listWorkspacesByUser = `
SELECT w.id, w.name, w.slug, w.owner_id, w.created_at, w.updated_at
FROM workspaces w
JOIN workspace_members m ON m.workspace_id = w.id
WHERE m.user_id = $1
ORDER BY w.created_at
`

func (q *Queries) ListByUser(ctx context.Context, userID uuid.UUID) ([]Workspace, error) {
	rows, err := q.db.Query(ctx, listWorkspacesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var workspaces []Workspace
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, err
		}
		workspaces = append(workspaces, w)
	}
	return workspaces, rows.Err()
}

const getMemberRole = `
SELECT role FROM workspace_members
WHERE workspace_id = $1 AND user_id = $2
`

func (q *Queries) GetMemberRole(ctx context.Context, workspaceID uuid.UUID, userID uuid.UUID) (Role, error) {
	var role Role
	err := q.db.QueryRow(ctx, getMemberRole, workspaceID, userID).Scan(&role)
	return role, err
}

const addMember = `
INSERT INTO workspace_members (workspace_id, user_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = EXCLUDED.role
`

func (q *Queries) AddMember(ctx context.Context, workspaceID uuid.UUID, userID uuid.UUID, role Role) error {
	_, err := q.db.Exec(ctx, addMember, workspaceID, userID, role)
	return err
}

func scanWorkspace(row pgx.Row) (Workspace, error) {
	var w Workspace
	err := row.Scan(&w.ID, &w.Name, &w.Slug, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		return Workspace{}, err
	}
	return w, nil
}
