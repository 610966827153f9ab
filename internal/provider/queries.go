package provider

import (
	"context"

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

const createProvider = `
INSERT INTO oauth_providers (user_id, type, provider_user_id, access_token, refresh_token, scopes)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, user_id, type, provider_user_id, access_token, refresh_token, scopes, created_at, updated_at
`

func (q *Queries) Create(ctx context.Context, arg CreateParams) (Provider, error) {
	row := q.db.QueryRow(ctx, createProvider,
		arg.UserID,
		arg.Type,
		arg.ProviderUserID,
		arg.AccessToken,
		arg.RefreshToken,
		arg.Scopes,
	)
	return scanProvider(row)
}

const getProviderByID = `
SELECT id, user_id, type, provider_user_id, access_token, refresh_token, scopes, created_at, updated_at
FROM oauth_providers
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (Provider, error) {
	row := q.db.QueryRow(ctx, getProviderByID, id)
	return scanProvider(row)
}

const listProvidersByUser = `
SELECT id, user_id, type, provider_user_id, access_token, refresh_token, scopes, created_at, updated_at
FROM oauth_providers
WHERE user_id = $1
ORDER BY created_at
`

func (q *Queries) ListByUser(ctx context.Context, userID uuid.UUID) ([]Provider, error) {
	rows, err := q.db.Query(ctx, listProvidersByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var providers []Provider
	for rows.Next() {
		p, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		providers = append(providers, p)
	}
	return providers, rows.Err()
}

const providerBelongsToWorkspace = `
SELECT EXISTS (
    SELECT 1
    FROM oauth_providers p
    JOIN workspace_members m ON m.user_id = p.user_id
    WHERE p.id = $1 AND m.workspace_id = $2
)
`

func (q *Queries) BelongsToWorkspace(ctx context.Context, providerID uuid.UUID, workspaceID uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, providerBelongsToWorkspace, providerID, workspaceID).Scan(&exists)
	return exists, err
}

const deleteProvider = `
DELETE FROM oauth_providers
WHERE id = $1 AND user_id = $2
`

func (q *Queries) Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	_, err := q.db.Exec(ctx, deleteProvider, id, userID)
	return err
}

func scanProvider(row pgx.Row) (Provider, error) {
	var p Provider
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Type,
		&p.ProviderUserID,
		&p.AccessToken,
		&p.RefreshToken,
		&p.Scopes,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}
