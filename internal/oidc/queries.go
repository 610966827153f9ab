package oidc

import (
	"context"

	"github.com/sheikharifulislam/OpnForm/internal"

	"github.com/jackc/pgx/v5"
)

type Queries struct {
	db internal.DBTX
}

func New(db internal.DBTX) *Queries {
	return &Queries{db: db}
}

const getIdentityBySubject = `
SELECT id, user_id, connection_id, subject, email, created_at, updated_at
FROM user_identities
WHERE connection_id = $1 AND subject = $2
`

func (q *Queries) GetBySubject(ctx context.Context, connectionID string, subject string) (Identity, error) {
	row := q.db.QueryRow(ctx, getIdentityBySubject, connectionID, subject)
	return scanIdentity(row)
}

const upsertIdentity = `
INSERT INTO user_identities (user_id, connection_id, subject, email)
VALUES ($1, $2, $3, $4)
ON CONFLICT (connection_id, subject)
DO UPDATE SET email = EXCLUDED.email, updated_at = now()
RETURNING id, user_id, connection_id, subject, email, created_at, updated_at
`

func (q *Queries) Upsert(ctx context.Context, arg UpsertParams) (Identity, error) {
	row := q.db.QueryRow(ctx, upsertIdentity, arg.UserID, arg.ConnectionID, arg.Subject, arg.Email)
	return scanIdentity(row)
}

func scanIdentity(row pgx.Row) (Identity, error) {
	var identity Identity
	err := row.Scan(
		&identity.ID,
		&identity.UserID,
		&identity.ConnectionID,
		&identity.Subject,
		&identity.Email,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	return identity, err
}
