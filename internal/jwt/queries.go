package jwt

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

const createRefreshToken = `
INSERT INTO refresh_tokens (user_id, expiration_date)
VALUES ($1, $2)
RETURNING id, user_id, is_active, expiration_date, created_at
`

func (q *Queries) Create(ctx context.Context, arg CreateParams) (RefreshToken, error) {
	row := q.db.QueryRow(ctx, createRefreshToken, arg.UserID, arg.ExpirationDate)
	return scanRefreshToken(row)
}

const getUserIDByTokenID = `
SELECT user_id FROM refresh_tokens
WHERE id = $1 AND is_active = true AND expiration_date > now()
`

func (q *Queries) GetUserIDByTokenID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var userID uuid.UUID
	err := q.db.QueryRow(ctx, getUserIDByTokenID, id).Scan(&userID)
	return userID, err
}

const getRefreshTokenByID = `
SELECT id, user_id, is_active, expiration_date, created_at
FROM refresh_tokens
WHERE id = $1
`

func (q *Queries) GetRefreshTokenByID(ctx context.Context, id uuid.UUID) (RefreshToken, error) {
	row := q.db.QueryRow(ctx, getRefreshTokenByID, id)
	return scanRefreshToken(row)
}

const inactivateRefreshToken = `
UPDATE refresh_tokens SET is_active = false WHERE id = $1
`

func (q *Queries) Inactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, inactivateRefreshToken, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const deleteExpiredRefreshTokens = `
DELETE FROM refresh_tokens WHERE expiration_date <= now()
`

func (q *Queries) Delete(ctx context.Context) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredRefreshTokens)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRefreshToken(row pgx.Row) (RefreshToken, error) {
	var t RefreshToken
	err := row.Scan(&t.ID, &t.UserID, &t.IsActive, &t.ExpirationDate, &t.CreatedAt)
	return t, err
}
