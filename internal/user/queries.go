package user

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

const existsUserByID = `
SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)
`

func (q *Queries) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, existsUserByID, id).Scan(&exists)
	return exists, err
}

const getUserByID = `
SELECT id, name, email, avatar_url, admin, two_factor_secret, created_at, updated_at
FROM users
WHERE id = $1
`

func (q *Queries) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := q.db.QueryRow(ctx, getUserByID, id)
	return scanUser(row)
}

const getUserByEmail = `
SELECT id, name, email, avatar_url, admin, two_factor_secret, created_at, updated_at
FROM users
WHERE lower(email) = lower($1)
`

func (q *Queries) GetByEmail(ctx context.Context, email string) (User, error) {
	row := q.db.QueryRow(ctx, getUserByEmail, email)
	return scanUser(row)
}

const createUser = `
INSERT INTO users (name, email, avatar_url)
VALUES ($1, $2, $3)
RETURNING id, name, email, avatar_url, admin, two_factor_secret, created_at, updated_at
`

func (q *Queries) Create(ctx context.Context, arg CreateParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser, arg.Name, arg.Email, arg.AvatarURL)
	return scanUser(row)
}

const updateUser = `
UPDATE users
SET name = $2, avatar_url = $3, updated_at = now()
WHERE id = $1
RETURNING id, name, email, avatar_url, admin, two_factor_secret, created_at, updated_at
`

func (q *Queries) Update(ctx context.Context, arg UpdateParams) (User, error) {
	row := q.db.QueryRow(ctx, updateUser, arg.ID, arg.Name, arg.AvatarURL)
	return scanUser(row)
}

const disableTwoFactor = `
UPDATE users
SET two_factor_secret = NULL, updated_at = now()
WHERE id = $1
`

func (q *Queries) DisableTwoFactor(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, disableTwoFactor, id)
	return err
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Name,
		&u.Email,
		&u.AvatarURL,
		&u.Admin,
		&u.TwoFactorSecret,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	return u, err
}
