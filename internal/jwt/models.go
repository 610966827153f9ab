package jwt

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type RefreshToken struct {
	ID             uuid.UUID          `json:"id"`
	UserID         uuid.UUID          `json:"user_id"`
	IsActive       bool               `json:"is_active"`
	ExpirationDate pgtype.Timestamptz `json:"expiration_date"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
}

type CreateParams struct {
	UserID         uuid.UUID
	ExpirationDate pgtype.Timestamptz
}
