package oidc

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Identity is a linked SSO identity, unique per (connection, subject).
type Identity struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	ConnectionID string
	Subject      string
	Email        string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type UpsertParams struct {
	UserID       uuid.UUID
	ConnectionID string
	Subject      string
	Email        string
}

// LinkRequest is the pending state between an SSO callback that matched an
// existing account by email and the user's explicit confirmation.
type LinkRequest struct {
	Email        string
	ConnectionID string
	Subject      string
}
