package provider

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const TypeStripe = "stripe"

// Provider is a connected third-party account owned by a user, such as a
// Stripe account used by payment blocks.
type Provider struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	Type           string
	ProviderUserID string
	AccessToken    pgtype.Text
	RefreshToken   pgtype.Text
	Scopes         []string
	CreatedAt      pgtype.Timestamptz
	UpdatedAt      pgtype.Timestamptz
}

type CreateParams struct {
	UserID         uuid.UUID
	Type           string
	ProviderUserID string
	AccessToken    pgtype.Text
	RefreshToken   pgtype.Text
	Scopes         []string
}
