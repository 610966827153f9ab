package user

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	Email           string             `json:"email"`
	AvatarURL       pgtype.Text        `json:"avatar_url"`
	Admin           bool               `json:"admin"`
	TwoFactorSecret pgtype.Text        `json:"-"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

// HasTwoFactor reports whether the user has two-factor authentication set up.
func (u User) HasTwoFactor() bool {
	return u.TwoFactorSecret.Valid && u.TwoFactorSecret.String != ""
}

type CreateParams struct {
	Name      string
	Email     string
	AvatarURL pgtype.Text
}

type UpdateParams struct {
	ID        uuid.UUID
	Name      string
	AvatarURL pgtype.Text
}
