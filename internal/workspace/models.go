package workspace

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Role of a user within a workspace.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Workspace is the billing and sharing boundary every form belongs to.
type Workspace struct {
	ID        uuid.UUID
	Name      string
	Slug      string
	OwnerID   pgtype.UUID
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Member struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	Role        Role
}

type CreateParams struct {
	Name    string
	Slug    string
	OwnerID uuid.UUID
}
