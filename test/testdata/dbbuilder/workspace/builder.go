package workspacebuilder

import (
	"context"
	"testing"

	"github.com/sheikharifulislam/OpnForm/internal/workspace"
	"github.com/sheikharifulislam/OpnForm/test/testdata"
	"github.com/sheikharifulislam/OpnForm/test/testdata/dbbuilder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type FactoryParams struct {
	Name    string
	Slug    string
	OwnerID uuid.UUID
}

type Builder struct {
	t  *testing.T
	db dbbuilder.DBTX
}

func New(t *testing.T, db dbbuilder.DBTX) *Builder {
	return &Builder{t: t, db: db}
}

func (b Builder) Queries() *workspace.Queries {
	return workspace.New(b.db)
}

// Create inserts a workspace and enrolls the owner as an admin member, the
// same shape the service produces.
func (b Builder) Create(opts ...Option) workspace.Workspace {
	queries := b.Queries()

	p := &FactoryParams{
		Name: testdata.RandomWorkspaceName(),
		Slug: "ws-" + uuid.NewString()[:8],
	}
	for _, opt := range opts {
		opt(p)
	}

	workspaceRow, err := queries.Create(context.Background(), workspace.CreateParams{
		Name:    p.Name,
		Slug:    p.Slug,
		OwnerID: p.OwnerID,
	})
	require.NoError(b.t, err)

	if p.OwnerID != uuid.Nil {
		err = queries.AddMember(context.Background(), workspaceRow.ID, p.OwnerID, workspace.RoleAdmin)
		require.NoError(b.t, err)
	}

	return workspaceRow
}

func (b Builder) AddMember(workspaceID, userID uuid.UUID, role workspace.Role) {
	err := b.Queries().AddMember(context.Background(), workspaceID, userID, role)
	require.NoError(b.t, err)
}
