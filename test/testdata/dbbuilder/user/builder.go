package userbuilder

import (
	"context"
	"testing"

	"github.com/sheikharifulislam/OpnForm/internal/user"
	"github.com/sheikharifulislam/OpnForm/test/testdata"
	"github.com/sheikharifulislam/OpnForm/test/testdata/dbbuilder"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
)

type FactoryParams struct {
	Name      string
	Email     string
	AvatarURL string
}

type Builder struct {
	t  *testing.T
	db dbbuilder.DBTX
}

func New(t *testing.T, db dbbuilder.DBTX) *Builder {
	return &Builder{t: t, db: db}
}

func (b Builder) Queries() *user.Queries {
	return user.New(b.db)
}

func (b Builder) Create(opts ...Option) user.User {
	queries := b.Queries()

	p := &FactoryParams{
		Name:      testdata.RandomFullName(),
		Email:     testdata.RandomEmail(),
		AvatarURL: testdata.RandomURL(),
	}
	for _, opt := range opts {
		opt(p)
	}

	userRow, err := queries.Create(context.Background(), user.CreateParams{
		Name:      p.Name,
		Email:     p.Email,
		AvatarURL: pgtype.Text{String: p.AvatarURL, Valid: p.AvatarURL != ""},
	})
	require.NoError(b.t, err)

	return userRow
}
