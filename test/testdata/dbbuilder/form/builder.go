package formbuilder

import (
	"context"
	"testing"

	"github.com/sheikharifulislam/OpnForm/internal/form"
	"github.com/sheikharifulislam/OpnForm/test/testdata"
	"github.com/sheikharifulislam/OpnForm/test/testdata/dbbuilder"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type Builder struct {
	t  *testing.T
	db dbbuilder.DBTX
}

func New(t *testing.T, db dbbuilder.DBTX) *Builder {
	return &Builder{t: t, db: db}
}

func (b Builder) Queries() *form.Queries {
	return form.New(b.db)
}

func (b Builder) Create(opts ...Option) form.Form {
	queries := b.Queries()

	p := &FactoryParams{
		Title:      testdata.RandomFormTitle(),
		Slug:       form.GenerateSlug("form"),
		Visibility: form.VisibilityDraft,
		Properties: []map[string]any{
			{"id": uuid.NewString(), "name": "Your name", "type": "text"},
			{"id": uuid.NewString(), "name": "Email", "type": "email"},
		},
	}
	for _, opt := range opts {
		opt(p)
	}

	formRow, err := queries.Create(context.Background(), form.CreateParams{
		WorkspaceID:              p.WorkspaceID,
		CreatorID:                p.CreatorID,
		Title:                    p.Title,
		Slug:                     p.Slug,
		Properties:               p.Properties,
		Visibility:               p.Visibility,
		EditableSubmissions:      p.EditableSubmissions,
		EnablePartialSubmissions: p.EnablePartialSubmissions,
	})
	require.NoError(b.t, err)

	return formRow
}
