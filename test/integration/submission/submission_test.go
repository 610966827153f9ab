package submission_test

import (
	"context"
	"testing"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/form"
	"github.com/sheikharifulislam/OpnForm/internal/form/submission"
	"github.com/sheikharifulislam/OpnForm/test/integration"
	formbuilder "github.com/sheikharifulislam/OpnForm/test/testdata/dbbuilder/form"
	userbuilder "github.com/sheikharifulislam/OpnForm/test/testdata/dbbuilder/user"
	workspacebuilder "github.com/sheikharifulislam/OpnForm/test/testdata/dbbuilder/workspace"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newSubmissionService(t *testing.T, logger *zap.Logger, tx pgx.Tx) (*submission.Service, *submission.Codec) {
	t.Helper()

	codec, err := submission.NewCodec("integration-salt")
	require.NoError(t, err)

	return submission.NewService(logger, tx, codec), codec
}

func createPublicForm(t *testing.T, tx pgx.Tx) form.Form {
	t.Helper()

	owner := userbuilder.New(t, tx).Create()
	ws := workspacebuilder.New(t, tx).Create(workspacebuilder.WithOwner(owner.ID))
	return formbuilder.New(t, tx).Create(
		formbuilder.WithWorkspace(ws.ID),
		formbuilder.WithCreator(owner.ID),
		formbuilder.WithVisibility(form.VisibilityPublic),
	)
}

func TestSubmissionIdentifiers(t *testing.T) {
	resourceManager, logger, err := integration.GetOrInitResource()
	require.NoError(t, err)
	defer resourceManager.Cleanup()

	t.Run("new submissions resolve by their public id", func(t *testing.T) {
		resourceManager.WithPostgresTx(t, func(tx pgx.Tx) {
			f := createPublicForm(t, tx)
			svc, _ := newSubmissionService(t, logger, tx)

			created, err := svc.Create(context.Background(), submission.CreateParams{
				FormID: f.ID,
				Data:   map[string]any{"field": "value"},
			})
			require.NoError(t, err)
			require.True(t, created.HasPublicID())

			found, err := svc.Resolve(context.Background(), f.ID, svc.Identifier(created))
			require.NoError(t, err)
			require.Equal(t, created.Key, found.Key)
		})
	})

	t.Run("legacy rows resolve by their hash until migrated", func(t *testing.T) {
		resourceManager.WithPostgresTx(t, func(tx pgx.Tx) {
			f := createPublicForm(t, tx)
			svc, codec := newSubmissionService(t, logger, tx)

			var key int64
			err := tx.QueryRow(context.Background(),
				`INSERT INTO form_submissions (form_id, public_id, data) VALUES ($1, NULL, '{}'::jsonb) RETURNING id`,
				f.ID).Scan(&key)
			require.NoError(t, err)

			found, err := svc.Resolve(context.Background(), f.ID, codec.Encode(key))
			require.NoError(t, err)
			require.Equal(t, key, found.Key)
			require.False(t, found.HasPublicID())
		})
	})

	t.Run("legacy hash stops working once the row has a public id", func(t *testing.T) {
		resourceManager.WithPostgresTx(t, func(tx pgx.Tx) {
			f := createPublicForm(t, tx)
			svc, codec := newSubmissionService(t, logger, tx)

			created, err := svc.Create(context.Background(), submission.CreateParams{
				FormID: f.ID,
				Data:   map[string]any{"field": "value"},
			})
			require.NoError(t, err)

			_, err = svc.Resolve(context.Background(), f.ID, codec.Encode(created.Key))
			require.ErrorIs(t, err, internal.ErrSubmissionNotFound)
		})
	})

	t.Run("submissions never leak across forms", func(t *testing.T) {
		resourceManager.WithPostgresTx(t, func(tx pgx.Tx) {
			first := createPublicForm(t, tx)
			second := createPublicForm(t, tx)
			svc, _ := newSubmissionService(t, logger, tx)

			created, err := svc.Create(context.Background(), submission.CreateParams{
				FormID: first.ID,
				Data:   map[string]any{"field": "value"},
			})
			require.NoError(t, err)

			_, err = svc.Resolve(context.Background(), second.ID, svc.Identifier(created))
			require.ErrorIs(t, err, internal.ErrSubmissionNotFound)
		})
	})

	t.Run("list and count stay per form", func(t *testing.T) {
		resourceManager.WithPostgresTx(t, func(tx pgx.Tx) {
			f := createPublicForm(t, tx)
			other := createPublicForm(t, tx)
			svc, _ := newSubmissionService(t, logger, tx)

			for range 3 {
				_, err := svc.Create(context.Background(), submission.CreateParams{
					FormID: f.ID,
					Data:   map[string]any{"field": uuid.NewString()},
				})
				require.NoError(t, err)
			}
			_, err := svc.Create(context.Background(), submission.CreateParams{
				FormID: other.ID,
				Data:   map[string]any{"field": "value"},
			})
			require.NoError(t, err)

			count, err := svc.CountByFormID(context.Background(), f.ID)
			require.NoError(t, err)
			require.Equal(t, int64(3), count)

			listed, err := svc.ListByFormID(context.Background(), f.ID)
			require.NoError(t, err)
			require.Len(t, listed, 3)
		})
	})
}
