package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/form/property"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type stubProviderStore struct{}

func (s *stubProviderStore) GetByID(_ context.Context, _ uuid.UUID) (property.StripeAccount, error) {
	return property.StripeAccount{}, errors.New("not found")
}

func (s *stubProviderStore) BelongsToWorkspace(_ context.Context, _ uuid.UUID, _ uuid.UUID) (bool, error) {
	return false, nil
}

type stubQuerier struct {
	createFunc    func(ctx context.Context, arg CreateParams) (Form, error)
	updateFunc    func(ctx context.Context, arg UpdateParams) (Form, error)
	getByIDFunc   func(ctx context.Context, id uuid.UUID) (Form, error)
	getBySlugFunc func(ctx context.Context, slug string) (Form, error)
}

func (s *stubQuerier) Create(ctx context.Context, arg CreateParams) (Form, error) {
	return s.createFunc(ctx, arg)
}

func (s *stubQuerier) Update(ctx context.Context, arg UpdateParams) (Form, error) {
	return s.updateFunc(ctx, arg)
}

func (s *stubQuerier) Delete(_ context.Context, _ uuid.UUID) error {
	return nil
}

func (s *stubQuerier) GetByID(ctx context.Context, id uuid.UUID) (Form, error) {
	return s.getByIDFunc(ctx, id)
}

func (s *stubQuerier) GetBySlug(ctx context.Context, slug string) (Form, error) {
	return s.getBySlugFunc(ctx, slug)
}

func (s *stubQuerier) ListByWorkspace(_ context.Context, _ uuid.UUID) ([]Form, error) {
	return nil, nil
}

func newTestService(queries Querier) *Service {
	return &Service{
		logger:   zap.NewNop(),
		queries:  queries,
		rule:     property.NewRule(zap.NewNop(), &stubProviderStore{}, false),
		frontURL: "https://forms.example.com",
		tracer:   otel.Tracer("test"),
	}
}

func TestService_CreateInvalidProperties(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubQuerier{
		createFunc: func(_ context.Context, _ CreateParams) (Form, error) {
			t.Fatal("create must not be reached when validation fails")
			return Form{}, nil
		},
	})

	_, err := svc.Create(context.Background(), CreateParams{
		Title:      "Contact",
		Properties: []map[string]any{{"id": "f1", "type": "text"}},
	})

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "The given data was invalid.", validationErr.Error())
	require.Contains(t, validationErr.Errors, "properties.0.name")
}

func TestService_CreateDefaults(t *testing.T) {
	t.Parallel()

	var captured CreateParams
	svc := newTestService(&stubQuerier{
		createFunc: func(_ context.Context, arg CreateParams) (Form, error) {
			captured = arg
			return Form{Title: arg.Title, Slug: arg.Slug, Visibility: arg.Visibility}, nil
		},
	})

	_, err := svc.Create(context.Background(), CreateParams{Title: "My Contact Form"})

	require.NoError(t, err)
	require.Equal(t, VisibilityDraft, captured.Visibility)
	require.True(t, strings.HasPrefix(captured.Slug, "my-contact-form-"))
}

func TestService_CreateKeepsExplicitSlugAndVisibility(t *testing.T) {
	t.Parallel()

	var captured CreateParams
	svc := newTestService(&stubQuerier{
		createFunc: func(_ context.Context, arg CreateParams) (Form, error) {
			captured = arg
			return Form{}, nil
		},
	})

	_, err := svc.Create(context.Background(), CreateParams{
		Title:      "My Contact Form",
		Slug:       "contact",
		Visibility: VisibilityPublic,
	})

	require.NoError(t, err)
	require.Equal(t, "contact", captured.Slug)
	require.Equal(t, VisibilityPublic, captured.Visibility)
}

func TestService_UpdateTracksRemovedProperties(t *testing.T) {
	t.Parallel()

	formID := uuid.New()
	keptBlock := map[string]any{"id": "f1", "name": "Name", "type": "text"}
	droppedBlock := map[string]any{"id": "f2", "name": "Old email", "type": "email"}
	previouslyRemoved := map[string]any{"id": "f0", "name": "Ancient", "type": "text"}

	var captured UpdateParams
	svc := newTestService(&stubQuerier{
		getByIDFunc: func(_ context.Context, id uuid.UUID) (Form, error) {
			require.Equal(t, formID, id)
			return Form{
				ID:                formID,
				Slug:              "contact",
				Visibility:        VisibilityPublic,
				Properties:        []map[string]any{keptBlock, droppedBlock},
				RemovedProperties: []map[string]any{previouslyRemoved},
			}, nil
		},
		updateFunc: func(_ context.Context, arg UpdateParams) (Form, error) {
			captured = arg
			return Form{}, nil
		},
	})

	_, err := svc.Update(context.Background(), UpdateParams{
		ID:         formID,
		Title:      "Contact",
		Properties: []map[string]any{keptBlock},
	}, uuid.New())

	require.NoError(t, err)
	require.Equal(t, "contact", captured.Slug)
	require.Equal(t, VisibilityPublic, captured.Visibility)
	require.Equal(t, []map[string]any{previouslyRemoved, droppedBlock}, captured.RemovedProperties)
}

func TestService_GetPublic(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name        string
		visibility  Visibility
		storeErr    error
		expectedErr error
	}

	testCases := []testCase{
		{name: "public form served", visibility: VisibilityPublic},
		{name: "draft form hidden", visibility: VisibilityDraft, expectedErr: internal.ErrFormNotPublic},
		{name: "closed form hidden", visibility: VisibilityClosed, expectedErr: internal.ErrFormNotPublic},
		{name: "unknown slug", storeErr: pgx.ErrNoRows, expectedErr: internal.ErrFormNotFound},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(&stubQuerier{
				getBySlugFunc: func(_ context.Context, _ string) (Form, error) {
					if tc.storeErr != nil {
						return Form{}, tc.storeErr
					}
					return Form{Slug: "contact", Visibility: tc.visibility}, nil
				},
			})

			_, err := svc.GetPublic(context.Background(), "contact")

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestService_ShareURL(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubQuerier{})

	require.Equal(t, "https://forms.example.com/forms/contact", svc.ShareURL(Form{Slug: "contact"}))
}

func TestGenerateSlug(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name   string
		title  string
		prefix string
	}

	testCases := []testCase{
		{name: "simple title", title: "Contact Form", prefix: "contact-form-"},
		{name: "punctuation collapsed", title: "What's  up?!", prefix: "what-s-up-"},
		{name: "empty title", title: "", prefix: "form-"},
		{name: "symbols only", title: "!!!", prefix: "form-"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			slug := GenerateSlug(tc.title)

			require.True(t, strings.HasPrefix(slug, tc.prefix), "slug %q should start with %q", slug, tc.prefix)
			require.Len(t, slug, len(tc.prefix)+8)
		})
	}
}

func TestGenerateSlug_Unique(t *testing.T) {
	t.Parallel()

	first := GenerateSlug("Contact")
	second := GenerateSlug("Contact")

	require.NotEqual(t, first, second)
}
