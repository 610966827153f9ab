package submission

import (
	"context"
	"testing"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/form/property"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type stubQuerier struct {
	createFunc        func(ctx context.Context, arg CreateParams) (Submission, error)
	updateFunc        func(ctx context.Context, arg UpdateParams) (Submission, error)
	getByPublicIDFunc func(ctx context.Context, formID uuid.UUID, publicID uuid.UUID) (Submission, error)
	getByKeyFunc      func(ctx context.Context, formID uuid.UUID, key int64) (Submission, error)
	listFunc          func(ctx context.Context, formID uuid.UUID) ([]Submission, error)
	countFunc         func(ctx context.Context, formID uuid.UUID) (int64, error)
}

func (s *stubQuerier) Create(ctx context.Context, arg CreateParams) (Submission, error) {
	return s.createFunc(ctx, arg)
}

func (s *stubQuerier) Update(ctx context.Context, arg UpdateParams) (Submission, error) {
	return s.updateFunc(ctx, arg)
}

func (s *stubQuerier) GetByPublicID(ctx context.Context, formID uuid.UUID, publicID uuid.UUID) (Submission, error) {
	return s.getByPublicIDFunc(ctx, formID, publicID)
}

func (s *stubQuerier) GetByKey(ctx context.Context, formID uuid.UUID, key int64) (Submission, error) {
	return s.getByKeyFunc(ctx, formID, key)
}

func (s *stubQuerier) ListByFormID(ctx context.Context, formID uuid.UUID) ([]Submission, error) {
	return s.listFunc(ctx, formID)
}

func (s *stubQuerier) CountByFormID(ctx context.Context, formID uuid.UUID) (int64, error) {
	return s.countFunc(ctx, formID)
}

func newTestService(t *testing.T, queries Querier) *Service {
	t.Helper()

	codec, err := NewCodec("test-salt")
	require.NoError(t, err)

	return &Service{
		logger:  zap.NewNop(),
		queries: queries,
		codec:   codec,
		tracer:  otel.Tracer("test"),
	}
}

func TestService_CreateAssignsPublicID(t *testing.T) {
	t.Parallel()

	var captured CreateParams
	queries := &stubQuerier{
		createFunc: func(_ context.Context, arg CreateParams) (Submission, error) {
			captured = arg
			return Submission{
				Key:      1,
				FormID:   arg.FormID,
				PublicID: pgtype.UUID{Bytes: arg.PublicID, Valid: true},
				Data:     arg.Data,
			}, nil
		},
	}
	svc := newTestService(t, queries)

	created, err := svc.Create(context.Background(), CreateParams{FormID: uuid.New(), Data: map[string]any{}})

	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, captured.PublicID)
	require.True(t, created.HasPublicID())
}

func TestService_ResolveByUUID(t *testing.T) {
	t.Parallel()

	formID := uuid.New()
	publicID := uuid.New()
	stored := Submission{
		Key:      7,
		FormID:   formID,
		PublicID: pgtype.UUID{Bytes: publicID, Valid: true},
	}

	queries := &stubQuerier{
		getByPublicIDFunc: func(_ context.Context, gotFormID uuid.UUID, gotPublicID uuid.UUID) (Submission, error) {
			require.Equal(t, formID, gotFormID)
			require.Equal(t, publicID, gotPublicID)
			return stored, nil
		},
	}
	svc := newTestService(t, queries)

	found, err := svc.Resolve(context.Background(), formID, publicID.String())

	require.NoError(t, err)
	require.Equal(t, stored, found)
}

func TestService_ResolveUUIDMissHasNoHashFallback(t *testing.T) {
	t.Parallel()

	queries := &stubQuerier{
		getByPublicIDFunc: func(_ context.Context, _ uuid.UUID, _ uuid.UUID) (Submission, error) {
			return Submission{}, pgx.ErrNoRows
		},
		getByKeyFunc: func(_ context.Context, _ uuid.UUID, _ int64) (Submission, error) {
			t.Fatal("a UUID identifier must never fall back to a key lookup")
			return Submission{}, nil
		},
	}
	svc := newTestService(t, queries)

	_, err := svc.Resolve(context.Background(), uuid.New(), uuid.NewString())

	require.ErrorIs(t, err, internal.ErrSubmissionNotFound)
}

func TestService_ResolveByLegacyHash(t *testing.T) {
	t.Parallel()

	formID := uuid.New()
	stored := Submission{Key: 42, FormID: formID}

	queries := &stubQuerier{
		getByKeyFunc: func(_ context.Context, gotFormID uuid.UUID, key int64) (Submission, error) {
			require.Equal(t, formID, gotFormID)
			require.Equal(t, int64(42), key)
			return stored, nil
		},
	}
	svc := newTestService(t, queries)

	found, err := svc.Resolve(context.Background(), formID, svc.codec.Encode(42))

	require.NoError(t, err)
	require.Equal(t, stored, found)
}

func TestService_ResolveLegacyHashRejectedAfterMigration(t *testing.T) {
	t.Parallel()

	formID := uuid.New()
	migrated := Submission{
		Key:      42,
		FormID:   formID,
		PublicID: pgtype.UUID{Bytes: uuid.New(), Valid: true},
	}

	queries := &stubQuerier{
		getByKeyFunc: func(_ context.Context, _ uuid.UUID, _ int64) (Submission, error) {
			return migrated, nil
		},
	}
	svc := newTestService(t, queries)

	_, err := svc.Resolve(context.Background(), formID, svc.codec.Encode(42))

	require.ErrorIs(t, err, internal.ErrSubmissionNotFound)
}

func TestService_ResolveUnknownIdentifier(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubQuerier{})

	_, err := svc.Resolve(context.Background(), uuid.New(), "???")

	require.ErrorIs(t, err, internal.ErrSubmissionNotFound)
}

func TestService_Identifier(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubQuerier{})

	publicID := uuid.New()
	withUUID := Submission{Key: 5, PublicID: pgtype.UUID{Bytes: publicID, Valid: true}}
	require.Equal(t, publicID.String(), svc.Identifier(withUUID))

	legacy := Submission{Key: 5}
	require.Equal(t, svc.codec.Encode(5), svc.Identifier(legacy))
}

func TestService_BuildEditURL(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, &stubQuerier{})

	publicID := uuid.New()
	sub := Submission{PublicID: pgtype.UUID{Bytes: publicID, Valid: true}}

	url := svc.BuildEditURL("https://example.com/forms/contact", sub)

	require.Equal(t, "https://example.com/forms/contact?submission_id="+publicID.String(), url)
}

func TestHasAnsweredField(t *testing.T) {
	t.Parallel()

	fieldID := uuid.NewString()

	type testCase struct {
		name     string
		data     map[string]any
		expected bool
	}

	testCases := []testCase{
		{name: "empty data", data: map[string]any{}, expected: false},
		{name: "string answer", data: map[string]any{fieldID: "hello"}, expected: true},
		{name: "empty string", data: map[string]any{fieldID: ""}, expected: false},
		{name: "nil answer", data: map[string]any{fieldID: nil}, expected: false},
		{name: "empty list", data: map[string]any{fieldID: []any{}}, expected: false},
		{name: "non-empty list", data: map[string]any{fieldID: []any{"a"}}, expected: true},
		{name: "numeric answer", data: map[string]any{fieldID: float64(0)}, expected: true},
		{name: "non-field keys ignored", data: map[string]any{"completion_time": float64(12)}, expected: false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, HasAnsweredField(tc.data))
		})
	}
}

func TestValidateExportColumns(t *testing.T) {
	t.Parallel()

	properties := []property.Property{
		{"id": "f1", "name": "Name", "type": "text"},
		{"id": "f2", "name": "Email", "type": "email"},
	}
	removed := []property.Property{
		{"id": "f9", "name": "Old field", "type": "text"},
	}

	type testCase struct {
		name    string
		columns map[string]bool
		wantErr bool
	}

	testCases := []testCase{
		{name: "current properties", columns: map[string]bool{"f1": true, "f2": false}},
		{name: "removed property", columns: map[string]bool{"f9": true}},
		{name: "created_at", columns: map[string]bool{"created_at": true}},
		{name: "unknown column", columns: map[string]bool{"f1": true, "bogus": true}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateExportColumns(tc.columns, properties, removed)

			if tc.wantErr {
				require.ErrorIs(t, err, internal.ErrInvalidExportColumns)
			} else {
				require.NoError(t, err)
			}
		})
	}
}
