package jwt

import (
	"context"
	"testing"
	"time"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/user"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

type stubQuerier struct {
	getUserIDByTokenIDFunc func(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	createFunc             func(ctx context.Context, arg CreateParams) (RefreshToken, error)
	inactivateFunc         func(ctx context.Context, id uuid.UUID) (int64, error)
}

func (s *stubQuerier) GetUserIDByTokenID(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	return s.getUserIDByTokenIDFunc(ctx, id)
}

func (s *stubQuerier) Create(ctx context.Context, arg CreateParams) (RefreshToken, error) {
	return s.createFunc(ctx, arg)
}

func (s *stubQuerier) Inactivate(ctx context.Context, id uuid.UUID) (int64, error) {
	return s.inactivateFunc(ctx, id)
}

func (s *stubQuerier) Delete(_ context.Context) (int64, error) {
	return 0, nil
}

func (s *stubQuerier) GetRefreshTokenByID(_ context.Context, _ uuid.UUID) (RefreshToken, error) {
	return RefreshToken{}, pgx.ErrNoRows
}

func newTestService(queries Querier, accessTokenExpiration time.Duration) Service {
	return Service{
		logger:                 zap.NewNop(),
		secret:                 "test-secret",
		accessTokenExpiration:  accessTokenExpiration,
		refreshTokenExpiration: 24 * time.Hour,
		queries:                queries,
		tracer:                 otel.Tracer("test"),
	}
}

func TestService_NewAndParse(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubQuerier{}, time.Hour)
	original := user.User{
		ID:        uuid.New(),
		Name:      "Test User",
		Email:     "user@example.com",
		AvatarURL: pgtype.Text{String: "https://cdn.example.com/a.png", Valid: true},
		Admin:     true,
	}

	tokenString, err := svc.New(context.Background(), original)
	require.NoError(t, err)

	parsed, err := svc.Parse(context.Background(), tokenString)
	require.NoError(t, err)
	require.Equal(t, original.ID, parsed.ID)
	require.Equal(t, original.Name, parsed.Name)
	require.Equal(t, original.Email, parsed.Email)
	require.Equal(t, original.AvatarURL.String, parsed.AvatarURL.String)
	require.True(t, parsed.Admin)
}

func TestService_ParseBearerPrefix(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubQuerier{}, time.Hour)

	tokenString, err := svc.New(context.Background(), user.User{ID: uuid.New(), Email: "user@example.com"})
	require.NoError(t, err)

	parsed, err := svc.Parse(context.Background(), "Bearer "+tokenString)
	require.NoError(t, err)
	require.Equal(t, "user@example.com", parsed.Email)
}

func TestService_ParseExpired(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubQuerier{}, -time.Minute)

	tokenString, err := svc.New(context.Background(), user.User{ID: uuid.New()})
	require.NoError(t, err)

	_, err = svc.Parse(context.Background(), tokenString)
	require.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestService_ParseInvalidToken(t *testing.T) {
	t.Parallel()

	type testCase struct {
		name        string
		token       string
		expectedErr error
	}

	wrongKey := newTestService(&stubQuerier{}, time.Hour)
	wrongKey.secret = "other-secret"
	foreignToken, err := wrongKey.New(context.Background(), user.User{ID: uuid.New()})
	require.NoError(t, err)

	testCases := []testCase{
		{name: "not a token", token: "not-a-token", expectedErr: jwt.ErrTokenMalformed},
		{name: "wrong signing key", token: foreignToken, expectedErr: jwt.ErrSignatureInvalid},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			svc := newTestService(&stubQuerier{}, time.Hour)

			_, err := svc.Parse(context.Background(), tc.token)

			require.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestService_GenerateRefreshToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newTestService(&stubQuerier{
		createFunc: func(_ context.Context, arg CreateParams) (RefreshToken, error) {
			require.Equal(t, userID, arg.UserID)
			require.True(t, arg.ExpirationDate.Time.After(time.Now()))
			return RefreshToken{ID: uuid.New(), UserID: arg.UserID, ExpirationDate: arg.ExpirationDate}, nil
		},
	}, time.Hour)

	refreshToken, err := svc.GenerateRefreshToken(context.Background(), userID)

	require.NoError(t, err)
	require.Equal(t, userID, refreshToken.UserID)
}

func TestService_GetUserIDByRefreshToken(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := newTestService(&stubQuerier{
		getUserIDByTokenIDFunc: func(_ context.Context, _ uuid.UUID) (uuid.UUID, error) {
			return userID, nil
		},
	}, time.Hour)

	found, err := svc.GetUserIDByRefreshToken(context.Background(), uuid.New())

	require.NoError(t, err)
	require.Equal(t, userID, found)
}

func TestService_GetUserIDByRefreshTokenUnknown(t *testing.T) {
	t.Parallel()

	svc := newTestService(&stubQuerier{
		getUserIDByTokenIDFunc: func(_ context.Context, _ uuid.UUID) (uuid.UUID, error) {
			return uuid.UUID{}, pgx.ErrNoRows
		},
	}, time.Hour)

	_, err := svc.GetUserIDByRefreshToken(context.Background(), uuid.New())

	require.ErrorIs(t, err, internal.ErrInvalidRefreshToken)
}
