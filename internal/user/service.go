package user

import (
	"context"
	"errors"
	"net/url"

	"github.com/sheikharifulislam/OpnForm/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	ExistsByID(ctx context.Context, id uuid.UUID) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	Create(ctx context.Context, arg CreateParams) (User, error)
	Update(ctx context.Context, arg UpdateParams) (User, error)
	DisableTwoFactor(ctx context.Context, id uuid.UUID) error
}

type Service struct {
	logger  *zap.Logger
	queries Querier
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db internal.DBTX) *Service {
	return &Service{
		logger:  logger,
		queries: New(db),
		tracer:  otel.Tracer("user/service"),
	}
}

func (s *Service) ExistsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	traceCtx, span := s.tracer.Start(ctx, "ExistsByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	exists, err := s.queries.ExistsByID(traceCtx, id)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check user existence")
		span.RecordError(err)
		return false, err
	}
	return exists, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	currentUser, err := s.queries.GetByID(traceCtx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, internal.ErrUserNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get user by id")
		span.RecordError(err)
		return User{}, err
	}
	return currentUser, nil
}

func (s *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "GetByEmail")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	currentUser, err := s.queries.GetByEmail(traceCtx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, internal.ErrUserNotFound
		}
		err = databaseutil.WrapDBErrorWithKeyValue(err, "users", "email", email, logger, "get user by email")
		span.RecordError(err)
		return User{}, err
	}
	return currentUser, nil
}

func resolveAvatarURL(name, avatarURL string) string {
	if avatarURL == "" {
		return "https://ui-avatars.com/api/?name=" + url.QueryEscape(name)
	}
	return avatarURL
}

// FindOrCreate resolves a user by email, creating one on first SSO login and
// refreshing the profile fields on every later login.
func (s *Service) FindOrCreate(ctx context.Context, name, email, avatarURL string) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "FindOrCreate")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	avatarURL = resolveAvatarURL(name, avatarURL)

	existing, err := s.queries.GetByEmail(traceCtx, email)
	if err == nil {
		updated, err := s.queries.Update(traceCtx, UpdateParams{
			ID:        existing.ID,
			Name:      name,
			AvatarURL: pgtype.Text{String: avatarURL, Valid: avatarURL != ""},
		})
		if err != nil {
			err = databaseutil.WrapDBError(err, logger, "update existing user")
			span.RecordError(err)
			return User{}, err
		}
		return updated, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		err = databaseutil.WrapDBError(err, logger, "get user by email")
		span.RecordError(err)
		return User{}, err
	}

	logger.Debug("User not found, creating new user", zap.String("email", email))

	newUser, err := s.queries.Create(traceCtx, CreateParams{
		Name:      name,
		Email:     email,
		AvatarURL: pgtype.Text{String: avatarURL, Valid: avatarURL != ""},
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create user")
		span.RecordError(err)
		return User{}, err
	}

	logger.Info("user created", zap.String("user_id", newUser.ID.String()))
	return newUser, nil
}

func (s *Service) UpdateProfile(ctx context.Context, arg UpdateParams) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "UpdateProfile")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	updated, err := s.queries.Update(traceCtx, arg)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "update user profile")
		span.RecordError(err)
		return User{}, err
	}
	return updated, nil
}

// DisableTwoFactor removes a user's two-factor secret. Admin accounts are
// protected unless allowAdmin is set.
func (s *Service) DisableTwoFactor(ctx context.Context, email string, allowAdmin bool) (User, error) {
	traceCtx, span := s.tracer.Start(ctx, "DisableTwoFactor")
	defer span.End()
	logger := logutil.WithContext(traceCtx, s.logger)

	currentUser, err := s.GetByEmail(traceCtx, email)
	if err != nil {
		span.RecordError(err)
		return User{}, err
	}

	if !currentUser.HasTwoFactor() {
		return User{}, internal.ErrTwoFactorNotEnabled
	}
	if currentUser.Admin && !allowAdmin {
		return User{}, internal.ErrAdminTwoFactorProtected
	}

	if err := s.queries.DisableTwoFactor(traceCtx, currentUser.ID); err != nil {
		err = databaseutil.WrapDBErrorWithKeyValue(err, "users", "id", currentUser.ID.String(), logger, "disable two factor")
		span.RecordError(err)
		return User{}, err
	}

	logger.Info("two factor disabled",
		zap.String("user_id", currentUser.ID.String()),
		zap.Bool("admin", currentUser.Admin))

	currentUser.TwoFactorSecret = pgtype.Text{}
	return currentUser, nil
}
