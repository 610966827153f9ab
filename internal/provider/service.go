package provider

import (
	"context"
	"errors"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/form/property"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (Provider, error)
	GetByID(ctx context.Context, id uuid.UUID) (Provider, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Provider, error)
	BelongsToWorkspace(ctx context.Context, providerID uuid.UUID, workspaceID uuid.UUID) (bool, error)
	Delete(ctx context.Context, id uuid.UUID, userID uuid.UUID) error
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
		tracer:  otel.Tracer("provider/service"),
	}
}

func (s *Service) Connect(ctx context.Context, arg CreateParams) (Provider, error) {
	ctx, span := s.tracer.Start(ctx, "Connect")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	created, err := s.queries.Create(ctx, arg)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create provider")
		span.RecordError(err)
		return Provider{}, err
	}

	logger.Info("provider connected",
		zap.String("provider_id", created.ID.String()),
		zap.String("type", created.Type),
		zap.String("user_id", created.UserID.String()))

	return created, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (Provider, error) {
	ctx, span := s.tracer.Start(ctx, "Get")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	found, err := s.queries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Provider{}, internal.ErrProviderNotFound
		}
		err = databaseutil.WrapDBErrorWithKeyValue(err, "oauth_providers", "id", id.String(), logger, "get provider by id")
		span.RecordError(err)
		return Provider{}, err
	}

	return found, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Provider, error) {
	ctx, span := s.tracer.Start(ctx, "ListForUser")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	providers, err := s.queries.ListByUser(ctx, userID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list providers for user")
		span.RecordError(err)
		return nil, err
	}

	return providers, nil
}

func (s *Service) Disconnect(ctx context.Context, id uuid.UUID, userID uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "Disconnect")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	if err := s.queries.Delete(ctx, id, userID); err != nil {
		err = databaseutil.WrapDBError(err, logger, "delete provider")
		span.RecordError(err)
		return err
	}

	return nil
}

// GetByID adapts the provider record to the shape the payment validator
// expects, so Service satisfies property.ProviderStore.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (property.StripeAccount, error) {
	found, err := s.Get(ctx, id)
	if err != nil {
		return property.StripeAccount{}, err
	}
	return property.StripeAccount{
		ID:             found.ID,
		Provider:       found.Type,
		ProviderUserID: found.ProviderUserID,
	}, nil
}

func (s *Service) BelongsToWorkspace(ctx context.Context, providerID uuid.UUID, workspaceID uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "BelongsToWorkspace")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	ok, err := s.queries.BelongsToWorkspace(ctx, providerID, workspaceID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "check provider workspace association")
		span.RecordError(err)
		return false, err
	}

	return ok, nil
}
