package workspace

import (
	"context"
	"errors"

	"github.com/sheikharifulislam/OpnForm/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	Create(ctx context.Context, arg CreateParams) (Workspace, error)
	GetByID(ctx context.Context, id uuid.UUID) (Workspace, error)
	GetBySlug(ctx context.Context, slug string) (Workspace, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]Workspace, error)
	GetMemberRole(ctx context.Context, workspaceID uuid.UUID, userID uuid.UUID) (Role, error)
	AddMember(ctx context.Context, workspaceID uuid.UUID, userID uuid.UUID, role Role) error
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
		tracer:  otel.Tracer("workspace/service"),
	}
}

func (s *Service) Create(ctx context.Context, arg CreateParams) (Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "Create")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	created, err := s.queries.Create(ctx, arg)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create workspace")
		span.RecordError(err)
		return Workspace{}, err
	}

	if err := s.queries.AddMember(ctx, created.ID, arg.OwnerID, RoleAdmin); err != nil {
		err = databaseutil.WrapDBError(err, logger, "add workspace owner as admin")
		span.RecordError(err)
		return Workspace{}, err
	}

	logger.Info("workspace created", zap.String("workspace_id", created.ID.String()), zap.String("slug", created.Slug))

	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	found, err := s.queries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, internal.ErrWorkspaceNotFound
		}
		err = databaseutil.WrapDBErrorWithKeyValue(err, "workspaces", "id", id.String(), logger, "get workspace by id")
		span.RecordError(err)
		return Workspace{}, err
	}

	return found, nil
}

func (s *Service) GetBySlug(ctx context.Context, slug string) (Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "GetBySlug")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	found, err := s.queries.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Workspace{}, internal.ErrWorkspaceNotFound
		}
		err = databaseutil.WrapDBErrorWithKeyValue(err, "workspaces", "slug", slug, logger, "get workspace by slug")
		span.RecordError(err)
		return Workspace{}, err
	}

	return found, nil
}

func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]Workspace, error) {
	ctx, span := s.tracer.Start(ctx, "ListForUser")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	workspaces, err := s.queries.ListByUser(ctx, userID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list workspaces for user")
		span.RecordError(err)
		return nil, err
	}

	return workspaces, nil
}

// IsAdmin reports whether the user holds the admin role in the workspace.
// Non-members are simply not admins, not an error.
func (s *Service) IsAdmin(ctx context.Context, workspaceID uuid.UUID, userID uuid.UUID) (bool, error) {
	ctx, span := s.tracer.Start(ctx, "IsAdmin")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	role, err := s.queries.GetMemberRole(ctx, workspaceID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, nil
		}
		err = databaseutil.WrapDBError(err, logger, "get workspace member role")
		span.RecordError(err)
		return false, err
	}

	return role == RoleAdmin, nil
}
