package form

import (
	"context"
	"errors"
	"fmt"
	"strings"

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
	Create(ctx context.Context, arg CreateParams) (Form, error)
	Update(ctx context.Context, arg UpdateParams) (Form, error)
	Delete(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (Form, error)
	GetBySlug(ctx context.Context, slug string) (Form, error)
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Form, error)
}

type Service struct {
	logger   *zap.Logger
	queries  Querier
	rule     *property.Rule
	frontURL string
	tracer   trace.Tracer
}

func NewService(logger *zap.Logger, db internal.DBTX, rule *property.Rule, frontURL string) *Service {
	return &Service{
		logger:   logger,
		queries:  New(db),
		rule:     rule,
		frontURL: strings.TrimSuffix(frontURL, "/"),
		tracer:   otel.Tracer("form/service"),
	}
}

func (s *Service) Create(ctx context.Context, arg CreateParams) (Form, error) {
	ctx, span := s.tracer.Start(ctx, "Create")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	if err := s.validateProperties(ctx, arg.Properties, arg.WorkspaceID); err != nil {
		span.RecordError(err)
		return Form{}, err
	}

	if arg.Slug == "" {
		arg.Slug = GenerateSlug(arg.Title)
	}
	if arg.Visibility == "" {
		arg.Visibility = VisibilityDraft
	}

	created, err := s.queries.Create(ctx, arg)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create form")
		span.RecordError(err)
		return Form{}, err
	}

	logger.Info("form created",
		zap.String("form_id", created.ID.String()),
		zap.String("slug", created.Slug),
		zap.String("workspace_id", created.WorkspaceID.String()))

	return created, nil
}

func (s *Service) Update(ctx context.Context, arg UpdateParams, workspaceID uuid.UUID) (Form, error) {
	ctx, span := s.tracer.Start(ctx, "Update")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	if err := s.validateProperties(ctx, arg.Properties, workspaceID); err != nil {
		span.RecordError(err)
		return Form{}, err
	}

	current, err := s.GetByID(ctx, arg.ID)
	if err != nil {
		span.RecordError(err)
		return Form{}, err
	}

	if arg.Slug == "" {
		arg.Slug = current.Slug
	}
	if arg.Visibility == "" {
		arg.Visibility = current.Visibility
	}
	arg.RemovedProperties = mergeRemovedProperties(current, arg.Properties)

	updated, err := s.queries.Update(ctx, arg)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "update form")
		span.RecordError(err)
		return Form{}, err
	}

	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "Delete")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	err := s.queries.Delete(ctx, id)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "delete form")
		span.RecordError(err)
		return err
	}

	return nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (Form, error) {
	ctx, span := s.tracer.Start(ctx, "GetByID")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	current, err := s.queries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Form{}, internal.ErrFormNotFound
		}
		err = databaseutil.WrapDBErrorWithKeyValue(err, "forms", "id", id.String(), logger, "get form by id")
		span.RecordError(err)
		return Form{}, err
	}

	return current, nil
}

// GetPublic resolves a form by its share slug for the unauthenticated fill
// path. Draft and closed forms are not served.
func (s *Service) GetPublic(ctx context.Context, slug string) (Form, error) {
	ctx, span := s.tracer.Start(ctx, "GetPublic")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	current, err := s.queries.GetBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Form{}, internal.ErrFormNotFound
		}
		err = databaseutil.WrapDBErrorWithKeyValue(err, "forms", "slug", slug, logger, "get form by slug")
		span.RecordError(err)
		return Form{}, err
	}

	if current.Visibility != VisibilityPublic {
		return Form{}, internal.ErrFormNotPublic
	}

	return current, nil
}

func (s *Service) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]Form, error) {
	ctx, span := s.tracer.Start(ctx, "ListByWorkspace")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	forms, err := s.queries.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list forms by workspace")
		span.RecordError(err)
		return nil, err
	}

	return forms, nil
}

// ShareURL is the public fill URL for a form.
func (s *Service) ShareURL(f Form) string {
	return fmt.Sprintf("%s/forms/%s", s.frontURL, f.Slug)
}

func (s *Service) validateProperties(ctx context.Context, properties []map[string]any, workspaceID uuid.UUID) error {
	fieldErrors, err := s.rule.Validate(ctx, properties, &property.Context{WorkspaceID: workspaceID})
	if err != nil {
		if errors.Is(err, property.ErrPropertiesInvalid) {
			return &ValidationError{Errors: fieldErrors}
		}
		return err
	}
	return nil
}

// mergeRemovedProperties keeps blocks that existed on the stored form but are
// absent from the incoming property set, so submissions referencing them stay
// exportable.
func mergeRemovedProperties(current Form, incoming []map[string]any) []map[string]any {
	kept := make(map[string]struct{}, len(incoming))
	for _, prop := range incoming {
		if id, ok := prop["id"].(string); ok {
			kept[id] = struct{}{}
		}
	}

	removed := current.RemovedProperties
	for _, prop := range current.Properties {
		id, ok := prop["id"].(string)
		if !ok {
			continue
		}
		if _, stillThere := kept[id]; !stillThere {
			removed = append(removed, prop)
		}
	}
	return removed
}
