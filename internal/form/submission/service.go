package submission

import (
	"context"
	"errors"
	"fmt"

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
	Create(ctx context.Context, arg CreateParams) (Submission, error)
	Update(ctx context.Context, arg UpdateParams) (Submission, error)
	GetByPublicID(ctx context.Context, formID uuid.UUID, publicID uuid.UUID) (Submission, error)
	GetByKey(ctx context.Context, formID uuid.UUID, key int64) (Submission, error)
	ListByFormID(ctx context.Context, formID uuid.UUID) ([]Submission, error)
	CountByFormID(ctx context.Context, formID uuid.UUID) (int64, error)
}

type Service struct {
	logger  *zap.Logger
	queries Querier
	codec   *Codec
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db internal.DBTX, codec *Codec) *Service {
	return &Service{
		logger:  logger,
		queries: New(db),
		codec:   codec,
		tracer:  otel.Tracer("submission/service"),
	}
}

// Create stores a new submission. Every new submission receives a generated
// UUID as its public identifier; the legacy hash format is never assigned to
// new rows.
func (s *Service) Create(ctx context.Context, arg CreateParams) (Submission, error) {
	ctx, span := s.tracer.Start(ctx, "Create")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	arg.PublicID = uuid.New()

	created, err := s.queries.Create(ctx, arg)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "create submission")
		span.RecordError(err)
		return Submission{}, err
	}

	return created, nil
}

// Update overwrites an existing submission's answers, resolving the caller's
// raw identifier first. Callers must already have checked the form allows
// editable submissions.
func (s *Service) Update(ctx context.Context, formID uuid.UUID, rawIdentifier string, data map[string]any, isPartial bool) (Submission, error) {
	ctx, span := s.tracer.Start(ctx, "Update")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	existing, err := s.Resolve(ctx, formID, rawIdentifier)
	if err != nil {
		span.RecordError(err)
		return Submission{}, err
	}

	updated, err := s.queries.Update(ctx, UpdateParams{Key: existing.Key, Data: data, IsPartial: isPartial})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "update submission")
		span.RecordError(err)
		return Submission{}, err
	}

	return updated, nil
}

// Resolve looks up a submission by a caller-supplied raw identifier.
//
// A syntactically valid UUID is looked up by public_id exclusively; a miss is
// a hard not-found with no hash fallback. Anything else is decoded as a
// legacy hash and looked up by numeric key, but a submission that already
// carries a public_id is treated as not-found, forcing callers onto the UUID
// form permanently once one has been assigned.
func (s *Service) Resolve(ctx context.Context, formID uuid.UUID, raw string) (Submission, error) {
	ctx, span := s.tracer.Start(ctx, "Resolve")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	identifier, err := s.codec.Parse(raw)
	if err != nil {
		span.RecordError(err)
		return Submission{}, internal.ErrSubmissionNotFound
	}

	switch identifier.Kind {
	case KindUUID:
		found, err := s.queries.GetByPublicID(ctx, formID, identifier.UUID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Submission{}, internal.ErrSubmissionNotFound
			}
			err = databaseutil.WrapDBError(err, logger, "get submission by public id")
			span.RecordError(err)
			return Submission{}, err
		}
		return found, nil

	case KindLegacyHash:
		found, err := s.queries.GetByKey(ctx, formID, identifier.Key)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return Submission{}, internal.ErrSubmissionNotFound
			}
			err = databaseutil.WrapDBError(err, logger, "get submission by legacy key")
			span.RecordError(err)
			return Submission{}, err
		}
		if found.HasPublicID() {
			// One-way migration: the legacy hash stops working the moment a
			// UUID exists.
			return Submission{}, internal.ErrSubmissionNotFound
		}
		return found, nil
	}

	return Submission{}, internal.ErrSubmissionNotFound
}

// Identifier returns the outgoing identifier for a submission: the UUID when
// present, the legacy hash otherwise.
func (s *Service) Identifier(sub Submission) string {
	if sub.HasPublicID() {
		return uuid.UUID(sub.PublicID.Bytes).String()
	}
	return s.codec.Encode(sub.Key)
}

// BuildEditURL builds the shareable edit link for a submission.
func (s *Service) BuildEditURL(shareURL string, sub Submission) string {
	return shareURL + "?submission_id=" + s.Identifier(sub)
}

// ListByFormID returns the completed submissions of a form, newest first.
func (s *Service) ListByFormID(ctx context.Context, formID uuid.UUID) ([]Submission, error) {
	ctx, span := s.tracer.Start(ctx, "ListByFormID")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	submissions, err := s.queries.ListByFormID(ctx, formID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "list submissions by form id")
		span.RecordError(err)
		return nil, err
	}
	return submissions, nil
}

// CountByFormID returns the number of completed submissions for a form.
func (s *Service) CountByFormID(ctx context.Context, formID uuid.UUID) (int64, error) {
	ctx, span := s.tracer.Start(ctx, "CountByFormID")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	count, err := s.queries.CountByFormID(ctx, formID)
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "count submissions by form id")
		span.RecordError(err)
		return 0, err
	}
	return count, nil
}

// HasAnsweredField reports whether at least one property field carries a
// non-empty value. Partial submissions with no answered field are rejected.
func HasAnsweredField(data map[string]any) bool {
	for key, value := range data {
		if _, err := uuid.Parse(key); err != nil {
			continue
		}
		switch v := value.(type) {
		case nil:
			continue
		case string:
			if v != "" {
				return true
			}
		case []any:
			if len(v) > 0 {
				return true
			}
		default:
			return true
		}
	}
	return false
}

// ValidateExportColumns checks that every requested export column references
// a known property id (current or removed) or created_at.
func ValidateExportColumns(columns map[string]bool, properties []property.Property, removed []property.Property) error {
	valid := map[string]struct{}{"created_at": {}}
	for _, prop := range properties {
		if id, ok := prop["id"].(string); ok {
			valid[id] = struct{}{}
		}
	}
	for _, prop := range removed {
		if id, ok := prop["id"].(string); ok {
			valid[id] = struct{}{}
		}
	}

	var invalid []string
	for column := range columns {
		if _, ok := valid[column]; !ok {
			invalid = append(invalid, column)
		}
	}
	if len(invalid) > 0 {
		return fmt.Errorf("%w: %v", internal.ErrInvalidExportColumns, invalid)
	}
	return nil
}
