package oidc

import (
	"context"
	"errors"
	"strings"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/user"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type Querier interface {
	GetBySubject(ctx context.Context, connectionID string, subject string) (Identity, error)
	Upsert(ctx context.Context, arg UpsertParams) (Identity, error)
}

type Service struct {
	logger  *zap.Logger
	queries Querier
	tokens  *LinkTokenCache
	tracer  trace.Tracer
}

func NewService(logger *zap.Logger, db internal.DBTX, tokens *LinkTokenCache) *Service {
	return &Service{
		logger:  logger,
		queries: New(db),
		tokens:  tokens,
		tracer:  otel.Tracer("oidc/service"),
	}
}

// FindIdentity resolves an already linked identity during SSO login.
func (s *Service) FindIdentity(ctx context.Context, connectionID string, subject string) (Identity, error) {
	ctx, span := s.tracer.Start(ctx, "FindIdentity")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	identity, err := s.queries.GetBySubject(ctx, connectionID, subject)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Identity{}, internal.ErrNotFound
		}
		err = databaseutil.WrapDBError(err, logger, "get identity by subject")
		span.RecordError(err)
		return Identity{}, err
	}

	return identity, nil
}

// LinkIdentity attaches an SSO identity to a user directly, for accounts
// created by the SSO flow itself where no confirmation is needed.
func (s *Service) LinkIdentity(ctx context.Context, userID uuid.UUID, connectionID string, claims Claims) (Identity, error) {
	ctx, span := s.tracer.Start(ctx, "LinkIdentity")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	identity, err := s.queries.Upsert(ctx, UpsertParams{
		UserID:       userID,
		ConnectionID: connectionID,
		Subject:      claims.Sub,
		Email:        claims.Email,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "upsert identity")
		span.RecordError(err)
		return Identity{}, err
	}

	return identity, nil
}

// BeginLink records a pending link request after an SSO callback matched an
// existing account by email, and returns the single-use confirmation token.
func (s *Service) BeginLink(ctx context.Context, connectionID string, claims Claims) (string, error) {
	_, span := s.tracer.Start(ctx, "BeginLink")
	defer span.End()

	token, err := s.tokens.Issue(LinkRequest{
		Email:        claims.Email,
		ConnectionID: connectionID,
		Subject:      claims.Sub,
	})
	if err != nil {
		span.RecordError(err)
		return "", err
	}

	s.logger.Info("link request issued",
		zap.String("connection_id", connectionID),
		zap.String("email", claims.Email))

	return token, nil
}

// ConfirmLink consumes a link token and attaches the SSO identity to the
// authenticated user. The token must still be alive, the pending email must
// match the user's, and the identity must not already belong to someone else.
func (s *Service) ConfirmLink(ctx context.Context, currentUser user.User, token string) (Identity, error) {
	ctx, span := s.tracer.Start(ctx, "ConfirmLink")
	defer span.End()
	logger := logutil.WithContext(ctx, s.logger)

	req, ok := s.tokens.Consume(token)
	if !ok {
		return Identity{}, internal.ErrLinkTokenExpired
	}

	if !strings.EqualFold(req.Email, currentUser.Email) {
		logger.Warn("link request email mismatch",
			zap.String("connection_id", req.ConnectionID),
			zap.String("user_id", currentUser.ID.String()))
		return Identity{}, internal.ErrLinkEmailMismatch
	}

	existing, err := s.queries.GetBySubject(ctx, req.ConnectionID, req.Subject)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		err = databaseutil.WrapDBError(err, logger, "get identity by subject")
		span.RecordError(err)
		return Identity{}, err
	}
	if err == nil && existing.UserID != currentUser.ID {
		return Identity{}, internal.ErrIdentityAlreadyLinked
	}

	identity, err := s.queries.Upsert(ctx, UpsertParams{
		UserID:       currentUser.ID,
		ConnectionID: req.ConnectionID,
		Subject:      req.Subject,
		Email:        req.Email,
	})
	if err != nil {
		err = databaseutil.WrapDBError(err, logger, "upsert identity")
		span.RecordError(err)
		return Identity{}, err
	}

	logger.Info("identity linked",
		zap.String("connection_id", identity.ConnectionID),
		zap.String("user_id", identity.UserID.String()))

	return identity, nil
}
