package jwt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sheikharifulislam/OpnForm/internal"
	"github.com/sheikharifulislam/OpnForm/internal/user"

	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (user.User, error)
}

type Middleware struct {
	logger        *zap.Logger
	problemWriter *problem.HttpWriter
	service       *Service
	userStore     UserStore
	tracer        trace.Tracer
}

func NewMiddleware(
	logger *zap.Logger,
	problemWriter *problem.HttpWriter,
	service *Service,
	userStore UserStore,
) *Middleware {
	return &Middleware{
		logger:        logger,
		problemWriter: problemWriter,
		service:       service,
		userStore:     userStore,
		tracer:        otel.Tracer("jwt/middleware"),
	}
}

// AuthenticateMiddleware validates JWT token and adds user to context
func (m *Middleware) AuthenticateMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceCtx, span := m.tracer.Start(r.Context(), "AuthenticateMiddleware")
		defer span.End()

		accessTokenCookie, err := r.Cookie("access_token")
		if err != nil {
			m.logger.Error("Missing access token cookie")
			m.problemWriter.WriteError(traceCtx, w, internal.ErrMissingAuthHeader, m.logger)
			span.RecordError(internal.ErrMissingAuthHeader)
			return
		}

		tokenString := accessTokenCookie.Value
		if tokenString == "" {
			m.logger.Error("Empty access token cookie")
			m.problemWriter.WriteError(traceCtx, w, internal.ErrInvalidAuthHeaderFormat, m.logger)
			span.RecordError(internal.ErrInvalidAuthHeaderFormat)
			return
		}

		jwtUser, err := m.service.Parse(r.Context(), tokenString)
		if err != nil {
			m.logger.Error("Failed to parse JWT token", zap.Error(err))
			m.problemWriter.WriteError(traceCtx, w, fmt.Errorf("%w: %v", internal.ErrInvalidJWTToken, err), m.logger)
			span.RecordError(err)
			return
		}

		authenticatedUser, err := m.userStore.GetByID(traceCtx, jwtUser.ID)
		if err != nil {
			m.logger.Error("Failed to fetch user data from database", zap.Error(err), zap.String("user_id", jwtUser.ID.String()))
			m.problemWriter.WriteError(traceCtx, w, fmt.Errorf("failed to fetch user data: %v", err), m.logger)
			span.RecordError(err)
			return
		}

		ctxWithUser := context.WithValue(traceCtx, internal.UserContextKey, &authenticatedUser)

		handler(w, r.WithContext(ctxWithUser))
	}
}
