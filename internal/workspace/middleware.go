package workspace

import (
	"context"
	"net/http"

	"github.com/sheikharifulislam/OpnForm/internal"

	databaseutil "github.com/NYCU-SDC/summer/pkg/database"
	handlerutil "github.com/NYCU-SDC/summer/pkg/handler"
	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"github.com/NYCU-SDC/summer/pkg/problem"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type resolver interface {
	GetBySlug(ctx context.Context, slug string) (Workspace, error)
}

type Middleware struct {
	tracer trace.Tracer
	logger *zap.Logger
	dbPool *pgxpool.Pool

	resolver resolver
}

func NewMiddleware(
	logger *zap.Logger,
	dbPool *pgxpool.Pool,

	resolver resolver,
) *Middleware {
	return &Middleware{
		tracer:   otel.Tracer("workspace/middleware"),
		logger:   logger,
		dbPool:   dbPool,
		resolver: resolver,
	}
}

func (m *Middleware) Middleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		traceCtx, span := m.tracer.Start(r.Context(), "WorkspaceMiddleware")
		defer span.End()
		logger := logutil.WithContext(traceCtx, m.logger)

		slug := r.PathValue("slug")
		if slug == "" {
			logger.Error("Workspace slug is empty", zap.String("path", r.URL.Path))
			problem.New().WriteError(traceCtx, w, handlerutil.ErrInternalServer, logger)
			return
		}

		ws, err := m.resolver.GetBySlug(traceCtx, slug)
		if err != nil {
			err = databaseutil.WrapDBErrorWithKeyValue(err, "workspaces", "slug", slug, logger, "get workspace by slug")
			span.RecordError(err)
			problem.New().WriteError(traceCtx, w, err, logger)
			return
		}

		ctx := context.WithValue(traceCtx, internal.WorkspaceIDContextKey, ws.ID)
		ctx = context.WithValue(ctx, internal.WorkspaceSlugContextKey, slug)
		ctx = context.WithValue(ctx, internal.DBConnectionKey, internal.DBTX(m.dbPool))

		next(w, r.WithContext(ctx))
	}
}
