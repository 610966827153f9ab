package internal

import (
	"context"

	logutil "github.com/NYCU-SDC/summer/pkg/log"
	"go.uber.org/zap"
)

// WithContext parses the context and adds the workspace ID and slug to the logger if available
func WithContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	logger = logutil.WithContext(ctx, logger)
	if ctx == nil {
		return logger
	}

	workspaceID, ok := ctx.Value(WorkspaceIDContextKey).(string)
	if ok && workspaceID != "" {
		logger = logger.With(zap.String("workspace_id", workspaceID))
	}

	workspaceSlug, ok := ctx.Value(WorkspaceSlugContextKey).(string)
	if ok && workspaceSlug != "" {
		logger = logger.With(zap.String("workspace_slug", workspaceSlug))
	}

	return logger
}
