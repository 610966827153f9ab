package internal

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type contextKey string

var (
	UserContextKey          contextKey = "user"
	WorkspaceIDContextKey   contextKey = "workspace-id"
	WorkspaceSlugContextKey contextKey = "workspace-slug"
	DBConnectionKey         contextKey = "database-connection"
)

type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

func ParseUUID(value string) (uuid.UUID, error) {
	parsedUUID, err := uuid.Parse(value)
	if err != nil {
		return parsedUUID, fmt.Errorf("failed to parse UUID: %w", err)
	}

	return parsedUUID, nil
}

func GetDBTXFromContext(ctx context.Context) (DBTX, error) {
	conn, ok := ctx.Value(DBConnectionKey).(DBTX)
	if !ok {
		return nil, fmt.Errorf("database connection not found in context")
	}
	return conn, nil
}

func GetWorkspaceIDFromContext(ctx context.Context) (uuid.UUID, error) {
	id, ok := ctx.Value(WorkspaceIDContextKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, fmt.Errorf("workspace id not found in context")
	}
	return id, nil
}
