package submission

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Submission is one stored form submission. Key is the numeric primary key
// the legacy hash derives from; PublicID is the current identifier and is
// null only on rows created before the UUID migration.
type Submission struct {
	Key         int64
	FormID      uuid.UUID
	PublicID    pgtype.UUID
	Data        map[string]any
	IsPartial   bool
	SubmitterIP pgtype.Text
	CreatedAt   pgtype.Timestamptz
	UpdatedAt   pgtype.Timestamptz
}

// HasPublicID reports whether the submission already migrated to the UUID
// format.
func (s Submission) HasPublicID() bool {
	return s.PublicID.Valid
}

type CreateParams struct {
	FormID      uuid.UUID
	PublicID    uuid.UUID
	Data        map[string]any
	IsPartial   bool
	SubmitterIP pgtype.Text
}

type UpdateParams struct {
	Key       int64
	Data      map[string]any
	IsPartial bool
}
