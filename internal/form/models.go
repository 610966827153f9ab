package form

import (
	"fmt"
	"strings"

	"github.com/sheikharifulislam/OpnForm/internal/form/property"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type Visibility string

const (
	VisibilityPublic Visibility = "public"
	VisibilityDraft  Visibility = "draft"
	VisibilityClosed Visibility = "closed"
)

type Form struct {
	ID                       uuid.UUID          `json:"id"`
	WorkspaceID              uuid.UUID          `json:"workspace_id"`
	CreatorID                uuid.UUID          `json:"creator_id"`
	Title                    string             `json:"title"`
	Slug                     string             `json:"slug"`
	Properties               []map[string]any   `json:"properties"`
	Visibility               Visibility         `json:"visibility"`
	EditableSubmissions      bool               `json:"editable_submissions"`
	EnablePartialSubmissions bool               `json:"enable_partial_submissions"`
	RemovedProperties        []map[string]any   `json:"removed_properties,omitempty"`
	CreatedAt                pgtype.Timestamptz `json:"created_at"`
	UpdatedAt                pgtype.Timestamptz `json:"updated_at"`
}

type CreateParams struct {
	WorkspaceID              uuid.UUID
	CreatorID                uuid.UUID
	Title                    string
	Slug                     string
	Properties               []map[string]any
	Visibility               Visibility
	EditableSubmissions      bool
	EnablePartialSubmissions bool
}

type UpdateParams struct {
	ID                       uuid.UUID
	Title                    string
	Slug                     string
	Properties               []map[string]any
	Visibility               Visibility
	EditableSubmissions      bool
	EnablePartialSubmissions bool
	RemovedProperties        []map[string]any
}

// ValidationError carries the full field error map collected by the property
// rule, so the response can report every failing block at once.
type ValidationError struct {
	Errors property.FieldErrors
}

func (e *ValidationError) Error() string {
	return "The given data was invalid."
}

// GenerateSlug derives a URL slug from the form title with a short random
// suffix to keep slugs unique across workspaces.
func GenerateSlug(title string) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return '-'
		}
	}, title)
	base = strings.Trim(base, "-")
	for strings.Contains(base, "--") {
		base = strings.ReplaceAll(base, "--", "-")
	}
	if base == "" {
		base = "form"
	}
	return fmt.Sprintf("%s-%s", base, uuid.NewString()[:8])
}
