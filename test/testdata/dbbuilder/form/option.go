package formbuilder

import (
	"github.com/sheikharifulislam/OpnForm/internal/form"

	"github.com/google/uuid"
)

type Option func(*FactoryParams)

type FactoryParams struct {
	WorkspaceID              uuid.UUID
	CreatorID                uuid.UUID
	Title                    string
	Slug                     string
	Properties               []map[string]any
	Visibility               form.Visibility
	EditableSubmissions      bool
	EnablePartialSubmissions bool
}

func WithWorkspace(workspaceID uuid.UUID) Option {
	return func(p *FactoryParams) { p.WorkspaceID = workspaceID }
}

func WithCreator(creatorID uuid.UUID) Option {
	return func(p *FactoryParams) { p.CreatorID = creatorID }
}

func WithTitle(title string) Option {
	return func(p *FactoryParams) { p.Title = title }
}

func WithSlug(slug string) Option {
	return func(p *FactoryParams) { p.Slug = slug }
}

func WithProperties(properties []map[string]any) Option {
	return func(p *FactoryParams) { p.Properties = properties }
}

func WithVisibility(visibility form.Visibility) Option {
	return func(p *FactoryParams) { p.Visibility = visibility }
}

func WithEditableSubmissions(editable bool) Option {
	return func(p *FactoryParams) { p.EditableSubmissions = editable }
}

func WithPartialSubmissions(enabled bool) Option {
	return func(p *FactoryParams) { p.EnablePartialSubmissions = enabled }
}
