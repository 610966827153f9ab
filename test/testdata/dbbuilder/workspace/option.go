package workspacebuilder

import (
	"github.com/google/uuid"
)

type Option func(*FactoryParams)

func WithName(name string) Option {
	return func(p *FactoryParams) {
		p.Name = name
	}
}

func WithSlug(slug string) Option {
	return func(p *FactoryParams) {
		p.Slug = slug
	}
}

func WithOwner(ownerID uuid.UUID) Option {
	return func(p *FactoryParams) {
		p.OwnerID = ownerID
	}
}
