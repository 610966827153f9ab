package userbuilder

type Option func(*FactoryParams)

func WithName(name string) Option {
	return func(p *FactoryParams) {
		p.Name = name
	}
}

func WithEmail(email string) Option {
	return func(p *FactoryParams) {
		p.Email = email
	}
}

func WithAvatarURL(avatarURL string) Option {
	return func(p *FactoryParams) {
		p.AvatarURL = avatarURL
	}
}
