package authgrpc

import "context"

// SocialIdentity is what a provider's token exchange resolves to.
type SocialIdentity struct {
	ProviderID   string
	Email        string
	ProfileImage string
}

// SocialExchanger exchanges a third-party provider token for a stable
// identity, backing spec.md §6's social_accounts collaborator table.
// Concrete providers (e.g. OAuth2 code exchange against an external
// IdP) implement this; no provider is wired by default.
type SocialExchanger interface {
	Exchange(ctx context.Context, provider, providerToken string) (SocialIdentity, error)
}

// noSocial rejects every exchange; NewService falls back to it when
// given a nil SocialExchanger, and cmd/gameserver always wires it.
type noSocial struct{}

// NewNoSocialExchanger returns a SocialExchanger that always fails,
// used when social login is not configured.
func NewNoSocialExchanger() SocialExchanger { return noSocial{} }

func (noSocial) Exchange(ctx context.Context, provider, providerToken string) (SocialIdentity, error) {
	return SocialIdentity{}, ErrSocialNotConfigured
}
