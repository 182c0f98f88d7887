package idpfactory

import (
	"errors"

	"github.com/pwaburton/portal-backend/idp"
	"github.com/pwaburton/portal-backend/idp/gotrue"
)

type FactoryConfig struct {
	ProviderType idp.ProviderType
	BaseURL      string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func NewIdpAPIProvider(cfg FactoryConfig) (idp.IdentityProviderAPI, error) {
	switch cfg.ProviderType {
	case idp.ProviderGoTrue:
		return gotrue.NewClient(cfg.BaseURL, cfg.ClientID, cfg.ClientSecret, cfg.Scopes), nil
	default:
		return nil, errors.New("unsupported provider type")
	}
}
