package gotrue

import (
	"context"
	"net/http"

	"golang.org/x/oauth2/clientcredentials"
)

// Client talks to a GoTrue-compatible hosted auth service. Administrative
// endpoints are called with a client-credentials token; password logins go
// through the public token endpoint with the anon client.
type Client struct {
	BaseURL     string
	OAuthConfig *clientcredentials.Config
	AdminClient *http.Client
	AuthClient  *http.Client
}

func NewClient(baseUrl string, clientId string, clientSecret string, scopes []string) *Client {

	oauthConfig := &clientcredentials.Config{
		ClientID:     clientId,
		ClientSecret: clientSecret,
		TokenURL:     baseUrl + "/oauth/token",
		Scopes:       scopes,
	}

	return &Client{
		BaseURL:     baseUrl,
		OAuthConfig: oauthConfig,
		AdminClient: oauthConfig.Client(context.Background()),
		AuthClient:  &http.Client{},
	}
}
