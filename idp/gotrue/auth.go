package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pwaburton/portal-backend/idp"
)

type passwordGrantRequestBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordGrantResponseBody struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	User        struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	} `json:"user"`
}

// Authenticate verifies an email/password pair via the password grant endpoint
func (c *Client) Authenticate(ctx context.Context, email, password string) (*idp.Session, error) {
	url := fmt.Sprintf("%s/token?grant_type=password", c.BaseURL)

	body, err := json.Marshal(passwordGrantRequestBody{Email: email, Password: password})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.AuthClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusBadRequest || res.StatusCode == http.StatusUnauthorized {
		return nil, idp.ErrInvalidCredentials
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to authenticate, status code: %d", res.StatusCode)
	}

	var response passwordGrantResponseBody
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &idp.Session{
		UserId:      response.User.ID,
		AccessToken: response.AccessToken,
		TokenType:   response.TokenType,
		ExpiresIn:   response.ExpiresIn,
	}, nil
}

type updatePasswordRequestBody struct {
	Password string `json:"password"`
}

// UpdatePassword replaces the password of a provider user via the admin API
func (c *Client) UpdatePassword(ctx context.Context, userId string, newPassword string) error {
	url := fmt.Sprintf("%s/admin/users/%s", c.BaseURL, userId)

	body, err := json.Marshal(updatePasswordRequestBody{Password: newPassword})
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "PUT", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.AdminClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return fmt.Errorf("user not found: %s", userId)
	}
	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to update password, status code: %d", res.StatusCode)
	}

	return nil
}
