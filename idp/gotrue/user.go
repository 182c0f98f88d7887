package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pwaburton/portal-backend/idp"
)

type userMetadata struct {
	FullName string `json:"full_name,omitempty"`
}

type createUserRequestBody struct {
	Email        string       `json:"email"`
	Password     string       `json:"password,omitempty"`
	EmailConfirm bool         `json:"email_confirm"`
	UserMetadata userMetadata `json:"user_metadata"`
}

type userResponseBody struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	UserMetadata userMetadata `json:"user_metadata"`
}

// CreateUser provisions a user via the admin API
func (c *Client) CreateUser(ctx context.Context, user *idp.User) (*idp.UserInfo, error) {
	url := fmt.Sprintf("%s/admin/users", c.BaseURL)

	body, err := json.Marshal(createUserRequestBody{
		Email:        user.Email,
		Password:     user.Password,
		EmailConfirm: true,
		UserMetadata: userMetadata{FullName: user.FullName},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.AdminClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create user, status code: %d", res.StatusCode)
	}

	var response userResponseBody
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &idp.UserInfo{
		Id:       response.ID,
		Email:    response.Email,
		FullName: response.UserMetadata.FullName,
	}, nil
}

// GetUser fetches a user via the admin API
func (c *Client) GetUser(ctx context.Context, userId string) (*idp.UserInfo, error) {
	url := fmt.Sprintf("%s/admin/users/%s", c.BaseURL, userId)

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.AdminClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get user, status code: %d", res.StatusCode)
	}

	var response userResponseBody
	if err := json.NewDecoder(res.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	return &idp.UserInfo{
		Id:       response.ID,
		Email:    response.Email,
		FullName: response.UserMetadata.FullName,
	}, nil
}

// DeleteUser removes a user via the admin API
func (c *Client) DeleteUser(ctx context.Context, userId string) error {
	url := fmt.Sprintf("%s/admin/users/%s", c.BaseURL, userId)

	req, err := http.NewRequestWithContext(ctx, "DELETE", url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	res, err := c.AdminClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNoContent {
		return fmt.Errorf("failed to delete user, status code: %d", res.StatusCode)
	}

	return nil
}
