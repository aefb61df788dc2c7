package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse represents a login response
type LoginResponse struct {
	Token     string        `json:"access_token"`
	TokenType string        `json:"token_type,omitempty"`
	ExpiresAt time.Time     `json:"expires_at,omitempty"`
	User      *PlatformUser `json:"user,omitempty"`
}

// ChangePasswordRequest represents a password change of the signed-in operator
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,nefield=CurrentPassword"`
}

// UpdateSettingsRequest represents a change to account settings
type UpdateSettingsRequest struct {
	FullName       *string `json:"full_name,omitempty"`
	NotifyEmail    *bool   `json:"notify_email,omitempty"`
	NotifyTelegram *bool   `json:"notify_telegram,omitempty"`
	Timezone       *string `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// SettingsService handles the signed-in operator's account settings
type SettingsService struct {
	client *Client
}

// Login authenticates with email and password and stores the returned token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	req := LoginRequest{
		Email:    email,
		Password: password,
	}

	var resp LoginResponse
	if err := c.doPublic(ctx, http.MethodPost, "/api/v1/auth/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: login response carried no token", ErrAuth)
	}

	if err := c.SetToken(resp.Token); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	return &resp, nil
}

// GetCurrentUser retrieves the currently authenticated operator
func (c *Client) GetCurrentUser(ctx context.Context) (*PlatformUser, error) {
	var user PlatformUser
	if err := c.doRequest(ctx, http.MethodGet, "/api/v1/auth/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the session and clears the stored token.
// The token is cleared even when the backend call fails.
func (c *Client) Logout(ctx context.Context) error {
	err := c.doRequest(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
	if clearErr := c.SetToken(""); clearErr != nil {
		return fmt.Errorf("failed to clear token: %w", clearErr)
	}
	return err
}

// Get retrieves account settings
func (s *SettingsService) Get(ctx context.Context) (*AccountSettings, error) {
	var settings AccountSettings
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Update changes account settings
func (s *SettingsService) Update(ctx context.Context, req UpdateSettingsRequest) (*AccountSettings, error) {
	var settings AccountSettings
	if err := s.client.doRequest(ctx, http.MethodPatch, "/api/v1/settings", req, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// ChangePassword changes the operator's password
func (s *SettingsService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	return s.client.doRequest(ctx, http.MethodPost, "/api/v1/settings/password", req, nil)
}
