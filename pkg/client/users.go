package client

import (
	"context"
	"fmt"
	"net/http"
)

// PlatformUserService handles operator account API calls
type PlatformUserService struct {
	client *Client
}

// CreatePlatformUserRequest represents a request to create an operator account
type CreatePlatformUserRequest struct {
	Email     string `json:"email" validate:"required,email"`
	FullName  string `json:"full_name" validate:"required"`
	Role      string `json:"role" validate:"required,oneof=admin analyst viewer"`
	CompanyID *int64 `json:"company_id,omitempty"`
	Password  string `json:"password" validate:"required,min=8"`
}

// UpdatePlatformUserRequest represents a request to update an operator account.
// A blank Password is dropped from the payload and never overwrites the stored one.
type UpdatePlatformUserRequest struct {
	Email     *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName  *string `json:"full_name,omitempty"`
	Role      *string `json:"role,omitempty" validate:"omitempty,oneof=admin analyst viewer"`
	CompanyID *int64  `json:"company_id,omitempty"`
	Password  *string `json:"password,omitempty" validate:"omitempty,min=8"`
}

// List retrieves operator accounts
func (s *PlatformUserService) List(ctx context.Context, opts *ListOptions) ([]PlatformUser, error) {
	var users []PlatformUser
	if err := s.client.doRequest(ctx, http.MethodGet, listPath("/api/v1/admin/users", opts), nil, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// FetchAll retrieves every operator account
func (s *PlatformUserService) FetchAll(ctx context.Context) ([]PlatformUser, error) {
	return s.List(ctx, nil)
}

// Create creates an operator account
func (s *PlatformUserService) Create(ctx context.Context, req CreatePlatformUserRequest) (*PlatformUser, error) {
	var user PlatformUser
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/admin/users", req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Update updates an operator account
func (s *PlatformUserService) Update(ctx context.Context, id int64, req UpdatePlatformUserRequest) (*PlatformUser, error) {
	var user PlatformUser
	if err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/admin/users/%d", id), req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateStatus activates or suspends an operator account
func (s *PlatformUserService) UpdateStatus(ctx context.Context, id int64, status string) (*PlatformUser, error) {
	var user PlatformUser
	path := fmt.Sprintf("/api/v1/admin/users/%d/status", id)
	if err := s.client.doRequest(ctx, http.MethodPatch, path, statusRequest{Status: status}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Delete deletes an operator account
func (s *PlatformUserService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", id), nil, nil)
}
