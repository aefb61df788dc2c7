package client

import (
	"context"
	"fmt"
	"net/http"
)

// PlanService handles subscription plan API calls
type PlanService struct {
	client *Client
}

// CreatePlanRequest represents a request to create a plan
type CreatePlanRequest struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description,omitempty"`
	Price       float64  `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency" validate:"required,len=3"`
	Interval    string   `json:"interval" validate:"required,oneof=month year"`
	MaxKeywords int      `json:"max_keywords" validate:"gte=0"`
	MaxUsers    int      `json:"max_users" validate:"gte=0"`
	Features    []string `json:"features,omitempty"`
	Active      bool     `json:"active"`
}

// UpdatePlanRequest represents a request to update a plan
type UpdatePlanRequest struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Interval    *string  `json:"interval,omitempty" validate:"omitempty,oneof=month year"`
	MaxKeywords *int     `json:"max_keywords,omitempty" validate:"omitempty,gte=0"`
	MaxUsers    *int     `json:"max_users,omitempty" validate:"omitempty,gte=0"`
	Features    []string `json:"features,omitempty"`
	Active      *bool    `json:"active,omitempty"`
}

// List retrieves plans
func (s *PlanService) List(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/plans", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// FetchAll retrieves every plan
func (s *PlanService) FetchAll(ctx context.Context) ([]Plan, error) {
	return s.List(ctx)
}

// Create creates a plan
func (s *PlanService) Create(ctx context.Context, req CreatePlanRequest) (*Plan, error) {
	var plan Plan
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/plans", req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Update updates a plan
func (s *PlanService) Update(ctx context.Context, id int64, req UpdatePlanRequest) (*Plan, error) {
	var plan Plan
	if err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/plans/%d", id), req, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// SetActive enables or disables a plan for new subscriptions
func (s *PlanService) SetActive(ctx context.Context, id int64, active bool) (*Plan, error) {
	return s.Update(ctx, id, UpdatePlanRequest{Active: &active})
}

// Delete deletes a plan
func (s *PlanService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/plans/%d", id), nil, nil)
}
