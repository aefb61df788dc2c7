package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CompanyService handles company-related API calls
type CompanyService struct {
	client *Client
}

// CreateCompanyRequest represents a request to create a company
type CreateCompanyRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=120"`
	Domain       string `json:"domain" validate:"required,fqdn"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
	PlanID       *int64 `json:"plan_id,omitempty"`
}

// UpdateCompanyRequest represents a request to update a company
type UpdateCompanyRequest struct {
	Name         *string `json:"name,omitempty" validate:"omitempty,min=2,max=120"`
	Domain       *string `json:"domain,omitempty" validate:"omitempty,fqdn"`
	ContactEmail *string `json:"contact_email,omitempty" validate:"omitempty,email"`
	PlanID       *int64  `json:"plan_id,omitempty"`
}

// statusRequest is the body of every status transition endpoint
type statusRequest struct {
	Status string `json:"status"`
}

// listPath appends paging and search parameters to base
func listPath(base string, opts *ListOptions) string {
	if opts == nil {
		return base
	}
	query := url.Values{}
	if opts.Page > 0 {
		query.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(opts.PageSize))
	}
	if opts.Search != "" {
		query.Set("search", opts.Search)
	}
	if len(query) == 0 {
		return base
	}
	return base + "?" + query.Encode()
}

// List retrieves companies
func (s *CompanyService) List(ctx context.Context, opts *ListOptions) ([]Company, error) {
	var companies []Company
	if err := s.client.doRequest(ctx, http.MethodGet, listPath("/api/v1/companies", opts), nil, &companies); err != nil {
		return nil, err
	}
	return companies, nil
}

// FetchAll retrieves the full company collection
func (s *CompanyService) FetchAll(ctx context.Context) ([]Company, error) {
	return s.List(ctx, nil)
}

// Get retrieves a single company by ID
func (s *CompanyService) Get(ctx context.Context, id int64) (*Company, error) {
	var company Company
	if err := s.client.doRequest(ctx, http.MethodGet, fmt.Sprintf("/api/v1/companies/%d", id), nil, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// Create creates a new company
func (s *CompanyService) Create(ctx context.Context, req CreateCompanyRequest) (*Company, error) {
	var company Company
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/companies", req, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// Update updates an existing company
func (s *CompanyService) Update(ctx context.Context, id int64, req UpdateCompanyRequest) (*Company, error) {
	var company Company
	if err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/companies/%d", id), req, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// UpdateStatus moves a company to active, suspended or pending
func (s *CompanyService) UpdateStatus(ctx context.Context, id int64, status string) (*Company, error) {
	var company Company
	path := fmt.Sprintf("/api/v1/companies/%d/status", id)
	if err := s.client.doRequest(ctx, http.MethodPatch, path, statusRequest{Status: status}, &company); err != nil {
		return nil, err
	}
	return &company, nil
}

// Delete deletes a company
func (s *CompanyService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/companies/%d", id), nil, nil)
}

// Stats retrieves company counters
func (s *CompanyService) Stats(ctx context.Context) (*CompanyStats, error) {
	var stats CompanyStats
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/companies/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}
