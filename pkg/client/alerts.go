package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// MonitoredResourceService handles watched keyword/domain API calls
type MonitoredResourceService struct {
	client *Client
}

// AlertService handles alert-related API calls
type AlertService struct {
	client *Client
}

// CreateMonitoredResourceRequest represents a request to start watching a resource
type CreateMonitoredResourceRequest struct {
	Keyword      string `json:"keyword" validate:"required,min=2"`
	ResourceType string `json:"resource_type" validate:"required,oneof=domain email keyword ip"`
	CompanyID    *int64 `json:"company_id,omitempty"`
}

// UpdateMonitoredResourceRequest represents a request to update a watched resource
type UpdateMonitoredResourceRequest struct {
	Keyword      *string `json:"keyword,omitempty" validate:"omitempty,min=2"`
	ResourceType *string `json:"resource_type,omitempty" validate:"omitempty,oneof=domain email keyword ip"`
	Status       *string `json:"status,omitempty" validate:"omitempty,oneof=active paused"`
}

// AlertListOptions contains options for listing alerts
type AlertListOptions struct {
	ListOptions
	Severity            *string `json:"severity,omitempty"`
	Status              *string `json:"status,omitempty"`
	MonitoredResourceID *int64  `json:"monitored_resource_id,omitempty"`
}

// List retrieves monitored resources
func (s *MonitoredResourceService) List(ctx context.Context, opts *ListOptions) ([]MonitoredResource, error) {
	var resources []MonitoredResource
	if err := s.client.doRequest(ctx, http.MethodGet, listPath("/api/v1/monitored-resources", opts), nil, &resources); err != nil {
		return nil, err
	}
	return resources, nil
}

// FetchAll retrieves every monitored resource
func (s *MonitoredResourceService) FetchAll(ctx context.Context) ([]MonitoredResource, error) {
	return s.List(ctx, nil)
}

// Create starts watching a resource
func (s *MonitoredResourceService) Create(ctx context.Context, req CreateMonitoredResourceRequest) (*MonitoredResource, error) {
	var resource MonitoredResource
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/monitored-resources", req, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// Update updates a watched resource
func (s *MonitoredResourceService) Update(ctx context.Context, id int64, req UpdateMonitoredResourceRequest) (*MonitoredResource, error) {
	var resource MonitoredResource
	if err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/monitored-resources/%d", id), req, &resource); err != nil {
		return nil, err
	}
	return &resource, nil
}

// Delete stops watching a resource
func (s *MonitoredResourceService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/monitored-resources/%d", id), nil, nil)
}

// List retrieves a list of alerts
func (s *AlertService) List(ctx context.Context, opts *AlertListOptions) ([]Alert, error) {
	query := url.Values{}

	if opts != nil {
		if opts.Page > 0 {
			query.Set("page", strconv.Itoa(opts.Page))
		}
		if opts.PageSize > 0 {
			query.Set("page_size", strconv.Itoa(opts.PageSize))
		}
		if opts.Search != "" {
			query.Set("search", opts.Search)
		}
		if opts.Severity != nil {
			query.Set("severity", *opts.Severity)
		}
		if opts.Status != nil {
			query.Set("status", *opts.Status)
		}
		if opts.MonitoredResourceID != nil {
			query.Set("monitored_resource_id", strconv.FormatInt(*opts.MonitoredResourceID, 10))
		}
	}

	path := "/api/v1/alerts"
	if len(query) > 0 {
		path += "?" + query.Encode()
	}

	var alerts []Alert
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &alerts); err != nil {
		return nil, err
	}

	return alerts, nil
}

// FetchAll retrieves every alert
func (s *AlertService) FetchAll(ctx context.Context) ([]Alert, error) {
	return s.List(ctx, nil)
}

// UpdateStatus moves an alert to open, acknowledged or resolved
func (s *AlertService) UpdateStatus(ctx context.Context, id int64, status string) (*Alert, error) {
	var alert Alert
	path := fmt.Sprintf("/api/v1/alerts/%d/status", id)
	if err := s.client.doRequest(ctx, http.MethodPatch, path, statusRequest{Status: status}, &alert); err != nil {
		return nil, err
	}
	return &alert, nil
}

// Acknowledge acknowledges an alert
func (s *AlertService) Acknowledge(ctx context.Context, id int64) (*Alert, error) {
	return s.UpdateStatus(ctx, id, "acknowledged")
}

// Resolve resolves an alert
func (s *AlertService) Resolve(ctx context.Context, id int64) (*Alert, error) {
	return s.UpdateStatus(ctx, id, "resolved")
}
