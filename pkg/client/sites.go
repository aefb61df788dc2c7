package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
)

// SiteService handles site configuration and scraper execution
type SiteService struct {
	client *Client
}

// ScraperService handles scraper module uploads
type ScraperService struct {
	client *Client
}

// TelegramAccountService handles telegram reader accounts
type TelegramAccountService struct {
	client *Client
}

// CreateSiteRequest represents a request to register a site
type CreateSiteRequest struct {
	Name      string `json:"name" validate:"required"`
	URL       string `json:"url" validate:"required,url"`
	Category  string `json:"category" validate:"required,oneof=forum marketplace paste leak telegram"`
	ScraperID *int64 `json:"scraper_id,omitempty"`
}

// UpdateSiteRequest represents a request to update a site
type UpdateSiteRequest struct {
	Name      *string `json:"name,omitempty"`
	URL       *string `json:"url,omitempty" validate:"omitempty,url"`
	Category  *string `json:"category,omitempty" validate:"omitempty,oneof=forum marketplace paste leak telegram"`
	Status    *string `json:"status,omitempty" validate:"omitempty,oneof=active paused"`
	ScraperID *int64  `json:"scraper_id,omitempty"`
}

// CreateTelegramAccountRequest represents a request to add a telegram session
type CreateTelegramAccountRequest struct {
	Phone    string `json:"phone" validate:"required,e164"`
	Username string `json:"username,omitempty"`
	APIID    int64  `json:"api_id" validate:"required,gt=0"`
	APIHash  string `json:"api_hash" validate:"required"`
}

// UpdateTelegramAccountRequest represents a request to update a telegram session.
// A blank APIHash keeps the stored one.
type UpdateTelegramAccountRequest struct {
	Username *string `json:"username,omitempty"`
	APIID    *int64  `json:"api_id,omitempty"`
	APIHash  *string `json:"api_hash,omitempty"`
}

// List retrieves sites
func (s *SiteService) List(ctx context.Context, opts *ListOptions) ([]Site, error) {
	var sites []Site
	if err := s.client.doRequest(ctx, http.MethodGet, listPath("/api/v1/sites", opts), nil, &sites); err != nil {
		return nil, err
	}
	return sites, nil
}

// FetchAll retrieves every site
func (s *SiteService) FetchAll(ctx context.Context) ([]Site, error) {
	return s.List(ctx, nil)
}

// Create registers a site
func (s *SiteService) Create(ctx context.Context, req CreateSiteRequest) (*Site, error) {
	var site Site
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/sites", req, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// Update updates a site
func (s *SiteService) Update(ctx context.Context, id int64, req UpdateSiteRequest) (*Site, error) {
	var site Site
	if err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/sites/%d", id), req, &site); err != nil {
		return nil, err
	}
	return &site, nil
}

// Delete removes a site
func (s *SiteService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/sites/%d", id), nil, nil)
}

// RunScraper submits a scrape of the site and returns the background task reference
func (s *SiteService) RunScraper(ctx context.Context, id int64) (*TaskRef, error) {
	var ref TaskRef
	if err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/sites/%d/scrape", id), nil, &ref); err != nil {
		return nil, err
	}
	if ref.TaskID == "" {
		return nil, fmt.Errorf("%w: scrape submission returned no task id", ErrRemote)
	}
	return &ref, nil
}

// TaskStatus reads the state of a background task
func (s *SiteService) TaskStatus(ctx context.Context, taskID string) (*TaskStatus, error) {
	var status TaskStatus
	path := "/api/v1/tasks/" + url.PathEscape(taskID)
	if err := s.client.doRequest(ctx, http.MethodGet, path, nil, &status); err != nil {
		return nil, err
	}
	if status.TaskID == "" {
		status.TaskID = taskID
	}
	return &status, nil
}

// Stats retrieves scraping counters
func (s *SiteService) Stats(ctx context.Context) (*SiteStats, error) {
	var stats SiteStats
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/sites/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// List retrieves uploaded scrapers
func (s *ScraperService) List(ctx context.Context) ([]Scraper, error) {
	var scrapers []Scraper
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/scrapers", nil, &scrapers); err != nil {
		return nil, err
	}
	return scrapers, nil
}

// FetchAll retrieves every scraper
func (s *ScraperService) FetchAll(ctx context.Context) ([]Scraper, error) {
	return s.List(ctx)
}

// Upload sends a scraper module as a multipart form
func (s *ScraperService) Upload(ctx context.Context, name, filename string, content io.Reader) (*Scraper, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("name", name); err != nil {
		return nil, fmt.Errorf("failed to write form field: %w", err)
	}
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("failed to read scraper file: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("failed to finish form: %w", err)
	}

	header := http.Header{}
	header.Set("Accept", "application/json")
	header.Set("Content-Type", form.FormDataContentType())

	var scraper Scraper
	if err := s.client.send(ctx, http.MethodPost, "/api/v1/scrapers/upload", &buf, header, &scraper, true); err != nil {
		return nil, err
	}
	return &scraper, nil
}

// Delete removes a scraper module
func (s *ScraperService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/scrapers/%d", id), nil, nil)
}

// List retrieves telegram accounts
func (s *TelegramAccountService) List(ctx context.Context) ([]TelegramAccount, error) {
	var accounts []TelegramAccount
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/telegram-accounts", nil, &accounts); err != nil {
		return nil, err
	}
	return accounts, nil
}

// FetchAll retrieves every telegram account
func (s *TelegramAccountService) FetchAll(ctx context.Context) ([]TelegramAccount, error) {
	return s.List(ctx)
}

// Create adds a telegram account
func (s *TelegramAccountService) Create(ctx context.Context, req CreateTelegramAccountRequest) (*TelegramAccount, error) {
	var account TelegramAccount
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/telegram-accounts", req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Update updates a telegram account
func (s *TelegramAccountService) Update(ctx context.Context, id int64, req UpdateTelegramAccountRequest) (*TelegramAccount, error) {
	var account TelegramAccount
	if err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/telegram-accounts/%d", id), req, &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Delete removes a telegram account
func (s *TelegramAccountService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/telegram-accounts/%d", id), nil, nil)
}
