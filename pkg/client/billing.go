package client

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// InvoiceService handles invoice API calls
type InvoiceService struct {
	client *Client
}

// PaymentService handles payment API calls
type PaymentService struct {
	client *Client
}

// SubscriptionService handles subscription API calls
type SubscriptionService struct {
	client *Client
}

// CreateInvoiceRequest represents a request to issue an invoice
type CreateInvoiceRequest struct {
	CompanyID int64     `json:"company_id" validate:"required,gt=0"`
	Amount    float64   `json:"amount" validate:"required,gt=0"`
	Currency  string    `json:"currency" validate:"required,len=3"`
	DueDate   time.Time `json:"due_date" validate:"required"`
}

// UpdateInvoiceRequest represents a request to amend an invoice
type UpdateInvoiceRequest struct {
	Amount   *float64   `json:"amount,omitempty" validate:"omitempty,gt=0"`
	Currency *string    `json:"currency,omitempty" validate:"omitempty,len=3"`
	DueDate  *time.Time `json:"due_date,omitempty"`
	Status   *string    `json:"status,omitempty" validate:"omitempty,oneof=paid pending overdue void"`
}

// List retrieves invoices
func (s *InvoiceService) List(ctx context.Context, opts *ListOptions) ([]Invoice, error) {
	var invoices []Invoice
	if err := s.client.doRequest(ctx, http.MethodGet, listPath("/api/v1/billing/invoices", opts), nil, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// FetchAll retrieves every invoice
func (s *InvoiceService) FetchAll(ctx context.Context) ([]Invoice, error) {
	return s.List(ctx, nil)
}

// Create issues an invoice
func (s *InvoiceService) Create(ctx context.Context, req CreateInvoiceRequest) (*Invoice, error) {
	var invoice Invoice
	if err := s.client.doRequest(ctx, http.MethodPost, "/api/v1/billing/invoices", req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Update amends an invoice
func (s *InvoiceService) Update(ctx context.Context, id int64, req UpdateInvoiceRequest) (*Invoice, error) {
	var invoice Invoice
	if err := s.client.doRequest(ctx, http.MethodPatch, fmt.Sprintf("/api/v1/billing/invoices/%d", id), req, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// MarkPaid records an invoice as paid
func (s *InvoiceService) MarkPaid(ctx context.Context, id int64) (*Invoice, error) {
	var invoice Invoice
	if err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/billing/invoices/%d/mark-paid", id), nil, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// Delete voids and removes an invoice
func (s *InvoiceService) Delete(ctx context.Context, id int64) error {
	return s.client.doRequest(ctx, http.MethodDelete, fmt.Sprintf("/api/v1/billing/invoices/%d", id), nil, nil)
}

// Stats retrieves billing counters
func (s *InvoiceService) Stats(ctx context.Context) (*BillingStats, error) {
	var stats BillingStats
	if err := s.client.doRequest(ctx, http.MethodGet, "/api/v1/billing/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// List retrieves payments
func (s *PaymentService) List(ctx context.Context, opts *ListOptions) ([]Payment, error) {
	var payments []Payment
	if err := s.client.doRequest(ctx, http.MethodGet, listPath("/api/v1/billing/payments", opts), nil, &payments); err != nil {
		return nil, err
	}
	return payments, nil
}

// FetchAll retrieves every payment
func (s *PaymentService) FetchAll(ctx context.Context) ([]Payment, error) {
	return s.List(ctx, nil)
}

// List retrieves subscriptions
func (s *SubscriptionService) List(ctx context.Context, opts *ListOptions) ([]Subscription, error) {
	var subs []Subscription
	if err := s.client.doRequest(ctx, http.MethodGet, listPath("/api/v1/billing/subscriptions", opts), nil, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

// FetchAll retrieves every subscription
func (s *SubscriptionService) FetchAll(ctx context.Context) ([]Subscription, error) {
	return s.List(ctx, nil)
}

// Cancel cancels a subscription at the end of its period
func (s *SubscriptionService) Cancel(ctx context.Context, id int64) (*Subscription, error) {
	var sub Subscription
	if err := s.client.doRequest(ctx, http.MethodPost, fmt.Sprintf("/api/v1/billing/subscriptions/%d/cancel", id), nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}
