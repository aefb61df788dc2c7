package console

import (
	"context"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// Company statuses
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Companies is the companies page
type Companies struct {
	*collection.Synchronizer[client.Company, client.CreateCompanyRequest, client.UpdateCompanyRequest]
	svc *client.CompanyService
}

// NewCompanies creates the companies page
func NewCompanies(d Deps) *Companies {
	svc := d.Client.Companies()
	return &Companies{
		Synchronizer: collection.New[client.Company, client.CreateCompanyRequest, client.UpdateCompanyRequest](
			"companies", svc, d.options(CompanySearchFields)...),
		svc: svc,
	}
}

// Stats reads the status counters shown above the list
func (c *Companies) Stats(ctx context.Context) (*client.CompanyStats, error) {
	return c.svc.Stats(ctx)
}

// Get reads one company and refreshes its stored copy when present
func (c *Companies) Get(ctx context.Context, id int64) (*client.Company, error) {
	company, err := c.svc.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, ok := c.Store().Get(id); ok {
		c.PatchLocal("get", id, func(stored *client.Company) { *stored = *company })
	}
	return company, nil
}

// Suspend sets a company's status to suspended
func (c *Companies) Suspend(ctx context.Context, id int64) (*client.Company, error) {
	return c.setStatus(ctx, id, StatusSuspended)
}

// Activate sets a company's status to active
func (c *Companies) Activate(ctx context.Context, id int64) (*client.Company, error) {
	return c.setStatus(ctx, id, StatusActive)
}

func (c *Companies) setStatus(ctx context.Context, id int64, status string) (*client.Company, error) {
	return c.Apply(ctx, "update_status", id, func(ctx context.Context) (*client.Company, error) {
		return c.svc.UpdateStatus(ctx, id, status)
	})
}
