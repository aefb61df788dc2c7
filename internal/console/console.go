// Package console binds each admin console resource to a synchronized
// collection: one type per page, holding its stores and resource actions.
package console

import (
	"context"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/internal/pkg/logger"
	"github.com/pratik-mahalle/darkwatch/internal/task"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// Search fields per resource
var (
	CompanySearchFields      = []string{"name", "domain", "contact_email"}
	UserSearchFields         = []string{"email", "full_name", "role"}
	InvoiceSearchFields      = []string{"number", "status", "currency"}
	PaymentSearchFields      = []string{"method", "status", "currency"}
	SubscriptionSearchFields = []string{"status"}
	SiteSearchFields         = []string{"name", "url", "category"}
	ScraperSearchFields      = []string{"name", "filename", "version"}
	TelegramSearchFields     = []string{"phone", "username"}
	PlanSearchFields         = []string{"name", "description"}
	MonitoredSearchFields    = []string{"keyword", "resource_type"}
	AlertSearchFields        = []string{"title", "source", "source_url"}
)

// Deps are shared by every page
type Deps struct {
	Client    *client.Client
	Poller    *task.Poller
	Logger    *logger.Logger
	Recorder  collection.Recorder
	Confirmer collection.Confirmer
	Validator collection.InputValidator
}

func (d Deps) options(searchFields []string) []collection.Option {
	opts := []collection.Option{collection.WithSearchFields(searchFields...)}
	if d.Logger != nil {
		opts = append(opts, collection.WithLogger(d.Logger))
	}
	if d.Recorder != nil {
		opts = append(opts, collection.WithRecorder(d.Recorder))
	}
	if d.Confirmer != nil {
		opts = append(opts, collection.WithConfirmer(d.Confirmer))
	}
	if d.Validator != nil {
		opts = append(opts, collection.WithValidator(d.Validator))
	}
	return opts
}

// Console holds every page of the admin console
type Console struct {
	Companies  *Companies
	Users      *PlatformUsers
	Billing    *Billing
	Sites      *Sites
	Plans      *Plans
	Monitoring *Monitoring
	Settings   *Settings

	confirmer collection.Confirmer
}

// New builds all pages over one client
func New(d Deps) *Console {
	confirmer := d.Confirmer
	if confirmer == nil {
		confirmer = collection.AlwaysConfirm
	}
	return &Console{
		Companies:  NewCompanies(d),
		Users:      NewPlatformUsers(d),
		Billing:    NewBilling(d),
		Sites:      NewSites(d),
		Plans:      NewPlans(d),
		Monitoring: NewMonitoring(d),
		Settings:   NewSettings(d),
		confirmer:  confirmer,
	}
}

// Confirm asks the configured confirmer, for actions outside a collection delete
func (c *Console) Confirm(ctx context.Context, prompt string) (bool, error) {
	return c.confirmer.Confirm(ctx, prompt)
}

// Close detaches every page; late results are dropped and running task
// watches are canceled.
func (c *Console) Close() {
	c.Companies.Close()
	c.Users.Close()
	c.Billing.Close()
	c.Sites.Close()
	c.Plans.Close()
	c.Monitoring.Close()
}
