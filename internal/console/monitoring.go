package console

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// Monitoring is the monitored resources page with its alert feed
type Monitoring struct {
	Resources *collection.Synchronizer[client.MonitoredResource, client.CreateMonitoredResourceRequest, client.UpdateMonitoredResourceRequest]
	Alerts    *collection.Loader[client.Alert]

	alerts *client.AlertService
}

// NewMonitoring creates the monitoring page
func NewMonitoring(d Deps) *Monitoring {
	alerts := d.Client.Alerts()
	return &Monitoring{
		Resources: collection.New[client.MonitoredResource, client.CreateMonitoredResourceRequest, client.UpdateMonitoredResourceRequest](
			"monitored_resources", d.Client.MonitoredResources(), d.options(MonitoredSearchFields)...),
		Alerts: collection.NewLoader[client.Alert]("alerts", alerts, d.options(AlertSearchFields)...),
		alerts: alerts,
	}
}

// Load fetches resources and alerts concurrently
func (m *Monitoring) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.Resources.Load(ctx) })
	g.Go(func() error { return m.Alerts.Load(ctx) })
	return g.Wait()
}

// Acknowledge marks an alert as seen
func (m *Monitoring) Acknowledge(ctx context.Context, id int64) (*client.Alert, error) {
	return m.Alerts.Apply(ctx, "acknowledge", id, func(ctx context.Context) (*client.Alert, error) {
		return m.alerts.Acknowledge(ctx, id)
	})
}

// Resolve closes an alert
func (m *Monitoring) Resolve(ctx context.Context, id int64) (*client.Alert, error) {
	return m.Alerts.Apply(ctx, "resolve", id, func(ctx context.Context) (*client.Alert, error) {
		return m.alerts.Resolve(ctx, id)
	})
}

// Close detaches both stores
func (m *Monitoring) Close() {
	m.Resources.Close()
	m.Alerts.Close()
}
