package console

import (
	"context"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// Plans is the subscription plans page
type Plans struct {
	*collection.Synchronizer[client.Plan, client.CreatePlanRequest, client.UpdatePlanRequest]
	svc *client.PlanService
}

// NewPlans creates the plans page
func NewPlans(d Deps) *Plans {
	svc := d.Client.Plans()
	return &Plans{
		Synchronizer: collection.New[client.Plan, client.CreatePlanRequest, client.UpdatePlanRequest](
			"plans", svc, d.options(PlanSearchFields)...),
		svc: svc,
	}
}

// Enable makes a plan available to new subscriptions
func (p *Plans) Enable(ctx context.Context, id int64) (*client.Plan, error) {
	return p.setActive(ctx, id, true)
}

// Disable hides a plan from new subscriptions
func (p *Plans) Disable(ctx context.Context, id int64) (*client.Plan, error) {
	return p.setActive(ctx, id, false)
}

func (p *Plans) setActive(ctx context.Context, id int64, active bool) (*client.Plan, error) {
	return p.Apply(ctx, "set_active", id, func(ctx context.Context) (*client.Plan, error) {
		return p.svc.SetActive(ctx, id, active)
	})
}
