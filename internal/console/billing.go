package console

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// Billing is the billing page: invoices plus read-only payments and subscriptions
type Billing struct {
	Invoices      *collection.Synchronizer[client.Invoice, client.CreateInvoiceRequest, client.UpdateInvoiceRequest]
	Payments      *collection.Loader[client.Payment]
	Subscriptions *collection.Loader[client.Subscription]

	invoices      *client.InvoiceService
	subscriptions *client.SubscriptionService
}

// NewBilling creates the billing page
func NewBilling(d Deps) *Billing {
	invoices := d.Client.Invoices()
	subscriptions := d.Client.Subscriptions()
	return &Billing{
		Invoices: collection.New[client.Invoice, client.CreateInvoiceRequest, client.UpdateInvoiceRequest](
			"invoices", invoices, d.options(InvoiceSearchFields)...),
		Payments:      collection.NewLoader[client.Payment]("payments", d.Client.Payments(), d.options(PaymentSearchFields)...),
		Subscriptions: collection.NewLoader[client.Subscription]("subscriptions", subscriptions, d.options(SubscriptionSearchFields)...),
		invoices:      invoices,
		subscriptions: subscriptions,
	}
}

// Load fetches the three billing collections concurrently
func (b *Billing) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return b.Invoices.Load(ctx) })
	g.Go(func() error { return b.Payments.Load(ctx) })
	g.Go(func() error { return b.Subscriptions.Load(ctx) })
	return g.Wait()
}

// Stats reads the billing summary
func (b *Billing) Stats(ctx context.Context) (*client.BillingStats, error) {
	return b.invoices.Stats(ctx)
}

// MarkPaid settles an invoice
func (b *Billing) MarkPaid(ctx context.Context, id int64) (*client.Invoice, error) {
	return b.Invoices.Apply(ctx, "mark_paid", id, func(ctx context.Context) (*client.Invoice, error) {
		return b.invoices.MarkPaid(ctx, id)
	})
}

// CancelSubscription cancels a company's subscription
func (b *Billing) CancelSubscription(ctx context.Context, id int64) (*client.Subscription, error) {
	return b.Subscriptions.Apply(ctx, "cancel", id, func(ctx context.Context) (*client.Subscription, error) {
		return b.subscriptions.Cancel(ctx, id)
	})
}

// Close detaches all billing stores
func (b *Billing) Close() {
	b.Invoices.Close()
	b.Payments.Close()
	b.Subscriptions.Close()
}
