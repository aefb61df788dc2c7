package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func newBillingCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "billing",
		Short: "Invoices, payments and subscriptions",
	}

	cmd.AddCommand(newBillingInvoicesCmd())
	cmd.AddCommand(newBillingPaymentsCmd())
	cmd.AddCommand(newBillingSubscriptionsCmd())
	cmd.AddCommand(newBillingStatsCmd())
	cmd.AddCommand(newBillingCreateInvoiceCmd())
	cmd.AddCommand(newBillingMarkPaidCmd())
	cmd.AddCommand(newBillingDeleteInvoiceCmd())
	cmd.AddCommand(newBillingCancelSubscriptionCmd())

	return cmd
}

func newBillingInvoicesCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "invoices",
		Short: "List invoices",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Billing.Invoices.Loader, &flags,
				[]string{"ID", "NUMBER", "COMPANY", "AMOUNT", "STATUS", "DUE", "PAID"},
				func(inv client.Invoice) []string {
					return []string{
						formatID(inv.ID),
						inv.Number,
						formatID(inv.CompanyID),
						formatMoney(inv.Amount, inv.Currency),
						formatStatus(inv.Status),
						formatTime(&inv.DueDate),
						formatTime(inv.PaidAt),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newBillingPaymentsCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "payments",
		Short: "List payments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Billing.Payments, &flags,
				[]string{"ID", "INVOICE", "COMPANY", "AMOUNT", "METHOD", "STATUS"},
				func(p client.Payment) []string {
					return []string{
						formatID(p.ID),
						formatID(p.InvoiceID),
						formatID(p.CompanyID),
						formatMoney(p.Amount, p.Currency),
						p.Method,
						formatStatus(p.Status),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newBillingSubscriptionsCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List subscriptions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Billing.Subscriptions, &flags,
				[]string{"ID", "COMPANY", "PLAN", "STATUS", "PERIOD END"},
				func(s client.Subscription) []string {
					return []string{
						formatID(s.ID),
						formatID(s.CompanyID),
						formatID(s.PlanID),
						formatStatus(s.Status),
						formatTime(&s.CurrentPeriodEnd),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newBillingStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show the billing summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Console.Billing.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get billing stats: %w", err)
			}
			return printOne(stats,
				[2]string{"Revenue (month)", fmt.Sprintf("%.2f", stats.RevenueMonth)},
				[2]string{"Outstanding", fmt.Sprintf("%.2f", stats.Outstanding)},
				[2]string{"Overdue invoices", fmt.Sprint(stats.OverdueInvoices)},
				[2]string{"Active subscriptions", fmt.Sprint(stats.ActiveSubscriptions)},
			)
		},
	}
}

func newBillingCreateInvoiceCmd() *cobra.Command {
	var req client.CreateInvoiceRequest
	var due string

	cmd := &cobra.Command{
		Use:   "create-invoice",
		Short: "Issue an invoice to a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if due != "" {
				t, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("invalid due date %q, expected YYYY-MM-DD", due)
				}
				req.DueDate = t
			}

			inv, err := app.Console.Billing.Invoices.Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create invoice: %w", err)
			}
			fmt.Printf("Invoice %s created (ID %d)\n", inv.Number, inv.ID)
			return nil
		},
	}

	cmd.Flags().Int64Var(&req.CompanyID, "company", 0, "company ID")
	cmd.Flags().Float64Var(&req.Amount, "amount", 0, "amount")
	cmd.Flags().StringVar(&req.Currency, "currency", "USD", "ISO currency code")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")

	return cmd
}

func newBillingMarkPaidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mark-paid <invoice-id>",
		Short: "Mark an invoice as paid",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}

			inv, err := app.Console.Billing.MarkPaid(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to mark invoice paid: %w", err)
			}
			fmt.Printf("Invoice %d is now %s\n", inv.ID, inv.Status)
			return nil
		},
	}
}

func newBillingDeleteInvoiceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-invoice <invoice-id>",
		Short: "Delete an invoice",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "invoice")
			if err != nil {
				return err
			}

			if err := app.Console.Billing.Invoices.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete invoice: %w", err)
			}
			fmt.Printf("Invoice %d deleted\n", id)
			return nil
		},
	}
}

func newBillingCancelSubscriptionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel-subscription <subscription-id>",
		Short: "Cancel a subscription",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "subscription")
			if err != nil {
				return err
			}

			ok, err := app.Console.Confirm(cmd.Context(), fmt.Sprintf("Cancel subscription %d?", id))
			if err != nil {
				return err
			}
			if !ok {
				fmt.Println("Aborted")
				return nil
			}

			sub, err := app.Console.Billing.CancelSubscription(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to cancel subscription: %w", err)
			}
			fmt.Printf("Subscription %d is now %s\n", sub.ID, sub.Status)
			return nil
		},
	}
}
