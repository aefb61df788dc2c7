package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

type statusSummary struct {
	API       *client.HealthResponse `json:"api,omitempty"`
	Companies *client.CompanyStats   `json:"companies,omitempty"`
	Billing   *client.BillingStats   `json:"billing,omitempty"`
	Sites     *client.SiteStats      `json:"sites,omitempty"`
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show dashboard summary",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c := app.Console

			var summary statusSummary
			health, healthErr := app.Client.Health(ctx)
			summary.API = health
			companies, companiesErr := c.Companies.Stats(ctx)
			summary.Companies = companies
			billing, billingErr := c.Billing.Stats(ctx)
			summary.Billing = billing
			sites, sitesErr := c.Sites.Stats(ctx)
			summary.Sites = sites

			// auth and permission failures print nothing else
			for _, err := range []error{companiesErr, billingErr, sitesErr} {
				if errors.Is(err, client.ErrAuth) || errors.Is(err, client.ErrPermission) {
					return err
				}
			}

			if getOutputFormat() != "table" {
				return printOutput(summary)
			}

			fmt.Println("darkwatch dashboard")
			fmt.Println(strings.Repeat("=", 40))

			if healthErr != nil {
				fmt.Printf("  API:           unreachable (%v)\n", healthErr)
			} else {
				fmt.Printf("  API:           %s %s\n", health.Status, health.Version)
			}

			if companiesErr != nil {
				fmt.Printf("  Companies:     (error: %v)\n", companiesErr)
			} else {
				fmt.Printf("  Companies:     %d active, %d suspended (%d total)\n",
					companies.Active, companies.Suspended, companies.Total)
			}

			if billingErr != nil {
				fmt.Printf("  Billing:       (error: %v)\n", billingErr)
			} else {
				fmt.Printf("  Revenue:       %.2f this month, %.2f outstanding\n", billing.RevenueMonth, billing.Outstanding)
				if billing.OverdueInvoices > 0 {
					fmt.Printf("  Overdue:       %d invoices\n", billing.OverdueInvoices)
				}
			}

			if sitesErr != nil {
				fmt.Printf("  Sites:         (error: %v)\n", sitesErr)
			} else {
				fmt.Printf("  Sites:         %d active (%d total)\n", sites.ActiveSites, sites.TotalSites)
				fmt.Printf("  Scrapes (24h): %d", sites.Last24hScrapes)
				if sites.FailedScrapes > 0 {
					fmt.Printf(" (%d failed)", sites.FailedScrapes)
				}
				fmt.Println()
			}

			return nil
		},
	}
}
