package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func newCompanyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "company",
		Aliases: []string{"companies"},
		Short:   "Manage customer companies",
	}

	cmd.AddCommand(newCompanyListCmd())
	cmd.AddCommand(newCompanyGetCmd())
	cmd.AddCommand(newCompanyCreateCmd())
	cmd.AddCommand(newCompanyUpdateCmd())
	cmd.AddCommand(newCompanyDeleteCmd())
	cmd.AddCommand(newCompanyStatusCmd("suspend", "Suspend a company"))
	cmd.AddCommand(newCompanyStatusCmd("activate", "Reactivate a suspended company"))
	cmd.AddCommand(newCompanyStatsCmd())

	return cmd
}

func companyRow(c client.Company) []string {
	return []string{
		formatID(c.ID),
		truncate(c.Name, 30),
		c.Domain,
		c.ContactEmail,
		formatStatus(c.Status),
		formatOptionalID(c.PlanID),
	}
}

func newCompanyListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List companies",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Companies.Loader, &flags,
				[]string{"ID", "NAME", "DOMAIN", "CONTACT", "STATUS", "PLAN"}, companyRow)
		},
	}
	flags.bind(cmd)

	return cmd
}

func newCompanyGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get company details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "company")
			if err != nil {
				return err
			}

			company, err := app.Console.Companies.Get(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to get company: %w", err)
			}

			return printOne(company,
				[2]string{"ID", formatID(company.ID)},
				[2]string{"Name", company.Name},
				[2]string{"Domain", company.Domain},
				[2]string{"Contact", company.ContactEmail},
				[2]string{"Status", company.Status},
				[2]string{"Plan", formatOptionalID(company.PlanID)},
				[2]string{"Created", formatTime(&company.CreatedAt)},
			)
		},
	}
}

func newCompanyCreateCmd() *cobra.Command {
	var req client.CreateCompanyRequest
	var planID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Register a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" {
				req.Name = promptInput("Name: ")
			}
			if req.Domain == "" {
				req.Domain = promptInput("Domain: ")
			}
			if req.ContactEmail == "" {
				req.ContactEmail = promptInput("Contact email: ")
			}
			req.PlanID = changed(cmd, "plan", planID)

			company, err := app.Console.Companies.Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create company: %w", err)
			}
			fmt.Printf("Company '%s' created (ID %d)\n", company.Name, company.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "company name")
	cmd.Flags().StringVar(&req.Domain, "domain", "", "primary domain")
	cmd.Flags().StringVar(&req.ContactEmail, "email", "", "contact email")
	cmd.Flags().Int64Var(&planID, "plan", 0, "plan ID")

	return cmd
}

func newCompanyUpdateCmd() *cobra.Command {
	var name, domain, email string
	var planID int64

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "company")
			if err != nil {
				return err
			}

			company, err := app.Console.Companies.Update(cmd.Context(), id, client.UpdateCompanyRequest{
				Name:         changed(cmd, "name", name),
				Domain:       changed(cmd, "domain", domain),
				ContactEmail: changed(cmd, "email", email),
				PlanID:       changed(cmd, "plan", planID),
			})
			if err != nil {
				return fmt.Errorf("failed to update company: %w", err)
			}
			fmt.Printf("Company %d updated\n", company.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "company name")
	cmd.Flags().StringVar(&domain, "domain", "", "primary domain")
	cmd.Flags().StringVar(&email, "email", "", "contact email")
	cmd.Flags().Int64Var(&planID, "plan", 0, "plan ID")

	return cmd
}

func newCompanyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a company",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "company")
			if err != nil {
				return err
			}

			if err := app.Console.Companies.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete company: %w", err)
			}
			fmt.Printf("Company %d deleted\n", id)
			return nil
		},
	}
}

func newCompanyStatusCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "company")
			if err != nil {
				return err
			}

			companies := app.Console.Companies
			set := companies.Activate
			if action == "suspend" {
				set = companies.Suspend
			}
			company, err := set(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to %s company: %w", action, err)
			}
			fmt.Printf("Company %d is now %s\n", company.ID, company.Status)
			return nil
		},
	}
}

func newCompanyStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show company counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Console.Companies.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get company stats: %w", err)
			}
			return printOne(stats,
				[2]string{"Total", fmt.Sprint(stats.Total)},
				[2]string{"Active", fmt.Sprint(stats.Active)},
				[2]string{"Suspended", fmt.Sprint(stats.Suspended)},
				[2]string{"Pending", fmt.Sprint(stats.Pending)},
			)
		},
	}
}
