package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "plan",
		Aliases: []string{"plans"},
		Short:   "Manage subscription plans",
	}

	cmd.AddCommand(newPlanListCmd())
	cmd.AddCommand(newPlanCreateCmd())
	cmd.AddCommand(newPlanUpdateCmd())
	cmd.AddCommand(newPlanDeleteCmd())
	cmd.AddCommand(newPlanActiveCmd("enable", "Offer a plan to new subscriptions"))
	cmd.AddCommand(newPlanActiveCmd("disable", "Withdraw a plan from new subscriptions"))

	return cmd
}

func newPlanListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List plans",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Plans.Loader, &flags,
				[]string{"ID", "NAME", "PRICE", "INTERVAL", "KEYWORDS", "USERS", "ACTIVE"},
				func(p client.Plan) []string {
					return []string{
						formatID(p.ID),
						p.Name,
						formatMoney(p.Price, p.Currency),
						p.Interval,
						fmt.Sprint(p.MaxKeywords),
						fmt.Sprint(p.MaxUsers),
						fmt.Sprint(p.Active),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newPlanCreateCmd() *cobra.Command {
	var req client.CreatePlanRequest

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" {
				req.Name = promptInput("Name: ")
			}

			plan, err := app.Console.Plans.Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create plan: %w", err)
			}
			fmt.Printf("Plan '%s' created (ID %d)\n", plan.Name, plan.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "plan name")
	cmd.Flags().StringVar(&req.Description, "description", "", "description")
	cmd.Flags().Float64Var(&req.Price, "price", 0, "price per interval")
	cmd.Flags().StringVar(&req.Currency, "currency", "USD", "ISO currency code")
	cmd.Flags().StringVar(&req.Interval, "interval", "month", "billing interval: month or year")
	cmd.Flags().IntVar(&req.MaxKeywords, "max-keywords", 0, "monitored resources allowed")
	cmd.Flags().IntVar(&req.MaxUsers, "max-users", 0, "operator accounts allowed")
	cmd.Flags().StringSliceVar(&req.Features, "feature", nil, "feature flag, repeatable")
	cmd.Flags().BoolVar(&req.Active, "active", true, "offer the plan immediately")

	return cmd
}

func newPlanUpdateCmd() *cobra.Command {
	var name, description, interval string
	var price float64
	var maxKeywords, maxUsers int
	var features []string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "plan")
			if err != nil {
				return err
			}

			plan, err := app.Console.Plans.Update(cmd.Context(), id, client.UpdatePlanRequest{
				Name:        changed(cmd, "name", name),
				Description: changed(cmd, "description", description),
				Price:       changed(cmd, "price", price),
				Interval:    changed(cmd, "interval", interval),
				MaxKeywords: changed(cmd, "max-keywords", maxKeywords),
				MaxUsers:    changed(cmd, "max-users", maxUsers),
				Features:    features,
			})
			if err != nil {
				return fmt.Errorf("failed to update plan: %w", err)
			}
			fmt.Printf("Plan %d updated\n", plan.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "plan name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().Float64Var(&price, "price", 0, "price per interval")
	cmd.Flags().StringVar(&interval, "interval", "", "billing interval: month or year")
	cmd.Flags().IntVar(&maxKeywords, "max-keywords", 0, "monitored resources allowed")
	cmd.Flags().IntVar(&maxUsers, "max-users", 0, "operator accounts allowed")
	cmd.Flags().StringSliceVar(&features, "feature", nil, "feature flag, repeatable; replaces the list")

	return cmd
}

func newPlanDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "plan")
			if err != nil {
				return err
			}

			if err := app.Console.Plans.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete plan: %w", err)
			}
			fmt.Printf("Plan %d deleted\n", id)
			return nil
		},
	}
}

func newPlanActiveCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "plan")
			if err != nil {
				return err
			}

			plans := app.Console.Plans
			set := plans.Enable
			if action == "disable" {
				set = plans.Disable
			}
			plan, err := set(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to %s plan: %w", action, err)
			}
			fmt.Printf("Plan %d %sd\n", plan.ID, action)
			return nil
		},
	}
}
