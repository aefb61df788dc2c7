package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func newUserCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "user",
		Aliases: []string{"users"},
		Short:   "Manage operator accounts",
	}

	cmd.AddCommand(newUserListCmd())
	cmd.AddCommand(newUserCreateCmd())
	cmd.AddCommand(newUserUpdateCmd())
	cmd.AddCommand(newUserDeleteCmd())
	cmd.AddCommand(newUserStatusCmd("suspend", "Suspend an operator account"))
	cmd.AddCommand(newUserStatusCmd("activate", "Reactivate an operator account"))

	return cmd
}

func newUserListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List operator accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Users.Loader, &flags,
				[]string{"ID", "EMAIL", "NAME", "ROLE", "COMPANY", "STATUS", "LAST LOGIN"},
				func(u client.PlatformUser) []string {
					return []string{
						formatID(u.ID),
						u.Email,
						truncate(u.FullName, 25),
						u.Role,
						formatOptionalID(u.CompanyID),
						formatStatus(u.Status),
						formatTime(u.LastLoginAt),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newUserCreateCmd() *cobra.Command {
	var req client.CreatePlatformUserRequest
	var companyID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an operator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Email == "" {
				req.Email = promptInput("Email: ")
			}
			if req.FullName == "" {
				req.FullName = promptInput("Full name: ")
			}
			if req.Password == "" {
				req.Password = promptPassword("Password: ")
				if confirm := promptPassword("Confirm password: "); confirm != req.Password {
					return fmt.Errorf("passwords do not match")
				}
			}
			req.CompanyID = changed(cmd, "company", companyID)

			user, err := app.Console.Users.Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}
			fmt.Printf("User %s created (ID %d)\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.FullName, "name", "", "full name")
	cmd.Flags().StringVar(&req.Role, "role", "analyst", "role: admin, analyst, viewer")
	cmd.Flags().StringVar(&req.Password, "password", "", "initial password")
	cmd.Flags().Int64Var(&companyID, "company", 0, "company ID for customer accounts")

	return cmd
}

func newUserUpdateCmd() *cobra.Command {
	var email, name, role, password string
	var companyID int64

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an operator account",
		Long: `Update an operator account. Only the flags given are sent; an empty
--password leaves the current password unchanged.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}

			user, err := app.Console.Users.Update(cmd.Context(), id, client.UpdatePlatformUserRequest{
				Email:     changed(cmd, "email", email),
				FullName:  changed(cmd, "name", name),
				Role:      changed(cmd, "role", role),
				CompanyID: changed(cmd, "company", companyID),
				Password:  changed(cmd, "password", password),
			})
			if err != nil {
				return fmt.Errorf("failed to update user: %w", err)
			}
			fmt.Printf("User %d updated\n", user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&role, "role", "", "role: admin, analyst, viewer")
	cmd.Flags().StringVar(&password, "password", "", "new password")
	cmd.Flags().Int64Var(&companyID, "company", 0, "company ID")

	return cmd
}

func newUserDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an operator account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}

			if err := app.Console.Users.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete user: %w", err)
			}
			fmt.Printf("User %d deleted\n", id)
			return nil
		},
	}
}

func newUserStatusCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "user")
			if err != nil {
				return err
			}

			users := app.Console.Users
			set := users.Activate
			if action == "suspend" {
				set = users.Suspend
			}
			user, err := set(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to %s user: %w", action, err)
			}
			fmt.Printf("User %d is now %s\n", user.ID, user.Status)
			return nil
		},
	}
}
