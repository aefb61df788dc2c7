package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Your account settings",
	}

	cmd.AddCommand(newSettingsGetCmd())
	cmd.AddCommand(newSettingsUpdateCmd())
	cmd.AddCommand(newSettingsPasswordCmd())

	return cmd
}

func newSettingsGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show account settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.Console.Settings.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load settings: %w", err)
			}
			return printOne(s,
				[2]string{"Email", s.Email},
				[2]string{"Name", s.FullName},
				[2]string{"Email alerts", fmt.Sprint(s.NotifyEmail)},
				[2]string{"Telegram alerts", fmt.Sprint(s.NotifyTelegram)},
				[2]string{"Timezone", s.Timezone},
			)
		},
	}
}

func newSettingsUpdateCmd() *cobra.Command {
	var name, timezone string
	var notifyEmail, notifyTelegram bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change account settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.UpdateSettingsRequest{
				FullName:       changed(cmd, "name", name),
				NotifyEmail:    changed(cmd, "notify-email", notifyEmail),
				NotifyTelegram: changed(cmd, "notify-telegram", notifyTelegram),
				Timezone:       changed(cmd, "timezone", timezone),
			}
			if _, err := app.Console.Settings.Update(cmd.Context(), req); err != nil {
				return fmt.Errorf("failed to update settings: %w", err)
			}
			fmt.Println("Settings updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "full name")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone, e.g. Europe/Berlin")
	cmd.Flags().BoolVar(&notifyEmail, "notify-email", false, "send alerts by email")
	cmd.Flags().BoolVar(&notifyTelegram, "notify-telegram", false, "send alerts to telegram")

	return cmd
}

func newSettingsPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "password",
		Short: "Change your password",
		RunE: func(cmd *cobra.Command, args []string) error {
			req := client.ChangePasswordRequest{
				CurrentPassword: promptPassword("Current password: "),
				NewPassword:     promptPassword("New password: "),
			}
			if confirm := promptPassword("Confirm new password: "); confirm != req.NewPassword {
				return fmt.Errorf("passwords do not match")
			}

			if err := app.Console.Settings.ChangePassword(cmd.Context(), req); err != nil {
				return fmt.Errorf("failed to change password: %w", err)
			}
			fmt.Println("Password changed")
			return nil
		},
	}
}
