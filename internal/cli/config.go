package cli

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pratik-mahalle/darkwatch/internal/config"
	"github.com/pratik-mahalle/darkwatch/internal/credentials"
	"github.com/pratik-mahalle/darkwatch/internal/pkg/validator"
)

// configRules are validation tags for the keys the CLI reads itself
var configRules = map[string]string{
	"server_url":       "url",
	"output":           "oneof=table json yaml",
	"credential_store": "oneof=" + config.CredentialStoreConfig + " " + config.CredentialStoreKeyring + " " + config.CredentialStoreEnv,
	"log_level":        "oneof=debug info warn error",
}

// checkConfigValue rejects values the CLI could not use for known keys
func checkConfigValue(v *validator.Validator, key, value string) error {
	tag, ok := configRules[key]
	if !ok {
		return nil
	}
	if err := v.ValidateVar(value, tag); err != nil {
		return fmt.Errorf("invalid value %q for %s (%s)", value, key, tag)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage CLI configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigSetCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigListCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactive first-time setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			url := promptInput("API URL [http://localhost:8000]: ")
			if url == "" {
				url = "http://localhost:8000"
			}

			format := promptInput("Default output format (table/json/yaml) [table]: ")
			if format == "" {
				format = "table"
			}

			store := promptInput("Store the session token in (config/keyring) [config]: ")
			if store == "" {
				store = config.CredentialStoreConfig
			}
			if store != config.CredentialStoreConfig && store != config.CredentialStoreKeyring {
				return fmt.Errorf("unsupported credential store: %s", store)
			}

			viper.Set("server_url", url)
			viper.Set("output", format)
			viper.Set("credential_store", store)

			if err := writeConfig(); err != nil {
				return err
			}

			path, _ := configPath()
			fmt.Printf("Configuration saved to %s\n", path)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkConfigValue(validator.New(), args[0], args[1]); err != nil {
				return err
			}
			viper.Set(args[0], args[1])
			if err := writeConfig(); err != nil {
				return err
			}
			fmt.Printf("Set %s = %s\n", args[0], args[1])
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] == credentials.TokenKey {
				fmt.Printf("%s: (hidden)\n", args[0])
				return nil
			}
			val := viper.Get(args[0])
			if val == nil {
				fmt.Printf("%s: (not set)\n", args[0])
			} else {
				fmt.Printf("%s: %v\n", args[0], val)
			}
			return nil
		},
	}
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show all configuration values",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings := viper.AllSettings()
			keys := make([]string, 0, len(settings))
			for key := range settings {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			for _, key := range keys {
				// Mask sensitive values
				if key == "auth" {
					fmt.Printf("%s: (credentials stored)\n", key)
					continue
				}
				fmt.Printf("%s: %v\n", key, settings[key])
			}
			return nil
		},
	}
}

func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

func writeConfig() error {
	path, err := configPath()
	if err != nil {
		return err
	}
	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
