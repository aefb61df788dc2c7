package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pratik-mahalle/darkwatch/internal/config"
	"github.com/pratik-mahalle/darkwatch/internal/console"
	"github.com/pratik-mahalle/darkwatch/internal/credentials"
	"github.com/pratik-mahalle/darkwatch/internal/pkg/logger"
	"github.com/pratik-mahalle/darkwatch/internal/pkg/metrics"
	"github.com/pratik-mahalle/darkwatch/internal/pkg/validator"
	"github.com/pratik-mahalle/darkwatch/internal/task"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

var (
	cfgFile      string
	outputFormat string
	serverURL    string
	assumeYes    bool
	verbose      bool
)

// App is everything a command needs, built once per run
type App struct {
	Config      *config.Config
	Logger      *logger.Logger
	Metrics     *metrics.Collector
	Credentials credentials.Store
	Client      *client.Client
	Console     *console.Console
}

var app *App

var rootCmd = &cobra.Command{
	Use:   "darkwatch",
	Short: "darkwatch - admin console for the dark web monitoring platform",
	Long: `darkwatch manages the dark web monitoring platform from the command line:
customer companies, operator accounts, billing, crawl targets and scrapers,
subscription plans, monitored resources and alerts.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// config commands only touch the config file
		if cmd.Parent() != nil && cmd.Parent().Name() == "config" {
			return nil
		}
		return initApp()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if app != nil && app.Console != nil {
			app.Console.Close()
		}
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the command tree; an interrupt cancels the running command
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.darkwatch/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "API URL (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "do not ask for confirmation")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("server_url", rootCmd.PersistentFlags().Lookup("server"))

	rootCmd.AddCommand(newAuthCmd())
	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newStatusCmd())
	rootCmd.AddCommand(newCompanyCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newBillingCmd())
	rootCmd.AddCommand(newSiteCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newMonitorCmd())
	rootCmd.AddCommand(newSettingsCmd())
}

func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".darkwatch"), nil
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		dir, err := configDir()
		if err != nil {
			fmt.Fprintln(os.Stderr, "Error:", err)
			return
		}
		_ = os.MkdirAll(dir, 0700)
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("DARKWATCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("output", "table")

	_ = viper.ReadInConfig()
}

// loadConfig layers the config file and flags over the environment
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if url := viper.GetString("server_url"); url != "" {
		cfg.API.URL = strings.TrimRight(url, "/")
	}
	if serverURL != "" {
		cfg.API.URL = strings.TrimRight(serverURL, "/")
	}
	if store := viper.GetString("credential_store"); store != "" {
		cfg.Credentials.Store = store
	}
	if level := viper.GetString("log_level"); level != "" {
		cfg.Logging.Level = level
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func initApp() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	log := logger.Init(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	collector := metrics.New()

	store, err := credentials.Open(cfg.Credentials, cfg.API.URL, viper.GetViper(), writeConfig)
	if err != nil {
		return err
	}

	c := client.NewClient(client.Config{
		BaseURL:     cfg.API.URL,
		Credentials: store,
		Timeout:     cfg.API.Timeout,
		RateLimit:   cfg.API.RateLimit,
		Burst:       cfg.API.Burst,
		Tracing:     cfg.API.Tracing,
		Observer:    collector,
	})

	poller := task.NewPoller(task.Config{
		Interval:  cfg.Poll.Interval,
		MaxErrors: cfg.Poll.MaxErrors,
	}, log.Component("task"), collector)

	app = &App{
		Config:      cfg,
		Logger:      log,
		Metrics:     collector,
		Credentials: store,
		Client:      c,
		Console: console.New(console.Deps{
			Client:    c,
			Poller:    poller,
			Logger:    log.Component("collection"),
			Recorder:  collector,
			Confirmer: newConfirmer(os.Stdin, os.Stderr, assumeYes),
			Validator: validator.New(),
		}),
	}

	log.WithFields(map[string]interface{}{
		"api_url":          cfg.API.URL,
		"credential_store": cfg.Credentials.Store,
	}).Debug("CLI initialized")
	return nil
}

func getOutputFormat() string {
	if outputFormat != "" && outputFormat != "table" {
		return outputFormat
	}
	return viper.GetString("output")
}
