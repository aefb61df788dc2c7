package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/internal/pkg/logger"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func newMonitorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "monitor",
		Aliases: []string{"mon"},
		Short:   "Monitored resources and leak alerts",
	}

	cmd.AddCommand(newMonitorListCmd())
	cmd.AddCommand(newMonitorAddCmd())
	cmd.AddCommand(newMonitorUpdateCmd())
	cmd.AddCommand(newMonitorRemoveCmd())
	cmd.AddCommand(newMonitorAlertsCmd())
	cmd.AddCommand(newMonitorAlertActionCmd("ack", "Acknowledge an alert"))
	cmd.AddCommand(newMonitorAlertActionCmd("resolve", "Resolve an alert"))
	cmd.AddCommand(newMonitorWatchCmd())

	return cmd
}

func newMonitorListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List monitored resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Monitoring.Resources.Loader, &flags,
				[]string{"ID", "KEYWORD", "TYPE", "COMPANY", "STATUS", "LAST HIT"},
				func(r client.MonitoredResource) []string {
					return []string{
						formatID(r.ID),
						truncate(r.Keyword, 40),
						r.ResourceType,
						formatOptionalID(r.CompanyID),
						formatStatus(r.Status),
						formatTime(r.LastHitAt),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newMonitorAddCmd() *cobra.Command {
	var req client.CreateMonitoredResourceRequest
	var companyID int64

	cmd := &cobra.Command{
		Use:   "add <keyword>",
		Short: "Start monitoring a keyword, domain, email or IP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Keyword = args[0]
			req.CompanyID = changed(cmd, "company", companyID)

			res, err := app.Console.Monitoring.Resources.Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to add monitored resource: %w", err)
			}
			fmt.Printf("Monitoring %s '%s' (ID %d)\n", res.ResourceType, res.Keyword, res.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&req.ResourceType, "type", "t", "keyword", "domain, email, keyword, ip")
	cmd.Flags().Int64Var(&companyID, "company", 0, "company ID")

	return cmd
}

func newMonitorUpdateCmd() *cobra.Command {
	var keyword, resourceType, status string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a monitored resource",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "monitored resource")
			if err != nil {
				return err
			}

			res, err := app.Console.Monitoring.Resources.Update(cmd.Context(), id, client.UpdateMonitoredResourceRequest{
				Keyword:      changed(cmd, "keyword", keyword),
				ResourceType: changed(cmd, "type", resourceType),
				Status:       changed(cmd, "status", status),
			})
			if err != nil {
				return fmt.Errorf("failed to update monitored resource: %w", err)
			}
			fmt.Printf("Monitored resource %d updated\n", res.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&keyword, "keyword", "", "keyword")
	cmd.Flags().StringVarP(&resourceType, "type", "t", "", "domain, email, keyword, ip")
	cmd.Flags().StringVar(&status, "status", "", "active or paused")

	return cmd
}

func newMonitorRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <id>",
		Aliases: []string{"rm"},
		Short:   "Stop monitoring a resource",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "monitored resource")
			if err != nil {
				return err
			}

			if err := app.Console.Monitoring.Resources.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to remove monitored resource: %w", err)
			}
			fmt.Printf("Monitored resource %d removed\n", id)
			return nil
		},
	}
}

func alertRow(a client.Alert) []string {
	return []string{
		formatID(a.ID),
		formatSeverity(a.Severity),
		truncate(a.Title, 45),
		formatID(a.MonitoredResourceID),
		a.Source,
		formatStatus(a.Status),
		formatTime(&a.DetectedAt),
	}
}

var alertHeaders = []string{"ID", "SEVERITY", "TITLE", "RESOURCE", "SOURCE", "STATUS", "DETECTED"}

func newMonitorAlertsCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "alerts",
		Short: "List leak alerts",
		Long: `List leak alerts. Narrow the list with filters, for example:

  darkwatch monitor alerts -f severity=critical -f status=open
  darkwatch monitor alerts --where 'severity == "high" && source == "telegram"'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Monitoring.Alerts, &flags, alertHeaders, alertRow)
		},
	}
	flags.bind(cmd)

	return cmd
}

func newMonitorAlertActionCmd(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " <alert-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "alert")
			if err != nil {
				return err
			}

			mon := app.Console.Monitoring
			set := mon.Acknowledge
			if action == "resolve" {
				set = mon.Resolve
			}
			alert, err := set(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("failed to %s alert: %w", action, err)
			}
			fmt.Printf("Alert %d is now %s\n", alert.ID, alert.Status)
			return nil
		},
	}
}

func newMonitorWatchCmd() *cobra.Command {
	var schedule, metricsAddr string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for new alerts on a schedule",
		Long: `Refetch alerts on a cron schedule and print the ones not seen before.
Accepts standard cron expressions and descriptors such as "@every 30s".
With --metrics-addr the process also serves Prometheus metrics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if !cmd.Flags().Changed("metrics-addr") {
				metricsAddr = app.Config.Metrics.Addr
			}
			return runWatch(ctx, schedule, metricsAddr)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "@every 30s", "cron schedule for alert refreshes")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve /metrics on this address")

	return cmd
}

// alertWatcher remembers which alerts were already shown. Ticks are serialized
// so a slow refresh cannot overlap the next one.
type alertWatcher struct {
	alerts *collection.Loader[client.Alert]
	log    *logger.Logger
	out    io.Writer
	format string

	mu   sync.Mutex
	seen map[int64]struct{}
}

func newAlertWatcher(alerts *collection.Loader[client.Alert], log *logger.Logger, out io.Writer, format string) *alertWatcher {
	return &alertWatcher{
		alerts: alerts,
		log:    log,
		out:    out,
		format: format,
		seen:   make(map[int64]struct{}),
	}
}

// prime loads the alerts and marks them as seen
func (w *alertWatcher) prime(ctx context.Context) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.alerts.Load(ctx); err != nil {
		return 0, err
	}
	for _, a := range w.alerts.Items() {
		w.seen[a.ID] = struct{}{}
	}
	return len(w.seen), nil
}

// tick refetches the alerts and prints the ones not seen before
func (w *alertWatcher) tick(ctx context.Context) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.alerts.Refetch(ctx); err != nil {
		w.log.WarnWithErr(err, "alert refresh failed")
		return
	}
	var fresh []client.Alert
	for _, a := range w.alerts.Items() {
		if _, ok := w.seen[a.ID]; ok {
			continue
		}
		w.seen[a.ID] = struct{}{}
		fresh = append(fresh, a)
	}
	if len(fresh) == 0 {
		return
	}
	if err := w.print(fresh); err != nil {
		w.log.WarnWithErr(err, "printing alerts")
	}
}

func (w *alertWatcher) print(alerts []client.Alert) error {
	switch w.format {
	case "json":
		return printJSON(w.out, alerts)
	case "yaml":
		return printYAML(w.out, alerts)
	}
	t := NewTable(alertHeaders...)
	t.writer = w.out
	for _, a := range alerts {
		t.AddRow(alertRow(a)...)
	}
	t.Render()
	return nil
}

// newWatchScheduler runs job on schedule, skipping a run while the previous one
// is still going
func newWatchScheduler(schedule string, job func()) (*cron.Cron, error) {
	scheduler := cron.New(
		cron.WithParser(cron.NewParser(
			cron.Minute|cron.Hour|cron.Dom|cron.Month|cron.Dow|cron.Descriptor,
		)),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)
	if _, err := scheduler.AddFunc(schedule, job); err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", schedule, err)
	}
	return scheduler, nil
}

func runWatch(ctx context.Context, schedule, metricsAddr string) error {
	log := app.Logger.Component("watch")
	w := newAlertWatcher(app.Console.Monitoring.Alerts, log, os.Stdout, getOutputFormat())

	n, err := w.prime(ctx)
	if err != nil {
		return fmt.Errorf("failed to load alerts: %w", err)
	}
	fmt.Printf("Watching %d alerts (%s), press Ctrl+C to stop\n", n, schedule)

	scheduler, err := newWatchScheduler(schedule, func() { w.tick(ctx) })
	if err != nil {
		return err
	}

	var srv *http.Server
	if metricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics.Handler())
		srv = &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.ErrorWithErr(err, "metrics server failed")
			}
		}()
		log.With("addr", metricsAddr).Info("serving metrics")
	}

	scheduler.Start()
	<-ctx.Done()

	// Wait for a running refresh before the stores are closed.
	<-scheduler.Stop().Done()
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WarnWithErr(err, "metrics server shutdown")
		}
	}
	fmt.Println("Stopped")
	return nil
}
