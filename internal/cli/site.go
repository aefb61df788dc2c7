package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pratik-mahalle/darkwatch/internal/console"
	"github.com/pratik-mahalle/darkwatch/internal/task"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

func newSiteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "site",
		Aliases: []string{"sites"},
		Short:   "Manage crawl targets, scrapers and telegram accounts",
	}

	cmd.AddCommand(newSiteListCmd())
	cmd.AddCommand(newSiteCreateCmd())
	cmd.AddCommand(newSiteUpdateCmd())
	cmd.AddCommand(newSiteDeleteCmd())
	cmd.AddCommand(newSiteScrapeCmd())
	cmd.AddCommand(newSiteStatsCmd())
	cmd.AddCommand(newSiteScrapersCmd())
	cmd.AddCommand(newSiteUploadScraperCmd())
	cmd.AddCommand(newSiteDeleteScraperCmd())
	cmd.AddCommand(newSiteTelegramCmd())
	cmd.AddCommand(newSiteTelegramAddCmd())
	cmd.AddCommand(newSiteTelegramRemoveCmd())

	return cmd
}

func newSiteListCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sites",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Sites.Sites.Loader, &flags,
				[]string{"ID", "NAME", "CATEGORY", "STATUS", "SCRAPER", "LAST SCRAPE", "URL"},
				func(s client.Site) []string {
					scrape := formatTime(s.LastScrapedAt)
					if s.ScrapeStatus != "" {
						scrape += " (" + s.ScrapeStatus + ")"
					}
					return []string{
						formatID(s.ID),
						truncate(s.Name, 25),
						s.Category,
						formatStatus(s.Status),
						formatOptionalID(s.ScraperID),
						scrape,
						truncate(s.URL, 50),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newSiteCreateCmd() *cobra.Command {
	var req client.CreateSiteRequest
	var scraperID int64

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a site to crawl",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Name == "" {
				req.Name = promptInput("Name: ")
			}
			if req.URL == "" {
				req.URL = promptInput("URL: ")
			}
			req.ScraperID = changed(cmd, "scraper", scraperID)

			site, err := app.Console.Sites.Sites.Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to create site: %w", err)
			}
			fmt.Printf("Site '%s' created (ID %d)\n", site.Name, site.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Name, "name", "", "site name")
	cmd.Flags().StringVar(&req.URL, "url", "", "site URL")
	cmd.Flags().StringVar(&req.Category, "category", "forum", "forum, marketplace, paste, leak, telegram")
	cmd.Flags().Int64Var(&scraperID, "scraper", 0, "scraper ID")

	return cmd
}

func newSiteUpdateCmd() *cobra.Command {
	var name, url, category, status string
	var scraperID int64

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "site")
			if err != nil {
				return err
			}

			site, err := app.Console.Sites.Sites.Update(cmd.Context(), id, client.UpdateSiteRequest{
				Name:      changed(cmd, "name", name),
				URL:       changed(cmd, "url", url),
				Category:  changed(cmd, "category", category),
				Status:    changed(cmd, "status", status),
				ScraperID: changed(cmd, "scraper", scraperID),
			})
			if err != nil {
				return fmt.Errorf("failed to update site: %w", err)
			}
			fmt.Printf("Site %d updated\n", site.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "site name")
	cmd.Flags().StringVar(&url, "url", "", "site URL")
	cmd.Flags().StringVar(&category, "category", "", "forum, marketplace, paste, leak, telegram")
	cmd.Flags().StringVar(&status, "status", "", "active or paused")
	cmd.Flags().Int64Var(&scraperID, "scraper", 0, "scraper ID")

	return cmd
}

func newSiteDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a site",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "site")
			if err != nil {
				return err
			}

			if err := app.Console.Sites.Sites.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete site: %w", err)
			}
			fmt.Printf("Site %d deleted\n", id)
			return nil
		},
	}
}

func newSiteScrapeCmd() *cobra.Command {
	var wait bool

	cmd := &cobra.Command{
		Use:   "scrape <id>",
		Short: "Run the site's scraper",
		Long: `Run the site's scraper as a background task. With --wait the task is
polled until it succeeds or fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "site")
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var opts []task.WatchOption
			if wait {
				opts = append(opts, task.OnUpdate(func(st client.TaskStatus) {
					fmt.Printf("  %s\n", formatStatus(string(st.Status)))
				}))
			}

			h, err := app.Console.Sites.RunScraper(ctx, id, opts...)
			if err != nil {
				return fmt.Errorf("failed to start scrape: %w", err)
			}
			fmt.Printf("Scrape submitted (task %s)\n", h.TaskID())

			if !wait {
				h.Cancel()
				return nil
			}

			st, err := h.Wait(ctx)
			if err != nil {
				return err
			}
			if getOutputFormat() != "table" {
				return printOutput(st)
			}
			fmt.Println("Scrape completed")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the scrape to finish")

	return cmd
}

func newSiteStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show scraping activity",
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Console.Sites.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to get site stats: %w", err)
			}
			return printOne(stats,
				[2]string{"Sites", fmt.Sprint(stats.TotalSites)},
				[2]string{"Active", fmt.Sprint(stats.ActiveSites)},
				[2]string{"Scrapes (24h)", fmt.Sprint(stats.Last24hScrapes)},
				[2]string{"Failed scrapes", fmt.Sprint(stats.FailedScrapes)},
			)
		},
	}
}

func newSiteScrapersCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "scrapers",
		Short: "List uploaded scrapers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Sites.Scrapers, &flags,
				[]string{"ID", "NAME", "FILE", "VERSION", "UPLOADED"},
				func(s client.Scraper) []string {
					return []string{
						formatID(s.ID),
						s.Name,
						s.Filename,
						s.Version,
						formatTime(&s.UploadedAt),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newSiteUploadScraperCmd() *cobra.Command {
	var name, path string

	cmd := &cobra.Command{
		Use:   "upload-scraper",
		Short: "Upload a scraper module",
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				return fmt.Errorf("--file is required")
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("failed to open scraper file: %w", err)
			}
			defer f.Close()

			in := console.UploadScraperInput{Name: name, Filename: filepath.Base(path)}
			if in.Name == "" {
				in.Name = in.Filename
			}

			scraper, err := app.Console.Sites.UploadScraper(cmd.Context(), in, f)
			if err != nil {
				return fmt.Errorf("failed to upload scraper: %w", err)
			}
			fmt.Printf("Scraper '%s' uploaded (ID %d)\n", scraper.Name, scraper.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "scraper name (default: file name)")
	cmd.Flags().StringVar(&path, "file", "", "path to the scraper module")

	return cmd
}

func newSiteDeleteScraperCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete-scraper <id>",
		Short: "Delete a scraper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "scraper")
			if err != nil {
				return err
			}

			if err := app.Console.Sites.DeleteScraper(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to delete scraper: %w", err)
			}
			fmt.Printf("Scraper %d deleted\n", id)
			return nil
		},
	}
}

func newSiteTelegramCmd() *cobra.Command {
	var flags listFlags

	cmd := &cobra.Command{
		Use:   "telegram",
		Short: "List telegram accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listView(cmd.Context(), app.Console.Sites.Telegram.Loader, &flags,
				[]string{"ID", "PHONE", "USERNAME", "API ID", "STATUS"},
				func(a client.TelegramAccount) []string {
					return []string{
						formatID(a.ID),
						a.Phone,
						a.Username,
						formatID(a.APIID),
						formatStatus(a.Status),
					}
				})
		},
	}
	flags.bind(cmd)

	return cmd
}

func newSiteTelegramAddCmd() *cobra.Command {
	var req client.CreateTelegramAccountRequest

	cmd := &cobra.Command{
		Use:   "telegram-add",
		Short: "Add a telegram account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if req.Phone == "" {
				req.Phone = promptInput("Phone (E.164): ")
			}
			if req.APIHash == "" {
				req.APIHash = promptPassword("API hash: ")
			}

			account, err := app.Console.Sites.Telegram.Create(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("failed to add telegram account: %w", err)
			}
			fmt.Printf("Telegram account %s added (ID %d)\n", account.Phone, account.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&req.Phone, "phone", "", "phone number in E.164 format")
	cmd.Flags().StringVar(&req.Username, "username", "", "telegram username")
	cmd.Flags().Int64Var(&req.APIID, "api-id", 0, "telegram API ID")
	cmd.Flags().StringVar(&req.APIHash, "api-hash", "", "telegram API hash (prompted when empty)")

	return cmd
}

func newSiteTelegramRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "telegram-remove <id>",
		Short: "Remove a telegram account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "telegram account")
			if err != nil {
				return err
			}

			if err := app.Console.Sites.Telegram.Delete(cmd.Context(), id); err != nil {
				return fmt.Errorf("failed to remove telegram account: %w", err)
			}
			fmt.Printf("Telegram account %d removed\n", id)
			return nil
		},
	}
}
