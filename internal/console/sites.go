package console

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/internal/task"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

// UploadScraperInput is what the scraper upload form collects
type UploadScraperInput struct {
	Name     string `json:"name" validate:"required,min=2"`
	Filename string `json:"filename" validate:"required"`
}

// Sites is the sites page: crawl targets, scraper modules and telegram accounts
type Sites struct {
	Sites     *collection.Synchronizer[client.Site, client.CreateSiteRequest, client.UpdateSiteRequest]
	Scrapers  *collection.Loader[client.Scraper]
	Telegram  *collection.Synchronizer[client.TelegramAccount, client.CreateTelegramAccountRequest, client.UpdateTelegramAccountRequest]
	sites     *client.SiteService
	scrapers  *client.ScraperService
	poller    *task.Poller
	now       func() time.Time
	watchesMu sync.Mutex
	watches   map[string]*task.Handle
}

// NewSites creates the sites page
func NewSites(d Deps) *Sites {
	sites := d.Client.Sites()
	scrapers := d.Client.Scrapers()
	poller := d.Poller
	if poller == nil {
		poller = task.NewPoller(task.Config{}, d.Logger, nil)
	}
	return &Sites{
		Sites: collection.New[client.Site, client.CreateSiteRequest, client.UpdateSiteRequest](
			"sites", sites, d.options(SiteSearchFields)...),
		Scrapers: collection.NewLoader[client.Scraper]("scrapers", scrapers, d.options(ScraperSearchFields)...),
		Telegram: collection.New[client.TelegramAccount, client.CreateTelegramAccountRequest, client.UpdateTelegramAccountRequest](
			"telegram_accounts", d.Client.TelegramAccounts(), d.options(TelegramSearchFields)...),
		sites:    sites,
		scrapers: scrapers,
		poller:   poller,
		now:      time.Now,
		watches:  make(map[string]*task.Handle),
	}
}

// Load fetches the three collections of the page concurrently
func (s *Sites) Load(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Sites.Load(ctx) })
	g.Go(func() error { return s.Scrapers.Load(ctx) })
	g.Go(func() error { return s.Telegram.Load(ctx) })
	return g.Wait()
}

// Stats reads scraping activity counters
func (s *Sites) Stats(ctx context.Context) (*client.SiteStats, error) {
	return s.sites.Stats(ctx)
}

// RunScraper submits a scrape of site id and watches the task until it ends.
// The site's scrape_status follows the task state. The returned handle must
// be canceled by the caller on teardown; Close cancels any still running.
func (s *Sites) RunScraper(ctx context.Context, id int64, opts ...task.WatchOption) (*task.Handle, error) {
	var ref *client.TaskRef
	err := s.Sites.PatchAfter(ctx, "run_scraper", id, func(ctx context.Context) error {
		var err error
		ref, err = s.sites.RunScraper(ctx, id)
		return err
	}, func(site *client.Site) {
		site.ScrapeStatus = string(client.TaskPending)
	})
	if err != nil {
		return nil, err
	}

	watch := append([]task.WatchOption{
		task.OnUpdate(func(st client.TaskStatus) {
			s.Sites.PatchLocal("scrape_status", id, func(site *client.Site) {
				site.ScrapeStatus = string(st.Status)
			})
		}),
		s.onDone(id, ref.TaskID),
	}, opts...)

	s.watchesMu.Lock()
	defer s.watchesMu.Unlock()
	h := s.poller.Start(ctx, ref.TaskID, s.sites.TaskStatus, watch...)
	s.watches[ref.TaskID] = h
	return h, nil
}

// onDone records the outcome on the site before any caller callback runs
func (s *Sites) onDone(id int64, taskID string) task.WatchOption {
	return task.OnDone(func(st *client.TaskStatus, err error) {
		s.watchesMu.Lock()
		delete(s.watches, taskID)
		s.watchesMu.Unlock()

		if st == nil {
			return
		}
		finished := s.now()
		s.Sites.PatchLocal("scrape_finished", id, func(site *client.Site) {
			site.ScrapeStatus = string(st.Status)
			if st.Status == client.TaskSuccess {
				site.LastScrapedAt = &finished
			}
		})
	})
}

// Watches returns the number of task watches still running
func (s *Sites) Watches() int {
	s.watchesMu.Lock()
	defer s.watchesMu.Unlock()
	return len(s.watches)
}

// UploadScraper uploads a scraper module and appends it to the scraper list
func (s *Sites) UploadScraper(ctx context.Context, in UploadScraperInput, content io.Reader) (*client.Scraper, error) {
	if err := s.Scrapers.Validate(in); err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("%w: scraper file is empty", client.ErrValidation)
	}
	return s.Scrapers.Add(ctx, "upload", func(ctx context.Context) (*client.Scraper, error) {
		return s.scrapers.Upload(ctx, in.Name, in.Filename, content)
	})
}

// DeleteScraper confirms and removes a scraper module
func (s *Sites) DeleteScraper(ctx context.Context, id int64) error {
	return s.Scrapers.Discard(ctx, "delete", id, func(ctx context.Context) error {
		return s.scrapers.Delete(ctx, id)
	})
}

// Close detaches the stores and cancels running watches
func (s *Sites) Close() {
	s.Sites.Close()
	s.Scrapers.Close()
	s.Telegram.Close()

	s.watchesMu.Lock()
	handles := make([]*task.Handle, 0, len(s.watches))
	for _, h := range s.watches {
		handles = append(handles, h)
	}
	s.watchesMu.Unlock()
	for _, h := range handles {
		h.Cancel()
	}
}
