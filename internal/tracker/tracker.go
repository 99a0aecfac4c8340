// Package tracker is the application service: it keeps the catalog, price history and alerts consistent with
// each other and with storage, and runs scrapes through the dispatcher.
package tracker

import (
	"context"
	"github.com/pkg/errors"
	"net/url"
	"pricewatch/internal/alert"
	"pricewatch/internal/cache"
	"pricewatch/internal/catalog"
	"pricewatch/internal/database"
	"pricewatch/internal/history"
	"pricewatch/internal/model"
	"pricewatch/internal/scheduler"
	"strings"
	"sync"
	"time"
)

type Scraper interface {
	Scrape(ctx context.Context, src model.Source) (float64, error)
}

type StatusStore interface {
	Put(ctx context.Context, status model.ScrapeStatus) error
	GetMany(ctx context.Context, ids []string) (map[string]model.ScrapeStatus, error)
	Delete(ctx context.Context, ids ...string) error
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Warnf(format string, v ...any)
	Errorf(format string, v ...any)
}

type Config struct {
	DefaultCurrency string
	DefaultWebhook  string
	ScrapeTimeout   time.Duration
	ScrapeWorkers   int
	ChartLocation   *time.Location
}

type Tracker struct {
	catalog    *catalog.Catalog
	history    *history.Store
	alerts     *alert.Engine
	dispatcher *scheduler.Dispatcher

	store   database.Store
	status  StatusStore
	scraper Scraper
	logger  logger

	scrapeTimeout time.Duration
	chartLocation *time.Location
	now           func() time.Time

	webhookMu      sync.RWMutex
	defaultWebhook string
}

// New wires the tracker. A nil store keeps everything in memory and a nil status keeps scrape statuses in memory.
func New(cfg Config, store database.Store, status StatusStore, scraper Scraper, notifier alert.Notifier,
	l logger) *Tracker {
	if cfg.ScrapeTimeout <= 0 {
		cfg.ScrapeTimeout = 30 * time.Second
	}
	if cfg.ChartLocation == nil {
		cfg.ChartLocation = time.UTC
	}
	if status == nil {
		status = cache.NewMemoryStatus()
	}
	t := &Tracker{
		catalog:        catalog.New(cfg.DefaultCurrency),
		history:        history.NewStore(),
		dispatcher:     scheduler.NewDispatcher(cfg.ScrapeWorkers, l),
		store:          store,
		status:         status,
		scraper:        scraper,
		logger:         l,
		scrapeTimeout:  cfg.ScrapeTimeout,
		chartLocation:  cfg.ChartLocation,
		now:            time.Now,
		defaultWebhook: strings.TrimSpace(cfg.DefaultWebhook),
	}
	t.alerts = alert.NewEngine(notifier, t.DefaultWebhook, l)
	return t
}

// SetClock replaces time.Now for observation timestamps and alert transitions.
func (t *Tracker) SetClock(now func() time.Time) {
	t.now = now
	t.catalog.SetClock(now)
	t.alerts.SetClock(now)
}

// Load restores the persisted state. It must run before the tracker is used.
func (t *Tracker) Load(ctx context.Context) error {
	if t.store == nil {
		return nil
	}
	snap, err := t.store.Load(ctx)
	if err != nil {
		return errors.WithMessage(err, "Load: error loading snapshot")
	}

	orphans := t.catalog.Restore(snap.Products, snap.Sources)
	if len(orphans) > 0 {
		t.logger.Warnf("Load: Skipped %d sources of missing products", len(orphans))
	}
	known := func(sourceID string) bool {
		_, err := t.catalog.Source(sourceID)
		return err == nil
	}

	observations := make([]model.PriceObservation, 0, len(snap.Observations))
	for _, o := range snap.Observations {
		if known(o.SourceID) {
			observations = append(observations, o)
		}
	}
	t.history.Restore(observations)

	alerts := make([]model.Alert, 0, len(snap.Alerts))
	for _, a := range snap.Alerts {
		if known(a.SourceID) {
			alerts = append(alerts, a)
		}
	}
	t.alerts.Restore(alerts)

	if v, ok := snap.Settings[database.SettingDefaultWebhook]; ok {
		t.setDefaultWebhook(v)
	}
	t.logger.Infof("Load: Restored %d products, %d sources, %d observations, %d alerts",
		len(snap.Products), len(snap.Sources)-len(orphans), len(observations), len(alerts))
	return nil
}

// Close stops accepting scrapes and waits for running ones.
func (t *Tracker) Close() {
	t.dispatcher.Stop()
}

// persist runs a write-behind storage call; in-memory state stays authoritative when it fails.
func (t *Tracker) persist(ctx context.Context, funcName string, fn func(ctx context.Context, s database.Store) error) error {
	if t.store == nil {
		return nil
	}
	if err := fn(ctx, t.store); err != nil {
		t.logger.Errorf("%s: Error persisting, err: %v", funcName, err)
		return err
	}
	return nil
}

func (t *Tracker) DefaultWebhook() string {
	t.webhookMu.RLock()
	defer t.webhookMu.RUnlock()
	return t.defaultWebhook
}

func (t *Tracker) setDefaultWebhook(v string) {
	t.webhookMu.Lock()
	defer t.webhookMu.Unlock()
	t.defaultWebhook = v
}

// SetDefaultWebhook changes the webhook used by alerts without their own. An empty URL clears it.
func (t *Tracker) SetDefaultWebhook(ctx context.Context, webhookURL string) error {
	webhookURL = strings.TrimSpace(webhookURL)
	if err := validateWebhook(webhookURL); err != nil {
		return err
	}
	if err := t.persist(ctx, "SetDefaultWebhook", func(ctx context.Context, s database.Store) error {
		return s.SettingSet(ctx, database.SettingDefaultWebhook, webhookURL)
	}); err != nil {
		return err
	}
	t.setDefaultWebhook(webhookURL)
	return nil
}

func validateWebhook(webhookURL string) error {
	if webhookURL == "" {
		return nil
	}
	u, err := url.Parse(webhookURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return model.Invalid("webhookUrl", "%q is not an absolute http(s) URL", webhookURL)
	}
	return nil
}
