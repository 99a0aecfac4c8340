package tracker

import (
	"context"
	"github.com/pkg/errors"
	"pricewatch/internal/alert"
	"pricewatch/internal/database"
	"pricewatch/internal/model"
	"time"
)

const (
	ScrapeSuccess = "success"
	ScrapeFailed  = "failed"
)

type ScrapeResult struct {
	SourceID  string  `json:"id"`
	Status    string  `json:"status"`
	Price     float64 `json:"price,omitempty"`
	Error     string  `json:"error,omitempty"`
	Triggered int     `json:"triggered"`
}

type ScrapeSummary struct {
	Success int            `json:"success"`
	Failed  int            `json:"failed"`
	Details []ScrapeResult `json:"details"`
}

// record appends an observation and evaluates the alerts of its source. Callers run it inside the source's lane.
func (t *Tracker) record(ctx context.Context, src model.Source, price float64, ts time.Time) (model.PriceObservation, []alert.Delivery, error) {
	obs, err := t.history.Append(src.ID, price, src.Currency, ts)
	if err != nil {
		return obs, nil, err
	}
	_ = t.persist(ctx, "record", func(ctx context.Context, s database.Store) error {
		return s.ObservationInsert(ctx, obs)
	})

	subject := alert.Subject{SourceID: src.ID, StoreName: src.StoreName, URL: src.URL, Currency: src.Currency}
	if p, err := t.catalog.Product(src.ProductID); err == nil {
		subject.ProductName = p.Name
	}
	current := price
	if latest, ok := t.history.Latest(src.ID); ok {
		current = latest.Price
	}
	deliveries := t.alerts.EvaluateAndNotify(ctx, subject, current)
	for _, d := range deliveries {
		a := d.Alert
		_ = t.persist(ctx, "record", func(ctx context.Context, s database.Store) error {
			return s.AlertSave(ctx, a)
		})
	}
	return obs, deliveries, nil
}

// inLane runs fn in the lane of sourceID and waits for it, or for ctx.
func (t *Tracker) inLane(ctx context.Context, sourceID string, fn func(ctx context.Context)) error {
	done, err := t.dispatcher.Submit(sourceID, fn)
	if err != nil {
		return err
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RecordObservation stores a price obtained outside the scraper, timestamped now.
func (t *Tracker) RecordObservation(ctx context.Context, sourceID string, price float64) (model.PriceObservation, error) {
	src, err := t.catalog.Source(sourceID)
	if err != nil {
		return model.PriceObservation{}, err
	}
	var obs model.PriceObservation
	var recErr error
	err = t.inLane(ctx, sourceID, func(jobCtx context.Context) {
		obs, _, recErr = t.record(jobCtx, src, price, t.now())
	})
	if err != nil {
		return model.PriceObservation{}, err
	}
	return obs, recErr
}

// scrape runs inside the lane of src. A failed scrape records its status and nothing else.
func (t *Tracker) scrape(jobCtx context.Context, src model.Source) ScrapeResult {
	res := ScrapeResult{SourceID: src.ID, Status: ScrapeFailed}
	started := t.now()
	ctx, cancel := context.WithTimeout(jobCtx, t.scrapeTimeout)
	price, err := t.scraper.Scrape(ctx, src)
	if err == nil && ctx.Err() != nil {
		err = errors.WithMessage(ctx.Err(), "scrape returned after its deadline")
	}
	cancel()

	status := model.ScrapeStatus{SourceID: src.ID, AttemptedAt: started}
	if err == nil {
		var deliveries []alert.Delivery
		_, deliveries, err = t.record(jobCtx, src, price, t.now())
		res.Triggered = len(deliveries)
	}
	status.Duration = t.now().Sub(started).Milliseconds()
	if err != nil {
		res.Error = err.Error()
		status.Error = res.Error
		t.logger.Warnf("scrape: Scrape failed, SourceID: %s, URL: %s, err: %v", src.ID, src.URL, err)
	} else {
		res.Status = ScrapeSuccess
		res.Price = price
		status.OK = true
		status.Price = price
		t.logger.Debugf("scrape: Scraped, SourceID: %s, price: %.2f", src.ID, price)
	}
	if err := t.status.Put(jobCtx, status); err != nil {
		t.logger.Errorf("scrape: Error saving scrape status, SourceID: %s, err: %v", src.ID, err)
	}
	return res
}

// ScrapeSource scrapes one source now, whether it is active or not.
func (t *Tracker) ScrapeSource(ctx context.Context, sourceID string) (ScrapeResult, error) {
	src, err := t.catalog.Source(sourceID)
	if err != nil {
		return ScrapeResult{}, err
	}
	var res ScrapeResult
	if err = t.inLane(ctx, sourceID, func(jobCtx context.Context) {
		res = t.scrape(jobCtx, src)
	}); err != nil {
		return ScrapeResult{}, errors.WithMessagef(err, "ScrapeSource: SourceID: %s", sourceID)
	}
	return res, nil
}

// ScrapeAll scrapes every active source, in parallel up to the worker count, and waits for all of them.
func (t *Tracker) ScrapeAll(ctx context.Context) (ScrapeSummary, error) {
	sources := t.catalog.ActiveSources()
	results := make([]ScrapeResult, len(sources))
	dones := make([]<-chan struct{}, 0, len(sources))
	for i, src := range sources {
		i, src := i, src
		done, err := t.dispatcher.Submit(src.ID, func(jobCtx context.Context) {
			results[i] = t.scrape(jobCtx, src)
		})
		if err != nil {
			return ScrapeSummary{}, errors.WithMessage(err, "ScrapeAll: error submitting scrape")
		}
		dones = append(dones, done)
	}
	for _, done := range dones {
		select {
		case <-done:
		case <-ctx.Done():
			return ScrapeSummary{}, ctx.Err()
		}
	}

	summary := ScrapeSummary{Details: results}
	for _, r := range results {
		if r.Status == ScrapeSuccess {
			summary.Success++
		} else {
			summary.Failed++
		}
	}
	t.logger.Infof("ScrapeAll: Sweep finished, success: %d, failed: %d", summary.Success, summary.Failed)
	return summary, nil
}

// ScrapeStatuses returns the latest scrape outcome of every source that has one.
func (t *Tracker) ScrapeStatuses(ctx context.Context) (map[string]model.ScrapeStatus, error) {
	sources := t.catalog.Sources("")
	ids := make([]string, len(sources))
	for i, s := range sources {
		ids[i] = s.ID
	}
	return t.status.GetMany(ctx, ids)
}
