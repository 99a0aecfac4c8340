// Package alert owns price alerts and their lifecycle.
//
// An alert is Active (watching), Paused (suspended by the user) or Triggered (the price reached the target and
// the user has not acknowledged it yet). Evaluate moves Active alerts whose target was reached to Triggered exactly
// once; only Edit leads out of Triggered again. Pause and Resume toggle the active bit in every state, so a
// triggered alert can be paused and still shows as triggered.
package alert

import (
	"context"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"pricewatch/internal/misc"
	"pricewatch/internal/model"
	"strings"
	"sync"
	"time"
)

type Notifier interface {
	Notify(ctx context.Context, webhookURL string, n model.Notification) error
}

type logger interface {
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

// Subject describes the source an observation belongs to, for notification texts.
type Subject struct {
	SourceID    string
	ProductName string
	StoreName   string
	URL         string
	Currency    string
}

type Trigger struct {
	Alert      model.Alert
	Price      float64
	WebhookURL string
}

type Delivery struct {
	Trigger
	Err error
}

type Engine struct {
	mu       sync.RWMutex
	alerts   map[string]*model.Alert
	bySource map[string]map[string]struct{}

	notifier       Notifier
	defaultWebhook func() string
	now            func() time.Time
	logger         logger
}

// NewEngine wires the notifier and the provider of the process-wide default webhook URL; both may be nil.
func NewEngine(notifier Notifier, defaultWebhook func() string, l logger) *Engine {
	if defaultWebhook == nil {
		defaultWebhook = func() string { return "" }
	}
	return &Engine{
		alerts:         make(map[string]*model.Alert),
		bySource:       make(map[string]map[string]struct{}),
		notifier:       notifier,
		defaultWebhook: defaultWebhook,
		now:            time.Now,
		logger:         l,
	}
}

// SetClock replaces time.Now, for tests and replays.
func (e *Engine) SetClock(now func() time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

func (e *Engine) index(a *model.Alert) {
	e.alerts[a.ID] = a
	ids, ok := e.bySource[a.SourceID]
	if !ok {
		ids = make(map[string]struct{})
		e.bySource[a.SourceID] = ids
	}
	ids[a.ID] = struct{}{}
}

func (e *Engine) unindex(a *model.Alert) {
	delete(e.alerts, a.ID)
	if ids, ok := e.bySource[a.SourceID]; ok {
		delete(ids, a.ID)
		if len(ids) == 0 {
			delete(e.bySource, a.SourceID)
		}
	}
}

func (e *Engine) Create(productID, sourceID string, targetPrice float64, webhookURL string) (model.Alert, error) {
	if productID == "" {
		return model.Alert{}, model.Invalid("productId", "must not be empty")
	}
	if sourceID == "" {
		return model.Alert{}, model.Invalid("sourceId", "must not be empty")
	}
	if err := model.ValidateTarget(targetPrice); err != nil {
		return model.Alert{}, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	a := &model.Alert{
		ID:          uuid.NewString(),
		ProductID:   productID,
		SourceID:    sourceID,
		TargetPrice: targetPrice,
		WebhookURL:  strings.TrimSpace(webhookURL),
		State:       model.StateActive,
		CreatedAt:   e.now(),
	}
	e.index(a)
	return *a, nil
}

// Restore loads persisted alerts as they are, replacing any alert with the same id.
func (e *Engine) Restore(alerts []model.Alert) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range alerts {
		a := alerts[i]
		if old, ok := e.alerts[a.ID]; ok {
			e.unindex(old)
		}
		e.index(&a)
	}
}

func (e *Engine) Get(id string) (model.Alert, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	a, ok := e.alerts[id]
	if !ok {
		return model.Alert{}, errors.Wrapf(model.ErrNotFound, "alert %s", id)
	}
	return *a, nil
}

// List returns every alert, newest first.
func (e *Engine) List() []model.Alert {
	return e.filter(func(*model.Alert) bool { return true })
}

func (e *Engine) ListByProduct(productID string) []model.Alert {
	return e.filter(func(a *model.Alert) bool { return a.ProductID == productID })
}

func (e *Engine) ListBySource(sourceID string) []model.Alert {
	e.mu.RLock()
	out := make([]model.Alert, 0, len(e.bySource[sourceID]))
	for id := range e.bySource[sourceID] {
		out = append(out, *e.alerts[id])
	}
	e.mu.RUnlock()
	sortNewestFirst(out)
	return out
}

func (e *Engine) filter(keep func(*model.Alert) bool) []model.Alert {
	e.mu.RLock()
	out := make([]model.Alert, 0, len(e.alerts))
	for _, a := range e.alerts {
		if keep(a) {
			out = append(out, *a)
		}
	}
	e.mu.RUnlock()
	sortNewestFirst(out)
	return out
}

func sortNewestFirst(alerts []model.Alert) {
	slices.SortFunc(alerts, func(a, b model.Alert) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// mutate applies fn to the stored alert under the write lock and returns the result.
func (e *Engine) mutate(id string, fn func(a *model.Alert)) (model.Alert, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.alerts[id]
	if !ok {
		return model.Alert{}, errors.Wrapf(model.ErrNotFound, "alert %s", id)
	}
	fn(a)
	return *a, nil
}

// Edit re-arms the alert at targetPrice whatever its state. A nil webhookURL keeps the current one.
func (e *Engine) Edit(id string, targetPrice float64, webhookURL *string) (model.Alert, error) {
	if err := model.ValidateTarget(targetPrice); err != nil {
		return model.Alert{}, err
	}
	return e.mutate(id, func(a *model.Alert) {
		a.TargetPrice = targetPrice
		if webhookURL != nil {
			a.WebhookURL = strings.TrimSpace(*webhookURL)
		}
		a.State = model.StateActive
		a.TriggeredAt = nil
	})
}

// Pause clears the active bit. A triggered alert stays triggered and keeps its triggeredAt.
func (e *Engine) Pause(id string) (model.Alert, error) {
	return e.mutate(id, func(a *model.Alert) {
		switch a.State {
		case model.StateActive:
			a.State = model.StatePaused
		case model.StateTriggered:
			a.State = model.StateTriggeredPaused
		}
	})
}

// Resume sets the active bit. Only Edit brings a triggered alert back to watching.
func (e *Engine) Resume(id string) (model.Alert, error) {
	return e.mutate(id, func(a *model.Alert) {
		switch a.State {
		case model.StatePaused:
			a.State = model.StateActive
		case model.StateTriggeredPaused:
			a.State = model.StateTriggered
		}
	})
}

func (e *Engine) Delete(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.alerts[id]
	if !ok {
		return errors.Wrapf(model.ErrNotFound, "alert %s", id)
	}
	e.unindex(a)
	return nil
}

// DeleteBySource removes every alert of a source and returns their ids.
func (e *Engine) DeleteBySource(sourceID string) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	ids := make([]string, 0, len(e.bySource[sourceID]))
	for id := range e.bySource[sourceID] {
		ids = append(ids, id)
	}
	for _, id := range ids {
		e.unindex(e.alerts[id])
	}
	slices.Sort(ids)
	return ids
}

// Evaluate triggers every Active alert of the source whose target is at or above currentPrice.
// It does no I/O; the returned triggers carry the resolved webhook URL.
func (e *Engine) Evaluate(sourceID string, currentPrice float64) []Trigger {
	e.mu.Lock()
	defer e.mu.Unlock()
	var triggers []Trigger
	for id := range e.bySource[sourceID] {
		a := e.alerts[id]
		if a.State != model.StateActive || currentPrice > a.TargetPrice {
			continue
		}
		a.State = model.StateTriggered
		a.TriggeredAt = misc.Ptr(e.now())
		webhook := a.WebhookURL
		if webhook == "" {
			webhook = e.defaultWebhook()
		}
		triggers = append(triggers, Trigger{Alert: *a, Price: currentPrice, WebhookURL: webhook})
	}
	slices.SortFunc(triggers, func(a, b Trigger) int { return strings.Compare(a.Alert.ID, b.Alert.ID) })
	return triggers
}

// EvaluateAndNotify runs Evaluate and then notifies each trigger outside the lock. A failed delivery is reported
// in its Delivery and leaves the alert triggered.
func (e *Engine) EvaluateAndNotify(ctx context.Context, subject Subject, currentPrice float64) []Delivery {
	triggers := e.Evaluate(subject.SourceID, currentPrice)
	deliveries := make([]Delivery, 0, len(triggers))
	for _, t := range triggers {
		d := Delivery{Trigger: t}
		if e.logger != nil {
			e.logger.Infof("EvaluateAndNotify: Alert triggered, AlertID: %s, price: %.2f, target: %.2f",
				t.Alert.ID, t.Price, t.Alert.TargetPrice)
		}
		if e.notifier != nil {
			d.Err = e.notifier.Notify(ctx, t.WebhookURL, model.Notification{
				AlertID:      t.Alert.ID,
				ProductName:  subject.ProductName,
				StoreName:    subject.StoreName,
				ProductURL:   subject.URL,
				Currency:     subject.Currency,
				CurrentPrice: t.Price,
				TargetPrice:  t.Alert.TargetPrice,
				TriggeredAt:  *t.Alert.TriggeredAt,
			})
			if d.Err != nil && e.logger != nil {
				e.logger.Errorf("EvaluateAndNotify: Error notifying for AlertID: %s, err: %v", t.Alert.ID, d.Err)
			}
		}
		deliveries = append(deliveries, d)
	}
	return deliveries
}
