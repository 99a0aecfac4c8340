package tracker

import (
	"context"
	"github.com/pkg/errors"
	"pricewatch/internal/database"
	"pricewatch/internal/model"
	"strings"
)

// CreateAlert watches sourceID, which must belong to productID, for a price at or below target.
func (t *Tracker) CreateAlert(ctx context.Context, productID, sourceID string, target float64, webhookURL string) (model.Alert, error) {
	webhookURL = strings.TrimSpace(webhookURL)
	if err := validateWebhook(webhookURL); err != nil {
		return model.Alert{}, err
	}
	if productID != "" && sourceID != "" {
		src, err := t.catalog.Source(sourceID)
		if err != nil {
			return model.Alert{}, err
		}
		if src.ProductID != productID {
			return model.Alert{}, model.Invalid("sourceId", "source %s does not belong to product %s", sourceID, productID)
		}
	}
	a, err := t.alerts.Create(productID, sourceID, target, webhookURL)
	if err != nil {
		return a, err
	}
	if err = t.persist(ctx, "CreateAlert", func(ctx context.Context, s database.Store) error {
		return s.AlertSave(ctx, a)
	}); err != nil {
		_ = t.alerts.Delete(a.ID)
		return model.Alert{}, errors.WithMessage(err, "CreateAlert: error saving alert")
	}
	// A DeleteSource that ran between the check above and Create has already swept the source's alerts.
	if _, err = t.catalog.Source(sourceID); err != nil {
		t.dropAlert(ctx, "CreateAlert", a.ID)
		return model.Alert{}, err
	}
	t.logger.Infof("CreateAlert: Alert created, AlertID: %s, SourceID: %s, target: %.2f", a.ID, sourceID, target)
	return a, nil
}

func (t *Tracker) saveAlert(ctx context.Context, funcName string, a model.Alert, err error) (model.Alert, error) {
	if err != nil {
		return a, err
	}
	_ = t.persist(ctx, funcName, func(ctx context.Context, s database.Store) error {
		return s.AlertSave(ctx, a)
	})
	return a, nil
}

// EditAlert re-arms the alert with a new target. A nil webhookURL keeps the current one.
func (t *Tracker) EditAlert(ctx context.Context, id string, target float64, webhookURL *string) (model.Alert, error) {
	if webhookURL != nil {
		if err := validateWebhook(strings.TrimSpace(*webhookURL)); err != nil {
			return model.Alert{}, err
		}
	}
	a, err := t.alerts.Edit(id, target, webhookURL)
	return t.saveAlert(ctx, "EditAlert", a, err)
}

func (t *Tracker) PauseAlert(ctx context.Context, id string) (model.Alert, error) {
	a, err := t.alerts.Pause(id)
	return t.saveAlert(ctx, "PauseAlert", a, err)
}

func (t *Tracker) ResumeAlert(ctx context.Context, id string) (model.Alert, error) {
	a, err := t.alerts.Resume(id)
	return t.saveAlert(ctx, "ResumeAlert", a, err)
}

func (t *Tracker) DeleteAlert(ctx context.Context, id string) error {
	if err := t.alerts.Delete(id); err != nil {
		return err
	}
	t.dropAlert(ctx, "DeleteAlert", id)
	return nil
}

// dropAlert removes the alert from the engine, if still there, and from the store.
func (t *Tracker) dropAlert(ctx context.Context, funcName string, id string) {
	_ = t.alerts.Delete(id)
	_ = t.persist(ctx, funcName, func(ctx context.Context, s database.Store) error {
		return s.AlertDelete(ctx, id)
	})
}

func (t *Tracker) Alert(id string) (model.Alert, error) {
	return t.alerts.Get(id)
}

// Alerts lists alerts newest first, filtered by source when sourceID is set, else by product when productID is set.
func (t *Tracker) Alerts(productID, sourceID string) []model.Alert {
	switch {
	case sourceID != "":
		return t.alerts.ListBySource(sourceID)
	case productID != "":
		return t.alerts.ListByProduct(productID)
	}
	return t.alerts.List()
}
