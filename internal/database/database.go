// Package database persists the catalog, price history, alerts and settings.
//
// The in-memory components are authoritative while the process runs; a Store is written behind them and read
// once at startup through Load.
package database

import (
	"context"
	"github.com/pkg/errors"
	"pricewatch/internal/model"
	"strings"
)

const (
	Name                  = "pricewatch"
	CollectionProducts    = "products"
	CollectionSources     = "sources"
	CollectionObservation = "price_history"
	CollectionAlerts      = "alerts"
	CollectionSettings    = "settings"

	SettingDefaultWebhook = "default_webhook_url"
)

var ErrUnsupportedURI = errors.New("unsupported database URI")

type Store interface {
	ProductSave(ctx context.Context, p model.Product) error
	// ProductDelete removes the product with its sources, their alerts and their history.
	ProductDelete(ctx context.Context, id string) error
	SourceSave(ctx context.Context, s model.Source) error
	// SourceDelete removes the source with its alerts and its history.
	SourceDelete(ctx context.Context, id string) error
	ObservationInsert(ctx context.Context, o model.PriceObservation) error
	AlertSave(ctx context.Context, a model.Alert) error
	AlertDelete(ctx context.Context, id string) error
	SettingGet(ctx context.Context, key string) (string, bool, error)
	SettingSet(ctx context.Context, key string, value string) error
	Load(ctx context.Context) (model.Snapshot, error)
	Close(ctx context.Context) error
}

// Open picks the backend from the URI scheme: mongodb:// and mongodb+srv:// select MongoDB, sqlite://path
// (or an empty URI, for pricewatch.db) selects SQLite.
func Open(ctx context.Context, uri string) (Store, error) {
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return ConnectMongo(ctx, uri)
	case uri == "":
		return OpenSQLite(ctx, "pricewatch.db")
	case strings.HasPrefix(uri, "sqlite://"):
		return OpenSQLite(ctx, strings.TrimPrefix(uri, "sqlite://"))
	}
	return nil, errors.Wrapf(ErrUnsupportedURI, "Open: %q", uri)
}
