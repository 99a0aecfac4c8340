package database

import (
	"context"
	"database/sql"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	"pricewatch/internal/model"
)

// Timestamps are stored as Unix nanoseconds so that ORDER BY keeps their order.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS products (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	identifier_type TEXT NOT NULL,
	identifier_value TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS sources (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	store_name TEXT NOT NULL,
	url TEXT NOT NULL,
	css_selector TEXT NOT NULL,
	currency TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sources_product ON sources(product_id);
CREATE TABLE IF NOT EXISTS price_history (
	id TEXT PRIMARY KEY,
	source_id TEXT NOT NULL,
	price REAL NOT NULL,
	currency TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_price_history_source ON price_history(source_id, fetched_at);
CREATE TABLE IF NOT EXISTS alerts (
	id TEXT PRIMARY KEY,
	product_id TEXT NOT NULL,
	source_id TEXT NOT NULL,
	target_price REAL NOT NULL,
	webhook_url TEXT,
	is_active BOOLEAN NOT NULL DEFAULT 1,
	is_triggered BOOLEAN NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL,
	triggered_at INTEGER
);
CREATE INDEX IF NOT EXISTS idx_alerts_source ON alerts(source_id);
CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

type SQLiteStore struct {
	conn *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, errors.Wrapf(err, "OpenSQLite: error opening %s", path)
	}
	// One connection keeps ":memory:" databases shared and serializes writers.
	conn.SetMaxOpenConns(1)
	if _, err = conn.ExecContext(ctx, sqliteSchema); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "OpenSQLite: error creating schema in %s", path)
	}
	return &SQLiteStore{conn: conn}, nil
}

func (db *SQLiteStore) ProductSave(ctx context.Context, p model.Product) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO products (id, name, identifier_type, identifier_value, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, identifier_type = excluded.identifier_type,
		identifier_value = excluded.identifier_value`,
		p.ID, p.Name, string(p.IdentifierType), p.IdentifierValue, unixNano(p.CreatedAt),
	)
	return errors.Wrapf(err, "error saving ProductID: %s", p.ID)
}

func (db *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "error beginning transaction")
	}
	if err = fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "error committing transaction")
}

func (db *SQLiteStore) ProductDelete(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM price_history WHERE source_id IN (SELECT id FROM sources WHERE product_id = ?)",
			"DELETE FROM alerts WHERE product_id = ?",
			"DELETE FROM sources WHERE product_id = ?",
			"DELETE FROM products WHERE id = ?",
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return errors.Wrapf(err, "error deleting ProductID: %s", id)
			}
		}
		return nil
	})
}

func (db *SQLiteStore) SourceSave(ctx context.Context, s model.Source) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO sources (id, product_id, store_name, url, css_selector, currency, is_active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET store_name = excluded.store_name, url = excluded.url,
		css_selector = excluded.css_selector, currency = excluded.currency, is_active = excluded.is_active`,
		s.ID, s.ProductID, s.StoreName, s.URL, s.CSSSelector, s.Currency, s.IsActive, unixNano(s.CreatedAt),
	)
	return errors.Wrapf(err, "error saving SourceID: %s", s.ID)
}

func (db *SQLiteStore) SourceDelete(ctx context.Context, id string) error {
	return db.inTx(ctx, func(tx *sql.Tx) error {
		stmts := []string{
			"DELETE FROM price_history WHERE source_id = ?",
			"DELETE FROM alerts WHERE source_id = ?",
			"DELETE FROM sources WHERE id = ?",
		}
		for _, stmt := range stmts {
			if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
				return errors.Wrapf(err, "error deleting SourceID: %s", id)
			}
		}
		return nil
	})
}

func (db *SQLiteStore) ObservationInsert(ctx context.Context, o model.PriceObservation) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO price_history (id, source_id, price, currency, fetched_at) VALUES (?, ?, ?, ?, ?)",
		o.ID, o.SourceID, o.Price, o.Currency, unixNano(o.Timestamp),
	)
	return errors.Wrapf(err, "error inserting PriceObservation: %+v", o)
}

func (db *SQLiteStore) AlertSave(ctx context.Context, a model.Alert) error {
	isActive, isTriggered := a.Flags()
	var triggeredAt sql.NullInt64
	if a.TriggeredAt != nil {
		triggeredAt = sql.NullInt64{Int64: unixNano(*a.TriggeredAt), Valid: true}
	}
	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO alerts (id, product_id, source_id, target_price, webhook_url, is_active, is_triggered,
		created_at, triggered_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET target_price = excluded.target_price, webhook_url = excluded.webhook_url,
		is_active = excluded.is_active, is_triggered = excluded.is_triggered, triggered_at = excluded.triggered_at`,
		a.ID, a.ProductID, a.SourceID, a.TargetPrice, a.WebhookURL, isActive, isTriggered,
		unixNano(a.CreatedAt), triggeredAt,
	)
	return errors.Wrapf(err, "error saving AlertID: %s", a.ID)
}

func (db *SQLiteStore) AlertDelete(ctx context.Context, id string) error {
	_, err := db.conn.ExecContext(ctx, "DELETE FROM alerts WHERE id = ?", id)
	return errors.Wrapf(err, "error deleting AlertID: %s", id)
}

func (db *SQLiteStore) SettingGet(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := db.conn.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, errors.Wrapf(err, "error getting setting: %s", key)
	}
	return value, true, nil
}

func (db *SQLiteStore) SettingSet(ctx context.Context, key string, value string) error {
	_, err := db.conn.ExecContext(ctx,
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return errors.Wrapf(err, "error setting: %s", key)
}

// scanAll runs query and calls scan once per row.
func (db *SQLiteStore) scanAll(ctx context.Context, query string, scan func(rows *sql.Rows) error) error {
	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return errors.Wrapf(err, "error querying: %s", query)
	}
	defer rows.Close()
	for rows.Next() {
		if err = scan(rows); err != nil {
			return errors.Wrapf(err, "error scanning: %s", query)
		}
	}
	return errors.Wrapf(rows.Err(), "error iterating: %s", query)
}

func (db *SQLiteStore) Load(ctx context.Context) (model.Snapshot, error) {
	snap := model.Snapshot{Settings: make(map[string]string)}

	err := db.scanAll(ctx, "SELECT id, name, identifier_type, identifier_value, created_at FROM products",
		func(rows *sql.Rows) error {
			var p model.Product
			var idType string
			var createdAt int64
			if err := rows.Scan(&p.ID, &p.Name, &idType, &p.IdentifierValue, &createdAt); err != nil {
				return err
			}
			p.IdentifierType = model.IdentifierType(idType)
			p.CreatedAt = fromUnixNano(createdAt)
			snap.Products = append(snap.Products, p)
			return nil
		})
	if err != nil {
		return snap, err
	}

	err = db.scanAll(ctx,
		"SELECT id, product_id, store_name, url, css_selector, currency, is_active, created_at FROM sources",
		func(rows *sql.Rows) error {
			var s model.Source
			var createdAt int64
			if err := rows.Scan(&s.ID, &s.ProductID, &s.StoreName, &s.URL, &s.CSSSelector, &s.Currency,
				&s.IsActive, &createdAt); err != nil {
				return err
			}
			s.CreatedAt = fromUnixNano(createdAt)
			snap.Sources = append(snap.Sources, s)
			return nil
		})
	if err != nil {
		return snap, err
	}

	err = db.scanAll(ctx,
		"SELECT id, source_id, price, currency, fetched_at FROM price_history ORDER BY source_id, fetched_at, rowid",
		func(rows *sql.Rows) error {
			var o model.PriceObservation
			var fetchedAt int64
			if err := rows.Scan(&o.ID, &o.SourceID, &o.Price, &o.Currency, &fetchedAt); err != nil {
				return err
			}
			o.Timestamp = fromUnixNano(fetchedAt)
			snap.Observations = append(snap.Observations, o)
			return nil
		})
	if err != nil {
		return snap, err
	}

	err = db.scanAll(ctx,
		`SELECT id, product_id, source_id, target_price, webhook_url, is_active, is_triggered, created_at,
		triggered_at FROM alerts`,
		func(rows *sql.Rows) error {
			var a model.Alert
			var webhook sql.NullString
			var isActive, isTriggered bool
			var createdAt int64
			var triggeredAt sql.NullInt64
			if err := rows.Scan(&a.ID, &a.ProductID, &a.SourceID, &a.TargetPrice, &webhook, &isActive,
				&isTriggered, &createdAt, &triggeredAt); err != nil {
				return err
			}
			a.WebhookURL = webhook.String
			a.State = model.StateFromFlags(isActive, isTriggered)
			a.CreatedAt = fromUnixNano(createdAt)
			if triggeredAt.Valid {
				t := fromUnixNano(triggeredAt.Int64)
				a.TriggeredAt = &t
			}
			snap.Alerts = append(snap.Alerts, a)
			return nil
		})
	if err != nil {
		return snap, err
	}

	err = db.scanAll(ctx, "SELECT key, value FROM settings", func(rows *sql.Rows) error {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return err
		}
		snap.Settings[k] = v
		return nil
	})
	return snap, err
}

func (db *SQLiteStore) Close(context.Context) error {
	return db.conn.Close()
}
