package database

import (
	"context"
	"errors"
	"path/filepath"
	"pricewatch/internal/model"
	"strings"
	"testing"
	"time"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		if strings.Contains(err.Error(), "cgo") {
			t.Skip("sqlite3 requires cgo")
		}
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close(context.Background()) })
	return db
}

func seed(t *testing.T, db Store) (model.Product, model.Source, model.Alert) {
	t.Helper()
	ctx := context.Background()
	at := time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)
	p := model.Product{ID: "p1", Name: "Switch", IdentifierType: model.IdentifierASIN, IdentifierValue: "B0", CreatedAt: at}
	s := model.Source{ID: "s1", ProductID: "p1", StoreName: "Amazon", URL: "https://a.com/dp/B0",
		CSSSelector: "#price", Currency: "USD", IsActive: true, CreatedAt: at}
	trig := at.Add(time.Hour)
	a := model.Alert{ID: "a1", ProductID: "p1", SourceID: "s1", TargetPrice: 250, State: model.StateTriggered,
		CreatedAt: at, TriggeredAt: &trig}

	if err := db.ProductSave(ctx, p); err != nil {
		t.Fatal(err)
	}
	if err := db.SourceSave(ctx, s); err != nil {
		t.Fatal(err)
	}
	for i, price := range []float64{299.99, 279.5, 249} {
		o := model.PriceObservation{ID: "o" + string(rune('1'+i)), SourceID: "s1", Price: price, Currency: "USD",
			Timestamp: at.Add(time.Duration(i) * time.Minute)}
		if err := db.ObservationInsert(ctx, o); err != nil {
			t.Fatal(err)
		}
	}
	if err := db.AlertSave(ctx, a); err != nil {
		t.Fatal(err)
	}
	return p, s, a
}

func TestSQLiteRoundTrip(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()
	p, s, a := seed(t, db)

	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Products) != 1 || snap.Products[0] != p {
		t.Errorf("products = %+v", snap.Products)
	}
	if len(snap.Sources) != 1 || snap.Sources[0] != s {
		t.Errorf("sources = %+v", snap.Sources)
	}
	if len(snap.Observations) != 3 || snap.Observations[2].Price != 249 || snap.Observations[0].ID != "o1" {
		t.Errorf("observations = %+v", snap.Observations)
	}
	if len(snap.Alerts) != 1 {
		t.Fatalf("alerts = %+v", snap.Alerts)
	}
	got := snap.Alerts[0]
	if got.State != model.StateTriggered || got.TriggeredAt == nil || !got.TriggeredAt.Equal(*a.TriggeredAt) {
		t.Errorf("alert = %+v", got)
	}
}

func TestSQLiteAlertUpsertProjectsFlags(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()
	_, _, a := seed(t, db)

	a.State = model.StatePaused
	a.TriggeredAt = nil
	a.TargetPrice = 200
	if err := db.AlertSave(ctx, a); err != nil {
		t.Fatal(err)
	}
	var isActive, isTriggered bool
	err := db.conn.QueryRow("SELECT is_active, is_triggered FROM alerts WHERE id = ?", a.ID).Scan(&isActive, &isTriggered)
	if err != nil {
		t.Fatal(err)
	}
	if isActive || isTriggered {
		t.Errorf("paused alert stored as is_active=%v is_triggered=%v", isActive, isTriggered)
	}
	snap, _ := db.Load(ctx)
	if len(snap.Alerts) != 1 || snap.Alerts[0].State != model.StatePaused || snap.Alerts[0].TargetPrice != 200 {
		t.Errorf("alerts = %+v", snap.Alerts)
	}
}

func TestSQLitePausedTriggeredAlertKeepsBothFlags(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()
	_, _, a := seed(t, db)

	a.State = model.StateTriggeredPaused
	if err := db.AlertSave(ctx, a); err != nil {
		t.Fatal(err)
	}
	var isActive, isTriggered bool
	err := db.conn.QueryRow("SELECT is_active, is_triggered FROM alerts WHERE id = ?", a.ID).Scan(&isActive, &isTriggered)
	if err != nil {
		t.Fatal(err)
	}
	if isActive || !isTriggered {
		t.Errorf("paused triggered alert stored as is_active=%v is_triggered=%v", isActive, isTriggered)
	}

	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Alerts) != 1 || snap.Alerts[0].State != model.StateTriggeredPaused {
		t.Fatalf("alerts = %+v", snap.Alerts)
	}
	if err = db.AlertSave(ctx, snap.Alerts[0]); err != nil {
		t.Fatal(err)
	}
	if err = db.conn.QueryRow("SELECT is_active FROM alerts WHERE id = ?", a.ID).Scan(&isActive); err != nil {
		t.Fatal(err)
	}
	if isActive {
		t.Error("re-saving a loaded paused triggered alert set is_active")
	}
}

func TestSQLiteProductDeleteCascades(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()
	seed(t, db)

	if err := db.ProductDelete(ctx, "p1"); err != nil {
		t.Fatal(err)
	}
	snap, err := db.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Products)+len(snap.Sources)+len(snap.Observations)+len(snap.Alerts) != 0 {
		t.Errorf("cascade left %+v", snap)
	}
}

func TestSQLiteSourceDeleteCascades(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()
	seed(t, db)

	if err := db.SourceDelete(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	snap, _ := db.Load(ctx)
	if len(snap.Products) != 1 || len(snap.Sources)+len(snap.Observations)+len(snap.Alerts) != 0 {
		t.Errorf("cascade left %+v", snap)
	}
}

func TestSQLiteSettings(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()

	if _, ok, err := db.SettingGet(ctx, SettingDefaultWebhook); ok || err != nil {
		t.Fatalf("unset setting ok=%v err=%v", ok, err)
	}
	_ = db.SettingSet(ctx, SettingDefaultWebhook, "https://ntfy.sh/a")
	_ = db.SettingSet(ctx, SettingDefaultWebhook, "https://ntfy.sh/b")
	v, ok, err := db.SettingGet(ctx, SettingDefaultWebhook)
	if !ok || err != nil || v != "https://ntfy.sh/b" {
		t.Errorf("setting = %q ok=%v err=%v", v, ok, err)
	}
}

func TestOpenRejectsUnknownScheme(t *testing.T) {
	if _, err := Open(context.Background(), "postgres://localhost/db"); !errors.Is(err, ErrUnsupportedURI) {
		t.Errorf("err = %v", err)
	}
}

func TestAlertRecordFlags(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, st := range []model.State{model.StateActive, model.StatePaused, model.StateTriggered, model.StateTriggeredPaused} {
		a := model.Alert{ID: "a", State: st, CreatedAt: at}
		if st.IsTriggered() {
			a.TriggeredAt = &at
		}
		if got := newAlertRecord(a).toModel(); got.State != st {
			t.Errorf("%v round-tripped to %v", st, got.State)
		}
	}
}
