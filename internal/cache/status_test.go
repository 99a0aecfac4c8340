package cache

import (
	"context"
	"os"
	"pricewatch/internal/model"
	"testing"
	"time"
)

type statusStore interface {
	Put(ctx context.Context, status model.ScrapeStatus) error
	GetMany(ctx context.Context, ids []string) (map[string]model.ScrapeStatus, error)
	Delete(ctx context.Context, ids ...string) error
	Close() error
}

func exerciseStatusStore(t *testing.T, s statusStore) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if err := s.Put(ctx, model.ScrapeStatus{SourceID: "a", OK: true, Price: 19.99, AttemptedAt: at}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, model.ScrapeStatus{SourceID: "b", Error: "selector matched nothing", AttemptedAt: at}); err != nil {
		t.Fatal(err)
	}
	if err := s.Put(ctx, model.ScrapeStatus{SourceID: "a", OK: true, Price: 17.49, AttemptedAt: at.Add(time.Hour)}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetMany(ctx, []string{"a", "b", "missing"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("GetMany = %+v", got)
	}
	if got["a"].Price != 17.49 || !got["a"].AttemptedAt.Equal(at.Add(time.Hour)) {
		t.Errorf("a = %+v", got["a"])
	}
	if got["b"].OK || got["b"].Error == "" {
		t.Errorf("b = %+v", got["b"])
	}

	if err = s.Delete(ctx, "a"); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetMany(ctx, []string{"a", "b"})
	if _, ok := got["a"]; ok || len(got) != 1 {
		t.Errorf("after delete = %+v", got)
	}
	_ = s.Delete(ctx, "b")
}

func TestMemoryStatus(t *testing.T) {
	s := NewMemoryStatus()
	defer s.Close()
	exerciseStatusStore(t, s)
}

func TestRedisStatus(t *testing.T) {
	addr := os.Getenv("PRICEWATCH_TEST_REDIS")
	if addr == "" {
		t.Skip("PRICEWATCH_TEST_REDIS not set")
	}
	s, err := NewRedisStatus(context.Background(), addr, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	exerciseStatusStore(t, s)
}
