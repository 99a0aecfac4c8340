// Package cache keeps the transient outcome of the latest scrape of each source.
package cache

import (
	"context"
	"encoding/json"
	"github.com/go-redis/redis/v9"
	"github.com/pkg/errors"
	"pricewatch/internal/model"
	"sync"
	"time"
)

const (
	keyPrefix = "pricewatch:scrape:"
	statusTTL = 7 * 24 * time.Hour
)

type logger interface {
	Errorf(format string, v ...any)
}

type RedisStatus struct {
	Redis  *redis.Client
	Logger logger
}

func NewRedisStatus(ctx context.Context, address string, l logger) (*RedisStatus, error) {
	rdb := redis.NewClient(&redis.Options{Addr: address})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrapf(err, "NewRedisStatus: error pinging Redis at %s", address)
	}
	return &RedisStatus{Redis: rdb, Logger: l}, nil
}

func (r *RedisStatus) Put(ctx context.Context, status model.ScrapeStatus) error {
	b, err := json.Marshal(status)
	if err != nil {
		return errors.Wrapf(err, "Put: error marshalling status of SourceID: %s", status.SourceID)
	}
	return errors.Wrapf(r.Redis.Set(ctx, keyPrefix+status.SourceID, b, statusTTL).Err(),
		"Put: error setting status of SourceID: %s", status.SourceID)
}

// GetMany returns the known statuses of ids; ids without a status are absent from the map.
func (r *RedisStatus) GetMany(ctx context.Context, ids []string) (map[string]model.ScrapeStatus, error) {
	out := make(map[string]model.ScrapeStatus, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}
	values, err := r.Redis.MGet(ctx, keys...).Result()
	if err != nil && err != redis.Nil {
		return out, errors.Wrap(err, "GetMany: error getting statuses")
	}
	for i, v := range values {
		s, ok := v.(string)
		if !ok {
			continue
		}
		var status model.ScrapeStatus
		if err = json.Unmarshal([]byte(s), &status); err != nil {
			if r.Logger != nil {
				r.Logger.Errorf("GetMany: Error unmarshalling status, key: %s, err: %v", keys[i], err)
			}
			continue
		}
		out[ids[i]] = status
	}
	return out, nil
}

func (r *RedisStatus) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = keyPrefix + id
	}
	return errors.Wrap(r.Redis.Del(ctx, keys...).Err(), "Delete: error deleting statuses")
}

func (r *RedisStatus) Close() error {
	return r.Redis.Close()
}

// MemoryStatus is used when no Redis address is configured.
type MemoryStatus struct {
	mu       sync.RWMutex
	statuses map[string]model.ScrapeStatus
}

func NewMemoryStatus() *MemoryStatus {
	return &MemoryStatus{statuses: make(map[string]model.ScrapeStatus)}
}

func (m *MemoryStatus) Put(_ context.Context, status model.ScrapeStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[status.SourceID] = status
	return nil
}

func (m *MemoryStatus) GetMany(_ context.Context, ids []string) (map[string]model.ScrapeStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]model.ScrapeStatus, len(ids))
	for _, id := range ids {
		if s, ok := m.statuses[id]; ok {
			out[id] = s
		}
	}
	return out, nil
}

func (m *MemoryStatus) Delete(_ context.Context, ids ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.statuses, id)
	}
	return nil
}

func (m *MemoryStatus) Close() error {
	return nil
}
