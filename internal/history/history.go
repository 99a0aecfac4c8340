// Package history keeps the append-only, per-source log of price observations.
package history

import (
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"math"
	"pricewatch/internal/model"
	"sort"
	"sync"
	"time"
)

// Store is safe for concurrent use. Every log is kept sorted by timestamp; equal timestamps keep insertion order.
type Store struct {
	mu      sync.RWMutex
	logs    map[string][]model.PriceObservation
	dropped map[string]struct{}
}

func NewStore() *Store {
	return &Store{
		logs:    make(map[string][]model.PriceObservation),
		dropped: make(map[string]struct{}),
	}
}

func (s *Store) Append(sourceID string, price float64, currency string, ts time.Time) (model.PriceObservation, error) {
	if sourceID == "" {
		return model.PriceObservation{}, model.Invalid("sourceId", "must not be empty")
	}
	if price < 0 || math.IsNaN(price) || math.IsInf(price, 0) {
		return model.PriceObservation{}, model.Invalid("price", "must be a non-negative number, got %v", price)
	}
	obs := model.PriceObservation{
		ID:        uuid.NewString(),
		SourceID:  sourceID,
		Price:     price,
		Currency:  currency,
		Timestamp: ts,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.dropped[sourceID]; ok {
		return model.PriceObservation{}, errors.Wrapf(model.ErrNotFound, "history of source %s was dropped", sourceID)
	}
	s.logs[sourceID] = insertSorted(s.logs[sourceID], obs)
	return obs, nil
}

func insertSorted(log []model.PriceObservation, obs model.PriceObservation) []model.PriceObservation {
	n := len(log)
	if n == 0 || !obs.Timestamp.Before(log[n-1].Timestamp) {
		return append(log, obs)
	}
	i := sort.Search(n, func(i int) bool { return log[i].Timestamp.After(obs.Timestamp) })
	return slices.Insert(log, i, obs)
}

// Restore loads persisted observations, keeping their ids. Sources already holding history are left untouched.
func (s *Store) Restore(observations []model.PriceObservation) {
	grouped := make(map[string][]model.PriceObservation)
	for _, o := range observations {
		grouped[o.SourceID] = append(grouped[o.SourceID], o)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, log := range grouped {
		if len(s.logs[id]) > 0 {
			continue
		}
		sort.SliceStable(log, func(i, j int) bool { return log[i].Timestamp.Before(log[j].Timestamp) })
		s.logs[id] = log
	}
}

// Query returns a copy of the observations with from <= timestamp <= to in ascending order.
// A zero from or to leaves that side unbounded.
func (s *Store) Query(sourceID string, from, to time.Time) []model.PriceObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[sourceID]
	lo, hi := 0, len(log)
	if !from.IsZero() {
		lo = sort.Search(len(log), func(i int) bool { return !log[i].Timestamp.Before(from) })
	}
	if !to.IsZero() {
		hi = sort.Search(len(log), func(i int) bool { return log[i].Timestamp.After(to) })
	}
	if lo >= hi {
		return []model.PriceObservation{}
	}
	return slices.Clone(log[lo:hi])
}

func (s *Store) All(sourceID string) []model.PriceObservation {
	return s.Query(sourceID, time.Time{}, time.Time{})
}

// Latest is the most recent observation of the unbounded window.
func (s *Store) Latest(sourceID string) (model.PriceObservation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.logs[sourceID]
	if len(log) == 0 {
		return model.PriceObservation{}, false
	}
	return log[len(log)-1], true
}

func (s *Store) Len(sourceID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.logs[sourceID])
}

// Drop makes the history of a deleted source unreachable and rejects any later append for it.
func (s *Store) Drop(sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.logs, sourceID)
	s.dropped[sourceID] = struct{}{}
}
