// Package analytics holds the pure windowing and statistics functions over price history slices.
package analytics

import (
	"github.com/pkg/errors"
	"golang.org/x/exp/slices"
	"pricewatch/internal/misc"
	"pricewatch/internal/model"
	"time"
)

type Range string

const (
	Range7D  Range = "7d"
	Range30D Range = "30d"
	Range90D Range = "90d"
	RangeAll Range = "all"

	DefaultRange = Range30D
)

var rangeDays = map[Range]int{
	Range7D:  7,
	Range30D: 30,
	Range90D: 90,
}

func ParseRange(s string) (Range, error) {
	if s == "" {
		return DefaultRange, nil
	}
	r := Range(s)
	if r == RangeAll {
		return r, nil
	}
	if _, ok := rangeDays[r]; !ok {
		return "", errors.WithStack(model.Invalid("range", "%q is not one of 7d, 30d, 90d, all", s))
	}
	return r, nil
}

// Cutoff is the earliest timestamp kept by r at now. RangeAll and unknown ranges reach back to the Unix epoch.
func (r Range) Cutoff(now time.Time) time.Time {
	days, ok := rangeDays[r]
	if !ok {
		return time.Unix(0, 0)
	}
	return now.AddDate(0, 0, -days)
}

// Window returns a new slice with the observations at or after the cutoff of r, stably sorted by timestamp.
// The input is never modified and may be unsorted.
func Window(history []model.PriceObservation, r Range, now time.Time) []model.PriceObservation {
	cutoff := r.Cutoff(now)
	out := make([]model.PriceObservation, 0, len(history))
	for _, o := range history {
		if !o.Timestamp.Before(cutoff) {
			out = append(out, o)
		}
	}
	slices.SortStableFunc(out, func(a, b model.PriceObservation) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

type Stats struct {
	Current   float64   `json:"current"`
	First     float64   `json:"first"`
	Min       float64   `json:"min"`
	Max       float64   `json:"max"`
	Avg       float64   `json:"avg"`
	ChangePct float64   `json:"change"`
	Count     int       `json:"count"`
	From      time.Time `json:"from"`
	To        time.Time `json:"to"`
}

// Compute expects an ascending window as produced by Window. It reports false for an empty window.
func Compute(windowed []model.PriceObservation) (Stats, bool) {
	if len(windowed) == 0 {
		return Stats{}, false
	}
	first, last := windowed[0], windowed[len(windowed)-1]
	st := Stats{
		Current: last.Price,
		First:   first.Price,
		Min:     first.Price,
		Max:     first.Price,
		Count:   len(windowed),
		From:    first.Timestamp,
		To:      last.Timestamp,
	}
	prices := make([]float64, len(windowed))
	for i, o := range windowed {
		st.Min = misc.Min(st.Min, o.Price)
		st.Max = misc.Max(st.Max, o.Price)
		prices[i] = o.Price
	}
	st.Avg = misc.Mean(prices...)
	st.ChangePct = misc.ChangePercent(st.First, st.Current)
	return st, true
}

// Summarize windows history by r and computes its Stats.
func Summarize(history []model.PriceObservation, r Range, now time.Time) ([]model.PriceObservation, Stats, bool) {
	w := Window(history, r, now)
	st, ok := Compute(w)
	return w, st, ok
}
