package tracker

import (
	"pricewatch/internal/analytics"
	"pricewatch/internal/chart"
	"pricewatch/internal/dashboard"
	"pricewatch/internal/model"
)

// SourceHistory is the windowed history of one source with its statistics; Stats is nil for an empty window.
type SourceHistory struct {
	Source       model.Source             `json:"source"`
	Range        analytics.Range          `json:"range"`
	Observations []model.PriceObservation `json:"history"`
	Stats        *analytics.Stats         `json:"stats"`
	Latest       *model.PriceObservation  `json:"latest"`
}

func (t *Tracker) sourceHistory(src model.Source, r analytics.Range) SourceHistory {
	w, st, ok := analytics.Summarize(t.history.All(src.ID), r, t.now())
	h := SourceHistory{Source: src, Range: r, Observations: w}
	if ok {
		h.Stats = &st
	}
	if latest, ok := t.history.Latest(src.ID); ok {
		h.Latest = &latest
	}
	return h
}

func (t *Tracker) History(sourceID string, r analytics.Range) (SourceHistory, error) {
	src, err := t.catalog.Source(sourceID)
	if err != nil {
		return SourceHistory{}, err
	}
	return t.sourceHistory(src, r), nil
}

// ProductHistory returns the windowed history of every source of the product, in source order.
func (t *Tracker) ProductHistory(productID string, r analytics.Range) ([]SourceHistory, error) {
	if _, err := t.catalog.Product(productID); err != nil {
		return nil, err
	}
	sources := t.catalog.Sources(productID)
	out := make([]SourceHistory, 0, len(sources))
	for _, src := range sources {
		out = append(out, t.sourceHistory(src, r))
	}
	return out, nil
}

func (t *Tracker) Chart(productID string, r analytics.Range) (chart.Chart, error) {
	if _, err := t.catalog.Product(productID); err != nil {
		return chart.Chart{}, err
	}
	sources := t.catalog.Sources(productID)
	inputs := make([]chart.Input, 0, len(sources))
	for _, src := range sources {
		inputs = append(inputs, chart.Input{SourceID: src.ID, StoreName: src.StoreName, History: t.history.All(src.ID)})
	}
	return chart.Project(inputs, r, t.now(), t.chartLocation), nil
}

func (t *Tracker) Dashboard() dashboard.Summary {
	sources := t.catalog.Sources("")
	latest := make(map[string]model.PriceObservation, len(sources))
	for _, src := range sources {
		if o, ok := t.history.Latest(src.ID); ok {
			latest[src.ID] = o
		}
	}
	return dashboard.Summarize(t.catalog.Products(), sources, t.alerts.List(), latest)
}
