// Package dashboard folds catalog, alert and latest price data into the overview shown on the dashboard.
package dashboard

import (
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"pricewatch/internal/misc"
	"pricewatch/internal/model"
)

type AlertCounts struct {
	Total     int `json:"total"`
	Active    int `json:"active"`
	Paused    int `json:"paused"`
	Triggered int `json:"triggered"`
}

// ProductRollup is the per-product line of the dashboard. LowestPrice is nil until any source has a price.
type ProductRollup struct {
	ProductID     string   `json:"productId"`
	Name          string   `json:"name"`
	SourceCount   int      `json:"sourceCount"`
	ActiveSources int      `json:"activeSources"`
	LowestPrice   *float64 `json:"lowestPrice"`
	LowestStore   string   `json:"lowestStore,omitempty"`
	Currency      string   `json:"currency,omitempty"`
	AlertCount    int      `json:"alertCount"`
}

type Summary struct {
	Products      int             `json:"totalProducts"`
	Sources       int             `json:"totalSources"`
	ActiveSources int             `json:"activeSources"`
	Stores        []string        `json:"stores"`
	StoreCount    int             `json:"storeCount"`
	Alerts        AlertCounts     `json:"alerts"`
	Rollups       []ProductRollup `json:"products"`
}

// Summarize is a pure fold; latest maps source ids to their most recent observation.
// Stores is the set of distinct store names, compared exactly.
func Summarize(products []model.Product, sources []model.Source, alerts []model.Alert,
	latest map[string]model.PriceObservation) Summary {
	s := Summary{Products: len(products), Sources: len(sources)}

	rollups := make(map[string]*ProductRollup, len(products))
	order := make([]string, 0, len(products))
	for _, p := range products {
		if _, ok := rollups[p.ID]; ok {
			continue
		}
		rollups[p.ID] = &ProductRollup{ProductID: p.ID, Name: p.Name}
		order = append(order, p.ID)
	}

	stores := make(map[string]struct{})
	for _, src := range sources {
		stores[src.StoreName] = struct{}{}
		if src.IsActive {
			s.ActiveSources++
		}

		r, ok := rollups[src.ProductID]
		if !ok {
			continue
		}
		r.SourceCount++
		if src.IsActive {
			r.ActiveSources++
		}
		obs, ok := latest[src.ID]
		if !ok {
			continue
		}
		if r.LowestPrice == nil || obs.Price < *r.LowestPrice {
			r.LowestPrice = misc.Ptr(obs.Price)
			r.LowestStore = src.StoreName
			r.Currency = obs.Currency
		}
	}

	for _, a := range alerts {
		s.Alerts.Total++
		switch a.State {
		case model.StateActive:
			s.Alerts.Active++
		case model.StatePaused:
			s.Alerts.Paused++
		case model.StateTriggered, model.StateTriggeredPaused:
			s.Alerts.Triggered++
		}
		if r, ok := rollups[a.ProductID]; ok {
			r.AlertCount++
		}
	}

	s.Stores = maps.Keys(stores)
	slices.Sort(s.Stores)
	s.StoreCount = len(s.Stores)

	s.Rollups = make([]ProductRollup, 0, len(order))
	for _, id := range order {
		s.Rollups = append(s.Rollups, *rollups[id])
	}
	return s
}
