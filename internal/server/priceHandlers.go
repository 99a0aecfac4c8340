package server

import (
	"github.com/gorilla/mux"
	"net/http"
	"pricewatch/internal/analytics"
)

func (s Server) parseRange(w http.ResponseWriter, r *http.Request, funcName string) (analytics.Range, bool) {
	rng, err := analytics.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		s.writeError(w, r, funcName, err)
		return rng, false
	}
	return rng, true
}

func (s Server) priceHistory() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, ok := s.parseRange(w, r, "priceHistory")
		if !ok {
			return
		}
		h, err := s.Tracker.History(mux.Vars(r)["sourceID"], rng)
		if err != nil {
			s.writeError(w, r, "priceHistory", err)
			return
		}
		s.writeData(w, h, http.StatusOK)
	}
}

func (s Server) productPrices() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, ok := s.parseRange(w, r, "productPrices")
		if !ok {
			return
		}
		h, err := s.Tracker.ProductHistory(mux.Vars(r)["productID"], rng)
		if err != nil {
			s.writeError(w, r, "productPrices", err)
			return
		}
		s.writeData(w, h, http.StatusOK)
	}
}

// priceRecord stores a manually reported price and evaluates the alerts of the source.
func (s Server) priceRecord() http.HandlerFunc {
	type request struct {
		Price float64 `json:"price"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if !s.decodeJSON(w, r, "priceRecord", &req) {
			return
		}
		obs, err := s.Tracker.RecordObservation(r.Context(), mux.Vars(r)["sourceID"], req.Price)
		if err != nil {
			s.writeError(w, r, "priceRecord", err)
			return
		}
		s.writeData(w, obs, http.StatusCreated)
	}
}

func (s Server) chartGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rng, ok := s.parseRange(w, r, "chartGet")
		if !ok {
			return
		}
		c, err := s.Tracker.Chart(mux.Vars(r)["productID"], rng)
		if err != nil {
			s.writeError(w, r, "chartGet", err)
			return
		}
		s.writeData(w, c, http.StatusOK)
	}
}

func (s Server) dashboardGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeData(w, s.Tracker.Dashboard(), http.StatusOK)
	}
}
