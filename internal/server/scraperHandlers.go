package server

import (
	"context"
	"github.com/gorilla/mux"
	"net/http"
	"pricewatch/internal/client"
	"pricewatch/internal/model"
	"strings"
)

// scraperRunAll starts a sweep in the background and answers right away.
func (s Server) scraperRunAll() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.sweeping.Load() {
			s.writeFailure(w, "a scrape sweep is already running", http.StatusConflict)
			return
		}
		go s.fetchData(context.Background())
		s.writeData(w, map[string]string{"message": "scrape started"}, http.StatusAccepted)
	}
}

func (s Server) scraperRunOne() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.Tracker.ScrapeSource(r.Context(), mux.Vars(r)["sourceID"])
		if err != nil {
			s.writeError(w, r, "scraperRunOne", err)
			return
		}
		s.writeData(w, res, http.StatusOK)
	}
}

func (s Server) scraperStatus() http.HandlerFunc {
	type response struct {
		Running  bool                          `json:"running"`
		Statuses map[string]model.ScrapeStatus `json:"sources"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		statuses, err := s.Tracker.ScrapeStatuses(r.Context())
		if err != nil {
			s.writeError(w, r, "scraperStatus", err)
			return
		}
		s.writeData(w, response{Running: s.sweeping.Load(), Statuses: statuses}, http.StatusOK)
	}
}

func (s Server) urlParse() http.HandlerFunc {
	type request struct {
		URL        string `json:"url"`
		FetchTitle bool   `json:"fetchTitle"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if !s.decodeJSON(w, r, "urlParse", &req) {
			return
		}
		if strings.TrimSpace(req.URL) == "" {
			s.writeError(w, r, "urlParse", model.Invalid("url", "must not be empty"))
			return
		}
		parsed := client.ParseProductURL(req.URL)
		if req.FetchTitle && s.Analyzer != nil {
			title, err := s.Analyzer.FetchProductTitle(r.Context(), req.URL)
			if err != nil {
				s.Logger.Debugf("urlParse: Error fetching title, url: %s, err: %v, TraceID: %s",
					req.URL, err, getTraceContext(r.Context()).traceID)
			} else {
				parsed.ProductName = title
			}
		}
		s.writeData(w, parsed, http.StatusOK)
	}
}

func (s Server) urlPresets() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeData(w, client.StorePresets, http.StatusOK)
	}
}

type webhookSetting struct {
	WebhookURL string `json:"webhookUrl"`
}

func (s Server) settingsWebhookGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeData(w, webhookSetting{WebhookURL: s.Tracker.DefaultWebhook()}, http.StatusOK)
	}
}

func (s Server) settingsWebhookSet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := webhookSetting{}
		if !s.decodeJSON(w, r, "settingsWebhookSet", &req) {
			return
		}
		if err := s.Tracker.SetDefaultWebhook(r.Context(), req.WebhookURL); err != nil {
			s.writeError(w, r, "settingsWebhookSet", err)
			return
		}
		s.writeData(w, webhookSetting{WebhookURL: s.Tracker.DefaultWebhook()}, http.StatusOK)
	}
}
