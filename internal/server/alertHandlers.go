package server

import (
	"github.com/gorilla/mux"
	"net/http"
	"pricewatch/internal/model"
	"time"
)

type alertView struct {
	ID          string     `json:"id"`
	ProductID   string     `json:"productId"`
	SourceID    string     `json:"sourceId"`
	TargetPrice float64    `json:"targetPrice"`
	WebhookURL  string     `json:"webhookUrl,omitempty"`
	IsActive    bool       `json:"isActive"`
	IsTriggered bool       `json:"isTriggered"`
	State       string     `json:"state"`
	CreatedAt   time.Time  `json:"createdAt"`
	TriggeredAt *time.Time `json:"triggeredAt"`
}

func newAlertView(a model.Alert) alertView {
	isActive, isTriggered := a.Flags()
	return alertView{
		ID:          a.ID,
		ProductID:   a.ProductID,
		SourceID:    a.SourceID,
		TargetPrice: a.TargetPrice,
		WebhookURL:  a.WebhookURL,
		IsActive:    isActive,
		IsTriggered: isTriggered,
		State:       a.State.String(),
		CreatedAt:   a.CreatedAt,
		TriggeredAt: a.TriggeredAt,
	}
}

func (s Server) alertList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		alerts := s.Tracker.Alerts(q.Get("productId"), q.Get("sourceId"))
		views := make([]alertView, 0, len(alerts))
		for _, a := range alerts {
			views = append(views, newAlertView(a))
		}
		s.writeData(w, views, http.StatusOK)
	}
}

func (s Server) alertCreate() http.HandlerFunc {
	type request struct {
		ProductID   string  `json:"productId"`
		SourceID    string  `json:"sourceId"`
		TargetPrice float64 `json:"targetPrice"`
		WebhookURL  string  `json:"webhookUrl"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if !s.decodeJSON(w, r, "alertCreate", &req) {
			return
		}
		a, err := s.Tracker.CreateAlert(r.Context(), req.ProductID, req.SourceID, req.TargetPrice, req.WebhookURL)
		if err != nil {
			s.writeError(w, r, "alertCreate", err)
			return
		}
		s.writeData(w, newAlertView(a), http.StatusCreated)
	}
}

func (s Server) alertGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.Tracker.Alert(mux.Vars(r)["alertID"])
		if err != nil {
			s.writeError(w, r, "alertGet", err)
			return
		}
		s.writeData(w, newAlertView(a), http.StatusOK)
	}
}

// alertEdit replaces the target and re-arms the alert. A missing webhookUrl keeps the current one.
func (s Server) alertEdit() http.HandlerFunc {
	type request struct {
		TargetPrice float64 `json:"targetPrice"`
		WebhookURL  *string `json:"webhookUrl"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if !s.decodeJSON(w, r, "alertEdit", &req) {
			return
		}
		a, err := s.Tracker.EditAlert(r.Context(), mux.Vars(r)["alertID"], req.TargetPrice, req.WebhookURL)
		if err != nil {
			s.writeError(w, r, "alertEdit", err)
			return
		}
		s.writeData(w, newAlertView(a), http.StatusOK)
	}
}

func (s Server) alertPause() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.Tracker.PauseAlert(r.Context(), mux.Vars(r)["alertID"])
		if err != nil {
			s.writeError(w, r, "alertPause", err)
			return
		}
		s.writeData(w, newAlertView(a), http.StatusOK)
	}
}

func (s Server) alertResume() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := s.Tracker.ResumeAlert(r.Context(), mux.Vars(r)["alertID"])
		if err != nil {
			s.writeError(w, r, "alertResume", err)
			return
		}
		s.writeData(w, newAlertView(a), http.StatusOK)
	}
}

func (s Server) alertDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Tracker.DeleteAlert(r.Context(), mux.Vars(r)["alertID"]); err != nil {
			s.writeError(w, r, "alertDelete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
