package server

import (
	"github.com/gorilla/mux"
	"net/http"
	"pricewatch/internal/model"
)

func (s Server) productList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeData(w, s.Tracker.Products(), http.StatusOK)
	}
}

type productRequest struct {
	Name            string `json:"name"`
	IdentifierType  string `json:"identifierType"`
	IdentifierValue string `json:"identifierValue"`
}

func (s Server) productCreate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := productRequest{}
		if !s.decodeJSON(w, r, "productCreate", &req) {
			return
		}
		p, err := s.Tracker.AddProduct(r.Context(), req.Name, req.IdentifierType, req.IdentifierValue)
		if err != nil {
			s.writeError(w, r, "productCreate", err)
			return
		}
		s.writeData(w, p, http.StatusCreated)
	}
}

func (s Server) productGet() http.HandlerFunc {
	type response struct {
		model.Product
		Sources []model.Source `json:"sources"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["productID"]
		p, err := s.Tracker.Product(id)
		if err != nil {
			s.writeError(w, r, "productGet", err)
			return
		}
		s.writeData(w, response{Product: p, Sources: s.Tracker.Sources(id)}, http.StatusOK)
	}
}

func (s Server) productUpdate() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := productRequest{}
		if !s.decodeJSON(w, r, "productUpdate", &req) {
			return
		}
		p, err := s.Tracker.UpdateProduct(r.Context(), mux.Vars(r)["productID"], req.Name, req.IdentifierType, req.IdentifierValue)
		if err != nil {
			s.writeError(w, r, "productUpdate", err)
			return
		}
		s.writeData(w, p, http.StatusOK)
	}
}

func (s Server) productDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Tracker.DeleteProduct(r.Context(), mux.Vars(r)["productID"]); err != nil {
			s.writeError(w, r, "productDelete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s Server) productSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := mux.Vars(r)["productID"]
		if _, err := s.Tracker.Product(id); err != nil {
			s.writeError(w, r, "productSources", err)
			return
		}
		s.writeData(w, s.Tracker.Sources(id), http.StatusOK)
	}
}

func (s Server) sourceCreate() http.HandlerFunc {
	type request struct {
		StoreName   string `json:"storeName"`
		URL         string `json:"url"`
		CSSSelector string `json:"cssSelector"`
		Currency    string `json:"currency"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if !s.decodeJSON(w, r, "sourceCreate", &req) {
			return
		}
		src, err := s.Tracker.AddSource(r.Context(), mux.Vars(r)["productID"], req.StoreName, req.URL, req.CSSSelector, req.Currency)
		if err != nil {
			s.writeError(w, r, "sourceCreate", err)
			return
		}
		s.writeData(w, src, http.StatusCreated)
	}
}

func (s Server) sourceList() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeData(w, s.Tracker.Sources(r.URL.Query().Get("productId")), http.StatusOK)
	}
}

func (s Server) sourceGet() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		src, err := s.Tracker.Source(mux.Vars(r)["sourceID"])
		if err != nil {
			s.writeError(w, r, "sourceGet", err)
			return
		}
		s.writeData(w, src, http.StatusOK)
	}
}

func (s Server) sourceSetActive() http.HandlerFunc {
	type request struct {
		IsActive *bool `json:"isActive"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		req := request{}
		if !s.decodeJSON(w, r, "sourceSetActive", &req) {
			return
		}
		if req.IsActive == nil {
			s.writeError(w, r, "sourceSetActive", model.Invalid("isActive", "must be set"))
			return
		}
		src, err := s.Tracker.SetSourceActive(r.Context(), mux.Vars(r)["sourceID"], *req.IsActive)
		if err != nil {
			s.writeError(w, r, "sourceSetActive", err)
			return
		}
		s.writeData(w, src, http.StatusOK)
	}
}

func (s Server) sourceDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.Tracker.DeleteSource(r.Context(), mux.Vars(r)["sourceID"]); err != nil {
			s.writeError(w, r, "sourceDelete", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
