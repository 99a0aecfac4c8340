package server

import (
	"github.com/gorilla/mux"
	"net/http"
)

func (s Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.loggingMw, s.maxBytesMw)
	r.NotFoundHandler = s.loggingMw(s.notFoundHandler())

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.health()).Methods(http.MethodGet)
	api.HandleFunc("/auth/login", s.authLogin()).Methods(http.MethodPost)

	protected := api.PathPrefix("").Subrouter()
	if s.authEnabled() {
		protected.Use(s.authMw)
	}

	protected.HandleFunc("/products", s.productList()).Methods(http.MethodGet)
	protected.HandleFunc("/products", s.productCreate()).Methods(http.MethodPost)
	protected.HandleFunc("/products/{productID}", s.productGet()).Methods(http.MethodGet)
	protected.HandleFunc("/products/{productID}", s.productUpdate()).Methods(http.MethodPut)
	protected.HandleFunc("/products/{productID}", s.productDelete()).Methods(http.MethodDelete)
	protected.HandleFunc("/products/{productID}/sources", s.productSources()).Methods(http.MethodGet)
	protected.HandleFunc("/products/{productID}/sources", s.sourceCreate()).Methods(http.MethodPost)
	protected.HandleFunc("/products/{productID}/prices", s.productPrices()).Methods(http.MethodGet)

	protected.HandleFunc("/sources", s.sourceList()).Methods(http.MethodGet)
	protected.HandleFunc("/sources/{sourceID}", s.sourceGet()).Methods(http.MethodGet)
	protected.HandleFunc("/sources/{sourceID}", s.sourceSetActive()).Methods(http.MethodPatch)
	protected.HandleFunc("/sources/{sourceID}", s.sourceDelete()).Methods(http.MethodDelete)

	protected.HandleFunc("/alerts", s.alertList()).Methods(http.MethodGet)
	protected.HandleFunc("/alerts", s.alertCreate()).Methods(http.MethodPost)
	protected.HandleFunc("/alerts/{alertID}", s.alertGet()).Methods(http.MethodGet)
	protected.HandleFunc("/alerts/{alertID}", s.alertEdit()).Methods(http.MethodPut)
	protected.HandleFunc("/alerts/{alertID}", s.alertDelete()).Methods(http.MethodDelete)
	protected.HandleFunc("/alerts/{alertID}/pause", s.alertPause()).Methods(http.MethodPost)
	protected.HandleFunc("/alerts/{alertID}/resume", s.alertResume()).Methods(http.MethodPost)

	protected.HandleFunc("/prices/{sourceID}", s.priceHistory()).Methods(http.MethodGet)
	protected.HandleFunc("/prices/{sourceID}", s.priceRecord()).Methods(http.MethodPost)
	protected.HandleFunc("/charts/{productID}", s.chartGet()).Methods(http.MethodGet)
	protected.HandleFunc("/dashboard", s.dashboardGet()).Methods(http.MethodGet)

	protected.HandleFunc("/settings/webhook", s.settingsWebhookGet()).Methods(http.MethodGet)
	protected.HandleFunc("/settings/webhook", s.settingsWebhookSet()).Methods(http.MethodPut)

	protected.HandleFunc("/scraper/run", s.scraperRunAll()).Methods(http.MethodPost)
	protected.HandleFunc("/scraper/run/{sourceID}", s.scraperRunOne()).Methods(http.MethodPost)
	protected.HandleFunc("/scraper/status", s.scraperStatus()).Methods(http.MethodGet)

	protected.HandleFunc("/url/parse", s.urlParse()).Methods(http.MethodPost)
	protected.HandleFunc("/url/presets", s.urlPresets()).Methods(http.MethodGet)

	return r
}
