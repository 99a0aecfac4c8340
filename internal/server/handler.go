package server

import (
	"context"
	"encoding/json"
	"github.com/pkg/errors"
	"net/http"
	"pricewatch/internal/model"
	"pricewatch/internal/scheduler"
)

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s Server) writeJsonResponse(w http.ResponseWriter, response any, statusCode int) {
	if resp, err := json.Marshal(response); err != nil {
		s.Logger.Errorf("Error encoding response: %+v, err: %v", response, err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	} else {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)
		if _, err = w.Write(resp); err != nil {
			s.Logger.Errorf("Error writing JSON response: %s, err: %v", resp, err)
		}
	}
}

func (s Server) writeData(w http.ResponseWriter, data any, statusCode int) {
	s.writeJsonResponse(w, envelope{Success: true, Data: data}, statusCode)
}

func (s Server) writeFailure(w http.ResponseWriter, message string, statusCode int) {
	s.writeJsonResponse(w, envelope{Success: false, Error: message}, statusCode)
}

// writeError maps domain errors to status codes. Unexpected errors are logged and hidden from the client.
func (s Server) writeError(w http.ResponseWriter, r *http.Request, funcName string, err error) {
	var ve *model.ValidationError
	switch {
	case errors.As(err, &ve):
		s.writeFailure(w, ve.Error(), http.StatusBadRequest)
	case errors.Is(err, model.ErrNotFound):
		s.writeFailure(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, scheduler.ErrStopped):
		s.writeFailure(w, "shutting down", http.StatusServiceUnavailable)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		s.writeFailure(w, "request timed out", http.StatusGatewayTimeout)
	default:
		s.Logger.Errorf("%s: Unexpected error, err: %v, TraceID: %s", funcName, err, getTraceContext(r.Context()).traceID)
		s.writeFailure(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (s Server) decodeJSON(w http.ResponseWriter, r *http.Request, funcName string, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.Logger.Debugf("%s: Error decoding JSON, err: %v, TraceID: %s", funcName, err, getTraceContext(r.Context()).traceID)
		s.writeFailure(w, "invalid JSON body", http.StatusBadRequest)
		return false
	}
	return true
}

func (s Server) notFoundHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.Logger.Debugf("notFoundHandler: Requested resource not found, path: %s, TraceID: %s",
			r.URL.Path, getTraceContext(r.Context()).traceID)
		s.writeFailure(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	}
}

func (s Server) health() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.writeData(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}
