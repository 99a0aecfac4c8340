// Package server exposes the tracker over a JSON HTTP API and runs the periodic scrape sweep.
package server

import (
	"context"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"pricewatch/internal/tracker"
	"sync/atomic"
)

type Server struct {
	Tracker          *tracker.Tracker
	Analyzer         titleFetcher
	Logger           logger
	AuthSecretKey    jwk.Key
	AuthPasswordHash []byte

	sweeping *atomic.Bool
}

type titleFetcher interface {
	FetchProductTitle(ctx context.Context, pageURL string) (string, error)
}

type logger interface {
	Trace(v ...any)
	Debug(v ...any)
	Info(v ...any)
	Error(v ...any)
	Tracef(format string, v ...any)
	Debugf(format string, v ...any)
	Infof(format string, v ...any)
	Errorf(format string, v ...any)
}

// New returns a Server; authSecretKey nil disables authentication.
func New(t *tracker.Tracker, analyzer titleFetcher, l logger, authSecretKey jwk.Key, authPasswordHash []byte) Server {
	return Server{
		Tracker:          t,
		Analyzer:         analyzer,
		Logger:           l,
		AuthSecretKey:    authSecretKey,
		AuthPasswordHash: authPasswordHash,
		sweeping:         &atomic.Bool{},
	}
}

func (s Server) authEnabled() bool {
	return s.AuthSecretKey != nil
}
