// Package httpapi exposes the SearchEngine, Store and MISP feed over a
// small HTTP surface. Handlers stay thin — they parse query params,
// call into internal/search and internal/misp, and format the
// response; no templating or routing library is pulled in since no
// example in the retrieved pack demonstrates one and the surface is
// small enough for net/http's own ServeMux.
package httpapi

import (
	"net/http"
	"time"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/ingest"
	"github.com/esoadamo/micro-cti-go/internal/search"
	"github.com/esoadamo/micro-cti-go/internal/store"
	"github.com/esoadamo/micro-cti-go/internal/web"
)

// Server holds every dependency the handlers need.
type Server struct {
	Engine   *search.Engine
	Store    store.Store
	Adapters []ingest.Adapter
	MISPOrg  config.MISPOrgConfig
	Hub      *web.Hub

	// Now is overridable in tests; defaults to time.Now at Routes time.
	Now func() time.Time
}

// Routes builds the ServeMux wiring every handler spec.md §6 names.
func (s *Server) Routes() *http.ServeMux {
	if s.Now == nil {
		s.Now = time.Now
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /", s.handleSearchHTML)
	mux.HandleFunc("GET /search/", s.handleSearchHTML)
	mux.HandleFunc("GET /api/search", s.handleSearchJSON)
	mux.HandleFunc("GET /api/dynamic-queries", s.handleDynamicQueries)
	mux.HandleFunc("GET /ioc/json/", s.handleIoCJSON)
	mux.HandleFunc("GET /ioc/csv/", s.handleIoCCSV)
	mux.HandleFunc("GET /ioc/misp/", s.handleMISPRedirect)
	mux.HandleFunc("GET /ioc/misp/{token}/manifest.json", s.handleMISPManifest)
	mux.HandleFunc("GET /ioc/misp/{token}/{uuid}.json", s.handleMISPEvent)
	mux.HandleFunc("GET /rss/", s.handleRSS)
	mux.HandleFunc("GET /healthcheck", s.handleHealthcheck)
	mux.HandleFunc("GET /favicon.svg", s.handleFavicon)
	if s.Hub != nil {
		mux.HandleFunc("GET /logs/ws", s.Hub.ServeWS)
	}
	return mux
}
