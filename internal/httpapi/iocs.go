package httpapi

import (
	"encoding/base64"
	"encoding/csv"
	"fmt"
	"net/http"

	"github.com/esoadamo/micro-cti-go/internal/misp"
	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/search"
)

// iocRow is one aggregated IoC across every matched post that carries
// it, with relevance taken as the highest score among those posts.
type iocRow struct {
	Type      string   `json:"type"`
	Subtype   string   `json:"subtype"`
	Value     string   `json:"value"`
	Comment   string   `json:"comment"`
	Relevance float64  `json:"relevance"`
	Links     []string `json:"links"`
}

func aggregateIoCs(hits []search.Hit) []iocRow {
	byKey := make(map[string]*iocRow)
	var order []string

	for _, h := range hits {
		for _, ioc := range h.Post.IoCs {
			key := ioc.Key()
			row, ok := byKey[key]
			if !ok {
				row = &iocRow{Type: string(ioc.Type), Subtype: ioc.Subtype, Value: ioc.Value, Comment: ioc.Comment}
				byKey[key] = row
				order = append(order, key)
			}
			if h.RelevancyScore > row.Relevance {
				row.Relevance = h.RelevancyScore
			}
			row.Links = append(row.Links, h.Post.URL)
		}
	}

	rows := make([]iocRow, 0, len(order))
	for _, key := range order {
		rows = append(rows, *byKey[key])
	}
	return rows
}

func (s *Server) searchHits(r *http.Request) ([]search.Hit, error) {
	q := r.URL.Query().Get("q")
	hits, _, err := s.Engine.Search(r.Context(), q, s.Now())
	return hits, err
}

func (s *Server) handleIoCJSON(w http.ResponseWriter, r *http.Request) {
	hits, err := s.searchHits(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, aggregateIoCs(hits))
}

func (s *Server) handleIoCCSV(w http.ResponseWriter, r *http.Request) {
	hits, err := s.searchHits(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	cw := csv.NewWriter(w)
	cw.Write([]string{"type", "subtype", "value", "comment", "relevance"})
	for _, row := range aggregateIoCs(hits) {
		cw.Write([]string{row.Type, row.Subtype, row.Value, row.Comment, fmt.Sprintf("%.2f", row.Relevance)})
	}
	cw.Flush()
}

// handleMISPRedirect 302s /ioc/misp/?q=... to the manifest for a
// stable base64 token derived from the query string, mirroring the
// original's { q } encoding.
func (s *Server) handleMISPRedirect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	token := base64.RawURLEncoding.EncodeToString([]byte(q))
	http.Redirect(w, r, "/ioc/misp/"+token+"/manifest.json", http.StatusFound)
}

func decodeToken(token string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", fmt.Errorf("decoding misp token: %w", err)
	}
	return string(raw), nil
}

func (s *Server) feedForToken(r *http.Request, token string) (misp.Feed, error) {
	query, err := decodeToken(token)
	if err != nil {
		return misp.Feed{}, err
	}
	hits, _, err := s.Engine.Search(r.Context(), query, s.Now())
	if err != nil {
		return misp.Feed{}, err
	}
	posts := make([]*models.Post, len(hits))
	for i, h := range hits {
		posts[i] = h.Post
	}
	return misp.GenerateFeed(s.MISPOrg, posts, s.Now()), nil
}

func (s *Server) handleMISPManifest(w http.ResponseWriter, r *http.Request) {
	feed, err := s.feedForToken(r, r.PathValue("token"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, feed.Manifest)
}

func (s *Server) handleMISPEvent(w http.ResponseWriter, r *http.Request) {
	feed, err := s.feedForToken(r, r.PathValue("token"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	uuid := r.PathValue("uuid")
	for _, ev := range feed.Events {
		if ev.Event.UUID == uuid {
			writeJSON(w, http.StatusOK, ev)
			return
		}
	}
	http.NotFound(w, r)
}
