package httpapi

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"strings"
)

type searchResponse struct {
	SearchTerm string    `json:"search_term"`
	Posts      []PostDTO `json:"posts"`
}

func (s *Server) handleSearchJSON(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	hits, _, err := s.Engine.Search(r.Context(), q, s.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := searchResponse{SearchTerm: q, Posts: make([]PostDTO, 0, len(hits))}
	for _, h := range hits {
		resp.Posts = append(resp.Posts, toDTO(h))
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleSearchHTML renders a minimal results page; the HTML surface
// is a convenience wrapper over the same search, not a templating
// system in its own right.
func (s *Server) handleSearchHTML(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")

	var body strings.Builder
	body.WriteString("<!doctype html><html><head><meta charset=\"utf-8\"><title>micro-cti</title></head><body>")
	fmt.Fprintf(&body, "<form action=\"/search/\" method=\"get\"><input name=\"q\" value=%q><button>search</button></form>", q)

	if q != "" {
		hits, _, err := s.Engine.Search(r.Context(), q, s.Now())
		if err != nil {
			fmt.Fprintf(&body, "<p>error: %s</p>", html.EscapeString(err.Error()))
		} else {
			body.WriteString("<ul>")
			for _, h := range hits {
				p := h.Post
				fmt.Fprintf(&body, "<li><a href=%q>%s</a> — %s (%.0f)</li>",
					p.URL, html.EscapeString(p.User), html.EscapeString(excerpt(p.ContentTxt, excerptMaxRunes)), h.RelevancyScore)
			}
			body.WriteString("</ul>")
		}
	}
	body.WriteString("</body></html>")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(body.String()))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
