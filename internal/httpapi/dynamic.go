package httpapi

import (
	"net/http"

	"github.com/esoadamo/micro-cti-go/internal/search"
)

type dynamicWindowResponse struct {
	From  string    `json:"from"`
	To    string    `json:"to"`
	Posts []PostDTO `json:"posts"`
}

func (s *Server) handleDynamicQueries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	windows, err := search.DynamicQueries(r.Context(), s.Engine, q, s.Now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp := make([]dynamicWindowResponse, 0, len(windows))
	for _, win := range windows {
		dtos := make([]PostDTO, 0, len(win.Hits))
		for _, h := range win.Hits {
			dtos = append(dtos, toDTO(h))
		}
		resp = append(resp, dynamicWindowResponse{
			From:  win.From.UTC().Format("2006-01-02T15:04:05Z07:00"),
			To:    win.To.UTC().Format("2006-01-02T15:04:05Z07:00"),
			Posts: dtos,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
