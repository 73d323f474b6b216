package httpapi

import (
	"net/http"
	"time"
)

type ingestionHealth struct {
	Total    string            `json:"total"`
	Services map[string]string `json:"services"`
	Earliest string            `json:"earliest"`
	Latest   string            `json:"latest"`
}

type healthResponse struct {
	Status              string          `json:"status"`
	LatestIngestionTime ingestionHealth `json:"latest_ingestion_time"`
}

// handleHealthcheck reports, per configured source adapter, when it
// last advanced its watermark, plus the overall earliest/latest
// across all of them.
func (s *Server) handleHealthcheck(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]string, len(s.Adapters))
	var earliest, latest time.Time

	for _, a := range s.Adapters {
		mark, err := s.Store.WatermarkFor(r.Context(), a.Name())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		services[a.Name()] = formatWatermark(mark)
		if mark.IsZero() {
			continue
		}
		if earliest.IsZero() || mark.Before(earliest) {
			earliest = mark
		}
		if mark.After(latest) {
			latest = mark
		}
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		LatestIngestionTime: ingestionHealth{
			Total:    formatWatermark(s.Now()),
			Services: services,
			Earliest: formatWatermark(earliest),
			Latest:   formatWatermark(latest),
		},
	})
}

func formatWatermark(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02T15:04:05Z07:00")
}
