package httpapi

import "net/http"

const faviconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16">` +
	`<rect width="16" height="16" rx="3" fill="#004646"/>` +
	`<path d="M4 8h8M8 4v8" stroke="#fff" stroke-width="1.5"/>` +
	`</svg>`

func (s *Server) handleFavicon(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write([]byte(faviconSVG))
}
