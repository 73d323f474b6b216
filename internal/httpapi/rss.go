package httpapi

import (
	"encoding/xml"
	"net/http"
)

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title string    `xml:"title"`
	Link  string    `xml:"link"`
	Items []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

func (s *Server) handleRSS(w http.ResponseWriter, r *http.Request) {
	hits, err := s.searchHits(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title: "micro-cti search results",
			Link:  r.URL.String(),
		},
	}
	for _, h := range hits {
		p := h.Post
		feed.Channel.Items = append(feed.Channel.Items, rssItem{
			Title:       p.User + " on " + p.Source,
			Link:        p.URL,
			Description: excerpt(p.ContentTxt, excerptMaxRunes),
			PubDate:     p.CreatedAt.UTC().Format(http.TimeFormat),
			GUID:        postUID(p),
		})
	}

	w.Header().Set("Content-Type", "application/rss+xml; charset=utf-8")
	w.Write([]byte(xml.Header))
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	enc.Encode(feed)
}
