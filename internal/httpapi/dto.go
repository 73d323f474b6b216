package httpapi

import (
	"crypto/md5"
	"encoding/hex"
	"unicode/utf8"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/search"
)

const excerptMaxRunes = 90

// PostDTO is the JSON shape returned by /api/search for one matched
// post.
type PostDTO struct {
	User    string   `json:"user"`
	Source  string   `json:"source"`
	Excerpt string   `json:"excerpt"`
	Created string   `json:"created"`
	URL     string   `json:"url"`
	Score   float64  `json:"score"`
	UID     string   `json:"uid"`
	Tags    []string `json:"tags"`
}

func toDTO(h search.Hit) PostDTO {
	p := h.Post
	tags := make([]string, 0, len(p.Tags))
	for _, t := range p.Tags {
		tags = append(tags, t.Name)
	}
	return PostDTO{
		User:    p.User,
		Source:  p.Source,
		Excerpt: excerpt(p.ContentTxt, excerptMaxRunes),
		Created: p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		URL:     p.URL,
		Score:   h.RelevancyScore,
		UID:     postUID(p),
		Tags:    tags,
	}
}

func postUID(p *models.Post) string {
	sum := md5.Sum([]byte(p.Source + p.SourceID))
	return hex.EncodeToString(sum[:])
}

// excerpt truncates s to at most n runes, appending an ellipsis when
// truncated.
func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n]) + "…"
}
