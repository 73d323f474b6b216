package enrich

import (
	"fmt"
	"strings"

	"github.com/esoadamo/micro-cti-go/internal/models"
)

// buildContentSearch materializes the content_search document: the
// space-joined concatenation of content_txt, detagged tag names, a
// "<source>:<source>" token, "source:<source>", "user:<user>" and the
// ISO created_at, so a single FTS column can match free text and the
// selector tokens the query language understands.
func buildContentSearch(p *models.Post) string {
	var tagNames []string
	for _, t := range p.Tags {
		tagNames = append(tagNames, strings.TrimPrefix(t.Name, "#"))
	}

	parts := []string{
		p.ContentTxt,
		strings.Join(tagNames, " "),
		fmt.Sprintf("%s:%s", p.Source, p.Source),
		fmt.Sprintf("source:%s", p.Source),
		fmt.Sprintf("user:%s", p.User),
		p.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	return strings.Join(parts, " ")
}
