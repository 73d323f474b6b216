package misp

import (
	"time"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
)

// Feed is a rendered MISP manifest plus the full event documents it
// indexes, ready to be written as manifest.json and <uuid>.json files.
type Feed struct {
	Manifest Manifest
	Events   []Document
}

// GenerateFeed builds one MISP event per post that carries at least
// one IoC, skipping posts with none. Posts without a populated IoCs
// slice are silently excluded rather than emitting an empty event.
func GenerateFeed(orgCfg config.MISPOrgConfig, posts []*models.Post, now time.Time) Feed {
	org := orgFromConfig(orgCfg)
	var docs []Document
	for _, p := range posts {
		if len(p.IoCs) == 0 {
			continue
		}
		docs = append(docs, BuildEvent(org, p, p.IoCs, now))
	}
	return Feed{Manifest: BuildManifest(docs), Events: docs}
}
