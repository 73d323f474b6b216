package misp

// ManifestEntry is one row of manifest.json, keyed by event UUID.
type ManifestEntry struct {
	Info          string  `json:"info"`
	Date          string  `json:"date"`
	Analysis      int     `json:"analysis"`
	ThreatLevelID int     `json:"threat_level_id"`
	Timestamp     float64 `json:"timestamp"`
	Orgc          Orgc    `json:"Orgc"`
	Tag           []Tag   `json:"Tag"`
}

// Manifest maps event UUID to its summary entry.
type Manifest map[string]ManifestEntry

// BuildManifest summarizes a set of events into the manifest.json
// shape a MISP feed consumer reads before fetching individual events.
func BuildManifest(docs []Document) Manifest {
	manifest := make(Manifest, len(docs))
	for _, doc := range docs {
		ev := doc.Event
		if ev.UUID == "" {
			continue
		}
		manifest[ev.UUID] = ManifestEntry{
			Info:          ev.Info,
			Date:          ev.Date,
			Analysis:      ev.Analysis,
			ThreatLevelID: ev.ThreatLevelID,
			Timestamp:     ev.Timestamp,
			Orgc:          ev.Orgc,
			Tag:           ev.Tag,
		}
	}
	return manifest
}
