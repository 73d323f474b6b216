// Package misp renders search results as a MISP-compatible feed: a
// manifest.json indexing events by UUID, and one JSON document per
// event, each event grouping the IoCs extracted from a single Post.
package misp

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/esoadamo/micro-cti-go/internal/config"
	"github.com/esoadamo/micro-cti-go/internal/models"
)

// uuidNamespace mirrors the DNS namespace used to derive stable,
// deterministic event and attribute UUIDs from name strings.
var uuidNamespace = uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")

// Org identifies the organisation credited as the event creator.
type Org struct {
	Name  string
	UUID  string
	Email string
}

func orgFromConfig(c config.MISPOrgConfig) Org {
	return Org{Name: c.Name, UUID: c.UUID, Email: c.Email}
}

// Tag is a MISP event-level classification tag.
type Tag struct {
	Name       string `json:"name"`
	Colour     string `json:"colour"`
	Exportable bool   `json:"exportable"`
	HideTag    bool   `json:"hide_tag"`
}

// Orgc identifies the creating organisation within an event body.
type Orgc struct {
	Name string `json:"name"`
	UUID string `json:"uuid"`
}

// Attribute is one MISP attribute: either a validated IoC or the
// trailing reference link back to the source post.
type Attribute struct {
	UUID               string `json:"uuid"`
	Type               string `json:"type"`
	Category           string `json:"category"`
	ToIDs              bool   `json:"to_ids"`
	Timestamp          int64  `json:"timestamp"`
	Value              string `json:"value"`
	Comment            string `json:"comment"`
	Distribution       int    `json:"distribution"`
	DisableCorrelation bool   `json:"disable_correlation,omitempty"`
}

// Event is a single MISP event body, always wrapped under the "Event"
// JSON key by Document.
type Event struct {
	UUID              string      `json:"uuid"`
	Info              string      `json:"info"`
	Date              string      `json:"date"`
	Timestamp         float64     `json:"timestamp"`
	Published         bool        `json:"published"`
	Analysis          int         `json:"analysis"`
	ThreatLevelID     int         `json:"threat_level_id"`
	Distribution      int         `json:"distribution"`
	EventCreatorEmail string      `json:"event_creator_email"`
	Orgc              Orgc        `json:"Orgc"`
	Tag               []Tag       `json:"Tag"`
	Attribute         []Attribute `json:"Attribute"`
}

// Document is the top-level "Event" envelope written to <uuid>.json.
type Document struct {
	Event Event `json:"Event"`
}

const (
	analysisInitial  = 0
	analysisOngoing  = 1
	analysisComplete = 2

	threatLevelUndefined = 4

	distributionAllCommunities = 3
)

// eventUUID derives a stable event identifier from the org UUID and
// the post URL the event is scoped to.
func eventUUID(org Org, postURL string) string {
	return fakeUUID(org.UUID + "-event-" + postURL)
}

func fakeUUID(data string) string {
	return uuid.NewSHA1(uuidNamespace, []byte(data)).String()
}

// BuildEvent converts one Post's validated IoCs into a MISP event,
// classifying it "Ongoing" for the first week after the post's own
// creation and "Complete" afterwards.
func BuildEvent(org Org, post *models.Post, iocs []*models.IoC, now time.Time) Document {
	analysis := analysisComplete
	if now.Sub(post.CreatedAt) < 7*24*time.Hour {
		analysis = analysisOngoing
	}
	timestamp := now.Unix()

	ev := Event{
		UUID:              eventUUID(org, post.URL),
		Info:              fmt.Sprintf("uCTI - %s", post.URL),
		Date:              now.Format("2006-01-02"),
		Timestamp:         float64(timestamp),
		Published:         true,
		Analysis:          analysis,
		ThreatLevelID:     threatLevelUndefined,
		Distribution:      distributionAllCommunities,
		EventCreatorEmail: org.Email,
		Orgc:              Orgc{Name: org.Name, UUID: org.UUID},
		Tag: []Tag{
			{Name: "type:OSINT", Colour: "#004646", Exportable: true},
			{Name: "tlp:white", Colour: "#ffffff", Exportable: true},
		},
	}

	for _, ioc := range iocs {
		attrType := mispAttributeType(ioc)
		ev.Attribute = append(ev.Attribute, Attribute{
			UUID:         fakeUUID("ioc-" + post.URL + "-" + string(ioc.Type) + "-" + ioc.Subtype + "-" + ioc.Value),
			Type:         attrType,
			Category:     categoryForType(attrType),
			ToIDs:        false,
			Timestamp:    timestamp,
			Value:        ioc.Value,
			Comment:      ioc.Comment,
			Distribution: distributionAllCommunities,
		})
	}

	ev.Attribute = append(ev.Attribute, Attribute{
		UUID:                uuid.New().String(),
		Type:                "link",
		Category:            "External analysis",
		ToIDs:               false,
		Timestamp:           timestamp,
		Value:               post.URL,
		Comment:             "Source URL for the threat intel",
		Distribution:        distributionAllCommunities,
		DisableCorrelation:  true,
	})

	return Document{Event: ev}
}

// mispAttributeType maps an internal IoC to the MISP attribute type
// vocabulary, using the validated hash subtype (md5/sha1/sha256/
// sha512) where one was recorded instead of assuming sha256.
func mispAttributeType(ioc *models.IoC) string {
	switch ioc.Type {
	case models.IoCTypeIP:
		return "ip-dst"
	case models.IoCTypeDomain:
		return "domain"
	case models.IoCTypeURL:
		return "url"
	case models.IoCTypeEmail:
		return "email"
	case models.IoCTypeHash:
		if ioc.Subtype != "" {
			return ioc.Subtype
		}
		return "sha256"
	case models.IoCTypeExternalReportLink:
		return "link"
	case models.IoCTypeBrowserExtensionID:
		return "chrome-extension-id"
	case models.IoCTypeVulnerability:
		return "vulnerability"
	case models.IoCTypeUsername:
		return "target-user"
	case models.IoCTypeThreatActor:
		return "threat-actor"
	case models.IoCTypeFilename:
		return "filename"
	case models.IoCTypeCommand:
		return "text"
	default:
		return "other"
	}
}
