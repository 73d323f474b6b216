package enrich

import (
	"net"
	"regexp"
	"strings"

	"github.com/esoadamo/micro-cti-go/internal/models"
	"github.com/esoadamo/micro-cti-go/internal/oracle"
)

var (
	domainPattern = regexp.MustCompile(`^(?:[A-Za-z0-9](?:[A-Za-z0-9-]{0,61}[A-Za-z0-9])?\.)+[A-Za-z]{2,}$`)
	urlPattern    = regexp.MustCompile(`^\S+://[^\s/$.?#].\S*$`)
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	vulnPattern   = regexp.MustCompile(`^(CVE|GHSA)-\d{4}-\d{4,}$`)

	defangedScheme = strings.NewReplacer("hxxp", "http", "[.]", ".")
)

// undefang restores the defanged forms threat intel posts commonly use
// for links so validation regexes apply to the real value.
func undefang(s string) string {
	return defangedScheme.Replace(s)
}

// validateIoC checks a raw Oracle candidate against the per-type rules
// and returns the concrete IoC to persist, or ok=false when the
// candidate doesn't match its claimed type.
func validateIoC(c oracle.IoCCandidate, postURL string) (models.IoC, bool) {
	value := undefang(strings.TrimSpace(c.Value))
	if value == "" {
		return models.IoC{}, false
	}

	switch models.IoCType(strings.ToLower(c.Type)) {
	case models.IoCTypeIP:
		ip := net.ParseIP(value)
		if ip == nil {
			return models.IoC{}, false
		}
		subtype := "ipv4"
		if ip.To4() == nil {
			subtype = "ipv6"
		}
		return models.IoC{Value: value, Type: models.IoCTypeIP, Subtype: subtype, Comment: c.Comment}, true

	case models.IoCTypeHash:
		if !isHex(value) {
			return models.IoC{}, false
		}
		subtype, ok := hashSubtype(len(value))
		if !ok {
			return models.IoC{}, false
		}
		return models.IoC{Value: value, Type: models.IoCTypeHash, Subtype: subtype, Comment: c.Comment}, true

	case models.IoCTypeDomain:
		if !domainPattern.MatchString(value) {
			return models.IoC{}, false
		}
		return models.IoC{Value: value, Type: models.IoCTypeDomain, Comment: c.Comment}, true

	case models.IoCTypeURL:
		if !urlPattern.MatchString(value) {
			return models.IoC{}, false
		}
		return models.IoC{Value: value, Type: models.IoCTypeURL, Comment: c.Comment}, true

	case models.IoCTypeEmail:
		if !emailPattern.MatchString(value) {
			return models.IoC{}, false
		}
		return models.IoC{Value: value, Type: models.IoCTypeEmail, Comment: c.Comment}, true

	case models.IoCTypeVulnerability:
		if !vulnPattern.MatchString(strings.ToUpper(value)) {
			return models.IoC{}, false
		}
		return models.IoC{Value: strings.ToUpper(value), Type: models.IoCTypeVulnerability, Comment: c.Comment}, true

	case models.IoCTypeExternalReportLink:
		return validateExternalLink(c, postURL)

	default:
		return models.IoC{}, false
	}
}

// externalReportLinkIoC builds the synthetic IoC every enriched post
// gets for its own URL, subtype post-link.
func externalReportLinkIoC(postURL string) models.IoC {
	return models.IoC{
		Value:   postURL,
		Type:    models.IoCTypeExternalReportLink,
		Subtype: "post-link",
		Comment: "source post URL",
	}
}

// validateExternalLink validates a candidate explicitly typed
// external-report-link, distinguishing the post's own link from a
// link to some other article.
func validateExternalLink(c oracle.IoCCandidate, postURL string) (models.IoC, bool) {
	value := undefang(strings.TrimSpace(c.Value))
	if !urlPattern.MatchString(value) {
		return models.IoC{}, false
	}
	subtype := "external-article"
	if value == postURL {
		subtype = "post-link"
	}
	return models.IoC{Value: value, Type: models.IoCTypeExternalReportLink, Subtype: subtype, Comment: c.Comment}, true
}

func isHex(s string) bool {
	for _, r := range s {
		if !((r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')) {
			return false
		}
	}
	return len(s) > 0
}

func hashSubtype(length int) (string, bool) {
	switch length {
	case 32:
		return "md5", true
	case 40:
		return "sha1", true
	case 64:
		return "sha256", true
	case 128:
		return "sha512", true
	default:
		return "", false
	}
}
