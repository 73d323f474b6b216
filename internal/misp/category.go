package misp

// categoryForType maps a MISP attribute type to the category bucket
// the upstream MISP taxonomy files it under. Only the subset of types
// BuildEvent ever emits is covered; anything else falls back to
// "Other", matching the teacher's own dict.get default.
func categoryForType(attrType string) string {
	switch attrType {
	case "md5", "sha1", "sha256", "sha512", "filename":
		return "Artifacts dropped"
	case "ip-dst", "domain", "url":
		return "Network activity"
	case "email":
		return "Network activity"
	case "chrome-extension-id":
		return "Payload delivery"
	case "vulnerability":
		return "External analysis"
	case "link":
		return "External analysis"
	case "target-user":
		return "Targeting data"
	case "threat-actor":
		return "Attribution"
	default:
		return "Other"
	}
}
