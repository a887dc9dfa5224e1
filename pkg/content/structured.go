package content

import "regexp"

// Best-effort field patterns over crawled text. First match wins; a field
// with no match is omitted, never defaulted. Extracted values are advisory.
var structuredPatterns = map[string]*regexp.Regexp{
	"duration": regexp.MustCompile(
		`(?i)(?:duration|length)[:\s]*(\d[\d\-–]?\s*(?:month|year|week|semester)s?(?:\s*(?:full|part)[\s\-]time)?)`),
	"fees": regexp.MustCompile(
		`(?i)(?:tuition|fee|cost)[:\s]*(?:S?\$|SGD)\s?[\d,]+(?:\.\d{2})?`),
	"application_deadline": regexp.MustCompile(
		`(?i)(?:application|submission)\s*deadline[:\s]*([A-Za-z]+\s+\d{1,2},?\s+\d{4})`),
	"intake": regexp.MustCompile(
		`(?i)(?:intake|start(?:ing)?|commence)[:\s]*((?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4})`),
}

// Fields whose pattern captures a group take the group; the rest take the
// whole match (the fee pattern keeps its cue word for context).
var wholeMatchFields = map[string]bool{"fees": true}

// ExtractStructured recovers duration, fee, deadline and intake fields from
// the combined text of a landing page and its sub-pages.
func ExtractStructured(combined string) map[string]string {
	fields := make(map[string]string)
	for name, re := range structuredPatterns {
		m := re.FindStringSubmatch(combined)
		if m == nil {
			continue
		}
		if wholeMatchFields[name] || len(m) < 2 {
			fields[name] = trimField(m[0])
		} else {
			fields[name] = trimField(m[1])
		}
	}
	return fields
}

func trimField(s string) string {
	return normalizeWS(s)
}
