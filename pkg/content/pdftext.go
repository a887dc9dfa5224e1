package content

import (
	"regexp"
	"strings"
)

var (
	pageNumberRe  = regexp.MustCompile(`^\d{1,3}$`)
	pdfArtefactRe = regexp.MustCompile(`(?i)^(Page\s+\d+|©|www\.ntu\.edu\.sg|Nanyang Technological University)$`)
	blankRunRe    = regexp.MustCompile(`\n{3,}`)
)

// CleanPDFText strips page numbers and repeated header/footer artefacts from
// extracted brochure text.
func CleanPDFText(raw string) string {
	var kept []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if pageNumberRe.MatchString(line) || pdfArtefactRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(blankRunRe.ReplaceAllString(strings.Join(kept, "\n"), "\n\n"))
}
