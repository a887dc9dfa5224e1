// Package catalog holds the curated registry of graduate programmes the
// pipeline crawls. Auto-discovery from the school's index pages is unreliable
// (the programme cards are rendered client-side), so the list is authored by
// hand and kept easy to update.
package catalog

import "strings"

// Entry describes one programme with the metadata needed to crawl it.
type Entry struct {
	Name       string
	Slug       string
	Category   string // mba, msc, executive
	LandingURL string

	// IsExternal marks programmes hosted on short-link domains outside the
	// main site; no sub-page discovery is attempted for those.
	IsExternal bool

	Language string

	// SubPageHints are sub-page path segments known to exist below the
	// landing page. Discovery combines these with links found on the page.
	SubPageHints []string
}

// Standard sub-page segments found on most programme pages.
var defaultSubPages = []string{
	"programme-overview",
	"admissions",
	"faculty",
	"participants'-experience",
	"career-development",
	"faqs",
	"contact-us",
}

// Newer programmes only carry a subset.
var minimalSubPages = []string{
	"programme-overview",
	"admissions",
	"faqs",
}

var entries = []Entry{
	// MBA track
	{
		Name:         "Nanyang MBA",
		Slug:         "nanyang-mba",
		Category:     "mba",
		LandingURL:   "https://www.ntu.edu.sg/business/admissions/graduate-studies/nanyang-mba",
		Language:     "en",
		SubPageHints: defaultSubPages,
	},
	{
		Name:         "Nanyang Fellows MBA",
		Slug:         "nanyang-fellows-mba",
		Category:     "mba",
		LandingURL:   "https://www.ntu.edu.sg/business/admissions/graduate-studies/nanyang-fellows-mba/home",
		Language:     "en",
		SubPageHints: defaultSubPages,
	},
	{
		Name:         "Nanyang Executive MBA",
		Slug:         "nanyang-executive-mba",
		Category:     "executive",
		LandingURL:   "https://www.ntu.edu.sg/business/admissions/graduate-studies/nanyang-executive-mba",
		Language:     "en",
		SubPageHints: defaultSubPages,
	},
	{
		Name:         "Nanyang Professional MBA",
		Slug:         "nanyang-professional-mba",
		Category:     "mba",
		LandingURL:   "https://www.ntu.edu.sg/business/admissions/graduate-studies/nanyang-professional-mba/home",
		Language:     "en",
		SubPageHints: defaultSubPages,
	},

	// Specialised masters track
	{
		Name:         "MSc Business Analytics",
		Slug:         "msc-business-analytics",
		Category:     "msc",
		LandingURL:   "https://www.ntu.edu.sg/business/admissions/graduate-studies/msc-business-analytics",
		Language:     "en",
		SubPageHints: defaultSubPages,
	},
	{
		Name:         "MSc Finance",
		Slug:         "msc-finance",
		Category:     "msc",
		LandingURL:   "https://ntu.sg/nbs-msf",
		IsExternal:   true,
		Language:     "en",
		SubPageHints: minimalSubPages,
	},
	{
		Name:         "MSc Financial Engineering",
		Slug:         "msc-financial-engineering",
		Category:     "msc",
		LandingURL:   "https://www.ntu.edu.sg/business/admissions/graduate-studies/msc-financial-engineering/home",
		Language:     "en",
		SubPageHints: defaultSubPages,
	},
	{
		Name:         "MSc Marketing Science",
		Slug:         "msc-marketing-science",
		Category:     "msc",
		LandingURL:   "https://www.ntu.edu.sg/business/admissions/graduate-studies/msc-marketing-science/home",
		Language:     "en",
		SubPageHints: defaultSubPages,
	},
	{
		Name:         "MSc Actuarial and Risk Analytics",
		Slug:         "msc-actuarial-risk-analytics",
		Category:     "msc",
		LandingURL:   "https://ntu.sg/nbs-mara",
		IsExternal:   true,
		Language:     "en",
		SubPageHints: minimalSubPages,
	},
	{
		Name:         "MSc Accountancy",
		Slug:         "msc-accountancy",
		Category:     "msc",
		LandingURL:   "https://www.ntu.edu.sg/business/admissions/graduate-studies/msc-accountancy/home",
		Language:     "en",
		SubPageHints: defaultSubPages,
	},
	{
		Name:         "Master in Management",
		Slug:         "master-in-management",
		Category:     "msc",
		LandingURL:   "https://ntu.sg/nbs-mim",
		IsExternal:   true,
		Language:     "en",
		SubPageHints: minimalSubPages,
	},
}

// All returns the full catalog.
func All() []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// ByCategory returns entries with a matching category tag.
func ByCategory(category string) []Entry {
	var out []Entry
	for _, e := range entries {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// BySlug looks up a single entry; ok is false when no entry matches.
func BySlug(slug string) (Entry, bool) {
	for _, e := range entries {
		if e.Slug == slug {
			return e, true
		}
	}
	return Entry{}, false
}

// Filter returns the entries whose name or slug contains the given substring,
// case-insensitively. An empty filter returns the input unchanged.
func Filter(in []Entry, substr string) []Entry {
	if substr == "" {
		return in
	}
	needle := strings.ToLower(substr)
	var out []Entry
	for _, e := range in {
		if strings.Contains(strings.ToLower(e.Name), needle) || strings.Contains(strings.ToLower(e.Slug), needle) {
			out = append(out, e)
		}
	}
	return out
}

// DegreeType derives a coarse degree label from the entry's name and
// category, used as programme metadata at ingestion time.
func (e Entry) DegreeType() string {
	upper := strings.ToUpper(e.Name)
	switch {
	case e.Category == "executive" || strings.Contains(upper, "EXECUTIVE MBA") || strings.Contains(upper, "EMBA"):
		return "EMBA"
	case strings.Contains(upper, "MBA"):
		return "MBA"
	case strings.Contains(upper, "MSC") || strings.Contains(upper, "MASTER"):
		return "MSc"
	default:
		return "Other"
	}
}
