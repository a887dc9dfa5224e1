package crawl

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"programme-search/pkg/catalog"
)

// SubPageRef is a discovered sub-page: its path-segment label and full URL.
type SubPageRef struct {
	Label string
	URL   string
}

// BasePath returns the entry's landing URL with any trailing slash and
// trailing "/home" segment stripped; sub-pages live one segment below it.
func BasePath(landingURL string) string {
	base := strings.TrimRight(landingURL, "/")
	return strings.TrimSuffix(base, "/home")
}

// DiscoverSubPages combines the entry's declared hints with a scan of
// landing-page links whose path sits exactly one segment below the base
// path. Results are de-duplicated by URL preserving order; externally-hosted
// entries yield nothing.
func DiscoverSubPages(entry catalog.Entry, landingHTML string) []SubPageRef {
	if entry.IsExternal {
		return nil
	}

	base := BasePath(entry.LandingURL)
	var found []SubPageRef
	seen := make(map[string]bool)

	for _, hint := range entry.SubPageHints {
		u := base + "/" + hint
		if !seen[u] {
			found = append(found, SubPageRef{Label: hint, URL: u})
			seen[u] = true
		}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(landingHTML))
	if err != nil {
		return found
	}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if i := strings.IndexByte(href, '#'); i >= 0 {
			href = href[:i]
		}
		if href == "" {
			return
		}
		abs := resolveAgainst(entry.LandingURL, href)
		if !strings.HasPrefix(abs, base+"/") {
			return
		}
		remainder := strings.Trim(abs[len(base)+1:], "/")
		if remainder == "" || remainder == "home" || strings.Contains(remainder, "/") {
			return
		}
		if !seen[abs] {
			found = append(found, SubPageRef{Label: remainder, URL: abs})
			seen[abs] = true
		}
	})

	return found
}

func resolveAgainst(base, href string) string {
	b, err := url.Parse(base)
	if err != nil {
		return href
	}
	h, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return ""
	}
	return b.ResolveReference(h).String()
}
