// Package content turns raw page markup and PDF text into clean, structured
// text for ingestion.
package content

import (
	"html"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	xhtml "golang.org/x/net/html"
)

// Page is the content extracted from a single web page.
type Page struct {
	URL      string
	Title    string
	Content  string
	Sections map[string]string
	Links    []string
	PDFLinks []string

	// Err carries a human-readable failure reason when the page could not
	// be fetched or parsed; all other fields are zero in that case.
	Err string
}

// Site boilerplate removed before content extraction.
var boilerplateSelectors = []string{
	"script", "style", "noscript", "iframe",
	"nav", "footer",
	"header",
	".cookie-banner", ".cookie-consent",
	".social-share", ".social-media",
	".mega-menu", ".site-header",
	".breadcrumb", ".breadcrumbs",
	"#onetrust-consent-sdk",
	".back-to-top",
	"[role='navigation']",
}

var (
	contentClassRe = regexp.MustCompile(`(?i)content|main`)
	spaceRunRe     = regexp.MustCompile(`[ \t]{2,}`)
	wsRunRe        = regexp.MustCompile(`\s+`)
)

// Heading names longer than this are treated as mis-parsed noise.
const maxSectionName = 200

// ExtractPage parses raw markup into a Page. finalURL is the URL after
// redirects; relative links are resolved against it. Parse failures are
// recorded on the Err field rather than returned.
func ExtractPage(finalURL, rawHTML string) *Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return &Page{URL: finalURL, Err: "unparseable body: " + err.Error()}
	}

	page := &Page{
		URL:      finalURL,
		Title:    extractTitle(doc),
		Links:    extractLinks(doc, finalURL),
		PDFLinks: ExtractPDFLinks(doc, finalURL),
	}

	// Boilerplate removal mutates the tree, so link harvesting above works
	// on the full document.
	removeBoilerplate(doc)
	main := mainContent(doc)
	flattenTables(main)

	page.Content = flattenText(main)
	page.Sections = extractSections(main)

	if page.Content == "" {
		// Pages on external hosts rarely match the institutional layout;
		// fall back to readability's content detection.
		page.Content = extractReadable(finalURL, rawHTML)
	}

	return page
}

func removeBoilerplate(doc *goquery.Document) {
	for _, sel := range boilerplateSelectors {
		doc.Find(sel).Remove()
	}
}

// mainContent locates the primary content container: a main region, then an
// article, then the first div whose class looks like a content wrapper, then
// the whole document.
func mainContent(doc *goquery.Document) *goquery.Selection {
	if s := doc.Find("main").First(); s.Length() > 0 {
		return s
	}
	if s := doc.Find("article").First(); s.Length() > 0 {
		return s
	}
	var match *goquery.Selection
	doc.Find("div[class]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		class, _ := s.Attr("class")
		if contentClassRe.MatchString(class) {
			match = s
			return false
		}
		return true
	})
	if match != nil {
		return match
	}
	return doc.Selection
}

// flattenTables replaces every table in the selection with a pipe-delimited
// text block so tabular data survives flattening.
func flattenTables(sel *goquery.Selection) {
	sel.Find("table").Each(func(_ int, table *goquery.Selection) {
		var rows []string
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			var cells []string
			nonEmpty := false
			tr.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
				text := normalizeWS(cell.Text())
				if text != "" {
					nonEmpty = true
				}
				cells = append(cells, text)
			})
			if nonEmpty {
				rows = append(rows, strings.Join(cells, " | "))
			}
		})
		table.ReplaceWithHtml("<p>" + html.EscapeString(strings.Join(rows, "\n")) + "</p>")
	})
}

// flattenText walks the selection's text nodes, trimming each and dropping
// lines that are empty after trimming.
func flattenText(sel *goquery.Selection) string {
	var lines []string
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			for _, raw := range strings.Split(n.Data, "\n") {
				line := strings.TrimSpace(spaceRunRe.ReplaceAllString(raw, " "))
				if line != "" {
					lines = append(lines, line)
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(lines, "\n")
}

// extractSections recovers h2/h3-delimited blocks from the cleaned content
// container: each section is the heading's following siblings up to the next
// h2/h3.
func extractSections(main *goquery.Selection) map[string]string {
	sections := make(map[string]string)
	main.Find("h2, h3").Each(func(_ int, heading *goquery.Selection) {
		name := normalizeWS(heading.Text())
		if name == "" || utf8.RuneCountInString(name) > maxSectionName {
			return
		}
		var parts []string
		heading.NextUntil("h2, h3").Each(func(_ int, sib *goquery.Selection) {
			if text := normalizeWS(sib.Text()); text != "" {
				parts = append(parts, text)
			}
		})
		if len(parts) > 0 {
			sections[name] = strings.Join(parts, " ")
		}
	})
	return sections
}

func extractTitle(doc *goquery.Document) string {
	if t := normalizeWS(doc.Find("h1").First().Text()); t != "" {
		return t
	}
	return normalizeWS(doc.Find("title").First().Text())
}

func extractLinks(doc *goquery.Document, baseURL string) []string {
	var links []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		abs := resolveURL(baseURL, href)
		if strings.HasPrefix(abs, "http") {
			links = append(links, abs)
		}
	})
	return links
}

// ExtractPDFLinks finds links to PDF documents, by file extension or by
// anchor-text hints ("brochure", "factsheet", "download" plus a pdf-ish
// href). Relative URLs are resolved against baseURL; the result is
// de-duplicated preserving first-seen order.
func ExtractPDFLinks(doc *goquery.Document, baseURL string) []string {
	var urls []string
	seen := make(map[string]bool)

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		text := strings.ToLower(normalizeWS(a.Text()))
		lowerHref := strings.ToLower(href)

		isPDF := strings.HasSuffix(lowerHref, ".pdf") ||
			strings.Contains(text, "brochure") ||
			strings.Contains(text, "factsheet") ||
			strings.Contains(text, "fact-sheet") ||
			(strings.Contains(text, "download") &&
				(strings.Contains(lowerHref, "brochure") || strings.Contains(lowerHref, "pdf")))
		if !isPDF {
			return
		}

		abs := resolveURL(baseURL, href)
		if abs == "" || seen[abs] {
			return
		}
		seen[abs] = true
		urls = append(urls, abs)
	})

	return urls
}

// extractReadable runs readability-based content detection over the raw
// markup, used when selector-based extraction finds nothing.
func extractReadable(pageURL, rawHTML string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		u = nil
	}
	article, err := readability.FromReader(strings.NewReader(rawHTML), u)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.TextContent)
}

func resolveURL(base, href string) string {
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

func normalizeWS(s string) string {
	return strings.TrimSpace(wsRunRe.ReplaceAllString(s, " "))
}
