package ghdb

import (
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/xkilldash9x/dorkbuilder/api/schemas"
)

var ghdbIDPattern = regexp.MustCompile(`/ghdb/(\d+)`)

// maxTitleLen bounds titles derived from a dork when the row has no title.
const maxTitleLen = 80

// anchor is the first link found in a url_title cell.
type anchor struct {
	href string
	text string
}

// parseURLTitle extracts the first <a> from the url_title HTML. When the cell
// has no link, text holds the cell's text with all tags stripped.
func parseURLTitle(fragment string) anchor {
	body := &html.Node{Type: html.ElementNode, DataAtom: atom.Body, Data: "body"}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return anchor{text: strings.TrimSpace(fragment)}
	}

	for _, n := range nodes {
		if a := findAnchor(n); a != nil {
			return anchor{href: attr(a, "href"), text: collapse(textOf(a))}
		}
	}

	var sb strings.Builder
	for _, n := range nodes {
		sb.WriteString(textOf(n))
	}
	return anchor{text: collapse(sb.String())}
}

func findAnchor(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == atom.A {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if a := findAnchor(c); a != nil {
			return a
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textOf(c))
	}
	return sb.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// looksLikeDork is the heuristic used when a row carries no q= parameter: a
// title containing an operator, a quoted phrase or a wildcard is the dork.
func looksLikeDork(s string) bool {
	return strings.ContainsAny(s, `:"*`)
}

// toEntry converts one DataTables row. ok is false for rows without a GHDB id
// or a usable dork.
func toEntry(row rawRow, origin string) (schemas.GHDBEntry, bool) {
	a := parseURLTitle(row.URLTitle)
	e := schemas.GHDBEntry{
		Title:    a.text,
		Date:     strings.TrimSpace(row.Date),
		Category: row.category(),
	}

	if a.href != "" {
		if m := ghdbIDPattern.FindStringSubmatch(a.href); m != nil {
			e.ID = m[1]
		}
		if u, err := url.Parse(a.href); err == nil {
			e.Dork = strings.TrimSpace(u.Query().Get("q"))
			if u.IsAbs() {
				e.URL = u.String()
			} else {
				e.URL = origin + u.Path
			}
		}
	}
	if e.ID == "" {
		if m := ghdbIDPattern.FindStringSubmatch(row.URLTitle); m != nil {
			e.ID = m[1]
		}
	}
	if e.ID == "" {
		e.ID = row.id()
	}

	if e.Dork == "" && looksLikeDork(e.Title) {
		e.Dork = e.Title
	}
	if e.Title == "" && e.Dork != "" {
		e.Title = truncate(e.Dork, maxTitleLen)
	}
	if e.URL == "" && e.ID != "" {
		e.URL = origin + "/ghdb/" + e.ID
	}
	if e.Category == "" {
		e.Category = "Uncategorized"
	}
	if e.Date == "" {
		e.Date = "N/A"
	}

	if e.ID == "" || e.Dork == "" {
		return schemas.GHDBEntry{}, false
	}
	return e, true
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
