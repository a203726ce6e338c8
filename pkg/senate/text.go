package senate

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

var citationNumber = regexp.MustCompile(`\s*\[\s*\d+\s*\]`)

// textParts returns the trimmed, non-empty text nodes under sel in
// document order.
func textParts(sel *goquery.Selection) []string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
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
	return parts
}

// cellText joins the trimmed text nodes of a cell without separators,
// which is how table cells read once markup is dropped.
func cellText(sel *goquery.Selection) string {
	return strings.Join(textParts(sel), "")
}

// noteText joins footnote words with single spaces and drops bracketed
// citation numbers such as [15].
func noteText(sel *goquery.Selection) string {
	text := strings.Join(strings.Fields(strings.Join(textParts(sel), " ")), " ")
	return strings.TrimSpace(citationNumber.ReplaceAllString(text, ""))
}
