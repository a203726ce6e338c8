package senate

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// DefaultBaseURL is the English Wikipedia root.
const DefaultBaseURL = "https://en.wikipedia.org"

// BodyGetter is the part of the shared HTTP client the scraper needs.
// client.Client satisfies it.
type BodyGetter interface {
	GetBody(ctx context.Context, url string) ([]byte, error)
}

// WebsiteResolver finds a senator's official website from their article.
type WebsiteResolver interface {
	ResolveWebsite(ctx context.Context, wikiPath string) (string, error)
}

// InfoboxResolver reads the "Website" row of an article's infobox.
type InfoboxResolver struct {
	http    BodyGetter
	baseURL string
}

// NewInfoboxResolver creates a resolver for articles under baseURL.
// An empty baseURL selects DefaultBaseURL.
func NewInfoboxResolver(getter BodyGetter, baseURL string) *InfoboxResolver {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &InfoboxResolver{
		http:    getter,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// ResolveWebsite fetches baseURL+wikiPath and returns the infobox website
// link, or "" when the article has none.
func (r *InfoboxResolver) ResolveWebsite(ctx context.Context, wikiPath string) (string, error) {
	body, err := r.http.GetBody(ctx, r.baseURL+wikiPath)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("parse %s: %w", wikiPath, err)
	}

	return InfoboxWebsite(doc), nil
}

// InfoboxWebsite returns the href of the first link in the cell next to the
// first infobox header containing "Website" that has one.
func InfoboxWebsite(doc *goquery.Document) string {
	infobox := doc.Find("table.infobox").First()

	website := ""
	infobox.Find("th").EachWithBreak(func(_ int, th *goquery.Selection) bool {
		if !strings.Contains(th.Text(), "Website") {
			return true
		}
		link := th.NextAllFiltered("td").First().Find("a").First()
		if link.Length() == 0 {
			return true
		}
		website = link.AttrOr("href", "")
		return false
	})

	return website
}
