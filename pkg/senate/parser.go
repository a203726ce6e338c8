package senate

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrRosterNotFound is returned when the document has no roster table.
var ErrRosterNotFound = errors.New("senator roster table not found")

// RosterParser turns a roster page into ordered entries.
type RosterParser interface {
	ParseRoster(doc *goquery.Document) ([]Entry, error)
}

// rosterTableIndex is the position of the roster among the page's sortable
// tables when it has no id.
const rosterTableIndex = 3

// WikipediaRosterParser reads the "List of current United States senators"
// article layout:
//
//	<tr><td rowspan="2">Alabama</td><td>portrait</td><th><a href="/wiki/...">Name</a></th><td></td><td>Party<sup>..</sup></td>...
//	<tr><td>portrait</td><th><a href="/wiki/...">Name</a></th><td></td><td>Party</td>...
//
// The state cell spans two rows, so the state carries forward until the
// next rowspan cell.
type WikipediaRosterParser struct{}

// ParseRoster implements RosterParser. Party footnote markers are removed
// from the document as a side effect.
func (WikipediaRosterParser) ParseRoster(doc *goquery.Document) ([]Entry, error) {
	table := rosterTable(doc)
	if table.Length() == 0 {
		return nil, ErrRosterNotFound
	}

	rows := table.ChildrenFiltered("tbody").First().ChildrenFiltered("tr")

	var entries []Entry
	state := ""

	rows.Each(func(_ int, row *goquery.Selection) {
		if stateCell := row.Find(`td[rowspan="2"]`).First(); stateCell.Length() > 0 {
			state = cellText(stateCell)
		}

		nameCell := row.Find("th").First()
		if nameCell.Length() == 0 || state == "" {
			// header rows come before the first state
			return
		}

		entry := Entry{
			Senator: Senator{
				Name:  cellText(nameCell),
				State: state,
			},
		}
		if href, ok := nameCell.Find("a[href]").First().Attr("href"); ok {
			entry.WikiPath = href
		}

		// color swatch cell, then party
		partyCell := nameCell.NextAllFiltered("td").Eq(1)
		if partyCell.Length() > 0 {
			entry.Notes = footnotes(doc, partyCell)
			entry.Party = cellText(partyCell)
		}

		entries = append(entries, entry)
	})

	return entries, nil
}

func rosterTable(doc *goquery.Document) *goquery.Selection {
	if table := doc.Find("table#senators").First(); table.Length() > 0 {
		return table
	}
	return doc.Find("table.sortable").Eq(rosterTableIndex)
}

// footnotes resolves the cell's citation markers against the reference
// list and removes every <sup> from the cell. When several markers resolve,
// the last one wins.
func footnotes(doc *goquery.Document, cell *goquery.Selection) string {
	notes := ""
	cell.Find("sup").Each(func(_ int, sup *goquery.Selection) {
		href := sup.Find("a").First().AttrOr("href", "")
		if strings.HasPrefix(href, "#cite_note") {
			if ref := referenceText(doc, strings.TrimLeft(href, "#")); ref.Length() > 0 {
				notes = noteText(ref)
			}
		}
		sup.Remove()
	})
	return notes
}

func referenceText(doc *goquery.Document, id string) *goquery.Selection {
	// ids like cite_note-Vance-3 are not always valid CSS identifiers
	li := doc.Find("li[id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.AttrOr("id", "") == id
	}).First()
	return li.Find("span.reference-text").First()
}
