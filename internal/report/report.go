// Package report renders fetch results for the terminal.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/Sternrassler/fetchkit/pkg/pokeapi"
	"github.com/Sternrassler/fetchkit/pkg/senate"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const rule = "=================================================="

// PokemonSummary prints name, height, weight and types.
func PokemonSummary(w io.Writer, data map[string]any) error {
	rec, err := pokeapi.RecordFromData(data)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "\nPokemon: %s\nHeight: %d\nWeight: %d\nTypes: %s\n",
		Capitalize(rec.Name), rec.Height, rec.Weight, strings.Join(rec.Types, ", "))
	return err
}

// PokemonRaw prints the complete document as indented JSON under a banner.
func PokemonRaw(w io.Writer, data map[string]any) error {
	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pokemon data: %w", err)
	}

	_, err = fmt.Fprintf(w, "\n%s\nCOMPLETE RAW JSON DATA\n%s\n%s\n", rule, rule, body)
	return err
}

// PokemonFailure prints the message shown when no data came back.
func PokemonFailure(w io.Writer) error {
	_, err := fmt.Fprintln(w, "Failed to retrieve Pokemon data.")
	return err
}

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// SenatorTable prints the roster as a table followed by the total and
// numbered notes. A party carrying a note is marked with its number.
func SenatorTable(w io.Writer, senators []senate.Senator) error {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	// headings as written, not upper-cased
	t.Style().Format.Header = text.FormatDefault
	t.AppendHeader(table.Row{"Senator", "State", "Party", "Website"})

	var notes []string
	for _, s := range senators {
		party := s.Party
		if s.Notes != "" {
			notes = append(notes, fmt.Sprintf("[%d] %s: %s", len(notes)+1, s.Name, s.Notes))
			party = fmt.Sprintf("%s [%d]", party, len(notes))
		}
		t.AppendRow(table.Row{s.Name, s.State, party, s.Website})
	}

	if _, err := fmt.Fprintf(w, "%s\n\nTotal: %d senators\n", t.Render(), len(senators)); err != nil {
		return err
	}
	if len(notes) > 0 {
		if _, err := fmt.Fprintf(w, "\nNotes:\n%s\n", strings.Join(notes, "\n")); err != nil {
			return err
		}
	}
	return nil
}

// SenatorJSON writes the roster as an indented JSON array.
func SenatorJSON(w io.Writer, senators []senate.Senator) error {
	if senators == nil {
		senators = []senate.Senator{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(senators)
}
