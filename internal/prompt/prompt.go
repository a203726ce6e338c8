// Package prompt asks the operator for Pokemon lookup input.
package prompt

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
)

// PokemonRequest is what the operator asked for.
type PokemonRequest struct {
	Name string
	// Raw selects the complete JSON document instead of the summary.
	Raw bool
}

// PokemonForm builds the two-question form that fills req.
func PokemonForm(req *PokemonRequest) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Enter a Pokemon name").
				Placeholder("pikachu").
				Value(&req.Name).
				Validate(ValidateName),
			huh.NewConfirm().
				Title("Show complete raw JSON?").
				Affirmative("Yes").
				Negative("No").
				Value(&req.Raw),
		),
	)
}

// AskPokemon runs the form on the terminal.
func AskPokemon() (PokemonRequest, error) {
	var req PokemonRequest
	if err := PokemonForm(&req).Run(); err != nil {
		return PokemonRequest{}, fmt.Errorf("prompt cancelled: %w", err)
	}
	req.Name = Sanitize(req.Name)
	return req, nil
}

// ValidateName rejects blank names.
func ValidateName(s string) error {
	if Sanitize(s) == "" {
		return fmt.Errorf("pokemon name cannot be empty")
	}
	return nil
}

// Sanitize drops control characters and surrounding whitespace.
func Sanitize(s string) string {
	s = strings.Map(func(r rune) rune {
		if r < 32 || r == 127 {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}
