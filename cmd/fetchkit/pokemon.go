package main

import (
	"fmt"

	"github.com/Sternrassler/fetchkit/internal/prompt"
	"github.com/Sternrassler/fetchkit/internal/report"
	"github.com/spf13/cobra"
)

func newPokemonCmd(c *cli) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "pokemon [name]",
		Short: "Show a Pokemon's name, height, weight and types.",
		Long: "Show a Pokemon's name, height, weight and types.\n" +
			"Without a name argument the name and output mode are asked for interactively.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := prompt.PokemonRequest{Raw: raw}
			if len(args) == 1 {
				req.Name = prompt.Sanitize(args[0])
				if err := prompt.ValidateName(req.Name); err != nil {
					return err
				}
			} else {
				asked, err := prompt.AskPokemon()
				if err != nil {
					return err
				}
				req.Name = asked.Name
				req.Raw = raw || asked.Raw
			}

			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			data := a.pokemon.Lookup(cmd.Context(), req.Name)
			if data == nil {
				if err := report.PokemonFailure(c.stdout); err != nil {
					return err
				}
				return fmt.Errorf("no data for %q", req.Name)
			}

			if req.Raw {
				return report.PokemonRaw(c.stdout, data)
			}
			return report.PokemonSummary(c.stdout, data)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the complete JSON document")
	return cmd
}
