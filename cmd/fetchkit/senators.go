package main

import (
	"github.com/Sternrassler/fetchkit/internal/report"
	"github.com/spf13/cobra"
)

func newSenatorsCmd(c *cli) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "senators",
		Short: "List current U.S. senators with state, party and official website.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			senators, err := a.scraper.Scrape(cmd.Context())
			if err != nil {
				return err
			}

			if asJSON {
				return report.SenatorJSON(c.stdout, senators)
			}
			return report.SenatorTable(c.stdout, senators)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the roster as a JSON array")
	return cmd
}
