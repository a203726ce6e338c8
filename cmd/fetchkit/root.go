package main

import (
	"io"
	"os"

	"github.com/Sternrassler/fetchkit/internal/config"
	"github.com/Sternrassler/fetchkit/pkg/logging"
	"github.com/spf13/cobra"
)

// cli carries state shared by the subcommands of one invocation.
type cli struct {
	cfg    config.Config
	stdout io.Writer

	logLevel string
	pretty   bool
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	c := &cli{stdout: stdout}

	root := &cobra.Command{
		Use:   "fetchkit",
		Short: "fetchkit fetches Pokemon data and the current U.S. senator roster.",
		// errors are printed once by main
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (env LOG_LEVEL)")
	root.PersistentFlags().BoolVar(&c.pretty, "pretty", false, "human-readable logs instead of JSON (env LOG_PRETTY)")

	root.AddCommand(
		newPokemonCmd(c),
		newSenatorsCmd(c),
		newServeCmd(c),
	)
	return root
}

// setup loads configuration, lets flags override it and configures logging.
func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.LogLevel = c.logLevel
	}
	if flags.Changed("pretty") {
		cfg.LogPretty = c.pretty
	}
	c.cfg = cfg

	logging.Setup(logging.Config{
		Level:  logging.LogLevel(cfg.LogLevel),
		Pretty: cfg.LogPretty,
		Output: os.Stderr,
	})
	return nil
}
