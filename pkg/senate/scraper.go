package senate

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/Sternrassler/fetchkit/pkg/batch"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// RosterPath is the article listing the current senators.
const RosterPath = "/wiki/List_of_current_United_States_senators"

// WebsiteConcurrency is the fixed number of concurrent website lookups.
const WebsiteConcurrency = 10

var websiteLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fetchkit_senate_website_lookups_total",
	Help: "Total senator website lookups by outcome",
}, []string{"outcome"})

// Config holds scraper configuration.
type Config struct {
	// BaseURL is the Wikipedia root (default DefaultBaseURL).
	BaseURL string

	// RosterPath defaults to the package RosterPath.
	RosterPath string

	// TaskTimeout bounds each website lookup (default batch.DefaultConfig().Timeout).
	TaskTimeout time.Duration

	// Parser defaults to WikipediaRosterParser.
	Parser RosterParser

	// Resolver defaults to an InfoboxResolver sharing the scraper's client.
	Resolver WebsiteResolver
}

// Scraper builds the senator roster.
type Scraper struct {
	http     BodyGetter
	config   Config
	parser   RosterParser
	resolver WebsiteResolver
	logger   zerolog.Logger
}

// NewScraper creates a scraper that fetches pages through getter.
func NewScraper(getter BodyGetter, cfg Config, logger zerolog.Logger) *Scraper {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.RosterPath == "" {
		cfg.RosterPath = RosterPath
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = batch.DefaultConfig().Timeout
	}

	s := &Scraper{
		http:     getter,
		config:   cfg,
		parser:   cfg.Parser,
		resolver: cfg.Resolver,
		logger:   logger,
	}
	if s.parser == nil {
		s.parser = WikipediaRosterParser{}
	}
	if s.resolver == nil {
		s.resolver = NewInfoboxResolver(getter, cfg.BaseURL)
	}
	return s
}

// Scrape fetches and parses the roster, then resolves every website.
// Only a failure to fetch or parse the roster page is returned as an error.
func (s *Scraper) Scrape(ctx context.Context) ([]Senator, error) {
	entries, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}

	return s.ResolveWebsites(ctx, entries), nil
}

// Roster fetches and parses the roster page without resolving websites.
func (s *Scraper) Roster(ctx context.Context) ([]Entry, error) {
	url := s.config.BaseURL + s.config.RosterPath

	body, err := s.http.GetBody(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch roster: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse roster html: %w", err)
	}

	entries, err := s.parser.ParseRoster(doc)
	if err != nil {
		return nil, fmt.Errorf("parse roster: %w", err)
	}

	s.logger.Info().Int("senators", len(entries)).Str("url", url).Msg("Roster parsed")
	return entries, nil
}

// ResolveWebsites looks up every entry's website on a pool of
// WebsiteConcurrency workers and returns the senators in entry order.
// Entries without a wiki path are not looked up. A failed lookup is logged
// and leaves that senator's website empty.
func (s *Scraper) ResolveWebsites(ctx context.Context, entries []Entry) []Senator {
	jobs := make([]batch.Job[string], 0, len(entries))
	for i, entry := range entries {
		if entry.WikiPath == "" {
			websiteLookupsTotal.WithLabelValues("skipped").Inc()
			continue
		}
		jobs = append(jobs, batch.Job[string]{
			Index: i,
			Label: entry.Name,
			Do: func(ctx context.Context) (string, error) {
				return s.resolver.ResolveWebsite(ctx, entry.WikiPath)
			},
		})
	}

	if len(jobs) > 0 {
		s.logger.Info().
			Int("lookups", len(jobs)).
			Int("workers", WebsiteConcurrency).
			Msg("Fetching website URLs")
	}

	results := batch.Run(ctx, batch.Config{
		MaxConcurrency: WebsiteConcurrency,
		Timeout:        s.config.TaskTimeout,
	}, len(entries), jobs)

	senators := make([]Senator, len(entries))
	for i, entry := range entries {
		senator := entry.Senator
		senator.Website = ""

		res := results[i]
		switch {
		case !res.Submitted:
		case res.Err != nil:
			websiteLookupsTotal.WithLabelValues("failed").Inc()
			s.logger.Warn().
				Err(res.Err).
				Str("senator", entry.Name).
				Str("wiki_path", entry.WikiPath).
				Msg("could not fetch website")
		case res.Value == "":
			websiteLookupsTotal.WithLabelValues("missing").Inc()
			s.logger.Debug().Str("senator", entry.Name).Msg("No website in infobox")
		default:
			websiteLookupsTotal.WithLabelValues("found").Inc()
			senator.Website = res.Value
		}

		senators[i] = senator
	}

	return senators
}
