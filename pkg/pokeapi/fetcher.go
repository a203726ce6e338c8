package pokeapi

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
)

// DefaultBaseURL is the public PokeAPI v2 root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// ErrorPrefix starts every fetch error message.
const ErrorPrefix = "Error fetching Pokemon data"

var fetchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "fetchkit_pokemon_fetches_total",
	Help: "Total Pokemon lookups by outcome",
}, []string{"outcome"})

// BodyGetter is the part of the shared HTTP client the fetcher needs.
// client.Client satisfies it.
type BodyGetter interface {
	GetBody(ctx context.Context, url string) ([]byte, error)
}

// Fetcher retrieves Pokemon data by name.
type Fetcher struct {
	http    BodyGetter
	baseURL string
	logger  zerolog.Logger
}

// NewFetcher creates a fetcher. An empty baseURL selects DefaultBaseURL.
func NewFetcher(getter BodyGetter, baseURL string, logger zerolog.Logger) *Fetcher {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Fetcher{
		http:    getter,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// PokemonURL returns the resource URL for name. Species names are matched
// case-insensitively by lowercasing.
func PokemonURL(baseURL, name string) string {
	return strings.TrimRight(baseURL, "/") + "/pokemon/" + strings.ToLower(name)
}

// Fetch performs one GET and decodes the JSON body unchanged.
func (f *Fetcher) Fetch(ctx context.Context, name string) (map[string]any, error) {
	url := PokemonURL(f.baseURL, name)

	body, err := f.http.GetBody(ctx, url)
	if err != nil {
		fetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: %w", ErrorPrefix, err)
	}

	var data map[string]any
	if err := json.Unmarshal(body, &data); err != nil {
		fetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: decode %s: %w", ErrorPrefix, url, err)
	}
	if data == nil {
		// a literal JSON null
		fetchesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%s: empty document from %s", ErrorPrefix, url)
	}

	fetchesTotal.WithLabelValues("ok").Inc()
	f.logger.Debug().Str("url", url).Int("bytes", len(body)).Msg("Pokemon fetched")
	return data, nil
}

// Lookup is Fetch for callers that only care about presence: failures are
// logged and reported as nil.
func (f *Fetcher) Lookup(ctx context.Context, name string) map[string]any {
	data, err := f.Fetch(ctx, name)
	if err != nil {
		f.logger.Warn().Err(err).Str("pokemon", name).Msg(ErrorPrefix)
		return nil
	}
	return data
}
