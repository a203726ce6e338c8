package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Sternrassler/fetchkit/pkg/metrics"
	"github.com/Sternrassler/fetchkit/pkg/senate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	pokemonRequestTimeout  = 30 * time.Second
	senatorsRequestTimeout = 3 * time.Minute
	shutdownTimeout        = 10 * time.Second
)

type pinger interface {
	Ping(ctx context.Context) error
}

type pokemonFetcher interface {
	Fetch(ctx context.Context, name string) (map[string]any, error)
}

type rosterScraper interface {
	Scrape(ctx context.Context) ([]senate.Senator, error)
}

func newServeCmd(c *cli) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve Pokemon and senator data over HTTP with health and metrics endpoints.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("port") {
				port = c.cfg.Port
			}

			a, err := newApp(cmd.Context(), c.cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(cmd.Context(), ":"+port, newServeMux(a.pinger(), a.pokemon, a.scraper))
		},
	}

	cmd.Flags().StringVar(&port, "port", "8080", "listen port (env PORT)")
	return cmd
}

func newServeMux(ready pinger, pokemon pokemonFetcher, scraper rosterScraper) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("GET /ready", readyHandler(ready))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /pokemon/{name}", pokemonHandler(pokemon))
	mux.HandleFunc("GET /senators", senatorsHandler(scraper))
	return mux
}

// serve runs the server until ctx is cancelled, then shuts down gracefully.
func serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("Starting fetchkit server")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info().Msg("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK")
}

// readyHandler reports 503 while the cache backend is unreachable. Without
// a backend the server is always ready.
func readyHandler(p pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				log.Warn().Err(err).Msg("Readiness check failed")
				http.Error(w, fmt.Sprintf("redis unavailable: %v", err), http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	}
}

func pokemonHandler(fetcher pokemonFetcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), pokemonRequestTimeout)
		defer cancel()

		data, err := fetcher.Fetch(ctx, r.PathValue("name"))
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		writeJSON(w, data)
	}
}

func senatorsHandler(scraper rosterScraper) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), senatorsRequestTimeout)
		defer cancel()

		senators, err := scraper.Scrape(ctx)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadGateway)
			return
		}
		if senators == nil {
			senators = []senate.Senator{}
		}
		writeJSON(w, senators)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("Failed to write response")
	}
}
