// Package pokeapi fetches a single Pokemon's data from PokeAPI.
//
// The fetcher builds /pokemon/<lowercase name> against a base URL and issues
// one GET through the shared HTTP client, so it inherits the User-Agent,
// timeout, retry and cache behavior configured there:
//
//	f := pokeapi.NewFetcher(httpClient, pokeapi.DefaultBaseURL, logger)
//	data := f.Lookup(ctx, "Pikachu")
//	if data == nil {
//		// already logged as "Error fetching Pokemon data"
//	}
//	rec, err := pokeapi.RecordFromData(data)
//
// Fetch returns the error instead of logging it.
package pokeapi
