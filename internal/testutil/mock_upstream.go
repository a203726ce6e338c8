// Package testutil provides a fake PokeAPI/Wikipedia upstream for tests.
package testutil

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockResponse defines the behavior for a mock endpoint response.
type MockResponse struct {
	StatusCode int
	Body       string
	Headers    map[string]string
	Delay      time.Duration
}

// MockUpstream is a configurable server that stands in for both PokeAPI
// (under /api/v2) and Wikipedia (under /wiki).
type MockUpstream struct {
	server   *httptest.Server
	mu       sync.RWMutex
	handlers map[string]http.HandlerFunc

	// Tracking
	requestCount      int
	conditionalCount  int
	paths             []string
	lastRequestHeader http.Header
}

// NewMockUpstream starts a mock server. Unknown paths answer 404.
func NewMockUpstream() *MockUpstream {
	mock := &MockUpstream{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.paths = append(mock.paths, r.URL.Path)
		mock.lastRequestHeader = r.Header.Clone()
		if r.Header.Get("If-None-Match") != "" || r.Header.Get("If-Modified-Since") != "" {
			mock.conditionalCount++
		}
		handler, exists := mock.handlers[r.URL.Path]
		mock.mu.Unlock()

		if exists {
			handler(w, r)
			return
		}
		http.NotFound(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockUpstream) URL() string {
	return m.server.URL
}

// PokeAPIBaseURL is the base URL to hand to pokeapi.NewFetcher.
func (m *MockUpstream) PokeAPIBaseURL() string {
	return m.server.URL + "/api/v2"
}

// Close shuts down the mock server.
func (m *MockUpstream) Close() {
	m.server.Close()
}

// Reset clears all tracking counters.
func (m *MockUpstream) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.conditionalCount = 0
	m.paths = nil
	m.lastRequestHeader = nil
}

// SetHandler sets a custom handler for an exact path.
func (m *MockUpstream) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// SetResponse configures a fixed response for a path.
func (m *MockUpstream) SetResponse(path string, resp MockResponse) {
	m.SetHandler(path, func(w http.ResponseWriter, r *http.Request) {
		if resp.Delay > 0 {
			select {
			case <-time.After(resp.Delay):
			case <-r.Context().Done():
				return
			}
		}

		for key, value := range resp.Headers {
			w.Header().Set(key, value)
		}

		w.WriteHeader(resp.StatusCode)
		if resp.Body != "" {
			w.Write([]byte(resp.Body))
		}
	})
}

// SetPokemon serves body at /api/v2/pokemon/<lowercase name>.
func (m *MockUpstream) SetPokemon(name string, resp MockResponse) {
	m.SetResponse("/api/v2/pokemon/"+strings.ToLower(name), resp)
}

// SetWikiPage serves an HTML page at wikiPath (e.g. /wiki/Katie_Britt).
func (m *MockUpstream) SetWikiPage(wikiPath string, resp MockResponse) {
	if resp.Headers == nil {
		resp.Headers = map[string]string{}
	}
	if _, ok := resp.Headers["Content-Type"]; !ok {
		resp.Headers["Content-Type"] = "text/html; charset=UTF-8"
	}
	m.SetResponse(wikiPath, resp)
}

// RequestCount returns the number of requests made to the server.
func (m *MockUpstream) RequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// ConditionalCount returns the number of conditional requests.
func (m *MockUpstream) ConditionalCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.conditionalCount
}

// Paths returns the requested paths in arrival order.
func (m *MockUpstream) Paths() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.paths...)
}

// LastRequestHeader returns the headers of the most recent request.
func (m *MockUpstream) LastRequestHeader() http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastRequestHeader
}

// NewJSONResponse creates a cacheable 200 JSON response.
func NewJSONResponse(data string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       data,
		Headers: map[string]string{
			"Cache-Control": "public, max-age=300",
			"Content-Type":  "application/json; charset=utf-8",
		},
	}
}

// NewHTMLResponse creates a 200 HTML response.
func NewHTMLResponse(html string) MockResponse {
	return MockResponse{
		StatusCode: http.StatusOK,
		Body:       html,
	}
}

// NewRateLimitResponse creates a 429 response asking to retry after the
// given number of seconds.
func NewRateLimitResponse(retryAfterSeconds int) MockResponse {
	return MockResponse{
		StatusCode: http.StatusTooManyRequests,
		Body:       "Too Many Requests",
		Headers: map[string]string{
			"Retry-After": fmt.Sprintf("%d", retryAfterSeconds),
		},
	}
}

// NewServerErrorResponse creates a 500 response.
func NewServerErrorResponse() MockResponse {
	return MockResponse{
		StatusCode: http.StatusInternalServerError,
		Body:       "Internal Server Error",
	}
}

// NewConditionalHandler answers 304 when If-None-Match matches etag and
// the full body otherwise.
func NewConditionalHandler(etag string, data string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.Header().Set("Cache-Control", "max-age=300")

		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}

		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(data))
	}
}

// InfoboxPage returns a minimal article whose infobox links website.
// An empty website yields an infobox without a Website row.
func InfoboxPage(name, website string) string {
	row := ""
	if website != "" {
		row = fmt.Sprintf(`<tr><th scope="row" class="infobox-label">Website</th><td class="infobox-data"><a rel="nofollow" class="external text" href="%s">Senate website</a></td></tr>`, website)
	}
	return fmt.Sprintf(`<!DOCTYPE html><html><body><table class="infobox vcard"><tbody><tr><th colspan="2">%s</th></tr>%s</tbody></table></body></html>`, name, row)
}

// RosterRow is one senator line for RosterPage.
type RosterRow struct {
	State    string
	Name     string
	WikiPath string
	Party    string
}

// RosterPage renders rows as a roster table; consecutive rows with the same
// state share one rowspan state cell.
func RosterPage(rows []RosterRow) string {
	var b strings.Builder
	b.WriteString(`<!DOCTYPE html><html><body><table class="wikitable sortable" id="senators"><tbody>`)
	b.WriteString(`<tr><th>State</th><th>Portrait</th><th>Senator</th><th colspan="2">Party</th></tr>`)
	for i, r := range rows {
		b.WriteString("<tr>")
		if i == 0 || rows[i-1].State != r.State {
			fmt.Fprintf(&b, `<td rowspan="2">%s</td>`, r.State)
		}
		b.WriteString("<td></td>")
		if r.WikiPath != "" {
			fmt.Fprintf(&b, `<th scope="row"><a href="%s">%s</a></th>`, r.WikiPath, r.Name)
		} else {
			fmt.Fprintf(&b, `<th scope="row">%s</th>`, r.Name)
		}
		fmt.Fprintf(&b, `<td></td><td>%s</td></tr>`, r.Party)
	}
	b.WriteString(`</tbody></table></body></html>`)
	return b.String()
}
