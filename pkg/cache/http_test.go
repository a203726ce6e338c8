package cache

import (
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

// upstreamResponse builds a 200 response the way PokeAPI or Wikipedia would
// send it.
func upstreamResponse(body string, headers map[string]string) *http.Response {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return &http.Response{
		StatusCode: http.StatusOK,
		Header:     h,
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func within(t *testing.T, got, want time.Time, slack time.Duration) {
	t.Helper()
	if d := got.Sub(want); d < -slack || d > slack {
		t.Errorf("time = %v, want %v (±%v)", got, want, slack)
	}
}

func TestResponseToEntry_PokeAPI(t *testing.T) {
	resp := upstreamResponse(`{"name":"pikachu","height":4}`, map[string]string{
		"Cache-Control": "public, max-age=86400, s-maxage=86400",
		"ETag":          `W/"1c4-abc"`,
		"Content-Type":  "application/json; charset=utf-8",
	})

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}

	within(t, entry.Expires, time.Now().Add(24*time.Hour), 2*time.Second)
	if entry.ETag != `W/"1c4-abc"` {
		t.Errorf("ETag = %q", entry.ETag)
	}
	if entry.Headers.Get("Content-Type") != "application/json; charset=utf-8" {
		t.Errorf("Content-Type not kept: %v", entry.Headers)
	}

	// the caller still reads the body after the entry is built
	body, _ := io.ReadAll(resp.Body)
	if string(body) != string(entry.Data) || len(body) == 0 {
		t.Errorf("body not restored: %q vs %q", body, entry.Data)
	}
}

func TestResponseToEntry_WikipediaLastModified(t *testing.T) {
	lastMod := time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)
	resp := upstreamResponse("<html></html>", map[string]string{
		"Cache-Control": "private, s-maxage=0, max-age=0, must-revalidate",
		"Last-Modified": lastMod.Format(http.TimeFormat),
	})

	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatalf("ResponseToEntry() error = %v", err)
	}
	if !entry.LastModified.Equal(lastMod) {
		t.Errorf("LastModified = %v, want %v", entry.LastModified, lastMod)
	}
	if entry.TTL() != 0 {
		t.Errorf("max-age=0 entry must have no lifetime, TTL = %v", entry.TTL())
	}
}

func TestResponseToEntry_Nil(t *testing.T) {
	if _, err := ResponseToEntry(nil); err == nil {
		t.Error("expected error for nil response")
	}
}

func TestExpiry(t *testing.T) {
	now := time.Now()
	future := now.Add(2 * time.Hour).UTC().Truncate(time.Second)

	tests := []struct {
		name    string
		headers map[string]string
		want    time.Time
	}{
		{"pokeapi max-age", map[string]string{"Cache-Control": "public, max-age=86400"}, now.Add(24 * time.Hour)},
		{"wikipedia must-revalidate", map[string]string{"Cache-Control": "private, s-maxage=0, max-age=0, must-revalidate"}, now},
		{"max-age beats Expires", map[string]string{"Cache-Control": "max-age=60", "Expires": future.Format(http.TimeFormat)}, now.Add(time.Minute)},
		{"Expires only", map[string]string{"Expires": future.Format(http.TimeFormat)}, future},
		{"Expires in the past", map[string]string{"Expires": "Thu, 01 Jan 1970 00:00:00 GMT"}, now},
		{"unparsable Expires", map[string]string{"Expires": "0"}, now.Add(DefaultTTL)},
		{"bad max-age falls back", map[string]string{"Cache-Control": "max-age=soon"}, now.Add(DefaultTTL)},
		{"304 without freshness headers", nil, now.Add(DefaultTTL)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			within(t, Expiry(h), tt.want, 2*time.Second)
		})
	}
}

func TestCacheable(t *testing.T) {
	notFound := upstreamResponse("Not Found", nil)
	notFound.StatusCode = http.StatusNotFound

	tests := []struct {
		name string
		resp *http.Response
		want bool
	}{
		{"nil", nil, false},
		{"pokeapi json", upstreamResponse("{}", map[string]string{"Cache-Control": "public, max-age=86400"}), true},
		{"no freshness headers uses default", upstreamResponse("{}", nil), true},
		{"pokeapi no-store", upstreamResponse("{}", map[string]string{"Cache-Control": "no-store"}), false},
		{"no-store among others", upstreamResponse("{}", map[string]string{"Cache-Control": "private, No-Store, max-age=600"}), false},
		{"wikipedia must-revalidate", upstreamResponse("<html>", map[string]string{"Cache-Control": "private, s-maxage=0, max-age=0, must-revalidate"}), false},
		{"already expired", upstreamResponse("{}", map[string]string{"Expires": "Thu, 01 Jan 1970 00:00:00 GMT"}), false},
		{"unknown species", notFound, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cacheable(tt.resp); got != tt.want {
				t.Errorf("Cacheable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConditionalHeaders(t *testing.T) {
	lastMod := time.Date(2025, 1, 3, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name            string
		entry           *CacheEntry
		wantConditional bool
		wantINM         string
		wantIMS         string
	}{
		{"etag wins", &CacheEntry{ETag: `"v2"`, LastModified: lastMod}, true, `"v2"`, ""},
		{"last-modified only", &CacheEntry{LastModified: lastMod}, true, "", lastMod.Format(http.TimeFormat)},
		{"no validators", &CacheEntry{}, false, "", ""},
		{"nil entry", nil, false, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldMakeConditionalRequest(tt.entry); got != tt.wantConditional {
				t.Errorf("ShouldMakeConditionalRequest() = %v, want %v", got, tt.wantConditional)
			}

			req, _ := http.NewRequest("GET", "https://en.wikipedia.org/wiki/Angus_King", nil)
			AddConditionalHeaders(req, tt.entry)
			if got := req.Header.Get("If-None-Match"); got != tt.wantINM {
				t.Errorf("If-None-Match = %q, want %q", got, tt.wantINM)
			}
			if got := req.Header.Get("If-Modified-Since"); got != tt.wantIMS {
				t.Errorf("If-Modified-Since = %q, want %q", got, tt.wantIMS)
			}
		})
	}

	// must not panic
	AddConditionalHeaders(nil, &CacheEntry{ETag: `"x"`})
}

func TestEntryToResponse(t *testing.T) {
	entry := &CacheEntry{
		Data:       []byte(`<html></html>`),
		StatusCode: 200,
		Headers:    http.Header{"Content-Type": []string{"text/html"}},
	}
	req, _ := http.NewRequest("GET", "https://en.wikipedia.org/wiki/Katie_Britt", nil)

	resp := EntryToResponse(entry, req)
	if resp.StatusCode != 200 {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("X-Cache") != "HIT" {
		t.Error("Expected X-Cache: HIT header")
	}
	if entry.Headers.Get("X-Cache") != "" {
		t.Error("EntryToResponse must not mutate the entry headers")
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "<html></html>" {
		t.Errorf("Body = %q", body)
	}
	if resp.Request != req {
		t.Error("Request not attached")
	}

	if EntryToResponse(nil, req) != nil {
		t.Error("Expected nil response for nil entry")
	}
}
