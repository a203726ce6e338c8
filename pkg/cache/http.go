package cache

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTTL is the fallback TTL when the response carries no freshness information
	DefaultTTL = 5 * time.Minute
)

// ResponseToEntry converts an HTTP response to a CacheEntry.
// It parses freshness and validator headers and reads the response body.
// The response body is restored after reading.
func ResponseToEntry(resp *http.Response) (*CacheEntry, error) {
	if resp == nil {
		return nil, fmt.Errorf("response cannot be nil")
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	resp.Body.Close()

	resp.Body = io.NopCloser(bytes.NewReader(body))

	entry := &CacheEntry{
		Data:       body,
		ETag:       resp.Header.Get("ETag"),
		StatusCode: resp.StatusCode,
		Headers:    resp.Header.Clone(),
		CachedAt:   time.Now(),
		Expires:    parseExpires(resp.Header),
	}

	if lastModStr := resp.Header.Get("Last-Modified"); lastModStr != "" {
		if lastMod, err := http.ParseTime(lastModStr); err == nil {
			entry.LastModified = lastMod
		}
	}

	return entry, nil
}

// EntryToResponse rebuilds an HTTP response from a cache entry.
func EntryToResponse(entry *CacheEntry, req *http.Request) *http.Response {
	if entry == nil {
		return nil
	}
	status := entry.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	header := entry.Headers.Clone()
	if header == nil {
		header = http.Header{}
	}
	header.Set("X-Cache", "HIT")

	return &http.Response{
		Status:        fmt.Sprintf("%d %s", status, http.StatusText(status)),
		StatusCode:    status,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Data)),
		ContentLength: int64(len(entry.Data)),
		Request:       req,
	}
}

// Cacheable reports whether a response is worth storing: a 200 without
// no-store whose freshness lifetime has not already run out. Wikipedia's
// "max-age=0, must-revalidate" pages are therefore never stored.
func Cacheable(resp *http.Response) bool {
	if resp == nil || resp.StatusCode != http.StatusOK {
		return false
	}
	for _, directive := range cacheControl(resp.Header) {
		if directive == "no-store" {
			return false
		}
	}
	return parseExpires(resp.Header).After(time.Now())
}

// Expiry returns the expiration time the given response headers imply.
func Expiry(headers http.Header) time.Time {
	return parseExpires(headers)
}

// parseExpires derives the expiration time from Cache-Control max-age,
// then Expires, then DefaultTTL.
func parseExpires(headers http.Header) time.Time {
	now := time.Now()

	for _, directive := range cacheControl(headers) {
		if !strings.HasPrefix(directive, "max-age=") {
			continue
		}
		seconds, err := strconv.Atoi(strings.TrimPrefix(directive, "max-age="))
		if err != nil || seconds < 0 {
			break
		}
		return now.Add(time.Duration(seconds) * time.Second)
	}

	expiresStr := headers.Get("Expires")
	if expiresStr == "" {
		return now.Add(DefaultTTL)
	}

	expires, err := http.ParseTime(expiresStr)
	if err != nil {
		return now.Add(DefaultTTL)
	}

	if expires.Before(now) {
		return now
	}

	return expires
}

func cacheControl(headers http.Header) []string {
	raw := headers.Get("Cache-Control")
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.ToLower(strings.TrimSpace(p))
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// ShouldMakeConditionalRequest determines if we should add conditional
// request headers (If-None-Match or If-Modified-Since) based on the cache entry.
func ShouldMakeConditionalRequest(entry *CacheEntry) bool {
	if entry == nil {
		return false
	}
	return entry.ETag != "" || !entry.LastModified.IsZero()
}

// AddConditionalHeaders adds If-None-Match (ETag) or If-Modified-Since headers
// to the request if the cache entry supports conditional requests.
func AddConditionalHeaders(req *http.Request, entry *CacheEntry) {
	if entry == nil || req == nil {
		return
	}

	// ETag wins over Last-Modified
	if entry.ETag != "" {
		req.Header.Set("If-None-Match", entry.ETag)
	} else if !entry.LastModified.IsZero() {
		req.Header.Set("If-Modified-Since", entry.LastModified.Format(http.TimeFormat))
	}
}
