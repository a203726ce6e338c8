package cache

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
)

const pikachuURL = "https://pokeapi.co/api/v2/pokemon/pikachu"

// setupTestRedis connects to a local Redis on DB 15 and skips the test when
// none is running. tests/integration covers the same paths in a container.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("Failed to flush test DB: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})
	return client
}

func freshEntry(body string, lifetime time.Duration) *CacheEntry {
	return &CacheEntry{
		Data:       []byte(body),
		ETag:       `"v1"`,
		Expires:    time.Now().Add(lifetime),
		StatusCode: http.StatusOK,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		CachedAt:   time.Now(),
	}
}

func TestNewManager_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("NewManager should panic with nil redis client")
		}
	}()
	NewManager(nil)
}

func TestManager_EquivalentURLsShareEntry(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	if err := manager.Set(ctx, KeyForURL(pikachuURL+"/"), freshEntry(`{"name":"pikachu"}`, time.Hour)); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := manager.Get(ctx, KeyForURL("https://PokeAPI.co/api/v2/pokemon/pikachu"))
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(got.Data) != `{"name":"pikachu"}` || got.ETag != `"v1"` {
		t.Errorf("Get() = %+v", got)
	}

	// stored under the normalized key with the entry's lifetime
	ttl, err := client.TTL(ctx, "fetchkit:"+pikachuURL).Result()
	if err != nil {
		t.Fatal(err)
	}
	if ttl < 59*time.Minute || ttl > time.Hour {
		t.Errorf("redis TTL = %v, want about 1h", ttl)
	}
}

func TestManager_MissCountsAndReturnsSentinel(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)

	before := testutil.ToFloat64(CacheMisses)
	_, err := manager.Get(context.Background(), KeyForURL("https://pokeapi.co/api/v2/pokemon/missingno"))
	if !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("Get() error = %v, want ErrCacheMiss", err)
	}
	if got := testutil.ToFloat64(CacheMisses) - before; got != 1 {
		t.Errorf("misses counted = %v, want 1", got)
	}
}

func TestManager_MustRevalidatePageNeverStored(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()
	key := KeyForURL("https://en.wikipedia.org/wiki/Angus_King")

	// an older copy from before the page switched to max-age=0
	if err := manager.Set(ctx, key, freshEntry("<html>old</html>", time.Hour)); err != nil {
		t.Fatal(err)
	}

	resp := upstreamResponse("<html>new</html>", map[string]string{
		"Cache-Control": "private, s-maxage=0, max-age=0, must-revalidate",
		"ETag":          `W/"99/abc"`,
	})
	entry, err := ResponseToEntry(resp)
	if err != nil {
		t.Fatal(err)
	}
	if err := manager.Set(ctx, key, entry); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if n, _ := client.Exists(ctx, key.String()).Result(); n != 0 {
		t.Error("max-age=0 page must not be stored and the old copy must be gone")
	}
}

func TestManager_RefreshAfterNotModified(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()
	key := KeyForURL(pikachuURL)

	if err := manager.Set(ctx, key, freshEntry(`{"name":"pikachu"}`, 30*time.Second)); err != nil {
		t.Fatal(err)
	}

	notModified := http.Header{"Cache-Control": []string{"public, max-age=86400"}}
	if err := manager.Refresh(ctx, key, Expiry(notModified)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	got, err := manager.Get(ctx, key)
	if err != nil {
		t.Fatalf("Get() after Refresh error = %v", err)
	}
	within(t, got.Expires, time.Now().Add(24*time.Hour), 2*time.Second)
	if string(got.Data) != `{"name":"pikachu"}` {
		t.Errorf("body changed by Refresh: %q", got.Data)
	}
	if ttl, _ := client.TTL(ctx, key.String()).Result(); ttl < 23*time.Hour {
		t.Errorf("redis TTL = %v, want about 24h", ttl)
	}
}

func TestManager_RefreshToStaleDrops(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()
	key := KeyForURL("https://en.wikipedia.org/wiki/Susan_Collins")

	if err := manager.Set(ctx, key, freshEntry("<html></html>", time.Minute)); err != nil {
		t.Fatal(err)
	}

	notModified := http.Header{"Cache-Control": []string{"max-age=0, must-revalidate"}}
	if err := manager.Refresh(ctx, key, Expiry(notModified)); err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_RefreshMissing(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	err := manager.Refresh(context.Background(), KeyForURL(pikachuURL), time.Now().Add(time.Hour))
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Refresh() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_UnreadableEntryDropped(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()

	key := KeyForURL("https://en.wikipedia.org/wiki/List_of_current_United_States_senators")
	if err := client.Set(ctx, key.String(), "not json", time.Minute).Err(); err != nil {
		t.Fatalf("seed entry: %v", err)
	}

	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrInvalidEntry) {
		t.Errorf("Get() error = %v, want ErrInvalidEntry", err)
	}
	if n, _ := client.Exists(ctx, key.String()).Result(); n != 0 {
		t.Error("unreadable entry should have been removed")
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("second Get() error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_SetCountsBytes(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	before := testutil.ToFloat64(CacheBytesWritten.WithLabelValues("redis"))
	if err := manager.Set(context.Background(), KeyForURL(pikachuURL), freshEntry(`{"name":"pikachu"}`, time.Minute)); err != nil {
		t.Fatal(err)
	}
	if got := testutil.ToFloat64(CacheBytesWritten.WithLabelValues("redis")) - before; got <= 0 {
		t.Errorf("bytes written = %v, want > 0", got)
	}
}

func TestManager_SetNil(t *testing.T) {
	manager := NewManager(redis.NewClient(&redis.Options{Addr: "localhost:0"}))

	if err := manager.Set(context.Background(), KeyForURL(pikachuURL), nil); err == nil {
		t.Error("Set(nil) should fail")
	}
}

func TestManager_Delete(t *testing.T) {
	client := setupTestRedis(t)
	manager := NewManager(client)
	ctx := context.Background()
	key := KeyForURL(pikachuURL)

	if err := manager.Set(ctx, key, freshEntry("{}", time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := manager.Delete(ctx, key); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := manager.Get(ctx, key); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("Get() after Delete error = %v, want ErrCacheMiss", err)
	}
}

func TestManager_Ping(t *testing.T) {
	manager := NewManager(setupTestRedis(t))

	if err := manager.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
