package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestTracker_IgnoresNonThrottleStatus(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	ctx := context.Background()

	headers := http.Header{"Retry-After": []string{"60"}}
	for _, status := range []int{200, 404, 500} {
		if err := tracker.UpdateFromResponse(ctx, status, headers); err != nil {
			t.Fatalf("UpdateFromResponse(%d) error: %v", status, err)
		}
	}

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState error: %v", err)
	}
	if state.IsBlocked() {
		t.Errorf("Expected unblocked state, got %+v", state)
	}
}

func TestTracker_RetryAfterBlocks(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	ctx := context.Background()

	err := tracker.UpdateFromResponse(ctx, http.StatusTooManyRequests, http.Header{"Retry-After": []string{"30"}})
	if err != nil {
		t.Fatalf("UpdateFromResponse error: %v", err)
	}

	state, _ := tracker.GetState(ctx)
	if !state.IsBlocked() {
		t.Fatal("Expected blocked state after 429")
	}
	if state.LastStatus != http.StatusTooManyRequests {
		t.Errorf("LastStatus = %d, want 429", state.LastStatus)
	}
	if d := state.TimeUntilUnblocked(); d < 29*time.Second || d > 30*time.Second {
		t.Errorf("TimeUntilUnblocked() = %v, want ~30s", d)
	}
}

func TestTracker_DefaultRetryAfter(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	ctx := context.Background()

	if err := tracker.UpdateFromResponse(ctx, http.StatusServiceUnavailable, http.Header{}); err != nil {
		t.Fatalf("UpdateFromResponse error: %v", err)
	}

	state, _ := tracker.GetState(ctx)
	if d := state.TimeUntilUnblocked(); d <= DefaultRetryAfter-time.Second || d > DefaultRetryAfter {
		t.Errorf("TimeUntilUnblocked() = %v, want ~%v", d, DefaultRetryAfter)
	}
}

func TestTracker_BlockOnlyMovesForward(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	ctx := context.Background()

	_ = tracker.UpdateFromResponse(ctx, 429, http.Header{"Retry-After": []string{"60"}})
	_ = tracker.UpdateFromResponse(ctx, 429, http.Header{"Retry-After": []string{"1"}})

	state, _ := tracker.GetState(ctx)
	if d := state.TimeUntilUnblocked(); d < 58*time.Second {
		t.Errorf("Shorter Retry-After shortened the block: %v", d)
	}
}

func TestTracker_ConcurrentUpdatesKeepLongestBlock(t *testing.T) {
	ctx := context.Background()

	for round := 0; round < 50; round++ {
		tracker := NewTracker(nil, zerolog.Nop())

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			retryAfter := "1"
			if i == 7 {
				retryAfter = "120"
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				_ = tracker.UpdateFromResponse(ctx, 429, http.Header{"Retry-After": []string{retryAfter}})
			}()
		}
		wg.Wait()

		state, _ := tracker.GetState(ctx)
		if d := state.TimeUntilUnblocked(); d < 100*time.Second {
			t.Fatalf("round %d: longest block lost, %v left", round, d)
		}
	}
}

func TestTracker_WaitUnblocked(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())

	start := time.Now()
	if err := tracker.Wait(context.Background()); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	if time.Since(start) > 50*time.Millisecond {
		t.Error("Wait should return immediately when unblocked")
	}
}

func TestTracker_WaitRespectsMaxWait(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	tracker.SetMaxWait(100 * time.Millisecond)
	ctx := context.Background()

	_ = tracker.UpdateFromResponse(ctx, 429, http.Header{"Retry-After": []string{"60"}})

	start := time.Now()
	if err := tracker.Wait(ctx); err != nil {
		t.Fatalf("Wait error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 90*time.Millisecond || elapsed > time.Second {
		t.Errorf("Wait took %v, want ~100ms", elapsed)
	}
}

func TestTracker_WaitContextCancelled(t *testing.T) {
	tracker := NewTracker(nil, zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_ = tracker.UpdateFromResponse(context.Background(), 429, http.Header{"Retry-After": []string{"10"}})

	err := tracker.Wait(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestTracker_RedisState(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379", DB: 15})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available for testing: %v", err)
	}
	client.FlushDB(ctx)
	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	tracker := NewTracker(client, zerolog.Nop())

	state, err := tracker.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState error: %v", err)
	}
	if state.IsBlocked() {
		t.Fatal("Empty Redis must report unblocked")
	}

	if err := tracker.UpdateFromResponse(ctx, 429, http.Header{"Retry-After": []string{"20"}}); err != nil {
		t.Fatalf("UpdateFromResponse error: %v", err)
	}

	// A second tracker on the same Redis sees the block.
	other := NewTracker(client, zerolog.Nop())
	state, err = other.GetState(ctx)
	if err != nil {
		t.Fatalf("GetState error: %v", err)
	}
	if !state.IsBlocked() || state.LastStatus != 429 {
		t.Errorf("Shared state not visible: %+v", state)
	}
	if state.LastUpdate.IsZero() {
		t.Error("LastUpdate not stored")
	}
}
