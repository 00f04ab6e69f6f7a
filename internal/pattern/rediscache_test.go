package pattern

import (
	"context"
	"testing"
	"time"

	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"go.uber.org/zap"
)

// startRedisCache spins up a Redis container, skipping when Docker is
// not available.
func startRedisCache(t *testing.T) *RedisCache {
	t.Helper()
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		t.Skipf("docker unavailable, skipping redis cache test: %v", err)
	}
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	url, err := container.ConnectionString(ctx)
	if err != nil {
		t.Fatalf("redis connection string: %v", err)
	}

	cache, err := NewRedisCache(url, zap.NewNop())
	if err != nil {
		t.Fatalf("connect redis cache: %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func TestRedisCacheRoundTrip(t *testing.T) {
	cache := startRedisCache(t)
	ctx := context.Background()

	miss, err := cache.Get(ctx, "dave")
	if err != nil {
		t.Fatalf("get on empty cache: %v", err)
	}
	if miss != nil {
		t.Fatalf("expected miss, got %+v", miss)
	}

	entry := &CachedSuggestions{
		AnalyzedAt: time.Now().UTC().Truncate(time.Second),
		Suggestions: []Suggestion{{
			SuggestionID: "s-1",
			Type:         TypeProblem,
			Title:        "You keep running into \"taxes\"",
			Action:       "create_app",
			Confidence:   0.8,
		}},
	}
	if err := cache.Put(ctx, "dave", entry, time.Hour); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := cache.Get(ctx, "dave")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got == nil {
		t.Fatal("expected hit after put")
	}
	if len(got.Suggestions) != 1 || got.Suggestions[0].SuggestionID != "s-1" {
		t.Errorf("round trip mismatch: %+v", got)
	}
	if !got.AnalyzedAt.Equal(entry.AnalyzedAt) {
		t.Errorf("analyzed_at changed: %v vs %v", got.AnalyzedAt, entry.AnalyzedAt)
	}
}

func TestRedisCacheOverwrite(t *testing.T) {
	cache := startRedisCache(t)
	ctx := context.Background()

	old := &CachedSuggestions{AnalyzedAt: time.Now().Add(-2 * time.Hour)}
	if err := cache.Put(ctx, "erin", old, time.Hour); err != nil {
		t.Fatalf("put old: %v", err)
	}

	fresh := &CachedSuggestions{AnalyzedAt: time.Now().UTC().Truncate(time.Second)}
	if err := cache.Put(ctx, "erin", fresh, time.Hour); err != nil {
		t.Fatalf("put fresh: %v", err)
	}

	got, err := cache.Get(ctx, "erin")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !got.AnalyzedAt.Equal(fresh.AnalyzedAt) {
		t.Errorf("entry not replaced whole: %v", got.AnalyzedAt)
	}
}
