package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"lexrelay/api/internal/analysis"
)

func setupTestCache(t *testing.T) (*AnalysisCache, *miniredis.Miniredis) {
	s := miniredis.RunT(t)
	c, err := New("redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("failed to create cache: %v", err)
	}
	return c, s
}

func TestNewCache(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	c, err := New("redis://"+s.Addr(), time.Hour)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestPutAndGet(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	text := "This agreement is entered into by and between the parties."
	result := analysis.Result{
		Summary:         []string{"Short mutual agreement."},
		Flags:           []string{"missing governing law"},
		SuggestedClause: "This Agreement shall be governed by the laws of England.",
		Succeeded:       true,
	}

	if err := c.Put(ctx, text, result); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	got, ok, err := c.Get(ctx, text)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatal("expected cache hit, got miss")
	}
	if len(got.Summary) != 1 || got.Summary[0] != result.Summary[0] {
		t.Errorf("unexpected summary: %v", got.Summary)
	}
	if len(got.Flags) != 1 || got.Flags[0] != result.Flags[0] {
		t.Errorf("unexpected flags: %v", got.Flags)
	}
	if !got.Succeeded {
		t.Error("expected cached result to be marked succeeded")
	}
}

func TestGetMiss(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	_, ok, err := c.Get(context.Background(), "never stored")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected miss for text never stored")
	}
}

func TestPutSkipsDegradedResults(t *testing.T) {
	c, s := setupTestCache(t)
	defer c.Close()
	defer s.Close()

	ctx := context.Background()
	text := "some contract text"
	degraded := analysis.Result{
		Summary:         []string{"Analysis temporarily unavailable."},
		Flags:           []string{},
		SuggestedClause: "N/A",
		Succeeded:       false,
	}

	if err := c.Put(ctx, text, degraded); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	_, ok, err := c.Get(ctx, text)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("degraded result should not be cached")
	}
}

func TestEntryExpires(t *testing.T) {
	s := miniredis.RunT(t)
	defer s.Close()

	c, err := New("redis://"+s.Addr(), time.Minute)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	text := "expiring contract"
	if err := c.Put(ctx, text, analysis.Result{Summary: []string{"ok"}, Succeeded: true}); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	s.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, text)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if ok {
		t.Error("expected entry to expire after TTL")
	}
}

func TestKeyIsStablePerText(t *testing.T) {
	if Key("abc") != Key("abc") {
		t.Error("expected identical text to hash to identical keys")
	}
	if Key("abc") == Key("abd") {
		t.Error("expected different text to hash to different keys")
	}
}
