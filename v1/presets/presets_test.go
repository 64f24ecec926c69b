package presets

import (
	"context"
	"testing"
	"time"
)

func TestNewSlidingExpires(t *testing.T) {
	ctx := context.Background()
	c := NewSliding[string, string](50 * time.Millisecond)
	defer c.Close()

	if _, err := c.GetOrSet(ctx, "k", func(ctx context.Context, key string) (string, error) {
		return "v", nil
	}); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if _, ok := c.Get(ctx, "k"); !ok {
		t.Fatal("expected hit before TTL")
	}
	time.Sleep(80 * time.Millisecond)
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("expected idle entry to expire")
	}
}

func TestNewMemoizerRejectsZero(t *testing.T) {
	ctx := context.Background()
	c := NewMemoizer[string, int]()
	defer c.Close()

	v, err := c.GetOrSet(ctx, "k", func(ctx context.Context, key string) (int, error) {
		return 0, nil
	})
	if err != nil || v != 0 {
		t.Fatalf("expected zero returned, got v=%d err=%v", v, err)
	}
	if _, ok := c.Get(ctx, "k"); ok {
		t.Fatal("memoizer must not retain the zero value")
	}
}

func TestNewPermanentNeverExpires(t *testing.T) {
	ctx := context.Background()
	c := NewPermanent[string, int]()
	defer c.Close()

	if !c.Policy().IsPermanent() {
		t.Fatal("expected permanent policy")
	}
	if _, err := c.GetOrSet(ctx, "k", func(ctx context.Context, key string) (int, error) {
		return 1, nil
	}); err != nil {
		t.Fatalf("populate: %v", err)
	}
	time.Sleep(20 * time.Millisecond)
	if v, ok := c.Get(ctx, "k"); !ok || v != 1 {
		t.Fatal("permanent entry must survive")
	}
}
