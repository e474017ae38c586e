package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if _, ok, _ := c.Get(ctx, "products:1"); ok {
		t.Fatal("expected miss on empty cache")
	}

	if err := c.Set(ctx, "products:1", []byte(`{"a":1}`), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	payload, ok, err := c.Get(ctx, "products:1")
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if string(payload) != `{"a":1}` {
		t.Fatalf("payload mismatch: %s", payload)
	}
}

func TestMemoryExpiry(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Nanosecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatal("expected entry to expire")
	}
}

func TestMemoryDeleteByPrefix(t *testing.T) {
	c := NewMemory()
	ctx := context.Background()

	c.Set(ctx, "products:1:20:", []byte("a"), 0)
	c.Set(ctx, "products:2:20:", []byte("b"), 0)
	c.Set(ctx, "sales:1", []byte("c"), 0)

	if err := c.DeleteByPrefix(ctx, "products:"); err != nil {
		t.Fatalf("DeleteByPrefix: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "products:1:20:"); ok {
		t.Fatal("expected products keys deleted")
	}
	if _, ok, _ := c.Get(ctx, "sales:1"); !ok {
		t.Fatal("expected unrelated key kept")
	}
	if c.Len() != 1 {
		t.Fatalf("expected 1 entry left, got %d", c.Len())
	}
}
