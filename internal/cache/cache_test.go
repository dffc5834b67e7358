package cache

import (
	"testing"
	"time"
)

func TestGetWithinTTL(t *testing.T) {
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(5*time.Minute, func() time.Time { return now })

	c.Set("habits-u1", []int{1, 2, 3})

	now = now.Add(4 * time.Minute)
	data, ok := c.Get("habits-u1")
	if !ok {
		t.Fatal("entry should still be valid at 4 minutes")
	}
	if got := data.([]int); len(got) != 3 {
		t.Errorf("got %v", got)
	}
}

func TestGetAfterTTL(t *testing.T) {
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(5*time.Minute, func() time.Time { return now })

	c.Set("habits-u1", "data")

	now = now.Add(5 * time.Minute)
	if _, ok := c.Get("habits-u1"); ok {
		t.Fatal("entry should be absent at exactly the TTL")
	}
}

func TestSetOverwrites(t *testing.T) {
	now := time.Date(2025, 7, 10, 12, 0, 0, 0, time.UTC)
	c := NewWithClock(5*time.Minute, func() time.Time { return now })

	c.Set("k", "old")
	now = now.Add(4 * time.Minute)
	c.Set("k", "new")

	// The overwrite refreshed the timestamp, so 4 more minutes is fine.
	now = now.Add(4 * time.Minute)
	data, ok := c.Get("k")
	if !ok || data.(string) != "new" {
		t.Fatalf("got %v, %v", data, ok)
	}
}

func TestInvalidate(t *testing.T) {
	c := New(5 * time.Minute)
	c.Set("k", "v")
	c.Invalidate("k")
	if _, ok := c.Get("k"); ok {
		t.Fatal("invalidated entry should be absent")
	}
	// Invalidating a missing key is a no-op.
	c.Invalidate("missing")
}

func TestClear(t *testing.T) {
	c := New(5 * time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()
	if _, ok := c.Get("a"); ok {
		t.Fatal("cleared entry should be absent")
	}
	if _, ok := c.Get("b"); ok {
		t.Fatal("cleared entry should be absent")
	}
}
