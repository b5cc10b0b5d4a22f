package webhook

import (
	"testing"
	"time"
)

func TestDedupCacheCheckAndRecord(t *testing.T) {
	cache := NewDedupCache(DefaultDedupWindow)

	if !cache.CheckAndRecord("a") {
		t.Error("first insert should report first-seen")
	}
	if cache.CheckAndRecord("a") {
		t.Error("second insert of same key should report duplicate")
	}
	if !cache.CheckAndRecord("b") {
		t.Error("different key should report first-seen")
	}
	if cache.Len() != 2 {
		t.Errorf("expected 2 retained keys, got %d", cache.Len())
	}
}

func TestDedupCacheBulkClearOnWindow(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	clock := func() time.Time { return now }
	cache := newDedupCacheWithClock(10*time.Minute, clock)

	cache.CheckAndRecord("a")
	cache.CheckAndRecord("b")

	// Inside the window the keys are retained.
	now = now.Add(9 * time.Minute)
	if cache.CheckAndRecord("a") {
		t.Error("key should still be a duplicate inside the window")
	}

	// Crossing the window clears everything at once, not per entry.
	now = now.Add(2 * time.Minute)
	if !cache.CheckAndRecord("a") {
		t.Error("key should be first-seen again after bulk clear")
	}
	if cache.Len() != 1 {
		t.Errorf("expected only the re-inserted key after clear, got %d", cache.Len())
	}
}

func TestDedupCacheZeroWindowDefaults(t *testing.T) {
	cache := NewDedupCache(0)
	if cache.window != DefaultDedupWindow {
		t.Errorf("expected default window %v, got %v", DefaultDedupWindow, cache.window)
	}
}

func TestDedupKeyDistinguishesContent(t *testing.T) {
	a := DedupKey("message_created", 1, "hola")
	b := DedupKey("message_created", 1, "adios")
	c := DedupKey("message_created", 2, "hola")
	if a == b || a == c {
		t.Errorf("keys must differ by content and message ID: %q %q %q", a, b, c)
	}
	if a != DedupKey("message_created", 1, "hola") {
		t.Error("identical event must produce identical key")
	}
}
