package prism

import (
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestCache_EmptyGet(t *testing.T) {
	c := newCache(clockz.NewFakeClock(), time.Second)
	if _, ok := c.get(); ok {
		t.Error("expected empty cache miss")
	}
}

func TestCache_PutThenGet(t *testing.T) {
	clock := clockz.NewFakeClock()
	c := newCache(clock, time.Second)

	want := Settings{Monochrome: true, TextScale: 1.5}
	c.put(want)

	got, ok := c.get()
	if !ok {
		t.Fatal("expected fresh entry")
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestCache_ExpiresAfterTTL(t *testing.T) {
	clock := clockz.NewFakeClock()
	c := newCache(clock, time.Second)

	c.put(DefaultSettings())

	clock.Advance(999 * time.Millisecond)
	if _, ok := c.get(); !ok {
		t.Error("expected entry still fresh inside TTL")
	}

	clock.Advance(time.Millisecond)
	if _, ok := c.get(); ok {
		t.Error("expected stale entry after TTL")
	}
}

func TestCache_PutOverwrites(t *testing.T) {
	clock := clockz.NewFakeClock()
	c := newCache(clock, time.Second)

	c.put(Settings{TextScale: 1.0})
	clock.Advance(900 * time.Millisecond)
	c.put(Settings{TextScale: 2.0})

	// The second put restarts the freshness window
	clock.Advance(900 * time.Millisecond)
	got, ok := c.get()
	if !ok {
		t.Fatal("expected refreshed entry")
	}
	if got.TextScale != 2.0 {
		t.Errorf("expected overwritten value, got %v", got.TextScale)
	}
}

func TestCache_InvalidateIdempotent(t *testing.T) {
	c := newCache(clockz.NewFakeClock(), time.Second)

	c.invalidate() // empty cache: no-op
	c.put(DefaultSettings())
	c.invalidate()
	c.invalidate()

	if _, ok := c.get(); ok {
		t.Error("expected miss after invalidate")
	}
}
