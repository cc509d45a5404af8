package prism

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorRing_Disabled(t *testing.T) {
	r := newErrorRing(0)
	if r != nil {
		t.Fatal("expected nil ring for zero capacity")
	}

	// nil ring is safe to use
	r.push(errors.New("dropped"))
	r.clear()
	if r.all() != nil {
		t.Error("expected nil history from disabled ring")
	}
}

func TestErrorRing_OldestFirst(t *testing.T) {
	r := newErrorRing(3)
	for i := 1; i <= 3; i++ {
		r.push(fmt.Errorf("err-%d", i))
	}

	got := r.all()
	if len(got) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(got))
	}
	if got[0].Error() != "err-1" || got[2].Error() != "err-3" {
		t.Errorf("expected oldest first, got %v", got)
	}
}

func TestErrorRing_WrapsAround(t *testing.T) {
	r := newErrorRing(3)
	for i := 1; i <= 5; i++ {
		r.push(fmt.Errorf("err-%d", i))
	}

	got := r.all()
	if len(got) != 3 {
		t.Fatalf("expected capacity-bounded history, got %d", len(got))
	}
	if got[0].Error() != "err-3" || got[2].Error() != "err-5" {
		t.Errorf("expected oldest evicted, got %v", got)
	}
}

func TestErrorRing_Clear(t *testing.T) {
	r := newErrorRing(2)
	r.push(errors.New("boom"))
	r.clear()

	if r.all() != nil {
		t.Error("expected empty history after clear")
	}

	r.push(errors.New("after"))
	if got := r.all(); len(got) != 1 {
		t.Errorf("expected ring usable after clear, got %v", got)
	}
}
