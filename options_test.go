package prism

import (
	"context"
	"errors"
	"testing"

	"github.com/zoobzio/pipz"
)

func passthrough() pipz.Chainable[*Change] {
	return pipz.Transform(refreshID, func(_ context.Context, change *Change) *Change {
		return change
	})
}

func TestWithRetry_RetriesUntilSuccess(t *testing.T) {
	attempts := 0
	terminal := UseApply("flaky", func(_ context.Context, change *Change) (*Change, error) {
		attempts++
		if attempts < 3 {
			return nil, errors.New("transient")
		}
		return change, nil
	})

	pipeline := buildPipeline(terminal, []Option{WithRetry(3)})

	_, err := pipeline.Process(context.Background(), &Change{Current: DefaultSettings()})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
}

func TestWithMiddleware_ExecutesInOrder(t *testing.T) {
	var order []string

	pipeline := buildPipeline(
		UseEffect("terminal", func(_ context.Context, _ *Change) error {
			order = append(order, "terminal")
			return nil
		}),
		[]Option{WithMiddleware(
			UseEffect("first", func(_ context.Context, _ *Change) error {
				order = append(order, "first")
				return nil
			}),
			UseEffect("second", func(_ context.Context, _ *Change) error {
				order = append(order, "second")
				return nil
			}),
		)},
	)

	if _, err := pipeline.Process(context.Background(), &Change{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 3 || order[0] != "first" || order[1] != "second" || order[2] != "terminal" {
		t.Errorf("unexpected order: %v", order)
	}
}

func TestUseTransform_ModifiesChange(t *testing.T) {
	pipeline := buildPipeline(passthrough(), []Option{
		WithMiddleware(UseTransform("force-bold", func(_ context.Context, change *Change) *Change {
			change.Current.BoldText = true
			return change
		})),
	})

	out, err := pipeline.Process(context.Background(), &Change{Current: DefaultSettings()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.Current.BoldText {
		t.Error("expected transform applied")
	}
}

func TestUseFilter_SkipsWhenConditionFalse(t *testing.T) {
	applied := false
	pipeline := buildPipeline(passthrough(), []Option{
		WithMiddleware(UseFilter("only-monochrome",
			func(_ context.Context, change *Change) bool {
				return change.Current.Monochrome
			},
			UseEffect("mark", func(_ context.Context, _ *Change) error {
				applied = true
				return nil
			}),
		)),
	})

	if _, err := pipeline.Process(context.Background(), &Change{Current: DefaultSettings()}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if applied {
		t.Error("expected filtered processor skipped")
	}
}

func TestWithFallback_UsedOnPrimaryFailure(t *testing.T) {
	terminal := UseApply("primary", func(_ context.Context, _ *Change) (*Change, error) {
		return nil, errors.New("primary down")
	})

	pipeline := buildPipeline(terminal, []Option{
		WithFallback(UseTransform("defaults", func(_ context.Context, change *Change) *Change {
			change.Current = DefaultSettings()
			return change
		})),
	})

	out, err := pipeline.Process(context.Background(), &Change{Current: Settings{TextScale: 3.0}})
	if err != nil {
		t.Fatalf("expected fallback to succeed, got %v", err)
	}
	if out.Current != DefaultSettings() {
		t.Errorf("expected fallback result, got %+v", out.Current)
	}
}
