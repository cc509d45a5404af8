package prism

import (
	"context"
	"time"

	"github.com/zoobzio/pipz"
)

// refreshID names the terminal stage of the refresh pipeline.
const refreshID = pipz.Name("refresh")

// Option configures the refresh pipeline of a Core. Pipeline options wrap
// the push-triggered recomputation with middleware for retry, timeout,
// fallback, and observation. A pipeline failure is recorded and logged by
// the Core; the snapshot is not cached or broadcast, and the next push
// signal is processed normally.
//
// Instance configuration (TTL, debounce, clock, metrics) is handled via
// chainable methods on the Core before first use.
type Option func(pipz.Chainable[*Change]) pipz.Chainable[*Change]

// buildPipeline wraps a terminal with pipeline options.
func buildPipeline(terminal pipz.Chainable[*Change], opts []Option) pipz.Chainable[*Change] {
	pipeline := terminal
	for _, opt := range opts {
		pipeline = opt(pipeline)
	}
	return pipeline
}

// WithRetry wraps the pipeline with retry logic.
// Failed refreshes are retried immediately up to maxAttempts times.
// For exponential backoff between retries, use WithBackoff instead.
func WithRetry(maxAttempts int) Option {
	return func(p pipz.Chainable[*Change]) pipz.Chainable[*Change] {
		return pipz.NewRetry("retry", p, maxAttempts)
	}
}

// WithBackoff wraps the pipeline with exponential backoff retry logic.
// Failed refreshes are retried with increasing delays: baseDelay,
// 2*baseDelay, 4*baseDelay, etc.
func WithBackoff(maxAttempts int, baseDelay time.Duration) Option {
	return func(p pipz.Chainable[*Change]) pipz.Chainable[*Change] {
		return pipz.NewBackoff("backoff", p, maxAttempts, baseDelay)
	}
}

// WithTimeout wraps the pipeline with a deadline. If a refresh takes
// longer than the specified duration, it fails with a timeout error.
func WithTimeout(d time.Duration) Option {
	return func(p pipz.Chainable[*Change]) pipz.Chainable[*Change] {
		return pipz.NewTimeout("timeout", p, d)
	}
}

// WithFallback wraps the pipeline with fallback processors. If the primary
// pipeline fails, each fallback is tried in order until one succeeds.
func WithFallback(fallbacks ...pipz.Chainable[*Change]) Option {
	return func(p pipz.Chainable[*Change]) pipz.Chainable[*Change] {
		all := append([]pipz.Chainable[*Change]{p}, fallbacks...)
		return pipz.NewFallback("fallback", all...)
	}
}

// WithMiddleware wraps the pipeline with a sequence of processors.
// Processors execute in order, with the wrapped pipeline last.
//
// Use the Use* functions to create processors for common patterns, or
// provide custom pipz.Chainable implementations directly.
//
// Example:
//
//	prism.New(provider,
//	    prism.WithMiddleware(
//	        prism.UseEffect("audit", auditFn),
//	        prism.UseTransform("clamp", clampFn),
//	    ),
//	    prism.WithRetry(3),
//	)
func WithMiddleware(processors ...pipz.Chainable[*Change]) Option {
	return func(p pipz.Chainable[*Change]) pipz.Chainable[*Change] {
		all := make([]pipz.Chainable[*Change], 0, len(processors)+1)
		all = append(all, processors...)
		all = append(all, p)
		return pipz.NewSequence("middleware", all...)
	}
}

// UseTransform creates a processor that transforms the change.
// Cannot fail. Use for pure transformations that always succeed.
func UseTransform(name string, fn func(context.Context, *Change) *Change) pipz.Chainable[*Change] {
	return pipz.Transform(pipz.Name(name), fn)
}

// UseApply creates a processor that can transform the change and fail.
// Use for operations like enrichment or cross-field checks that may
// produce errors.
func UseApply(name string, fn func(context.Context, *Change) (*Change, error)) pipz.Chainable[*Change] {
	return pipz.Apply(pipz.Name(name), fn)
}

// UseEffect creates a processor that performs a side effect. The change
// passes through unchanged. Use for logging, metrics, or notifications
// that should not affect the snapshot.
func UseEffect(name string, fn func(context.Context, *Change) error) pipz.Chainable[*Change] {
	return pipz.Effect(pipz.Name(name), fn)
}

// UseFilter wraps a processor with a condition. If the condition returns
// false, the change passes through unchanged.
func UseFilter(name string, condition func(context.Context, *Change) bool, processor pipz.Chainable[*Change]) pipz.Chainable[*Change] {
	return pipz.NewFilter(pipz.Name(name), condition, processor)
}
