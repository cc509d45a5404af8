package prism

import "time"

// MetricsProvider allows integration with metrics systems like Prometheus, StatsD, etc.
// Implement this interface to receive callbacks on key Core events.
type MetricsProvider interface {
	// OnStateChange is called when the Core transitions between lifecycle states.
	OnStateChange(from, to CoreState)

	// OnRefreshSuccess is called when a recomputation completes and is broadcast.
	// Duration is the time taken to query the provider and run the pipeline.
	OnRefreshSuccess(duration time.Duration)

	// OnRefreshFailure is called when a recomputation fails.
	// Stage indicates where the failure occurred: "validate" or "pipeline".
	OnRefreshFailure(stage string, duration time.Duration)

	// OnChangeReceived is called when a push signal arrives from the provider.
	OnChangeReceived()

	// OnQueryFailure is called when a provider read fails and the field's
	// default is substituted.
	OnQueryFailure(setting Setting)

	// OnPublish is called after a broadcast with the number of subscribers
	// the value was delivered to.
	OnPublish(subscribers int)
}

// NoOpMetricsProvider is a no-op implementation of MetricsProvider.
// Use this as an embedded type to implement only the methods you need.
type NoOpMetricsProvider struct{}

func (NoOpMetricsProvider) OnStateChange(_, _ CoreState)               {}
func (NoOpMetricsProvider) OnRefreshSuccess(_ time.Duration)           {}
func (NoOpMetricsProvider) OnRefreshFailure(_ string, _ time.Duration) {}
func (NoOpMetricsProvider) OnChangeReceived()                          {}
func (NoOpMetricsProvider) OnQueryFailure(_ Setting)                   {}
func (NoOpMetricsProvider) OnPublish(_ int)                            {}
