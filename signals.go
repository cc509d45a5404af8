package prism

import "github.com/zoobzio/capitan"

// Core lifecycle signals.
var (
	// CoreInitialized is emitted when a Core transitions to Active.
	CoreInitialized = capitan.NewSignal(
		"prism.core.initialized",
		"Core initialized and watching for changes",
	)

	// CoreDisposed is emitted when a Core transitions to Disposed.
	CoreDisposed = capitan.NewSignal(
		"prism.core.disposed",
		"Core disposed",
	)

	// CoreReset is emitted when a Core is reset to a blank state.
	CoreReset = capitan.NewSignal(
		"prism.core.reset",
		"Core reset to uninitialized",
	)

	// CoreStateChanged is emitted when a Core transitions between states.
	CoreStateChanged = capitan.NewSignal(
		"prism.core.state.changed",
		"Core state transition",
	)
)

// Change processing signals.
var (
	// CoreChangeReceived is emitted when a push notification arrives from
	// the provider.
	CoreChangeReceived = capitan.NewSignal(
		"prism.core.change.received",
		"Raw change signal received from provider",
	)

	// CorePushDiscarded is emitted when a push notification carried an
	// unexpected payload and was dropped.
	CorePushDiscarded = capitan.NewSignal(
		"prism.core.push.discarded",
		"Malformed push payload discarded",
	)

	// CoreQueryFailed is emitted when a provider read fails and the field's
	// default is substituted.
	CoreQueryFailed = capitan.NewSignal(
		"prism.core.query.failed",
		"Provider query failed, default substituted",
	)

	// CoreRefreshFailed is emitted when a debounced recomputation fails.
	CoreRefreshFailed = capitan.NewSignal(
		"prism.core.refresh.failed",
		"Recomputation failed, no broadcast",
	)

	// CoreConfigPublished is emitted when a recomputed configuration is
	// broadcast to subscribers.
	CoreConfigPublished = capitan.NewSignal(
		"prism.core.config.published",
		"Configuration broadcast to subscribers",
	)

	// CoreCacheCleared is emitted when the cache is explicitly invalidated.
	CoreCacheCleared = capitan.NewSignal(
		"prism.core.cache.cleared",
		"Cache invalidated",
	)
)
