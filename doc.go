// Package prism synchronizes adaptive accessibility configuration from
// divergent external signal sources into one canonical snapshot.
//
// The core type is Core, which reconciles raw provider reads into a
// Settings value, serves it under a TTL freshness bound, and rebroadcasts
// coalesced changes to subscribers:
//
//	Provider → Debounce → Recompute → Cache → Publish
//
// Synchronous reads consult the cache first and fall back to the provider
// on a miss. Push notifications from the provider are coalesced with a
// trailing-edge debounce, so a burst of raw signals produces exactly one
// recomputation and one broadcast.
//
// # Lifecycle
//
// A Core is in one of three states:
//
//   - Uninitialized: constructed but not yet wired to the provider
//   - Active: watching for changes and serving reads
//   - Disposed: torn down; subscriptions closed, cache cleared
//
// EnsureInitialized and Dispose are idempotent. Reads and subscriptions
// initialize the Core implicitly, so callers never see a lifecycle error.
//
// # Providers
//
// The Provider interface abstracts the raw settings source. The core
// package provides StaticProvider for testing and FileProvider backed by
// fsnotify. Remote providers live in subpackages:
//
//   - redis: Redis hash with keyspace notifications
//   - etcd: etcd key with the native Watch API
//
// # Example
//
//	provider := prism.NewFileProvider("/etc/myapp/accessibility.json")
//	if err := provider.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	core := prism.New(provider)
//	settings := core.Settings(ctx)
//	if settings.Monochrome {
//	    ui.DisableColor()
//	}
//
//	sub := core.Subscribe(ctx)
//	go func() {
//	    for s := range sub.C() {
//	        ui.Apply(s)
//	    }
//	}()
package prism
