package prism

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/clockz"
	"github.com/zoobzio/pipz"
)

// DefaultDebounce is the default quiet interval for coalescing push signals.
const DefaultDebounce = 100 * time.Millisecond

// Core reconciles raw provider reads into the canonical Settings snapshot,
// serves it under a TTL freshness bound, and rebroadcasts coalesced changes
// to subscribers. It owns the cache, the debounce timer, and the subscriber
// set; all public operations are serialized through a single mutex.
type Core struct {
	provider Provider
	pipeline pipz.Chainable[*Change]

	ttl         time.Duration
	debounce    time.Duration
	clock       clockz.Clock
	metrics     MetricsProvider
	onDispose   func(CoreState)
	historySize int

	mu         sync.Mutex
	state      CoreState
	cache      *cache
	full       *hub[Settings]
	mono       *hub[bool]
	last       Settings
	removeHook func()
	loopCancel context.CancelFunc
	loopDone   chan struct{}
	notify     chan struct{}

	lastError    atomic.Pointer[error]
	errorHistory *errorRing
}

// New creates a Core backed by the given provider.
//
// The provider supplies synchronous per-field reads and may push change
// signals; pushes are coalesced with a trailing-edge debounce, and each
// coalesced change triggers one recomputation and one broadcast.
//
// Pipeline options (With*) configure the refresh pipeline. Instance
// configuration uses chainable methods before first use.
//
// Example:
//
//	core := prism.New(provider,
//	    prism.WithRetry(3),
//	).TTL(2 * time.Second).Debounce(200 * time.Millisecond)
func New(provider Provider, opts ...Option) *Core {
	terminal := pipz.Transform(refreshID, func(_ context.Context, change *Change) *Change {
		return change
	})

	return &Core{
		provider: provider,
		pipeline: buildPipeline(terminal, opts),
		ttl:      DefaultTTL,
		debounce: DefaultDebounce,
		clock:    clockz.RealClock,
		state:    StateUninitialized,
	}
}

// -----------------------------------------------------------------------------
// Chainable Instance Configuration
// -----------------------------------------------------------------------------

// TTL sets the freshness bound for cached snapshots. A read within the TTL
// of the last computation returns the cached value without a provider
// query. Default: 1s. Must be called before first use.
func (c *Core) TTL(d time.Duration) *Core {
	c.ttl = d
	return c
}

// Debounce sets the quiet interval for change coalescing. Push signals
// arriving within this interval are coalesced into a single recomputation
// that fires after the last signal. Default: 100ms. Must be called before
// first use.
func (c *Core) Debounce(d time.Duration) *Core {
	c.debounce = d
	return c
}

// Clock sets a custom clock for time operations.
// Use this with clockz.FakeClock for deterministic TTL and debounce
// testing. Must be called before first use.
func (c *Core) Clock(clock clockz.Clock) *Core {
	c.clock = clock
	return c
}

// Metrics sets a metrics provider for observability integration.
// The provider receives callbacks on state changes, refresh
// success/failure, query failures, and broadcasts. Must be called before
// first use.
func (c *Core) Metrics(provider MetricsProvider) *Core {
	c.metrics = provider
	return c
}

// OnDispose sets a callback invoked after the Core tears down. The
// callback receives the final state. Must be called before first use.
func (c *Core) OnDispose(fn func(CoreState)) *Core {
	c.onDispose = fn
	return c
}

// ErrorHistorySize sets the number of recent recovered failures to retain.
// Use 0 (default) to only retain the most recent via LastError().
// Must be called before first use.
func (c *Core) ErrorHistorySize(n int) *Core {
	c.historySize = n
	return c
}

// -----------------------------------------------------------------------------
// Inspection
// -----------------------------------------------------------------------------

// State returns the current lifecycle state of the Core.
func (c *Core) State() CoreState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// LastError returns the most recent recovered failure, or nil. Failures
// never surface through the read API; they are observable only here, via
// ErrorHistory, and through signals and metrics.
func (c *Core) LastError() error {
	ptr := c.lastError.Load()
	if ptr == nil {
		return nil
	}
	return *ptr
}

// ErrorHistory returns the recent recovered failures, oldest first.
// Returns nil unless ErrorHistorySize was set.
func (c *Core) ErrorHistory() []error {
	c.mu.Lock()
	ring := c.errorHistory
	c.mu.Unlock()
	return ring.all()
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// EnsureInitialized transitions the Core to Active: it builds the cache
// and subscriber hubs, starts the debounce loop, and arms the provider's
// push hook. Calling it while Active is a no-op; calling it after Dispose
// re-initializes from scratch.
func (c *Core) EnsureInitialized(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureInitializedLocked(ctx)
}

func (c *Core) ensureInitializedLocked(ctx context.Context) {
	if c.state == StateActive {
		return
	}

	c.cache = newCache(c.clock, c.ttl)
	c.full = newHub[Settings]()
	c.mono = newHub[bool]()
	c.errorHistory = newErrorRing(c.historySize)
	c.lastError.Store(nil)
	c.last = DefaultSettings()
	c.notify = make(chan struct{}, 1)
	c.loopDone = make(chan struct{})

	loopCtx, cancel := context.WithCancel(context.Background())
	c.loopCancel = cancel
	go c.watch(loopCtx, c.notify, c.loopDone)

	if c.provider != nil {
		c.removeHook = c.provider.OnChange(c.handlePush)
	}

	c.transitionLocked(ctx, StateActive)
	capitan.Emit(ctx, CoreInitialized,
		KeyDebounce.Field(c.debounce),
		KeyTTL.Field(c.ttl),
	)
}

// Dispose transitions Active → Disposed: it cancels any pending debounce
// timer, closes all subscriptions, invalidates the cache, and detaches the
// provider's push hook. Repeated calls are no-ops.
func (c *Core) Dispose(ctx context.Context) {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}

	c.loopCancel()
	c.loopCancel = nil
	if c.removeHook != nil {
		c.removeHook()
		c.removeHook = nil
	}
	c.full.closeAll()
	c.mono.closeAll()
	c.cache.invalidate()

	c.transitionLocked(ctx, StateDisposed)
	capitan.Emit(ctx, CoreDisposed)
	fn := c.onDispose
	c.mu.Unlock()

	if fn != nil {
		fn(StateDisposed)
	}
}

// Reset disposes the Core and clears all internal fields so the next
// EnsureInitialized starts from a blank state. It waits for the debounce
// loop to exit. Test facility: production callers use Dispose.
func (c *Core) Reset(ctx context.Context) {
	c.Dispose(ctx)

	c.mu.Lock()
	done := c.loopDone
	c.mu.Unlock()
	if done != nil {
		<-done
	}

	c.mu.Lock()
	c.cache = nil
	c.full = nil
	c.mono = nil
	c.notify = nil
	c.loopDone = nil
	c.errorHistory = nil
	c.lastError.Store(nil)
	c.last = Settings{}
	c.state = StateUninitialized
	c.mu.Unlock()

	capitan.Emit(ctx, CoreReset)
}

// transitionLocked updates the state and emits a state change event.
func (c *Core) transitionLocked(ctx context.Context, newState CoreState) {
	oldState := c.state
	if oldState == newState {
		return
	}
	c.state = newState
	capitan.Emit(ctx, CoreStateChanged,
		KeyOldState.Field(oldState.String()),
		KeyNewState.Field(newState.String()),
	)
	if c.metrics != nil {
		c.metrics.OnStateChange(oldState, newState)
	}
}

// -----------------------------------------------------------------------------
// Reads
// -----------------------------------------------------------------------------

// Settings returns the canonical snapshot. The cached value is returned if
// still fresh; otherwise the provider is queried synchronously and the
// cache repopulated. Provider failures yield the field's default rather
// than an error, so the returned snapshot is always well-formed. Calling
// Settings on an uninitialized or disposed Core initializes it implicitly.
func (c *Core) Settings(ctx context.Context) Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureInitializedLocked(ctx)

	if v, ok := c.cache.get(); ok {
		return v
	}

	v := c.querySettingsLocked(ctx)
	c.cache.put(v)
	c.last = v
	return v
}

// MonochromeEnabled returns the monochrome flag. Semantically identical to
// Settings(ctx).Monochrome; it reads through the same cache entry.
func (c *Core) MonochromeEnabled(ctx context.Context) bool {
	return c.Settings(ctx).Monochrome
}

// ClearCache forces the next read to bypass the cache and re-query the
// provider. It does not trigger a broadcast. No-op unless Active.
func (c *Core) ClearCache(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return
	}
	c.cache.invalidate()
	capitan.Emit(ctx, CoreCacheCleared)
}

// -----------------------------------------------------------------------------
// Subscriptions
// -----------------------------------------------------------------------------

// Subscribe registers a listener for full-snapshot change broadcasts.
// A late subscriber receives only values broadcast after subscribing;
// there is no replay. Each subscription buffers a small number of values
// and sheds the oldest when the consumer falls behind, so delivery never
// blocks the Core. Initializes the Core implicitly if needed.
func (c *Core) Subscribe(ctx context.Context) *Subscription[Settings] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureInitializedLocked(ctx)

	h := c.full
	sub := h.subscribe()
	sub.cancel = func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		h.unsubscribe(sub)
	}
	return sub
}

// SubscribeMonochrome registers a listener for the narrow monochrome flag.
// It delivers once per coalesced change, in the same sequence the full
// stream observes. Initializes the Core implicitly if needed.
func (c *Core) SubscribeMonochrome(ctx context.Context) *Subscription[bool] {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureInitializedLocked(ctx)

	h := c.mono
	sub := h.subscribe()
	sub.cancel = func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		h.unsubscribe(sub)
	}
	return sub
}

// -----------------------------------------------------------------------------
// Push handling and recomputation
// -----------------------------------------------------------------------------

// handlePush is the provider's push hook. Well-formed payloads (nil, a
// ChangeHint, or a setting key) arm the debounce loop; anything else is
// dropped without invalidating the cache or broadcasting.
func (c *Core) handlePush(payload any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return
	}

	ctx := context.Background()
	switch payload.(type) {
	case nil, ChangeHint, Setting, string:
	default:
		capitan.Emit(ctx, CorePushDiscarded,
			KeyPayloadType.Field(fmt.Sprintf("%T", payload)),
		)
		return
	}

	capitan.Emit(ctx, CoreChangeReceived)
	if c.metrics != nil {
		c.metrics.OnChangeReceived()
	}

	select {
	case c.notify <- struct{}{}:
	default:
	}
}

// watch coalesces push signals with a trailing-edge debounce: only the
// last signal within a continuous burst survives, and the refresh fires
// one quiet interval after it.
func (c *Core) watch(ctx context.Context, notify <-chan struct{}, done chan struct{}) {
	defer close(done)

	var (
		timer      clockz.Timer
		timerC     <-chan time.Time
		hasPending bool
	)

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return

		case <-notify:
			hasPending = true

			// Reset or start debounce timer
			if timer == nil {
				timer = c.clock.NewTimer(c.debounce)
				timerC = timer.C()
			} else {
				if !timer.Stop() {
					select {
					case <-timerC:
					default:
					}
				}
				timer.Reset(c.debounce)
			}

		case <-timerC:
			if hasPending {
				c.refresh(ctx)
				hasPending = false
			}
		}
	}
}

// refresh is the debounced action: invalidate the cache, recompute the
// snapshot from current provider state, run the pipeline, and broadcast
// exactly once. Failures are recorded and logged, never propagated to the
// provider, and never abort the debounce loop.
func (c *Core) refresh(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Disposal may have raced the timer; cancellation wins.
	if c.state != StateActive {
		return
	}

	start := c.clock.Now()
	c.cache.invalidate()

	curr := c.querySettingsLocked(ctx)
	change := &Change{Previous: c.last, Current: curr}

	processed, err := c.pipeline.Process(ctx, change)
	if err != nil {
		c.setError(err)
		capitan.Emit(ctx, CoreRefreshFailed,
			KeyError.Field(err.Error()),
		)
		if c.metrics != nil {
			c.metrics.OnRefreshFailure("pipeline", c.clock.Since(start))
		}
		return
	}

	curr = processed.Current
	if err := curr.Validate(); err != nil {
		c.setError(err)
		capitan.Emit(ctx, CoreRefreshFailed,
			KeyError.Field(err.Error()),
		)
		if c.metrics != nil {
			c.metrics.OnRefreshFailure("validate", c.clock.Since(start))
		}
		return
	}

	c.cache.put(curr)
	c.last = curr
	delivered := c.full.publish(curr)
	delivered += c.mono.publish(curr.Monochrome)

	capitan.Emit(ctx, CoreConfigPublished,
		KeySubscribers.Field(delivered),
	)
	if c.metrics != nil {
		c.metrics.OnRefreshSuccess(c.clock.Since(start))
		c.metrics.OnPublish(delivered)
	}
}

// querySettingsLocked recomputes the snapshot from current provider state.
// It is a pure function of that state: each field is read once and a
// failed or mistyped read yields the field's default.
func (c *Core) querySettingsLocked(ctx context.Context) Settings {
	s := DefaultSettings()
	if c.provider == nil {
		return s
	}
	s.Monochrome = c.queryBool(ctx, SettingMonochrome, s.Monochrome)
	s.ReduceMotion = c.queryBool(ctx, SettingReduceMotion, s.ReduceMotion)
	s.BoldText = c.queryBool(ctx, SettingBoldText, s.BoldText)
	s.HighContrast = c.queryBool(ctx, SettingHighContrast, s.HighContrast)
	s.TextScale = c.queryScale(ctx, SettingTextScale, s.TextScale)
	return s
}

func (c *Core) queryBool(ctx context.Context, setting Setting, def bool) bool {
	raw, err := c.provider.Query(setting)
	if err != nil {
		c.recordQueryFailure(ctx, setting, err)
		return def
	}
	b, ok := raw.(bool)
	if !ok {
		c.recordQueryFailure(ctx, setting, fmt.Errorf("expected bool, got %T", raw))
		return def
	}
	return b
}

func (c *Core) queryScale(ctx context.Context, setting Setting, def float64) float64 {
	raw, err := c.provider.Query(setting)
	if err != nil {
		c.recordQueryFailure(ctx, setting, err)
		return def
	}
	f, err := toFloat(raw)
	if err != nil {
		c.recordQueryFailure(ctx, setting, err)
		return def
	}
	if f <= 0 {
		c.recordQueryFailure(ctx, setting, fmt.Errorf("scale must be positive, got %v", f))
		return def
	}
	return f
}

// recordQueryFailure logs a recovered provider failure. The caller
// substitutes the field's default; nothing propagates to the reader.
func (c *Core) recordQueryFailure(ctx context.Context, setting Setting, err error) {
	c.setError(fmt.Errorf("query %s: %w", setting, err))
	capitan.Emit(ctx, CoreQueryFailed,
		KeySetting.Field(string(setting)),
		KeyError.Field(err.Error()),
	)
	if c.metrics != nil {
		c.metrics.OnQueryFailure(setting)
	}
}

// setError stores an error atomically and adds it to the error history.
func (c *Core) setError(err error) {
	e := err
	c.lastError.Store(&e)
	c.errorHistory.push(err)
}
