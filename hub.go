package prism

// subscriptionBuffer is the per-subscription channel capacity. A
// subscriber that stops draining loses its oldest values once the buffer
// fills; publish never blocks on a slow consumer.
const subscriptionBuffer = 16

// Subscription is an opaque handle for one subscriber registered with a
// Core. Values arrive on C in publish order; the channel is closed when
// the subscription is canceled or the Core is disposed.
type Subscription[T any] struct {
	ch     chan T
	cancel func()
}

// C returns the delivery channel. It carries every value published after
// the subscription was created (no replay of historical values) and is
// closed on Cancel or Core teardown.
func (s *Subscription[T]) C() <-chan T {
	return s.ch
}

// Cancel removes the subscription and closes its channel. Canceling an
// already-canceled subscription is a no-op.
func (s *Subscription[T]) Cancel() {
	s.cancel()
}

// hub maintains the set of active subscriptions and fans published values
// out to all of them. A value published with zero subscribers is dropped;
// there is no buffering and no replay. Like cache, the hub is not
// internally synchronized: the owning Core's mutex serializes all access.
type hub[T any] struct {
	subs   map[*Subscription[T]]struct{}
	closed bool
}

func newHub[T any]() *hub[T] {
	return &hub[T]{subs: make(map[*Subscription[T]]struct{})}
}

// subscribe registers a new subscription. The caller wires the cancel
// function so that cancellation flows back through the Core's mutex.
func (h *hub[T]) subscribe() *Subscription[T] {
	sub := &Subscription[T]{ch: make(chan T, subscriptionBuffer)}
	if h.closed {
		// Late subscriber on a torn-down hub observes immediate end-of-stream.
		close(sub.ch)
		sub.cancel = func() {}
		return sub
	}
	h.subs[sub] = struct{}{}
	return sub
}

// unsubscribe removes a subscription and closes its channel. Idempotent:
// removing an unknown or already-removed handle is a no-op.
func (h *hub[T]) unsubscribe(sub *Subscription[T]) {
	if _, ok := h.subs[sub]; !ok {
		return
	}
	delete(h.subs, sub)
	close(sub.ch)
}

// publish delivers value to every registered subscription. Each subscriber
// observes the same sequence of published values; when a subscriber's
// buffer is full its oldest value is dropped to make room. Returns the
// number of subscribers delivered to. A no-op after closeAll.
func (h *hub[T]) publish(value T) int {
	if h.closed {
		return 0
	}
	for sub := range h.subs {
		select {
		case sub.ch <- value:
		default:
			// Buffer full: shed the oldest value, then deliver.
			select {
			case <-sub.ch:
			default:
			}
			select {
			case sub.ch <- value:
			default:
			}
		}
	}
	return len(h.subs)
}

// closeAll terminates every live subscription so dependents observe
// end-of-stream, and marks the hub closed. Subsequent publishes are
// no-ops.
func (h *hub[T]) closeAll() {
	if h.closed {
		return
	}
	for sub := range h.subs {
		close(sub.ch)
	}
	h.subs = make(map[*Subscription[T]]struct{})
	h.closed = true
}
