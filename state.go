package prism

// CoreState represents the lifecycle state of a Core.
type CoreState int32

const (
	// StateUninitialized indicates the Core has been constructed but has not
	// yet built its cache, hubs, or provider hook.
	StateUninitialized CoreState = iota

	// StateActive indicates the Core is watching the provider and serving
	// reads and subscriptions.
	StateActive

	// StateDisposed indicates the Core has been torn down. Subscriptions are
	// closed and the cache is cleared. EnsureInitialized transitions a
	// disposed Core back to Active from a blank state.
	StateDisposed
)

// String returns the string representation of the state.
func (s CoreState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateActive:
		return "active"
	case StateDisposed:
		return "disposed"
	default:
		return "unknown"
	}
}
