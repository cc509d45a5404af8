package prism

import "github.com/zoobzio/capitan"

// Field keys for Core events.
var (
	// KeyState is the current state of the Core.
	KeyState = capitan.NewStringKey("state")

	// KeyOldState is the previous state before a transition.
	KeyOldState = capitan.NewStringKey("old_state")

	// KeyNewState is the new state after a transition.
	KeyNewState = capitan.NewStringKey("new_state")

	// KeyError is the error message when an operation fails.
	KeyError = capitan.NewStringKey("error")

	// KeySetting is the setting field involved in the event.
	KeySetting = capitan.NewStringKey("setting")

	// KeyPayloadType is the dynamic type of a discarded push payload.
	KeyPayloadType = capitan.NewStringKey("payload_type")

	// KeyDebounce is the configured debounce duration.
	KeyDebounce = capitan.NewDurationKey("debounce")

	// KeyTTL is the configured cache TTL.
	KeyTTL = capitan.NewDurationKey("ttl")

	// KeySubscribers is the number of subscribers a value was delivered to.
	KeySubscribers = capitan.NewIntKey("subscribers")
)
