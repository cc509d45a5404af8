package prism

import (
	"fmt"
	"sync"
)

// Provider supplies point-in-time reads of raw settings and may push
// change notifications. Implementations map platform-specific sources
// (OS preference queries, files, remote KV stores) onto the Setting key
// space; the Core's reconciliation logic is written once against this
// interface.
type Provider interface {
	// Query returns the current raw value for one setting. It must be
	// synchronous and side-effect-free. Boolean settings return bool and
	// SettingTextScale returns a number; the Core substitutes the field's
	// default for failures or mistyped values.
	Query(setting Setting) (any, error)

	// OnChange registers a push hook invoked whenever any underlying
	// setting may have changed. The payload is an opaque signal; hooks may
	// fire more often than actual semantic changes. The returned function
	// detaches the hook and is safe to call more than once.
	OnChange(fn func(payload any)) (remove func())
}

// ChangeHint is the well-formed push payload. Setting optionally names the
// field a provider believes changed; the Core treats it as a hint only and
// recomputes the full snapshot either way.
type ChangeHint struct {
	Setting Setting
}

// StaticProvider is an in-memory Provider with mutable values and manual
// push signals. It backs tests and fixed deployments with no live source.
type StaticProvider struct {
	mu       sync.Mutex
	values   map[Setting]any
	failures map[Setting]error
	hooks    map[int]func(payload any)
	nextHook int
}

// NewStaticProvider creates a StaticProvider seeded with the given values.
// A nil map yields a provider with no readable settings.
func NewStaticProvider(values map[Setting]any) *StaticProvider {
	copied := make(map[Setting]any, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return &StaticProvider{
		values:   copied,
		failures: make(map[Setting]error),
		hooks:    make(map[int]func(payload any)),
	}
}

// Query returns the stored value for the setting, or an error if the
// setting is unset or a failure has been forced via Fail.
func (p *StaticProvider) Query(setting Setting) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err, ok := p.failures[setting]; ok {
		return nil, err
	}
	v, ok := p.values[setting]
	if !ok {
		return nil, fmt.Errorf("setting %q not available", setting)
	}
	return v, nil
}

// OnChange registers a push hook. The returned function detaches it.
func (p *StaticProvider) OnChange(fn func(payload any)) (remove func()) {
	p.mu.Lock()
	id := p.nextHook
	p.nextHook++
	p.hooks[id] = fn
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		delete(p.hooks, id)
		p.mu.Unlock()
	}
}

// Set updates a value and pushes a ChangeHint to all registered hooks.
func (p *StaticProvider) Set(setting Setting, value any) {
	p.mu.Lock()
	p.values[setting] = value
	delete(p.failures, setting)
	p.mu.Unlock()

	p.Emit(ChangeHint{Setting: setting})
}

// Fail forces subsequent queries for the setting to return err.
// Passing nil clears the forced failure.
func (p *StaticProvider) Fail(setting Setting, err error) {
	p.mu.Lock()
	if err == nil {
		delete(p.failures, setting)
	} else {
		p.failures[setting] = err
	}
	p.mu.Unlock()
}

// FailAll forces every query to return err.
func (p *StaticProvider) FailAll(err error) {
	p.mu.Lock()
	for _, setting := range AllSettings {
		p.failures[setting] = err
	}
	p.mu.Unlock()
}

// Emit pushes an arbitrary payload to all registered hooks. Tests use this
// to inject malformed payloads.
func (p *StaticProvider) Emit(payload any) {
	p.mu.Lock()
	hooks := make([]func(payload any), 0, len(p.hooks))
	for _, fn := range p.hooks {
		hooks = append(hooks, fn)
	}
	p.mu.Unlock()

	for _, fn := range hooks {
		fn(payload)
	}
}

// Ensure StaticProvider implements Provider.
var _ Provider = (*StaticProvider)(nil)
