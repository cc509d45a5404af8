// Package etcd provides a prism.Provider backed by a single etcd key
// holding a JSON document, using the native Watch API for push signals.
package etcd

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/zoobzio/prism"
)

// Provider reads raw settings from one etcd key whose value is a JSON
// object keyed by the prism setting names, e.g.
//
//	{"monochromeEnabled": true, "textScaleFactor": 1.5}
//
// The Watch API pushes a change hint whenever the key is written or
// deleted; a value that fails to decode keeps the previous document.
type Provider struct {
	client *clientv3.Client
	key    string

	mu       sync.Mutex
	doc      map[string]any
	hooks    map[int]func(payload any)
	nextHook int
	started  bool
}

// Option configures a Provider.
type Option func(*Provider)

// New creates a Provider for the given etcd key.
func New(client *clientv3.Client, key string, opts ...Option) *Provider {
	p := &Provider{
		client: client,
		key:    key,
		hooks:  make(map[int]func(payload any)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start loads the current document and begins watching the key for
// changes. Start can only be called once.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("etcd provider already started")
	}
	p.started = true
	p.mu.Unlock()

	resp, err := p.client.Get(ctx, p.key)
	if err != nil {
		return fmt.Errorf("failed to get initial value: %w", err)
	}
	if len(resp.Kvs) > 0 {
		if err := p.decode(resp.Kvs[0].Value); err != nil {
			return fmt.Errorf("initial document: %w", err)
		}
	}

	// Watch for changes starting from the revision after the read
	watchChan := p.client.Watch(ctx, p.key, clientv3.WithRev(resp.Header.Revision+1))

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case watchResp, ok := <-watchChan:
				if !ok {
					return
				}
				if watchResp.Err() != nil {
					continue
				}

				for _, event := range watchResp.Events {
					switch event.Type {
					case clientv3.EventTypePut:
						if err := p.decode(event.Kv.Value); err != nil {
							continue
						}
					case clientv3.EventTypeDelete:
						p.mu.Lock()
						p.doc = nil
						p.mu.Unlock()
					}
					p.emit(prism.ChangeHint{})
				}
			}
		}
	}()

	return nil
}

// Query reads one setting from the loaded document. Values carry the
// types encoding/json produces: bool for flags, float64 for the scale.
func (p *Provider) Query(setting prism.Setting) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.doc == nil {
		return nil, fmt.Errorf("no document loaded from %s", p.key)
	}
	v, ok := p.doc[string(setting)]
	if !ok {
		return nil, fmt.Errorf("setting %q not present in %s", setting, p.key)
	}
	return v, nil
}

// OnChange registers a push hook. The returned function detaches it.
func (p *Provider) OnChange(fn func(payload any)) (remove func()) {
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

func (p *Provider) decode(data []byte) error {
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("decode %s: %w", p.key, err)
	}

	p.mu.Lock()
	p.doc = doc
	p.mu.Unlock()
	return nil
}

func (p *Provider) emit(payload any) {
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

// Ensure Provider implements prism.Provider.
var _ prism.Provider = (*Provider)(nil)
