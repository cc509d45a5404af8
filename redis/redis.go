// Package redis provides a prism.Provider backed by a Redis hash,
// using keyspace notifications for push signals.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/zoobzio/prism"
)

// Provider reads raw settings from the fields of one Redis hash and
// pushes change hints via keyspace notifications. Boolean settings are
// stored as "true"/"false" (strconv.ParseBool forms) and the text scale
// as a decimal number.
//
// Requires Redis to have keyspace notifications enabled:
//
//	CONFIG SET notify-keyspace-events KEA
//
// Or in redis.conf:
//
//	notify-keyspace-events KEA
type Provider struct {
	client *redis.Client
	key    string

	mu       sync.Mutex
	queryCtx context.Context
	hooks    map[int]func(payload any)
	nextHook int
	started  bool
	pubsub   *redis.PubSub
}

// Option configures a Provider.
type Option func(*Provider)

// New creates a Provider for the given Redis hash key.
func New(client *redis.Client, key string, opts ...Option) *Provider {
	p := &Provider{
		client:   client,
		key:      key,
		queryCtx: context.Background(),
		hooks:    make(map[int]func(payload any)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Start subscribes to keyspace notifications for the hash and begins
// pushing change hints. Start can only be called once.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("redis provider already started")
	}
	p.started = true
	p.queryCtx = ctx
	p.mu.Unlock()

	channel := fmt.Sprintf("__keyspace@0__:%s", p.key)
	pubsub := p.client.Subscribe(ctx, channel)

	// Verify subscription worked
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return fmt.Errorf("failed to subscribe to keyspace notifications: %w", err)
	}

	p.mu.Lock()
	p.pubsub = pubsub
	p.mu.Unlock()

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}

				// Only react to operations that mutate the hash
				switch msg.Payload {
				case "hset", "hdel", "hincrby", "hincrbyfloat", "del", "expired":
					p.emit(prism.ChangeHint{})
				}
			}
		}
	}()

	return nil
}

// Close stops the keyspace subscription. Queries continue to work.
func (p *Provider) Close() error {
	p.mu.Lock()
	pubsub := p.pubsub
	p.pubsub = nil
	p.mu.Unlock()

	if pubsub != nil {
		return pubsub.Close()
	}
	return nil
}

// Query reads one setting from the hash.
func (p *Provider) Query(setting prism.Setting) (any, error) {
	p.mu.Lock()
	ctx := p.queryCtx
	p.mu.Unlock()

	raw, err := p.client.HGet(ctx, p.key, string(setting)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("setting %q not set in %s", setting, p.key)
	}
	if err != nil {
		return nil, fmt.Errorf("hget %s %s: %w", p.key, setting, err)
	}

	if setting == prism.SettingTextScale {
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("setting %q: %w", setting, err)
		}
		return f, nil
	}

	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, fmt.Errorf("setting %q: %w", setting, err)
	}
	return b, nil
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
