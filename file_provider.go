package prism

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// FileProvider is a Provider backed by a snapshot file holding the five
// raw settings. The file is decoded with the configured codec and watched
// with fsnotify; every successful reload pushes a ChangeHint to registered
// hooks. A write that fails to decode or validate keeps the previous
// snapshot.
type FileProvider struct {
	path  string
	codec Codec

	mu       sync.Mutex
	snapshot Settings
	loaded   bool
	hooks    map[int]func(payload any)
	nextHook int
	started  bool
	stop     context.CancelFunc
}

// FileOption configures a FileProvider.
type FileOption func(*FileProvider)

// WithCodec sets the codec used to decode the snapshot file.
// Default: YAMLCodec for .yaml/.yml paths, JSONCodec otherwise.
func WithCodec(codec Codec) FileOption {
	return func(p *FileProvider) {
		p.codec = codec
	}
}

// NewFileProvider creates a FileProvider for the given snapshot file.
func NewFileProvider(path string, opts ...FileOption) *FileProvider {
	p := &FileProvider{
		path:  path,
		hooks: make(map[int]func(payload any)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.codec == nil {
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			p.codec = YAMLCodec{}
		default:
			p.codec = JSONCodec{}
		}
	}
	return p
}

// Start loads the initial snapshot and begins watching the file. It
// returns an error if the file cannot be read, decoded, or watched.
// Start can only be called once.
func (p *FileProvider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return fmt.Errorf("file provider already started")
	}
	p.started = true
	p.mu.Unlock()

	if err := p.reload(); err != nil {
		return fmt.Errorf("initial snapshot: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := watcher.Add(p.path); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch file %s: %w", p.path, err)
	}

	watchCtx, cancel := context.WithCancel(ctx)
	p.mu.Lock()
	p.stop = cancel
	p.mu.Unlock()

	go func() {
		defer watcher.Close()

		for {
			select {
			case <-watchCtx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				// Only react to write or create events
				if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}

				if err := p.reload(); err != nil {
					// Keep the previous snapshot until a valid write lands.
					continue
				}
				p.emit(ChangeHint{})

			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
				// Continue watching despite errors
			}
		}
	}()

	return nil
}

// Close stops watching the file. Queries continue to serve the last
// loaded snapshot.
func (p *FileProvider) Close() error {
	p.mu.Lock()
	stop := p.stop
	p.stop = nil
	p.mu.Unlock()

	if stop != nil {
		stop()
	}
	return nil
}

// Query returns the value of one setting from the loaded snapshot.
func (p *FileProvider) Query(setting Setting) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.loaded {
		return nil, fmt.Errorf("no snapshot loaded from %s", p.path)
	}

	switch setting {
	case SettingMonochrome:
		return p.snapshot.Monochrome, nil
	case SettingReduceMotion:
		return p.snapshot.ReduceMotion, nil
	case SettingBoldText:
		return p.snapshot.BoldText, nil
	case SettingHighContrast:
		return p.snapshot.HighContrast, nil
	case SettingTextScale:
		return p.snapshot.TextScale, nil
	default:
		return nil, fmt.Errorf("unknown setting %q", setting)
	}
}

// OnChange registers a push hook. The returned function detaches it.
func (p *FileProvider) OnChange(fn func(payload any)) (remove func()) {
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

// reload reads and decodes the snapshot file. Missing fields take their
// defaults; an undecodable or invalid file leaves the snapshot untouched.
func (p *FileProvider) reload() error {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return fmt.Errorf("read %s: %w", p.path, err)
	}

	snapshot := DefaultSettings()
	if err := p.codec.Unmarshal(data, &snapshot); err != nil {
		return fmt.Errorf("decode %s: %w", p.path, err)
	}
	if err := snapshot.Validate(); err != nil {
		return err
	}

	p.mu.Lock()
	p.snapshot = snapshot
	p.loaded = true
	p.mu.Unlock()

	return nil
}

// emit pushes a payload to all registered hooks. Hooks are copied out so
// a hook that re-enters the provider cannot deadlock.
func (p *FileProvider) emit(payload any) {
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

// Ensure FileProvider implements Provider.
var _ Provider = (*FileProvider)(nil)
