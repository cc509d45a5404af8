package prism

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func writeSnapshot(t *testing.T, path, contents string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write snapshot: %v", err)
	}
}

// waitFor polls until the condition holds or the deadline passes.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestFileProvider_QueryJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessibility.json")
	writeSnapshot(t, path, `{"monochromeEnabled": true, "textScaleFactor": 1.5}`)

	p := NewFileProvider(path)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	if v, err := p.Query(SettingMonochrome); err != nil || v != true {
		t.Errorf("expected monochrome true, got %v / %v", v, err)
	}
	if v, err := p.Query(SettingTextScale); err != nil || v != 1.5 {
		t.Errorf("expected scale 1.5, got %v / %v", v, err)
	}
	// Fields absent from the snapshot take their defaults
	if v, err := p.Query(SettingBoldText); err != nil || v != false {
		t.Errorf("expected bold text default, got %v / %v", v, err)
	}
	if _, err := p.Query(Setting("bogus")); err == nil {
		t.Error("expected error for unknown setting")
	}
}

func TestFileProvider_QueryYAMLByExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessibility.yaml")
	writeSnapshot(t, path, "reduceMotionEnabled: true\ntextScaleFactor: 2.0\n")

	p := NewFileProvider(path)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	if v, err := p.Query(SettingReduceMotion); err != nil || v != true {
		t.Errorf("expected reduce motion true, got %v / %v", v, err)
	}
}

func TestFileProvider_StartFailures(t *testing.T) {
	dir := t.TempDir()

	missing := NewFileProvider(filepath.Join(dir, "absent.json"))
	if err := missing.Start(context.Background()); err == nil {
		t.Error("expected error for missing file")
	}

	malformed := filepath.Join(dir, "bad.json")
	writeSnapshot(t, malformed, "not json")
	p := NewFileProvider(malformed)
	if err := p.Start(context.Background()); err == nil {
		t.Error("expected error for undecodable snapshot")
	}
}

func TestFileProvider_PushesHintOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessibility.json")
	writeSnapshot(t, path, `{"monochromeEnabled": false}`)

	p := NewFileProvider(path)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	var hints atomic.Int32
	p.OnChange(func(any) { hints.Add(1) })

	writeSnapshot(t, path, `{"monochromeEnabled": true}`)

	if !waitFor(t, 2*time.Second, func() bool { return hints.Load() > 0 }) {
		t.Fatal("expected push hint after write")
	}
	if v, err := p.Query(SettingMonochrome); err != nil || v != true {
		t.Errorf("expected reloaded snapshot, got %v / %v", v, err)
	}
}

func TestFileProvider_KeepsSnapshotOnBadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessibility.json")
	writeSnapshot(t, path, `{"boldTextEnabled": true}`)

	p := NewFileProvider(path)
	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	var hints atomic.Int32
	p.OnChange(func(any) { hints.Add(1) })

	writeSnapshot(t, path, "{{{ not a snapshot")
	time.Sleep(200 * time.Millisecond)

	if hints.Load() != 0 {
		t.Error("expected no hint for undecodable write")
	}
	if v, err := p.Query(SettingBoldText); err != nil || v != true {
		t.Errorf("expected previous snapshot retained, got %v / %v", v, err)
	}
}

func TestFileProvider_EndToEndWithCore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accessibility.json")
	writeSnapshot(t, path, `{"highContrastEnabled": true, "textScaleFactor": 1.25}`)

	ctx := context.Background()
	p := NewFileProvider(path)
	if err := p.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer p.Close()

	core := New(p).Debounce(50 * time.Millisecond)
	defer core.Dispose(ctx)

	got := core.Settings(ctx)
	if !got.HighContrast || got.TextScale != 1.25 {
		t.Fatalf("unexpected initial read: %+v", got)
	}

	sub := core.Subscribe(ctx)
	writeSnapshot(t, path, `{"highContrastEnabled": false, "textScaleFactor": 1.75}`)

	select {
	case v, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		if v.HighContrast || v.TextScale != 1.75 {
			t.Errorf("unexpected broadcast: %+v", v)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for file-driven broadcast")
	}
}
