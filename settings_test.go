package prism

import "testing"

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings()
	if s.Monochrome || s.ReduceMotion || s.BoldText || s.HighContrast {
		t.Errorf("expected all flags off, got %+v", s)
	}
	if s.TextScale != 1.0 {
		t.Errorf("expected scale 1.0, got %v", s.TextScale)
	}
}

func TestSettings_MapRoundTrip(t *testing.T) {
	want := Settings{
		Monochrome:   true,
		ReduceMotion: false,
		BoldText:     true,
		HighContrast: false,
		TextScale:    1.5,
	}

	m := want.Map()
	if m["monochromeEnabled"] != true {
		t.Errorf("expected boolean in map, got %v (%T)", m["monochromeEnabled"], m["monochromeEnabled"])
	}
	if m["textScaleFactor"] != 1.5 {
		t.Errorf("expected float in map, got %v (%T)", m["textScaleFactor"], m["textScaleFactor"])
	}

	got, err := SettingsFromMap(m)
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestSettingsFromMap_MissingKeysDefault(t *testing.T) {
	got, err := SettingsFromMap(map[string]any{
		"boldTextEnabled": true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.BoldText {
		t.Error("expected bold text set")
	}
	if got.TextScale != 1.0 {
		t.Errorf("expected default scale, got %v", got.TextScale)
	}
}

func TestSettingsFromMap_MistypedFlag(t *testing.T) {
	_, err := SettingsFromMap(map[string]any{
		"monochromeEnabled": "true",
	})
	if err == nil {
		t.Error("expected error for string-typed flag")
	}
}

func TestSettingsFromMap_MistypedScale(t *testing.T) {
	_, err := SettingsFromMap(map[string]any{
		"textScaleFactor": "1.5",
	})
	if err == nil {
		t.Error("expected error for string-typed scale")
	}
}

func TestSettingsFromMap_WholeNumberScale(t *testing.T) {
	// Loosely-typed decoders produce int for whole numbers
	got, err := SettingsFromMap(map[string]any{
		"textScaleFactor": 2,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.TextScale != 2.0 {
		t.Errorf("expected 2.0, got %v", got.TextScale)
	}
}

func TestSettings_Validate(t *testing.T) {
	if err := DefaultSettings().Validate(); err != nil {
		t.Errorf("expected defaults valid, got %v", err)
	}

	invalid := Settings{TextScale: 0}
	if err := invalid.Validate(); err == nil {
		t.Error("expected zero scale invalid")
	}

	negative := Settings{TextScale: -1.5}
	if err := negative.Validate(); err == nil {
		t.Error("expected negative scale invalid")
	}
}
