package prism

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Setting identifies one raw field readable from a Provider. The values
// double as the keys of the generic map representation, so a Settings
// snapshot round-trips through loosely-typed transports without a mapping
// table.
type Setting string

const (
	// SettingMonochrome is the monochrome (grayscale) display flag.
	SettingMonochrome Setting = "monochromeEnabled"

	// SettingReduceMotion is the reduce-motion flag.
	SettingReduceMotion Setting = "reduceMotionEnabled"

	// SettingBoldText is the bold-text flag.
	SettingBoldText Setting = "boldTextEnabled"

	// SettingHighContrast is the high-contrast flag.
	SettingHighContrast Setting = "highContrastEnabled"

	// SettingTextScale is the text scale factor.
	SettingTextScale Setting = "textScaleFactor"
)

// AllSettings lists every field a Core reconciles, in recomputation order.
var AllSettings = []Setting{
	SettingMonochrome,
	SettingReduceMotion,
	SettingBoldText,
	SettingHighContrast,
	SettingTextScale,
}

// validate is the shared validator instance.
var validate = validator.New()

// Settings is the canonical, platform-agnostic snapshot of all tracked
// accessibility settings. Values are immutable once produced; every
// recomputation yields a fresh copy and callers receive independent
// snapshots.
type Settings struct {
	Monochrome   bool    `json:"monochromeEnabled" yaml:"monochromeEnabled"`
	ReduceMotion bool    `json:"reduceMotionEnabled" yaml:"reduceMotionEnabled"`
	BoldText     bool    `json:"boldTextEnabled" yaml:"boldTextEnabled"`
	HighContrast bool    `json:"highContrastEnabled" yaml:"highContrastEnabled"`
	TextScale    float64 `json:"textScaleFactor" yaml:"textScaleFactor" validate:"gt=0"`
}

// DefaultSettings returns the all-defaults snapshot: every flag off and a
// text scale of 1.0. This is what callers receive when the provider is
// unavailable.
func DefaultSettings() Settings {
	return Settings{TextScale: 1.0}
}

// Validate checks structural invariants on the snapshot.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

// Map returns the generic string-keyed representation of the snapshot,
// with booleans as booleans and the scale factor as a float64.
func (s Settings) Map() map[string]any {
	return map[string]any{
		string(SettingMonochrome):   s.Monochrome,
		string(SettingReduceMotion): s.ReduceMotion,
		string(SettingBoldText):     s.BoldText,
		string(SettingHighContrast): s.HighContrast,
		string(SettingTextScale):    s.TextScale,
	}
}

// SettingsFromMap reconstructs a Settings snapshot from its generic map
// representation. Missing keys take their defaults; a key present with the
// wrong type is an error.
func SettingsFromMap(m map[string]any) (Settings, error) {
	s := DefaultSettings()

	for _, key := range []struct {
		setting Setting
		dst     *bool
	}{
		{SettingMonochrome, &s.Monochrome},
		{SettingReduceMotion, &s.ReduceMotion},
		{SettingBoldText, &s.BoldText},
		{SettingHighContrast, &s.HighContrast},
	} {
		raw, ok := m[string(key.setting)]
		if !ok {
			continue
		}
		b, ok := raw.(bool)
		if !ok {
			return Settings{}, fmt.Errorf("%s: expected bool, got %T", key.setting, raw)
		}
		*key.dst = b
	}

	if raw, ok := m[string(SettingTextScale)]; ok {
		f, err := toFloat(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", SettingTextScale, err)
		}
		s.TextScale = f
	}

	return s, nil
}

// toFloat normalizes numeric values from loosely-typed decoders, which
// may produce int for whole numbers.
func toFloat(raw any) (float64, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", raw)
	}
}
