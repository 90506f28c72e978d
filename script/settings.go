// Package script holds the teleprompter settings value exchanged between the settings
// collaborators (prompt files, storage, REST API) and the scroll renderer.
package script

import (
	"errors"
	"fmt"

	"github.com/ByLCY/prompter/fonts"
)

// Speed bounds and defaults, in relative scroll-speed units.
const (
	MinSpeed     = 5
	MaxSpeed     = 1000
	DefaultSpeed = 200
	DefaultTitle = "Untitled"
)

// ErrInvalidSettings is wrapped by every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Settings is replaced wholesale on every change; the renderer never mutates it.
type Settings struct {
	Title         string     `json:"title"`
	Speed         float64    `json:"speed"`
	FontSize      fonts.Size `json:"fontSize"`
	MirrorMode    bool       `json:"mirrorMode"`
	ShowFocusLine bool       `json:"showFocusLine"`
	Script        string     `json:"script"`
}

// Defaults mirrors the defaults of a freshly created script record.
func Defaults() Settings {
	return Settings{
		Title:         DefaultTitle,
		Speed:         DefaultSpeed,
		FontSize:      fonts.Medium,
		MirrorMode:    false,
		ShowFocusLine: true,
	}
}

// Validate reports the first invalid field.
func (s Settings) Validate() error {
	if s.Speed < MinSpeed || s.Speed > MaxSpeed {
		return fmt.Errorf("%w: speed %g out of range [%d, %d]", ErrInvalidSettings, s.Speed, MinSpeed, MaxSpeed)
	}
	if !s.FontSize.Valid() {
		return fmt.Errorf("%w: font size %q", ErrInvalidSettings, s.FontSize)
	}
	return nil
}

// Metrics resolves the font metrics for the configured tier.
func (s Settings) Metrics() fonts.Metrics { return fonts.Profile(s.FontSize) }

// WithSpeed returns a copy with speed moved by delta and clamped to the valid range.
func (s Settings) WithSpeed(delta float64) Settings {
	s.Speed = ClampSpeed(s.Speed + delta)
	return s
}

// ClampSpeed limits v to [MinSpeed, MaxSpeed].
func ClampSpeed(v float64) float64 {
	return min(max(v, MinSpeed), MaxSpeed)
}

// NextFontSize cycles small → medium → large → small.
func (s Settings) NextFontSize() Settings {
	sizes := fonts.Sizes()
	for i, size := range sizes {
		if size == s.FontSize {
			s.FontSize = sizes[(i+1)%len(sizes)]
			return s
		}
	}
	s.FontSize = fonts.Medium
	return s
}

// LayoutKey identifies the inputs that force a re-layout when they change.
type LayoutKey struct {
	Script   string
	FontSize fonts.Size
}

// LayoutKey returns the layout-relevant part of s.
func (s Settings) LayoutKey() LayoutKey {
	return LayoutKey{Script: s.Script, FontSize: s.FontSize}
}
