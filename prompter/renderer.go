// Package prompter composes line layout and the scroll clock into drawable frames and
// drives them through a single persistent frame loop.
package prompter

import (
	"fmt"
	"sync"
	"time"

	"github.com/ByLCY/prompter/layout"
	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/renderer"
	"github.com/ByLCY/prompter/script"
	"github.com/ByLCY/prompter/scroll"
)

// Options configures a ScrollRenderer.
type Options struct {
	Typesetter layout.Typesetter
	Wrap       layout.Wrap
	Style      renderer.Style
	// ResetOnScriptChange rewinds to the top when the script text changes; otherwise the
	// offset is only clamped to the new content extent.
	ResetOnScriptChange bool
	// OnFinish fires once per completed pass, after the renderer lock is released.
	// The callback is expected to pause the renderer.
	OnFinish func(*ScrollRenderer)
	// OnProgress fires after every drawn frame.
	OnProgress func(offset, maxOffset float64)
}

type layoutKey struct {
	settings script.LayoutKey
	width    float64
}

// ScrollRenderer owns the current layout, the scroll clock and the surface geometry.
// Inbound updates may come from any goroutine; Tick is called by the frame loop.
type ScrollRenderer struct {
	mu       sync.Mutex
	opts     Options
	settings script.Settings
	width    float64
	height   float64
	clock    scroll.Clock

	result  layout.Result
	key     layoutKey
	laidOut bool
}

// New creates a renderer with initial settings. Geometry stays zero until Resize.
func New(s script.Settings, opts Options) *ScrollRenderer {
	if opts.Style == (renderer.Style{}) {
		opts.Style = renderer.DefaultStyle()
	}
	if opts.Wrap == "" {
		opts.Wrap = layout.WrapGrapheme
	}
	return &ScrollRenderer{opts: opts, settings: s}
}

// SetSettings replaces the settings wholesale. Layout-relevant changes are applied
// before the next frame is composed.
func (r *ScrollRenderer) SetSettings(s script.Settings) {
	r.mu.Lock()
	r.settings = s
	r.mu.Unlock()
}

// Settings returns the settings currently in effect.
func (r *ScrollRenderer) Settings() script.Settings {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.settings
}

// Resize updates the surface geometry supplied by the hosting container.
func (r *ScrollRenderer) Resize(width, height float64) {
	r.mu.Lock()
	r.width, r.height = width, height
	r.mu.Unlock()
}

// Play starts scrolling. The first frame after Play advances by zero.
func (r *ScrollRenderer) Play() {
	r.mu.Lock()
	r.clock.Play()
	r.mu.Unlock()
}

// Pause freezes the offset.
func (r *ScrollRenderer) Pause() {
	r.mu.Lock()
	r.clock.Pause()
	r.mu.Unlock()
}

// Toggle flips between playing and paused and returns the new state.
// Toggling play at the end of content rewinds first.
func (r *ScrollRenderer) Toggle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.clock.Playing() {
		r.clock.Pause()
		return false
	}
	if r.clock.AtEnd() {
		r.clock.Reset()
	}
	r.clock.Play()
	return true
}

// Playing reports whether the clock is advancing.
func (r *ScrollRenderer) Playing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock.Playing()
}

// Reset rewinds to the first line.
func (r *ScrollRenderer) Reset() {
	r.mu.Lock()
	r.clock.Reset()
	r.mu.Unlock()
}

// SeekBy moves the offset by delta pixels within the current content extent.
func (r *ScrollRenderer) SeekBy(delta float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clock.Seek(r.clock.Offset()+delta, r.maxOffset())
}

// Offset returns the current scroll offset.
func (r *ScrollRenderer) Offset() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.clock.Offset()
}

// Layout returns the most recently published layout.
func (r *ScrollRenderer) Layout() layout.Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.result
}

func (r *ScrollRenderer) maxOffset() float64 {
	if !r.laidOut {
		return 0
	}
	return scroll.MaxOffset(r.result.LineCount(), r.result.LineHeight)
}

// Tick advances the clock to now and composes one frame. ok is false when the surface
// has no size yet. A measurement error skips this frame only; the next Tick retries.
func (r *ScrollRenderer) Tick(now time.Time) (frame renderer.Frame, ok bool, err error) {
	r.mu.Lock()
	if r.width <= 0 || r.height <= 0 {
		r.mu.Unlock()
		return renderer.Frame{}, false, nil
	}
	if err := r.relayout(); err != nil {
		r.mu.Unlock()
		return renderer.Frame{}, false, err
	}

	maxOffset := r.maxOffset()
	res := r.clock.Tick(now, r.settings.Speed, maxOffset)
	frame = renderer.Compose(renderer.Input{
		Layout:        r.result,
		Offset:        res.Offset,
		MaxOffset:     maxOffset,
		Width:         r.width,
		Height:        r.height,
		GlyphSize:     r.settings.Metrics().GlyphSize,
		Mirror:        r.settings.MirrorMode,
		ShowFocusLine: r.settings.ShowFocusLine,
		Playing:       r.clock.Playing(),
		Elapsed:       r.clock.Elapsed(),
		Speed:         r.settings.Speed,
		Style:         r.opts.Style,
	})
	onFinish, onProgress := r.opts.OnFinish, r.opts.OnProgress
	r.mu.Unlock()

	if res.Finished {
		log.Debug(log.CatLoop, "end of content", "offset", res.Offset)
		if onFinish != nil {
			onFinish(r)
		}
	}
	if onProgress != nil {
		onProgress(frame.Offset, frame.MaxOffset)
	}
	return frame, true, nil
}

// relayout rebuilds the layout when script, font tier or width changed. It runs under
// r.mu, so a frame never observes a half-built layout or a stale line height.
func (r *ScrollRenderer) relayout() error {
	key := layoutKey{settings: r.settings.LayoutKey(), width: r.width}
	if r.laidOut && key == r.key {
		return nil
	}
	if r.opts.Typesetter == nil {
		return fmt.Errorf("缺少排版后端 Typesetter")
	}

	metrics := r.settings.Metrics()
	m, err := r.opts.Typesetter.Measurer(metrics)
	if err != nil {
		return fmt.Errorf("获取字体测量失败: %w", err)
	}
	res := layout.Break(r.settings.Script, layout.MaxWidthFor(r.width), m, metrics.LineHeight, layout.WithWrap(r.opts.Wrap))

	scriptChanged := r.laidOut && key.settings.Script != r.key.settings.Script
	r.result, r.key, r.laidOut = res, key, true

	if scriptChanged && r.opts.ResetOnScriptChange {
		r.clock.Reset()
	} else {
		r.clock.Clamp(r.maxOffset())
	}
	log.Debug(log.CatLayout, "relayout", "lines", res.LineCount(), "lineHeight", res.LineHeight, "maxWidth", res.MaxWidth)
	return nil
}
