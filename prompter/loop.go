package prompter

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/renderer"
)

// Loop is the single persistent frame loop. It is started once per mounted surface and
// keeps running across play/pause and settings changes, so the clock's last timestamp
// is never lost.
type Loop struct {
	renderer *ScrollRenderer
	surface  renderer.Surface
	source   FrameSource

	drawn   atomic.Int64
	skipped atomic.Int64
}

// NewLoop wires a renderer to a surface through a frame source.
func NewLoop(r *ScrollRenderer, surface renderer.Surface, source FrameSource) *Loop {
	return &Loop{renderer: r, surface: surface, source: source}
}

// Run consumes frames until ctx is cancelled or the source closes. The source is
// stopped on return, so no frame is requested after unmount.
func (l *Loop) Run(ctx context.Context) error {
	defer l.source.Stop()
	frames := l.source.Frames()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now, ok := <-frames:
			if !ok {
				return nil
			}
			l.Step(now)
		}
	}
}

// Step renders one frame at now. It reports whether the surface was drawn.
func (l *Loop) Step(now time.Time) bool {
	frame, ok, err := l.renderer.Tick(now)
	if err != nil {
		l.skipped.Add(1)
		log.Debug(log.CatLoop, "frame skipped", "error", err)
		return false
	}
	if !ok {
		l.skipped.Add(1)
		return false
	}
	if err := l.surface.Draw(&frame); err != nil {
		l.skipped.Add(1)
		log.Warn(log.CatRender, "draw failed", "error", err)
		return false
	}
	l.drawn.Add(1)
	return true
}

// Stats returns drawn and skipped frame counts.
func (l *Loop) Stats() (drawn, skipped int64) {
	return l.drawn.Load(), l.skipped.Load()
}
