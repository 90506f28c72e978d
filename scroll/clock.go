// Package scroll advances the teleprompter scroll offset frame by frame.
//
// Clock is a pure state machine: it never reads the wall clock itself, every timestamp
// is handed in by the caller, so the same sequence of ticks always yields the same offsets.
package scroll

import (
	"math"
	"time"
)

// PixelsPerSpeedUnit converts the user-facing speed value into pixels per second.
// Speed 200 therefore scrolls at 100 px/s.
const PixelsPerSpeedUnit = 0.5

// endTolerance absorbs float drift from summing many small frame deltas, so a pass that
// has played exactly long enough always counts as finished.
const endTolerance = 1e-6

// SpeedFactor returns the scroll velocity in px/s for a speed setting.
func SpeedFactor(speed float64) float64 {
	if speed <= 0 {
		return 0
	}
	return speed * PixelsPerSpeedUnit
}

// MaxOffset is the offset at which the last line sits centered on the focus band.
func MaxOffset(lineCount int, lineHeight float64) float64 {
	return math.Max(0, float64(lineCount-1)*lineHeight)
}

// TickResult is the outcome of one Tick.
type TickResult struct {
	Offset float64
	// Finished is true only on the tick that reached the end of content.
	Finished bool
}

// Clock holds the scroll position and the frame timing baseline.
type Clock struct {
	offset   float64
	last     time.Time
	hasLast  bool
	playing  bool
	finished bool
	elapsed  time.Duration
}

// Offset returns the current scroll offset in pixels.
func (c *Clock) Offset() float64 { return c.offset }

// Playing reports whether the clock advances on Tick.
func (c *Clock) Playing() bool { return c.playing }

// AtEnd reports whether the end-of-content signal has fired for this pass.
func (c *Clock) AtEnd() bool { return c.finished }

// Elapsed returns the accumulated playing time.
func (c *Clock) Elapsed() time.Duration { return c.elapsed }

// Play starts advancing. The first tick after Play has a zero delta.
func (c *Clock) Play() {
	if c.playing {
		return
	}
	c.playing = true
	c.hasLast = false
}

// Pause freezes the offset. Time spent paused is never caught up.
func (c *Clock) Pause() {
	c.playing = false
	c.hasLast = false
}

// Reset rewinds to the top and re-arms the end-of-content signal.
func (c *Clock) Reset() {
	c.offset = 0
	c.finished = false
	c.hasLast = false
	c.elapsed = 0
}

// Seek moves to offset, clamped to [0, maxOffset].
func (c *Clock) Seek(offset, maxOffset float64) {
	c.offset = math.Min(math.Max(offset, 0), math.Max(maxOffset, 0))
	c.finished = c.finished && c.offset >= maxOffset
}

// Clamp lowers the offset to a new bound after a re-layout. The end-of-content signal
// is re-armed when the offset ends up strictly before the bound.
func (c *Clock) Clamp(maxOffset float64) {
	maxOffset = math.Max(maxOffset, 0)
	if c.offset > maxOffset {
		c.offset = maxOffset
	}
	if c.offset < maxOffset {
		c.finished = false
	}
}

// Tick advances the offset by SpeedFactor(speed) * (now - previous tick).
// Reaching maxOffset clamps the offset and reports Finished exactly once; the caller
// is expected to Pause in response.
func (c *Clock) Tick(now time.Time, speed, maxOffset float64) TickResult {
	if !c.playing {
		c.hasLast = false
		return TickResult{Offset: c.offset}
	}

	var delta time.Duration
	if c.hasLast {
		delta = max(now.Sub(c.last), 0)
	}
	c.last = now
	c.hasLast = true
	c.elapsed += delta

	maxOffset = math.Max(maxOffset, 0)
	next := c.offset + SpeedFactor(speed)*delta.Seconds()
	if next < maxOffset-endTolerance {
		c.offset = next
		return TickResult{Offset: c.offset}
	}

	c.offset = maxOffset
	if c.finished {
		return TickResult{Offset: c.offset}
	}
	c.finished = true
	return TickResult{Offset: c.offset, Finished: true}
}
