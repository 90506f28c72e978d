package prompter

import (
	"sync"
	"time"
)

// DefaultFPS is the display refresh rate the frame loop targets.
const DefaultFPS = 60

// FrameSource delivers frame timestamps.
type FrameSource interface {
	Frames() <-chan time.Time
	Stop()
}

// FrameInterval converts a refresh rate to a tick interval, falling back to DefaultFPS.
// The result is never shorter than a nanosecond.
func FrameInterval(fps int) time.Duration {
	if fps <= 0 {
		fps = DefaultFPS
	}
	return max(time.Second/time.Duration(fps), time.Nanosecond)
}

type tickerSource struct {
	ticker *time.Ticker
}

// NewTickerSource returns a wall-clock source firing every interval.
func NewTickerSource(interval time.Duration) FrameSource {
	return &tickerSource{ticker: time.NewTicker(interval)}
}

func (s *tickerSource) Frames() <-chan time.Time { return s.ticker.C }
func (s *tickerSource) Stop()                    { s.ticker.Stop() }

// ManualSource emits caller-supplied timestamps. Used by offline rendering and tests.
type ManualSource struct {
	ch      chan time.Time
	once    sync.Once
	stopped chan struct{}
}

// NewManualSource creates an unbuffered manual source.
func NewManualSource() *ManualSource {
	return &ManualSource{ch: make(chan time.Time), stopped: make(chan struct{})}
}

func (s *ManualSource) Frames() <-chan time.Time { return s.ch }

// Stop marks the source stopped; later Emit calls return false.
func (s *ManualSource) Stop() {
	s.once.Do(func() { close(s.stopped) })
}

// Emit hands one timestamp to the consumer. It blocks until the frame is taken
// and returns false once the source is stopped.
func (s *ManualSource) Emit(t time.Time) bool {
	select {
	case <-s.stopped:
		return false
	case s.ch <- t:
		return true
	}
}

// Stopped is closed when the consumer stops the source.
func (s *ManualSource) Stopped() <-chan struct{} { return s.stopped }
