package prompter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/prompter/renderer"
)

type recordingSurface struct {
	mu     sync.Mutex
	frames []renderer.Frame
	fail   error
}

func (s *recordingSurface) Draw(f *renderer.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.frames = append(s.frames, *f)
	return nil
}

func (s *recordingSurface) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func TestLoopRunsUntilCancelled(t *testing.T) {
	r := New(settingsWith("one\ntwo\nthree"), Options{Typesetter: &cellTypesetter{px: 16}})
	r.Resize(400, 300)
	r.Play()

	surface := &recordingSurface{}
	src := NewManualSource()
	loop := NewLoop(r, surface, src)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	for i := range 10 {
		require.True(t, src.Emit(at(time.Duration(i)*16*time.Millisecond)))
	}
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop after cancel")
	}

	<-src.Stopped()
	assert.False(t, src.Emit(at(time.Second)), "no frame may be requested after unmount")
	assert.Equal(t, 10, surface.count())
	drawn, skipped := loop.Stats()
	assert.Equal(t, int64(10), drawn)
	assert.Equal(t, int64(0), skipped)
}

func TestLoopStepSkipsZeroSizedSurface(t *testing.T) {
	r := New(settingsWith("Hello"), Options{Typesetter: &cellTypesetter{px: 16}})
	surface := &recordingSurface{}
	loop := NewLoop(r, surface, NewManualSource())

	assert.False(t, loop.Step(t0))
	r.Resize(400, 300)
	assert.True(t, loop.Step(at(16*time.Millisecond)))
	assert.Equal(t, 1, surface.count())
}

func TestLoopSurvivesDrawErrors(t *testing.T) {
	r := New(settingsWith("Hello"), Options{Typesetter: &cellTypesetter{px: 16}})
	r.Resize(400, 300)
	surface := &recordingSurface{fail: errors.New("surface gone")}
	loop := NewLoop(r, surface, NewManualSource())

	assert.False(t, loop.Step(t0))
	surface.mu.Lock()
	surface.fail = nil
	surface.mu.Unlock()
	assert.True(t, loop.Step(at(16*time.Millisecond)))
	_, skipped := loop.Stats()
	assert.Equal(t, int64(1), skipped)
}

func TestLoopReturnsWhenSourceCloses(t *testing.T) {
	r := New(settingsWith("Hello"), Options{Typesetter: &cellTypesetter{px: 16}})
	ch := make(chan time.Time)
	src := &chanSource{ch: ch}
	loop := NewLoop(r, &recordingSurface{}, src)

	close(ch)
	require.NoError(t, loop.Run(context.Background()))
	assert.True(t, src.stopped)
}

type chanSource struct {
	ch      chan time.Time
	stopped bool
}

func (c *chanSource) Frames() <-chan time.Time { return c.ch }
func (c *chanSource) Stop()                    { c.stopped = true }

func TestFrameInterval(t *testing.T) {
	assert.Equal(t, time.Second/60, FrameInterval(0))
	assert.Equal(t, time.Second/30, FrameInterval(30))
	assert.Equal(t, time.Nanosecond, FrameInterval(2_000_000_000))
}
