package prompter

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rivo/uniseg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/layout"
	"github.com/ByLCY/prompter/script"
)

// cellTypesetter 以终端单元宽度乘以固定像素测量文本。failures 次调用前返回错误。
type cellTypesetter struct {
	px       float64
	failures int
	calls    int
}

func (c *cellTypesetter) Measurer(fonts.Metrics) (layout.Measurer, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("context unavailable")
	}
	return layout.MeasureFunc(func(s string) float64 {
		return float64(uniseg.StringWidth(s)) * c.px
	}), nil
}

var t0 = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time { return t0.Add(d) }

func settingsWith(text string) script.Settings {
	s := script.Defaults()
	s.Script = text
	return s
}

func TestTickWithoutGeometryDrawsNothing(t *testing.T) {
	r := New(settingsWith("Hello"), Options{Typesetter: &cellTypesetter{px: 16}})
	_, ok, err := r.Tick(t0)
	require.NoError(t, err)
	assert.False(t, ok)

	r.Resize(400, 0)
	_, ok, err = r.Tick(t0)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHelloWorldSingleLineFinishesOnFirstFrame(t *testing.T) {
	var finished atomic.Int32
	r := New(settingsWith("Hello world"), Options{
		Typesetter: &cellTypesetter{px: 16},
		OnFinish: func(r *ScrollRenderer) {
			finished.Add(1)
			r.Pause()
		},
	})
	r.Resize(400, 300)

	frame, ok, err := r.Tick(t0)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, frame.Lines, 1)
	assert.Equal(t, "Hello world", frame.Lines[0].Text)
	assert.Equal(t, 126.0, frame.Lines[0].Y)

	r.Play()
	_, _, err = r.Tick(at(16 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, int32(1), finished.Load())
	assert.False(t, r.Playing())
	assert.Equal(t, 0.0, r.Offset())
}

func TestThreeLinesFinishAfterOneSecond(t *testing.T) {
	var finishedAt time.Duration
	var now time.Duration
	r := New(settingsWith("one\ntwo\nthree"), Options{
		Typesetter: &cellTypesetter{px: 16},
		OnFinish: func(r *ScrollRenderer) {
			finishedAt = now
			r.Pause()
		},
	})
	r.Resize(400, 300)
	r.Play()

	for i := 0; i <= 61; i++ {
		now = time.Duration(i) * 16 * time.Millisecond
		_, ok, err := r.Tick(at(now))
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 96*time.Millisecond*10, finishedAt)
	assert.Equal(t, 96.0, r.Offset())
	assert.False(t, r.Playing())
}

func TestSettingsChangeKeepsTimestamp(t *testing.T) {
	r := New(settingsWith("a\nb\nc\nd\ne"), Options{Typesetter: &cellTypesetter{px: 16}})
	r.Resize(400, 300)
	r.Play()
	_, _, _ = r.Tick(t0)
	_, _, _ = r.Tick(at(100 * time.Millisecond))
	assert.InDelta(t, 10.0, r.Offset(), 1e-9)

	s := r.Settings()
	s.Speed = 400
	s.MirrorMode = true
	r.SetSettings(s)
	frame, _, _ := r.Tick(at(200 * time.Millisecond))
	assert.InDelta(t, 30.0, r.Offset(), 1e-9, "speed change applies to the next delta only")
	assert.True(t, frame.Mirror)
}

func TestScriptChangeRewinds(t *testing.T) {
	r := New(settingsWith("a\nb\nc\nd\ne"), Options{
		Typesetter:          &cellTypesetter{px: 16},
		ResetOnScriptChange: true,
	})
	r.Resize(400, 300)
	r.Play()
	_, _, _ = r.Tick(t0)
	_, _, _ = r.Tick(at(500 * time.Millisecond))
	require.InDelta(t, 50.0, r.Offset(), 1e-9)

	r.SetSettings(settingsWith("x\ny\nz\nw"))
	_, _, _ = r.Tick(at(600 * time.Millisecond))
	assert.Equal(t, 0.0, r.Offset())
	assert.Equal(t, 4, r.Layout().LineCount())
}

func TestFontChangeClampsOffset(t *testing.T) {
	r := New(settingsWith("a\nb\nc\nd\ne"), Options{
		Typesetter:          &cellTypesetter{px: 16},
		ResetOnScriptChange: true,
	})
	r.Resize(400, 300)
	_, _, _ = r.Tick(t0)
	r.SeekBy(1000)
	require.Equal(t, 4*48.0, r.Offset())

	s := r.Settings()
	s.FontSize = fonts.Small
	r.SetSettings(s)
	frame, ok, err := r.Tick(at(time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 4*36.0, r.Offset())
	assert.Equal(t, 36.0, frame.LineHeight)
	assert.Equal(t, 24.0, frame.GlyphSize)
}

func TestScriptChangeClampsWhenResetDisabled(t *testing.T) {
	r := New(settingsWith("a\nb\nc\nd\ne"), Options{Typesetter: &cellTypesetter{px: 16}})
	r.Resize(400, 300)
	_, _, _ = r.Tick(t0)
	r.SeekBy(4 * 48)

	r.SetSettings(settingsWith("x\ny"))
	_, _, _ = r.Tick(at(time.Millisecond))
	assert.Equal(t, 48.0, r.Offset())
}

func TestMeasurementFailureSkipsFrame(t *testing.T) {
	ts := &cellTypesetter{px: 16, failures: 1}
	r := New(settingsWith("Hello"), Options{Typesetter: ts})
	r.Resize(400, 300)

	_, ok, err := r.Tick(t0)
	require.Error(t, err)
	assert.False(t, ok)

	frame, ok, err := r.Tick(at(16 * time.Millisecond))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, frame.Lines, 1)
}

func TestLayoutCachedUntilKeyChanges(t *testing.T) {
	ts := &cellTypesetter{px: 16}
	r := New(settingsWith("Hello"), Options{Typesetter: ts})
	r.Resize(400, 300)
	for i := range 5 {
		_, _, _ = r.Tick(at(time.Duration(i) * time.Millisecond))
	}
	assert.Equal(t, 1, ts.calls)

	r.Resize(200, 300)
	_, _, _ = r.Tick(at(10 * time.Millisecond))
	assert.Equal(t, 2, ts.calls)
}

func TestToggleAtEndRewinds(t *testing.T) {
	r := New(settingsWith("a\nb"), Options{
		Typesetter: &cellTypesetter{px: 16},
		OnFinish:   func(r *ScrollRenderer) { r.Pause() },
	})
	r.Resize(400, 300)
	require.True(t, r.Toggle())
	_, _, _ = r.Tick(t0)
	_, _, _ = r.Tick(at(2 * time.Second))
	require.False(t, r.Playing())
	require.Equal(t, 48.0, r.Offset())

	require.True(t, r.Toggle())
	assert.Equal(t, 0.0, r.Offset())
	assert.False(t, r.Toggle())
}

func TestMissingTypesetter(t *testing.T) {
	r := New(settingsWith("Hello"), Options{})
	r.Resize(400, 300)
	_, ok, err := r.Tick(t0)
	require.Error(t, err)
	assert.False(t, ok)
}
