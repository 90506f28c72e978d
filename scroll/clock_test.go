package scroll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestSpeedFactor(t *testing.T) {
	assert.Equal(t, 100.0, SpeedFactor(200))
	assert.Equal(t, 0.0, SpeedFactor(0))
	assert.Equal(t, 0.0, SpeedFactor(-5))
}

func TestMaxOffset(t *testing.T) {
	assert.Equal(t, 0.0, MaxOffset(0, 48))
	assert.Equal(t, 0.0, MaxOffset(1, 48))
	assert.Equal(t, 96.0, MaxOffset(3, 48))
}

func TestFirstTickHasZeroDelta(t *testing.T) {
	var c Clock
	c.Play()
	res := c.Tick(epoch.Add(time.Hour), 200, 1000)
	require.Equal(t, 0.0, res.Offset)
	require.False(t, res.Finished)
}

func TestThreeLinesFinishAfter960ms(t *testing.T) {
	var c Clock
	maxOffset := MaxOffset(3, 48)
	c.Play()
	c.Tick(epoch, 200, maxOffset)

	res := c.Tick(epoch.Add(960*time.Millisecond), 200, maxOffset)
	require.Equal(t, 96.0, res.Offset)
	require.True(t, res.Finished)
}

func TestThreeLinesFinishAfter960msInFrames(t *testing.T) {
	var c Clock
	maxOffset := MaxOffset(3, 48)
	c.Play()
	now := epoch
	c.Tick(now, 200, maxOffset)

	fired := 0
	for i := 0; i < 60; i++ {
		now = now.Add(16 * time.Millisecond)
		if c.Tick(now, 200, maxOffset).Finished {
			fired++
			require.Equal(t, 59, i, "finished must fire on the frame reaching 0.96s")
		}
	}
	require.Equal(t, 1, fired)
	require.Equal(t, 96.0, c.Offset())
}

func TestSingleLineFinishesOnFirstPlayingFrame(t *testing.T) {
	var c Clock
	c.Play()
	res := c.Tick(epoch, 200, MaxOffset(1, 48))
	require.True(t, res.Finished)
	require.Equal(t, 0.0, res.Offset)
}

func TestEmptyContentDoesNotFinishBeforePlayback(t *testing.T) {
	var c Clock
	for i := 0; i < 5; i++ {
		res := c.Tick(epoch.Add(time.Duration(i)*time.Second), 200, MaxOffset(0, 48))
		require.False(t, res.Finished)
	}
	require.False(t, c.AtEnd())
}

func TestFinishedFiresOnce(t *testing.T) {
	var c Clock
	c.Play()
	now := epoch
	c.Tick(now, 200, 10)
	fired := 0
	for i := 0; i < 20; i++ {
		now = now.Add(100 * time.Millisecond)
		if c.Tick(now, 200, 10).Finished {
			fired++
		}
	}
	assert.Equal(t, 1, fired)
	assert.Equal(t, 10.0, c.Offset())
}

func TestPausedClockDoesNotMove(t *testing.T) {
	var c Clock
	c.Play()
	c.Tick(epoch, 200, 1000)
	c.Tick(epoch.Add(time.Second), 200, 1000)
	c.Pause()
	res := c.Tick(epoch.Add(time.Minute), 200, 1000)
	assert.Equal(t, 100.0, res.Offset)
	assert.Equal(t, time.Second, c.Elapsed())
}

func TestResetRearmsFinish(t *testing.T) {
	var c Clock
	c.Play()
	c.Tick(epoch, 200, 0)
	require.True(t, c.AtEnd())
	c.Reset()
	require.False(t, c.AtEnd())
	require.True(t, c.Tick(epoch.Add(time.Second), 200, 0).Finished)
}

func TestClampRearmsWhenContentGrows(t *testing.T) {
	var c Clock
	c.Play()
	c.Tick(epoch, 200, 50)
	c.Tick(epoch.Add(time.Second), 200, 50)
	require.True(t, c.AtEnd())

	c.Clamp(200)
	assert.False(t, c.AtEnd())
	assert.Equal(t, 50.0, c.Offset())

	c.Clamp(20)
	assert.Equal(t, 20.0, c.Offset())
}

func TestSeekClamps(t *testing.T) {
	var c Clock
	c.Seek(-10, 100)
	assert.Equal(t, 0.0, c.Offset())
	c.Seek(500, 100)
	assert.Equal(t, 100.0, c.Offset())
}

// TestMonotonicBoundedScroll 对任意正时间增量序列，偏移单调不减且不超过上限。
func TestMonotonicBoundedScroll(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		speed := rapid.Float64Range(1, 1000).Draw(rt, "speed")
		maxOffset := rapid.Float64Range(0, 5000).Draw(rt, "maxOffset")
		deltas := rapid.SliceOfN(rapid.Int64Range(1, int64(200*time.Millisecond)), 1, 200).Draw(rt, "deltas")

		var c Clock
		c.Play()
		now := epoch
		c.Tick(now, speed, maxOffset)
		prev := c.Offset()
		fired := 0
		for _, d := range deltas {
			now = now.Add(time.Duration(d))
			res := c.Tick(now, speed, maxOffset)
			require.GreaterOrEqual(rt, res.Offset, prev, "offset decreased")
			require.LessOrEqual(rt, res.Offset, maxOffset, "offset exceeds max")
			if res.Finished {
				fired++
			}
			prev = res.Offset
		}
		require.LessOrEqual(rt, fired, 1, "finished fired more than once")
	})
}

// TestPauseResumeExactness 暂停期间流逝的时间不会计入偏移。
func TestPauseResumeExactness(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		speed := rapid.Float64Range(1, 1000).Draw(rt, "speed")
		first := time.Duration(rapid.Int64Range(0, int64(10*time.Second)).Draw(rt, "first"))
		second := time.Duration(rapid.Int64Range(0, int64(10*time.Second)).Draw(rt, "second"))
		gap := time.Duration(rapid.Int64Range(0, int64(time.Hour)).Draw(rt, "gap"))
		const maxOffset = 1e9

		var interrupted Clock
		interrupted.Play()
		interrupted.Tick(epoch, speed, maxOffset)
		interrupted.Tick(epoch.Add(first), speed, maxOffset)
		interrupted.Pause()
		interrupted.Tick(epoch.Add(first+gap/2), speed, maxOffset)
		interrupted.Play()
		resumeAt := epoch.Add(first + gap)
		interrupted.Tick(resumeAt, speed, maxOffset)
		interrupted.Tick(resumeAt.Add(second), speed, maxOffset)

		var straight Clock
		straight.Play()
		straight.Tick(epoch, speed, maxOffset)
		straight.Tick(epoch.Add(first+second), speed, maxOffset)

		assert.InDelta(rt, straight.Offset(), interrupted.Offset(), 1e-6)
		assert.Equal(rt, straight.Elapsed(), interrupted.Elapsed())
	})
}
