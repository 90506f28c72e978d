package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/prompter/layout"
)

func threeLines() layout.Result {
	return layout.Result{Lines: []string{"one", "two", "three"}, LineHeight: 48, MaxWidth: 320}
}

func TestComposeAnchorsFirstLineOnFocusBand(t *testing.T) {
	f := Compose(Input{Layout: threeLines(), Width: 400, Height: 300, ShowFocusLine: true, Style: DefaultStyle()})
	require.Len(t, f.Lines, 3)
	assert.Equal(t, 126.0, f.Lines[0].Y)
	assert.Equal(t, 174.0, f.Lines[1].Y)
	assert.Equal(t, 200.0, f.Lines[0].X)

	require.NotNil(t, f.Focus)
	assert.Equal(t, f.Lines[0].Y, f.Focus.Top)
	assert.Equal(t, f.Lines[0].Y+48, f.Focus.Bottom)
}

func TestComposeLastLineCenteredAtMaxOffset(t *testing.T) {
	f := Compose(Input{Layout: threeLines(), Offset: 96, MaxOffset: 96, Width: 400, Height: 300, ShowFocusLine: true})
	last := f.Lines[len(f.Lines)-1]
	assert.Equal(t, 2, last.Index)
	assert.Equal(t, f.Focus.Top, last.Y)
	assert.Equal(t, 1.0, f.Progress)
}

func TestComposeFocusIndependentOfOffset(t *testing.T) {
	a := Compose(Input{Layout: threeLines(), Offset: 0, Width: 400, Height: 300, ShowFocusLine: true})
	b := Compose(Input{Layout: threeLines(), Offset: 77, Width: 400, Height: 300, ShowFocusLine: true})
	assert.Equal(t, *a.Focus, *b.Focus)
}

func TestComposeHidesFocusWhenDisabled(t *testing.T) {
	f := Compose(Input{Layout: threeLines(), Width: 400, Height: 300})
	assert.Nil(t, f.Focus)
}

func TestComposeCullsFarLines(t *testing.T) {
	lines := make([]string, 100)
	for i := range lines {
		lines[i] = "line"
	}
	res := layout.Result{Lines: lines, LineHeight: 48}
	f := Compose(Input{Layout: res, Offset: 2400, Width: 400, Height: 300})
	require.NotEmpty(t, f.Lines)
	for _, pl := range f.Lines {
		assert.Greater(t, pl.Y+48, -CullBuffer)
		assert.Less(t, pl.Y, 300+CullBuffer)
	}
	assert.Less(t, len(f.Lines), 20)
}

func TestComposeEmptyLayout(t *testing.T) {
	f := Compose(Input{Layout: layout.Result{Lines: []string{}, LineHeight: 48}, Width: 400, Height: 300})
	assert.Empty(t, f.Lines)
	assert.Equal(t, 0.0, f.Progress)
}
