package term

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/layout"
	"github.com/ByLCY/prompter/prompter"
	"github.com/ByLCY/prompter/renderer"
	"github.com/ByLCY/prompter/script"
)

// MockScreen is a minimal mock for tcell.Screen that records cell contents.
type MockScreen struct {
	tcell.Screen
	width, height int
	cells         map[[2]int]string
	styles        map[[2]int]tcell.Style
	shows         int
}

func newMockScreen(w, h int) *MockScreen {
	return &MockScreen{width: w, height: h, cells: map[[2]int]string{}, styles: map[[2]int]tcell.Style{}}
}

func (m *MockScreen) Size() (int, int)     { return m.width, m.height }
func (m *MockScreen) SetStyle(tcell.Style) {}
func (m *MockScreen) Show()                { m.shows++ }
func (m *MockScreen) Clear() {
	m.cells = map[[2]int]string{}
	m.styles = map[[2]int]tcell.Style{}
}
func (m *MockScreen) SetContent(x, y int, mainc rune, combc []rune, style tcell.Style) {
	m.cells[[2]int{x, y}] = string(append([]rune{mainc}, combc...))
	m.styles[[2]int{x, y}] = style
}

func (m *MockScreen) row(y int) string {
	var b strings.Builder
	for x := range m.width {
		if s, ok := m.cells[[2]int{x, y}]; ok {
			b.WriteString(s)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.TrimRight(b.String(), " ")
}

func frameFor(t *testing.T, s *Surface, text string, mirror bool) renderer.Frame {
	t.Helper()
	metrics := fonts.Profile(fonts.Medium)
	w, h := s.Geometry(metrics)
	m, err := CellTypesetter{}.Measurer(metrics)
	require.NoError(t, err)
	res := layout.Break(text, layout.MaxWidthFor(w), m, metrics.LineHeight)
	return renderer.Compose(renderer.Input{
		Layout:        res,
		Width:         w,
		Height:        h,
		GlyphSize:     metrics.GlyphSize,
		Mirror:        mirror,
		ShowFocusLine: true,
		Style:         renderer.DefaultStyle(),
		Speed:         200,
		Elapsed:       75 * time.Second,
	})
}

func TestGeometryReservesStatusRow(t *testing.T) {
	s := NewSurface(newMockScreen(40, 11), "Talk")
	w, h := s.Geometry(fonts.Profile(fonts.Medium))
	assert.Equal(t, 40*16.0, w)
	assert.Equal(t, 10*48.0, h)

	empty := NewSurface(newMockScreen(40, 1), "")
	w, h = empty.Geometry(fonts.Profile(fonts.Medium))
	assert.Zero(t, w)
	assert.Zero(t, h)
}

func TestDrawCentersFirstLineOnFocusRow(t *testing.T) {
	screen := newMockScreen(40, 11)
	s := NewSurface(screen, "Talk")
	frame := frameFor(t, s, "Hello", false)
	require.NoError(t, s.Draw(&frame))

	// 10 scroll rows, anchor = 240 - 24 = 216 → row 4.5 rounds to 5.
	assert.Equal(t, "Hello", strings.TrimSpace(screen.row(5)))
	assert.Equal(t, 1, screen.shows)
	status := screen.row(10)
	assert.Contains(t, status, "PAUSED")
	assert.Contains(t, status, "01:15")
	assert.Contains(t, status, "Talk")
}

func TestDrawMirrorReversesGraphemes(t *testing.T) {
	screen := newMockScreen(40, 11)
	s := NewSurface(screen, "")
	frame := frameFor(t, s, "abc", true)
	require.NoError(t, s.Draw(&frame))
	assert.Equal(t, "cba", strings.TrimSpace(screen.row(5)))
}

func TestDrawWideGraphemes(t *testing.T) {
	screen := newMockScreen(40, 11)
	s := NewSurface(screen, "")
	frame := frameFor(t, s, "提词", false)
	require.NoError(t, s.Draw(&frame))
	line := strings.ReplaceAll(screen.row(5), " ", "")
	assert.Equal(t, "提词", line)
}

func TestReverseGraphemesKeepsClusters(t *testing.T) {
	assert.Equal(t, "céa", reverseGraphemes("aéc"))
	assert.Equal(t, "", reverseGraphemes(""))
}

func TestFormatElapsed(t *testing.T) {
	assert.Equal(t, "00:00", FormatElapsed(0))
	assert.Equal(t, "02:05", FormatElapsed(125*time.Second+400*time.Millisecond))
}

func TestControllerKeys(t *testing.T) {
	screen := newMockScreen(40, 11)
	s := NewSurface(screen, "")
	r := prompter.New(script.Defaults(), prompter.Options{Typesetter: CellTypesetter{}})
	c := NewController(r, s, 0)

	require.True(t, c.Handle(tcell.NewEventResize(40, 11)))
	require.True(t, c.handleRune('+'))
	assert.Equal(t, 210.0, r.Settings().Speed)
	require.True(t, c.handleRune('m'))
	assert.True(t, r.Settings().MirrorMode)
	require.True(t, c.handleRune('f'))
	assert.False(t, r.Settings().ShowFocusLine)
	require.True(t, c.handleRune('s'))
	assert.Equal(t, fonts.Large, r.Settings().FontSize)
	require.True(t, c.handleRune(' '))
	assert.True(t, r.Playing())
	assert.False(t, c.handleRune('q'))
}
