// Package term draws scroll frames onto a tcell screen.
//
// The terminal is treated as a coarse pixel grid: one column is half a glyph wide and one
// row is one line tall, so every display line lands on exactly one row. The bottom row is
// reserved for the status bar.
package term

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/uniseg"

	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/layout"
	"github.com/ByLCY/prompter/renderer"
)

// statusRows is the number of rows below the scroll area.
const statusRows = 1

// Surface implements renderer.Surface on a tcell.Screen.
type Surface struct {
	mu     sync.Mutex
	screen tcell.Screen
	title  string
}

var (
	_ renderer.Surface  = (*Surface)(nil)
	_ layout.Typesetter = CellTypesetter{}
)

// NewSurface wraps an initialized screen.
func NewSurface(screen tcell.Screen, title string) *Surface {
	return &Surface{screen: screen, title: title}
}

// SetTitle changes the title shown on the status bar.
func (s *Surface) SetTitle(title string) {
	s.mu.Lock()
	s.title = title
	s.mu.Unlock()
}

// CellWidth 返回某字号档位下一列对应的像素宽度。
func CellWidth(m fonts.Metrics) float64 { return m.GlyphSize / 2 }

// Geometry 把终端列/行换算为该字号档位下的像素尺寸，供 ScrollRenderer.Resize 使用。
func (s *Surface) Geometry(m fonts.Metrics) (width, height float64) {
	cols, rows := s.screen.Size()
	rows -= statusRows
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	return float64(cols) * CellWidth(m), float64(rows) * m.LineHeight
}

// CellTypesetter 以终端显示宽度测量文本：宽字符（中日韩、emoji）占两列。
type CellTypesetter struct{}

// Measurer implements layout.Typesetter.
func (CellTypesetter) Measurer(m fonts.Metrics) (layout.Measurer, error) {
	cell := CellWidth(m)
	return layout.MeasureFunc(func(text string) float64 {
		return float64(uniseg.StringWidth(text)) * cell
	}), nil
}

func toColor(c renderer.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

// blend 按不透明度把 c 混合到 bg 上，终端单元格不支持透明色。
func blend(c, bg renderer.Color) tcell.Color {
	a := min(max(c.Alpha, 0), 1)
	mix := func(f, b int) int32 { return int32(math.Round(float64(f)*a + float64(b)*(1-a))) }
	return tcell.NewRGBColor(mix(c.R, bg.R), mix(c.G, bg.G), mix(c.B, bg.B))
}

// rowOf 把像素纵坐标映射到最近的行。
func rowOf(y, lineHeight float64) int {
	if lineHeight <= 0 {
		return 0
	}
	return int(math.Floor(y/lineHeight + 0.5))
}

// Draw implements renderer.Surface.
func (s *Surface) Draw(frame *renderer.Frame) error {
	if frame == nil {
		return fmt.Errorf("渲染帧为空")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cols, rows := s.screen.Size()
	scrollRows := rows - statusRows
	base := tcell.StyleDefault.Background(toColor(frame.Background)).Foreground(toColor(frame.TextColor))
	s.screen.SetStyle(base)
	s.screen.Clear()

	focusRow := -1
	if frame.Focus != nil {
		focusRow = rowOf(frame.Focus.Top, frame.LineHeight)
		band := base.Background(blend(frame.Focus.Color, frame.Background))
		for x := range cols {
			s.screen.SetContent(x, focusRow, ' ', nil, band)
		}
	}

	cell := frame.GlyphSize / 2
	for _, line := range frame.Lines {
		row := rowOf(line.Y, frame.LineHeight)
		if row < 0 || row >= scrollRows || line.Text == "" {
			continue
		}
		style := base
		if row == focusRow {
			style = base.Background(blend(frame.Focus.Color, frame.Background)).Bold(true)
		}
		text := line.Text
		if frame.Mirror {
			text = reverseGraphemes(text)
		}
		width := uniseg.StringWidth(text)
		x := int(math.Round(line.X/cell)) - width/2
		putString(s.screen, x, row, text, cols, style)
	}

	s.drawStatus(frame, cols, rows-1)
	s.screen.Show()
	return nil
}

func (s *Surface) drawStatus(frame *renderer.Frame, cols, row int) {
	if row < 0 {
		return
	}
	style := tcell.StyleDefault.Background(tcell.ColorBlack).Foreground(tcell.ColorSilver)
	for x := range cols {
		s.screen.SetContent(x, row, ' ', nil, style)
	}

	state, stateStyle := "PAUSED", style.Foreground(tcell.ColorYellow)
	if frame.Playing {
		state, stateStyle = "● REC", style.Foreground(tcell.ColorRed).Bold(true)
	}
	x := putString(s.screen, 1, row, state, cols, stateStyle)
	info := fmt.Sprintf("  %s  %s  speed %g  %3.0f%%  [space] play  [+/-] speed  [m] mirror  [f] focus  [s] size  [q] quit",
		FormatElapsed(frame.Elapsed), s.title, frame.Speed, frame.Progress*100)
	putString(s.screen, x, row, info, cols, style)
}

// FormatElapsed renders a duration as mm:ss.
func FormatElapsed(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

// putString 逐字素簇写入一行，返回下一个可写列。
func putString(screen tcell.Screen, x, y int, text string, cols int, style tcell.Style) int {
	state := -1
	var cluster string
	var width int
	for len(text) > 0 {
		cluster, text, width, state = uniseg.FirstGraphemeClusterInString(text, state)
		if x >= cols {
			break
		}
		if x >= 0 {
			runes := []rune(cluster)
			screen.SetContent(x, y, runes[0], runes[1:], style)
		}
		x += max(width, 1)
	}
	return x
}

// reverseGraphemes 反转字素簇顺序，用于终端下的镜像显示。
func reverseGraphemes(s string) string {
	clusters := layout.Graphemes(s)
	for i, j := 0, len(clusters)-1; i < j; i, j = i+1, j-1 {
		clusters[i], clusters[j] = clusters[j], clusters[i]
	}
	var out []byte
	for _, c := range clusters {
		out = append(out, c...)
	}
	return string(out)
}
