package renderer

import (
	"time"

	"github.com/ByLCY/prompter/layout"
)

// CullBuffer is how far outside the surface a line may sit and still be emitted.
const CullBuffer = 100.0

// Color 采用 0-255 的 RGB 数值与 0-1 的不透明度。
type Color struct {
	R     int     `json:"r"`
	G     int     `json:"g"`
	B     int     `json:"b"`
	Alpha float64 `json:"alpha"`
}

// Style 汇总一帧的配色与焦点线笔宽。
type Style struct {
	Background  Color
	Text        Color
	Focus       Color
	FocusStroke float64
}

// DefaultStyle 白字黑底，焦点线为半透明蓝色。
func DefaultStyle() Style {
	return Style{
		Background:  Color{R: 0, G: 0, B: 0, Alpha: 1},
		Text:        Color{R: 255, G: 255, B: 255, Alpha: 1},
		Focus:       Color{R: 13, G: 127, B: 242, Alpha: 0.5},
		FocusStroke: 2,
	}
}

// PlacedLine is a display line positioned on the surface.
// X is the horizontal center of the line, Y its top edge.
type PlacedLine struct {
	Index int     `json:"index"`
	Text  string  `json:"text"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// FocusBand 是两条水平引导线围出的阅读带，高度等于行高，始终位于表面垂直中心。
type FocusBand struct {
	Top         float64 `json:"top"`
	Bottom      float64 `json:"bottom"`
	Color       Color   `json:"color"`
	StrokeWidth float64 `json:"strokeWidth"`
}

// Frame 是一帧的完整绘制指令。Mirror 只作用于文本；焦点带不参与翻转。
type Frame struct {
	Width      float64      `json:"width"`
	Height     float64      `json:"height"`
	Background Color        `json:"background"`
	TextColor  Color        `json:"textColor"`
	GlyphSize  float64      `json:"glyphSize"`
	LineHeight float64      `json:"lineHeight"`
	Mirror     bool         `json:"mirror"`
	Lines      []PlacedLine `json:"lines"`
	Focus      *FocusBand   `json:"focus,omitempty"`

	Offset    float64       `json:"offset"`
	MaxOffset float64       `json:"maxOffset"`
	Progress  float64       `json:"progress"`
	Playing   bool          `json:"playing"`
	Elapsed   time.Duration `json:"elapsed"`
	Speed     float64       `json:"speed"`
}

// Input carries everything Compose needs for one frame.
type Input struct {
	Layout        layout.Result
	Offset        float64
	MaxOffset     float64
	Width         float64
	Height        float64
	GlyphSize     float64
	Mirror        bool
	ShowFocusLine bool
	Playing       bool
	Elapsed       time.Duration
	Speed         float64
	Style         Style
}

// AnchorY is the top of the first line at offset zero: the line starts centered on the
// focus band. scroll.MaxOffset assumes the same anchor.
func AnchorY(height, lineHeight float64) float64 {
	return height/2 - lineHeight/2
}

// Compose 根据排版结果与滚动偏移计算每行坐标：y = anchor − offset + i·lineHeight。
// 完全落在 [−CullBuffer, height+CullBuffer] 之外的行不输出。
func Compose(in Input) Frame {
	lh := in.Layout.LineHeight
	f := Frame{
		Width:      in.Width,
		Height:     in.Height,
		Background: in.Style.Background,
		TextColor:  in.Style.Text,
		GlyphSize:  in.GlyphSize,
		LineHeight: lh,
		Mirror:     in.Mirror,
		Lines:      []PlacedLine{},
		Offset:     in.Offset,
		MaxOffset:  in.MaxOffset,
		Playing:    in.Playing,
		Elapsed:    in.Elapsed,
		Speed:      in.Speed,
	}
	if in.MaxOffset > 0 {
		f.Progress = min(in.Offset/in.MaxOffset, 1)
	}

	anchor := AnchorY(in.Height, lh)
	centerX := in.Width / 2
	for i, line := range in.Layout.Lines {
		y := anchor - in.Offset + float64(i)*lh
		if y+lh <= -CullBuffer || y >= in.Height+CullBuffer {
			continue
		}
		f.Lines = append(f.Lines, PlacedLine{Index: i, Text: line, X: centerX, Y: y})
	}

	if in.ShowFocusLine {
		top := in.Height/2 - lh/2
		f.Focus = &FocusBand{
			Top:         top,
			Bottom:      top + lh,
			Color:       in.Style.Focus,
			StrokeWidth: in.Style.FocusStroke,
		}
	}
	return f
}
