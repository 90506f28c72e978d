package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/prompter/layout"
	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/renderer"
)

// ExportOptions 描述打印稿的页面。尺寸与边距单位为 px，按 96 dpi 换算到纸面。
type ExportOptions struct {
	Title     string
	Author    string
	Width     float64
	Height    float64
	Margin    float64
	GlyphSize float64
	Style     renderer.Style
}

// PrintStyle 白底黑字，用于纸质稿。
func PrintStyle() renderer.Style {
	return renderer.Style{
		Background: renderer.Color{R: 255, G: 255, B: 255, Alpha: 1},
		Text:       renderer.Color{R: 0, G: 0, B: 0, Alpha: 1},
	}
}

// A4 portrait at 96 dpi.
const (
	A4Width  = 793.7
	A4Height = 1122.5
)

// LinesPerPage 返回一页可容纳的行数，至少为 1。
func LinesPerPage(height, margin, lineHeight float64) int {
	if lineHeight <= 0 {
		return 1
	}
	return max(int(math.Floor((height-2*margin)/lineHeight)), 1)
}

// Export 将排版结果分页写入 PDF，每行居中，与滚动画面使用相同的换行。
func (r *Renderer) Export(res layout.Result, opts ExportOptions) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts.Width, opts.Height = A4Width, A4Height
	}
	if opts.Style == (renderer.Style{}) {
		opts.Style = PrintStyle()
	}
	if opts.GlyphSize <= 0 {
		return nil, fmt.Errorf("导出字号无效: %g", opts.GlyphSize)
	}

	unit := layout.PxToMM(1)
	face, err := r.fontFace(opts.GlyphSize, unit, colorFrom(opts.Style.Text))
	if err != nil {
		return nil, err
	}

	perPage := LinesPerPage(opts.Height, opts.Margin, res.LineHeight)
	pages := max((res.LineCount()+perPage-1)/perPage, 1)
	wMM, hMM := layout.PxToMM(opts.Width), layout.PxToMM(opts.Height)

	var buf bytes.Buffer
	writer := pdf.New(&buf, wMM, hMM, nil)
	writer.SetInfo(opts.Title, "", "", opts.Author, "prompter")
	for p := range pages {
		if p > 0 {
			writer.NewPage(wMM, hMM)
		}
		c := canvas.New(wMM, hMM)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV)

		ctx.SetFillColor(colorFrom(opts.Style.Background))
		ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
		ctx.DrawPath(0, 0, canvas.Rectangle(wMM, hMM))

		start := p * perPage
		end := min(start+perPage, res.LineCount())
		for i := start; i < end; i++ {
			if res.Lines[i] == "" {
				continue
			}
			top := opts.Margin + float64(i-start)*res.LineHeight
			drawCentered(ctx, face, res.Lines[i], wMM/2, top*unit, res.LineHeight*unit)
		}
		c.RenderTo(writer)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	log.Info(log.CatRender, "pdf exported", "pages", pages, "lines", res.LineCount())
	return buf.Bytes(), nil
}
