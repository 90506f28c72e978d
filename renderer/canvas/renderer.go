package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/layout"
	"github.com/ByLCY/prompter/log"
	"github.com/ByLCY/prompter/renderer"
)

// 文本宽度缓存的默认过期与清理间隔。
const (
	DefaultWidthTTL        = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Renderer draws frames via github.com/tdewolff/canvas and measures text with the
// same font faces, so line breaking and painting always agree.
type Renderer struct {
	familyName string

	fontMu sync.Mutex
	family *canvas.FontFamily

	// widths caches TextWidth results keyed by family, glyph size and text.
	widths *gocache.Cache
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	// Family 为内置字体族名称（sans/serif/mono），可带 embed: 前缀。
	Family   string
	WidthTTL time.Duration
}

// NewRenderer creates a renderer using the built-in font family.
func NewRenderer(family string) *Renderer {
	return NewRendererWithOptions(Options{Family: family})
}

// NewRendererWithOptions creates a renderer with an explicit width cache TTL.
func NewRendererWithOptions(opts Options) *Renderer {
	ttl := opts.WidthTTL
	if ttl <= 0 {
		ttl = DefaultWidthTTL
	}
	family := opts.Family
	if family == "" {
		family = fonts.FamilySans
	}
	return &Renderer{
		familyName: family,
		widths:     gocache.New(ttl, DefaultCleanupInterval),
	}
}

// Measurer 实现 layout.Typesetter：返回按字号档位创建的字体面测量函数（单位 px）。
func (r *Renderer) Measurer(metrics fonts.Metrics) (layout.Measurer, error) {
	face, err := r.fontFace(metrics.GlyphSize, 1, color.White)
	if err != nil {
		return nil, err
	}
	prefix := fmt.Sprintf("%s|%g|", r.familyName, metrics.GlyphSize)
	return layout.MeasureFunc(func(text string) float64 {
		key := prefix + text
		if v, ok := r.widths.Get(key); ok {
			if w, ok := v.(float64); ok {
				return w
			}
		}
		w := face.TextWidth(text)
		r.widths.Set(key, w, gocache.DefaultExpiration)
		return w
	}), nil
}

// Render 将一帧栅格化为 PNG。画布单位即像素，按每单位 1 个像素输出。
func (r *Renderer) Render(frame *renderer.Frame) ([]byte, error) {
	if frame == nil {
		return nil, fmt.Errorf("渲染帧为空")
	}
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("画布尺寸无效: %gx%g", frame.Width, frame.Height)
	}
	c, err := r.paint(frame)
	if err != nil {
		return nil, err
	}
	img := rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("编码 PNG 失败: %w", err)
	}
	log.Debug(log.CatRender, "frame rasterized", "lines", len(frame.Lines), "bytes", buf.Len())
	return buf.Bytes(), nil
}

// paint 绘制背景、文本（镜像时整体水平翻转）以及焦点带。
func (r *Renderer) paint(frame *renderer.Frame) (*canvas.Canvas, error) {
	face, err := r.fontFace(frame.GlyphSize, 1, colorFrom(frame.TextColor))
	if err != nil {
		return nil, err
	}

	c := canvas.New(frame.Width, frame.Height)
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	ctx.SetFillColor(colorFrom(frame.Background))
	ctx.SetStrokeColor(color.RGBA{0, 0, 0, 0})
	ctx.DrawPath(0, 0, canvas.Rectangle(frame.Width, frame.Height))

	// 镜像只作用于文本，Push/Pop 保证变换不会泄漏到焦点带。
	ctx.Push()
	if frame.Mirror {
		ctx.Translate(frame.Width, 0)
		ctx.Scale(-1, 1)
	}
	for _, line := range frame.Lines {
		if line.Text == "" {
			continue
		}
		drawCentered(ctx, face, line.Text, line.X, line.Y, frame.LineHeight)
	}
	ctx.Pop()

	if frame.Focus != nil {
		drawFocusBand(ctx, *frame.Focus, frame.Width)
	}
	return c, nil
}

// drawCentered 以 x 为水平中心、top 为行顶绘制一行文本，字形在行高内垂直居中。
func drawCentered(ctx *canvas.Context, face *canvas.FontFace, text string, x, top, lineHeight float64) {
	m := face.Metrics()
	baseline := top + lineHeight/2 + (m.Ascent-m.Descent)/2
	ctx.DrawText(x, baseline, canvas.NewTextLine(face, text, canvas.Center))
}

func drawFocusBand(ctx *canvas.Context, band renderer.FocusBand, width float64) {
	ctx.SetFillColor(color.RGBA{0, 0, 0, 0})
	ctx.SetStrokeColor(colorFrom(band.Color))
	ctx.SetStrokeWidth(band.StrokeWidth)
	for _, y := range []float64{band.Top, band.Bottom} {
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(width, 0)
		ctx.DrawPath(0, y, p)
	}
}

// fontFace 创建 em 等于 px·unit 个画布单位的字体面。unit 为每像素对应的画布单位。
func (r *Renderer) fontFace(px, unit float64, col color.Color) (*canvas.FontFace, error) {
	if px <= 0 {
		return nil, fmt.Errorf("字号无效: %g", px)
	}
	family, err := r.ensureFontFamily()
	if err != nil {
		return nil, err
	}
	return family.Face(layout.FacePoints(px*unit), col, canvas.FontRegular, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily() (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if r.family != nil {
		return r.family, nil
	}
	data, err := fonts.Load(r.familyName)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("prompter-" + r.familyName)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载字体 %s 失败: %w", r.familyName, err)
	}
	r.family = family
	return family, nil
}

func colorFrom(c renderer.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255.0, float64(c.G)/255.0, float64(c.B)/255.0, c.Alpha)
}
