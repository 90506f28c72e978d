package canvasrenderer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/layout"
	"github.com/ByLCY/prompter/renderer"
)

func composeFrame(t *testing.T, r *Renderer, script string, mirror bool) renderer.Frame {
	t.Helper()
	metrics := fonts.Profile(fonts.Medium)
	m, err := r.Measurer(metrics)
	if err != nil {
		t.Fatalf("measurer error: %v", err)
	}
	res := layout.Break(script, layout.MaxWidthFor(400), m, metrics.LineHeight)
	return renderer.Compose(renderer.Input{
		Layout:        res,
		Width:         400,
		Height:        300,
		GlyphSize:     metrics.GlyphSize,
		Mirror:        mirror,
		ShowFocusLine: true,
		Style:         renderer.DefaultStyle(),
	})
}

func TestMeasurerWrapsText(t *testing.T) {
	r := NewRenderer(fonts.FamilySans)
	m, err := r.Measurer(fonts.Profile(fonts.Medium))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w := m.TextWidth("hello"); w <= 0 {
		t.Fatalf("expected positive width, got %g", w)
	}
	if m.TextWidth("hello world") <= m.TextWidth("hello") {
		t.Fatalf("longer text must measure wider")
	}

	res := layout.Break("hello world again", 100, m, 48)
	if len(res.Lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(res.Lines))
	}
}

func TestMeasurerCachesWidths(t *testing.T) {
	r := NewRenderer(fonts.FamilyMono)
	m, err := r.Measurer(fonts.Profile(fonts.Small))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first := m.TextWidth("cached")
	if r.widths.ItemCount() != 1 {
		t.Fatalf("expected one cached width, got %d", r.widths.ItemCount())
	}
	if second := m.TextWidth("cached"); second != first {
		t.Fatalf("cached width mismatch: %g vs %g", first, second)
	}
}

func TestLargerTierMeasuresWider(t *testing.T) {
	r := NewRenderer("")
	small, _ := r.Measurer(fonts.Profile(fonts.Small))
	large, _ := r.Measurer(fonts.Profile(fonts.Large))
	if large.TextWidth("Prompter") <= small.TextWidth("Prompter") {
		t.Fatalf("large tier must be wider than small tier")
	}
}

func TestUnknownFamily(t *testing.T) {
	r := NewRenderer("comic")
	if _, err := r.Measurer(fonts.Profile(fonts.Medium)); err == nil {
		t.Fatalf("expected error for unknown family")
	}
}

func TestRenderPNG(t *testing.T) {
	r := NewRenderer(fonts.FamilySans)
	frame := composeFrame(t, r, "Hello world", false)

	data, err := r.Render(&frame)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 400 || b.Dy() != 300 {
		t.Fatalf("unexpected bounds %v", b)
	}
	// 左上角远离文本与焦点带，应为黑色背景。
	if cr, cg, cb, _ := img.At(2, 2).RGBA(); cr != 0 || cg != 0 || cb != 0 {
		t.Fatalf("expected black background, got %d,%d,%d", cr, cg, cb)
	}
	if !hasBrightPixel(img) {
		t.Fatalf("expected text pixels in the frame")
	}
}

func TestRenderMirrorDiffers(t *testing.T) {
	r := NewRenderer(fonts.FamilySans)
	plain := composeFrame(t, r, "Left", false)
	mirrored := composeFrame(t, r, "Left", true)

	a, err := r.Render(&plain)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	b, err := r.Render(&mirrored)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if bytes.Equal(a, b) {
		t.Fatalf("mirrored frame must differ from plain frame")
	}
}

func TestRenderMirrorFlipsAndRestores(t *testing.T) {
	r := NewRenderer(fonts.FamilySans)
	plain := composeFrame(t, r, "Left", false)
	mirrored := composeFrame(t, r, "Left", true)

	var out [3][]byte
	for i, f := range []renderer.Frame{plain, mirrored, plain} {
		data, err := r.Render(&f)
		if err != nil {
			t.Fatalf("render %d error: %v", i, err)
		}
		out[i] = data
	}
	if !bytes.Equal(out[0], out[2]) {
		t.Fatalf("plain frame changed after rendering a mirrored frame")
	}

	a, err := png.Decode(bytes.NewReader(out[0]))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	b, err := png.Decode(bytes.NewReader(out[1]))
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	bounds := a.Bounds()
	lit, missing := 0, 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			if !bright(a.At(x, y), 0xc000) {
				continue
			}
			lit++
			if !bright(b.At(bounds.Max.X-1-x+bounds.Min.X, y), 0x8000) {
				missing++
			}
		}
	}
	if lit == 0 {
		t.Fatalf("expected text pixels in the plain frame")
	}
	if missing > 0 {
		t.Fatalf("%d of %d lit pixels missing at their mirrored position", missing, lit)
	}
}

func TestRenderRejectsEmptySurface(t *testing.T) {
	r := NewRenderer(fonts.FamilySans)
	if _, err := r.Render(&renderer.Frame{}); err == nil {
		t.Fatalf("expected error for zero-sized frame")
	}
	if _, err := r.Render(nil); err == nil {
		t.Fatalf("expected error for nil frame")
	}
}

func TestFileSurfaceWritesFrames(t *testing.T) {
	r := NewRenderer(fonts.FamilySans)
	dir := filepath.Join(t.TempDir(), "frames")
	s, err := NewFileSurface(r, dir)
	if err != nil {
		t.Fatalf("surface error: %v", err)
	}
	frame := composeFrame(t, r, "one\ntwo", false)
	for range 2 {
		if err := s.Draw(&frame); err != nil {
			t.Fatalf("draw error: %v", err)
		}
	}
	if s.Count() != 2 {
		t.Fatalf("expected 2 frames, got %d", s.Count())
	}
	if _, err := os.Stat(filepath.Join(dir, "frame-00001.png")); err != nil {
		t.Fatalf("second frame missing: %v", err)
	}
}

func TestExportPDF(t *testing.T) {
	r := NewRenderer(fonts.FamilySerif)
	metrics := fonts.Profile(fonts.Medium)
	m, err := r.Measurer(metrics)
	if err != nil {
		t.Fatalf("measurer error: %v", err)
	}
	res := layout.Break("first\n\nsecond line of the script", layout.MaxWidthFor(A4Width), m, metrics.LineHeight)

	data, err := r.Export(res, ExportOptions{Title: "Talk", GlyphSize: metrics.GlyphSize, Margin: 48})
	if err != nil {
		t.Fatalf("export error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		t.Fatalf("expected PDF header, got %q", data[:min(len(data), 8)])
	}
}

func TestExportRejectsMissingGlyphSize(t *testing.T) {
	r := NewRenderer(fonts.FamilySans)
	if _, err := r.Export(layout.Result{Lines: []string{"a"}, LineHeight: 48}, ExportOptions{}); err == nil {
		t.Fatalf("expected error without glyph size")
	}
}

func TestLinesPerPage(t *testing.T) {
	if got := LinesPerPage(1000, 50, 48); got != 18 {
		t.Fatalf("expected 18 lines, got %d", got)
	}
	if got := LinesPerPage(10, 50, 48); got != 1 {
		t.Fatalf("expected at least one line, got %d", got)
	}
}

func hasBrightPixel(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if bright(img.At(x, y), 0xc000) {
				return true
			}
		}
	}
	return false
}

func bright(c color.Color, threshold uint32) bool {
	r, g, b, _ := c.RGBA()
	return r > threshold && g > threshold && b > threshold
}
