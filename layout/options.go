package layout

import "github.com/ByLCY/prompter/fonts"

// Measurer 返回一段文本在当前字体下的绘制宽度（px）。
type Measurer interface {
	TextWidth(text string) float64
}

// MeasureFunc adapts a plain function to Measurer.
type MeasureFunc func(text string) float64

// TextWidth implements Measurer.
func (f MeasureFunc) TextWidth(text string) float64 { return f(text) }

// Typesetter 负责为某个字号档位提供测量能力。绘图上下文不可用时返回错误，
// 调用方应跳过当前帧并在下一帧重试。
type Typesetter interface {
	Measurer(metrics fonts.Metrics) (Measurer, error)
}

// Wrap selects the line-break opportunity policy.
type Wrap string

const (
	// WrapGrapheme 在任意字素簇边界折行，适用于中日韩与混排文本。
	WrapGrapheme Wrap = "grapheme"
	// WrapWord 优先在空白处折行，超长单词回退为字素折行。
	WrapWord Wrap = "word"
)

// ParseWrap maps a config value to a Wrap policy; unknown values select WrapGrapheme.
func ParseWrap(value string) Wrap {
	if Wrap(value) == WrapWord {
		return WrapWord
	}
	return WrapGrapheme
}

type options struct {
	wrap Wrap
}

// Option configures Break.
type Option func(*options)

// WithWrap overrides the default grapheme policy.
func WithWrap(w Wrap) Option {
	return func(o *options) { o.wrap = w }
}

// 可用文本宽度占画布宽度的比例，两侧各留 10% 边距。
const widthRatio = 0.8

// MaxWidthFor returns the usable line width for a surface of the given width.
func MaxWidthFor(surfaceWidth float64) float64 { return surfaceWidth * widthRatio }
