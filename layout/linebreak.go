package layout

import (
	"math"
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
)

// Break 将脚本排成显示行。先按换行符拆段，每段独立排版；空段落产生一个空行以保留段间距。
// 段内按字素簇贪心累积：加入下一个簇会超出 maxWidth 且当前行非空时先提交当前行。
// maxWidth <= 0 表示不按宽度折行。结果只取决于入参。
func Break(script string, maxWidth float64, m Measurer, lineHeight float64, opts ...Option) Result {
	o := options{wrap: WrapGrapheme}
	for _, opt := range opts {
		opt(&o)
	}

	res := Result{Lines: []string{}, LineHeight: lineHeight, MaxWidth: maxWidth}
	if script == "" {
		return res
	}

	limit := maxWidth
	if limit <= 0 {
		limit = math.MaxFloat64
	}

	for _, para := range Paragraphs(script) {
		if strings.TrimSpace(para) == "" {
			res.Lines = append(res.Lines, "")
			continue
		}
		w := &wrapper{limit: limit, m: m}
		if o.wrap == WrapWord {
			w.addWords(para)
		} else {
			w.addGraphemes(para)
		}
		res.Lines = append(res.Lines, w.finish()...)
	}
	return res
}

// Paragraphs normalizes CRLF and lone CR to LF and splits on LF.
func Paragraphs(script string) []string {
	s := strings.ReplaceAll(script, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Split(s, "\n")
}

// Graphemes splits s into user-perceived characters.
func Graphemes(s string) []string {
	var out []string
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.StepString(s, state)
		out = append(out, cluster)
	}
	return out
}

type wrapper struct {
	limit float64
	m     Measurer
	lines []string
	cur   strings.Builder
}

func (w *wrapper) fits(s string) bool {
	return w.m.TextWidth(w.cur.String()+s) <= w.limit
}

func (w *wrapper) commit() {
	w.lines = append(w.lines, w.cur.String())
	w.cur.Reset()
}

func (w *wrapper) addGraphemes(s string) {
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.StepString(s, state)
		if w.cur.Len() > 0 && !w.fits(cluster) {
			w.commit()
		}
		w.cur.WriteString(cluster)
	}
}

// addWords 优先在空白处折行：折行点处的空白被丢弃，放不下整行的单词按字素拆分。
func (w *wrapper) addWords(s string) {
	for _, tok := range tokenize(s) {
		space := strings.TrimSpace(tok) == ""
		switch {
		case space && w.cur.Len() == 0 && len(w.lines) > 0:
			// 续行行首不保留空白
		case w.fits(tok):
			w.cur.WriteString(tok)
		case space:
			// 在此折行；放不下的行首空白直接丢弃
			if w.cur.Len() > 0 {
				w.commitTrimmed()
			}
		case w.cur.Len() > 0 && w.m.TextWidth(tok) <= w.limit:
			w.commitTrimmed()
			w.cur.WriteString(tok)
		default:
			if w.cur.Len() > 0 {
				w.commitTrimmed()
			}
			w.addGraphemes(tok)
		}
	}
}

func (w *wrapper) commitTrimmed() {
	line := strings.TrimRightFunc(w.cur.String(), unicode.IsSpace)
	w.lines = append(w.lines, line)
	w.cur.Reset()
}

// finish 提交末尾的候选行；每个非空段落至少产生一行。
func (w *wrapper) finish() []string {
	if w.cur.Len() > 0 || len(w.lines) == 0 {
		w.commit()
	}
	return w.lines
}

// tokenize 把段落切成交替出现的空白串与非空白串，边界总落在字素簇之间。
func tokenize(s string) []string {
	var tokens []string
	var builder strings.Builder
	lastWasSpace := false
	for _, cluster := range Graphemes(s) {
		isSpace := strings.TrimSpace(cluster) == ""
		if builder.Len() > 0 && lastWasSpace != isSpace {
			tokens = append(tokens, builder.String())
			builder.Reset()
		}
		lastWasSpace = isSpace
		builder.WriteString(cluster)
	}
	if builder.Len() > 0 {
		tokens = append(tokens, builder.String())
	}
	return tokens
}
