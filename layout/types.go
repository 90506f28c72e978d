package layout

// 该文件定义排版结果，供滚动渲染、调试 JSON 与导出共用。

// Result 保存一次排版后的显示行与解析出的行高。
// 任何输入（脚本、宽度、字号）变化都应整体重建，不做增量修补。
type Result struct {
	Lines      []string `json:"lines"`
	LineHeight float64  `json:"lineHeight"`
	MaxWidth   float64  `json:"maxWidth"`
}

// LineCount returns the number of display lines.
func (r Result) LineCount() int { return len(r.Lines) }

// Height 返回全部行叠放后的总高度（px）。
func (r Result) Height() float64 { return float64(len(r.Lines)) * r.LineHeight }

// Equal reports whether two results carry identical lines and geometry.
func (r Result) Equal(o Result) bool {
	if r.LineHeight != o.LineHeight || r.MaxWidth != o.MaxWidth || len(r.Lines) != len(o.Lines) {
		return false
	}
	for i := range r.Lines {
		if r.Lines[i] != o.Lines[i] {
			return false
		}
	}
	return true
}
