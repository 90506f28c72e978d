package layout

import (
	"encoding/json"
	"os"
)

// DebugLine 记录单行内容与测得宽度，便于核对折行位置。
type DebugLine struct {
	Index   int     `json:"index"`
	Content string  `json:"content"`
	Width   float64 `json:"width"`
	Top     float64 `json:"top"`
}

// DebugDump is the JSON shape written by WriteDebugJSON.
type DebugDump struct {
	MaxWidth   float64     `json:"maxWidth"`
	LineHeight float64     `json:"lineHeight"`
	Height     float64     `json:"height"`
	Lines      []DebugLine `json:"lines"`
}

// Debug 生成排版结果的调试视图；m 为空时宽度记为 0。
func Debug(res Result, m Measurer) DebugDump {
	dump := DebugDump{
		MaxWidth:   res.MaxWidth,
		LineHeight: res.LineHeight,
		Height:     res.Height(),
		Lines:      make([]DebugLine, 0, len(res.Lines)),
	}
	for i, line := range res.Lines {
		dl := DebugLine{Index: i, Content: line, Top: float64(i) * res.LineHeight}
		if m != nil {
			dl.Width = m.TextWidth(line)
		}
		dump.Lines = append(dump.Lines, dl)
	}
	return dump
}

// WriteDebugJSON 将排版结果输出为 JSON，便于调试或可视化。
func WriteDebugJSON(res Result, m Measurer, path string) error {
	data, err := json.MarshalIndent(Debug(res, m), "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
