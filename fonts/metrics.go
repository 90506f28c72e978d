package fonts

import (
	"fmt"
	"strings"
)

// Size is the user-facing font size tier.
type Size string

const (
	Small  Size = "small"
	Medium Size = "medium"
	Large  Size = "large"
)

// Metrics 以设备无关像素描述一个字号档位。
type Metrics struct {
	GlyphSize  float64 `json:"glyphSize"`
	LineHeight float64 `json:"lineHeight"`
}

// profile is the single lookup shared by the scroll surface and the editing surface;
// LineHeight must stay strictly increasing from small to large.
var profile = map[Size]Metrics{
	Small:  {GlyphSize: 24, LineHeight: 36},
	Medium: {GlyphSize: 32, LineHeight: 48},
	Large:  {GlyphSize: 48, LineHeight: 72},
}

// Sizes returns the tiers in ascending order.
func Sizes() []Size { return []Size{Small, Medium, Large} }

// Profile returns the metrics for s. Unknown tiers resolve to Medium.
func Profile(s Size) Metrics {
	if m, ok := profile[s]; ok {
		return m
	}
	return profile[Medium]
}

// Valid reports whether s is one of the three tiers.
func (s Size) Valid() bool {
	_, ok := profile[s]
	return ok
}

// ParseSize accepts the tier names case-insensitively, plus the s/m/l shorthands.
func ParseSize(value string) (Size, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "small", "s":
		return Small, nil
	case "medium", "m", "":
		return Medium, nil
	case "large", "l":
		return Large, nil
	}
	return "", fmt.Errorf("未知字号 %q（可选 small/medium/large）", value)
}
