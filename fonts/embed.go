package fonts

import (
	"fmt"
	"strings"

	"github.com/go-fonts/latin-modern/lmroman10bold"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomonobold"
)

// 内置字体族。提词器统一使用粗体，与编辑框保持一致。
const (
	FamilySans  = "sans"
	FamilySerif = "serif"
	FamilyMono  = "mono"
)

var builtin = map[string][]byte{
	FamilySans:  gobold.TTF,
	FamilySerif: lmroman10bold.TTF,
	FamilyMono:  gomonobold.TTF,
}

// Families 返回可用的内置字体族名称。
func Families() []string {
	return []string{FamilySans, FamilySerif, FamilyMono}
}

// Load 返回内置字体的字节数据，family 可写为 "embed:sans" 或直接 "sans"。
func Load(family string) ([]byte, error) {
	name := strings.ToLower(strings.TrimPrefix(family, "embed:"))
	if name == "" {
		name = FamilySans
	}
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 未知字体族", family)
	}
	return data, nil
}
