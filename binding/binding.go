// Package binding fills ${...} placeholders in script text from structured data.
package binding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Interpolate 将文本中的 ${path.to.value} 替换为 data 中的值。
// ${path|fallback} 在路径不存在时使用 fallback；无默认值且路径不存在时保留原占位符。
func Interpolate(text string, data any) string {
	if !strings.Contains(text, "${") {
		return text
	}
	return placeholder.ReplaceAllStringFunc(text, func(match string) string {
		ref, ok := parseRef(match[2 : len(match)-1])
		if !ok {
			return match
		}
		if val, found := lookup(data, ref.path); found && val != nil {
			return format(val)
		}
		if ref.hasFallback {
			return ref.fallback
		}
		return match
	})
}

// Placeholders 返回文本中引用的全部路径（去重，按出现顺序）。
func Placeholders(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		ref, ok := parseRef(m[1])
		if !ok || seen[ref.raw] {
			continue
		}
		seen[ref.raw] = true
		out = append(out, ref.raw)
	}
	return out
}

type ref struct {
	raw         string
	path        []step
	fallback    string
	hasFallback bool
}

func parseRef(inner string) (ref, bool) {
	raw, fallback, hasFallback := strings.Cut(inner, "|")
	raw = strings.TrimSpace(raw)
	path, err := parsePath(raw)
	if err != nil {
		return ref{}, false
	}
	return ref{raw: raw, path: path, fallback: strings.TrimSpace(fallback), hasFallback: hasFallback}, true
}

// step is one hop of a path: a map key, or a list index when key is empty.
type step struct {
	key   string
	index int
}

// parsePath splits "a.b[0][1].c" into hops.
func parsePath(path string) ([]step, error) {
	if path == "" {
		return nil, fmt.Errorf("空路径")
	}
	var steps []step
	for _, segment := range strings.Split(path, ".") {
		name, rest, _ := strings.Cut(segment, "[")
		if name == "" && rest == "" {
			return nil, fmt.Errorf("路径 %q 含空段", path)
		}
		if name != "" {
			steps = append(steps, step{key: name})
		}
		if rest == "" {
			continue
		}
		for _, idx := range strings.Split(strings.TrimSuffix(rest, "]"), "][") {
			i, err := strconv.Atoi(idx)
			if err != nil || i < 0 {
				return nil, fmt.Errorf("路径 %q 的下标 %q 无效", path, idx)
			}
			steps = append(steps, step{index: i})
		}
	}
	return steps, nil
}

// lookup walks data along path. Maps are keyed by string; lists by index.
func lookup(data any, path []step) (any, bool) {
	current := data
	for _, s := range path {
		var ok bool
		if s.key != "" {
			current, ok = child(current, s.key)
		} else {
			current, ok = item(current, s.index)
		}
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func child(current any, key string) (any, bool) {
	switch c := current.(type) {
	case map[string]any:
		v, ok := c[key]
		return v, ok
	case map[string]string:
		v, ok := c[key]
		return v, ok
	}
	return nil, false
}

func item(current any, idx int) (any, bool) {
	switch c := current.(type) {
	case []any:
		if idx < len(c) {
			return c[idx], true
		}
	case []string:
		if idx < len(c) {
			return c[idx], true
		}
	}
	return nil, false
}

// format 以最短形式输出数值，避免 200 显示为 200.000000。
func format(val any) string {
	if f, ok := val.(float64); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return fmt.Sprint(val)
}
