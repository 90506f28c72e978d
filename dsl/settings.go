package dsl

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/ByLCY/prompter/binding"
	"github.com/ByLCY/prompter/fonts"
	"github.com/ByLCY/prompter/script"
)

// Header keys understood by Settings.
const (
	KeySpeed  = "speed"
	KeyFont   = "font"
	KeyMirror = "mirror"
	KeyFocus  = "focus"
)

// Vars returns the header variables as plain values, or an empty map.
func (h *Header) Vars() map[string]any {
	if vars := h.VarsBlock(); vars != nil {
		return vars.Map()
	}
	return map[string]any{}
}

// Settings resolves the header into teleprompter settings. The body is interpolated
// with the header vars, overridden by data when data is a map.
func (f *File) Settings(data any) (script.Settings, error) {
	s := script.Defaults()
	if title := strings.TrimSpace(string(f.Title)); title != "" {
		s.Title = title
	}
	for _, e := range f.Entries {
		a := e.Assignment
		if a == nil {
			continue
		}
		if err := apply(&s, a); err != nil {
			return script.Settings{}, fmt.Errorf("%s: %w", a.Pos, err)
		}
	}
	if err := s.Validate(); err != nil {
		return script.Settings{}, err
	}
	s.Script = binding.Interpolate(f.Body, mergeData(f.Vars(), data))
	return s, nil
}

func apply(s *script.Settings, a *Assignment) error {
	switch a.Key {
	case KeySpeed:
		if a.Value.Number == nil {
			return fmt.Errorf("speed 需要数值，实际为 %q", a.Value.Text())
		}
		s.Speed = *a.Value.Number
	case KeyFont:
		size, err := fonts.ParseSize(a.Value.Text())
		if err != nil {
			return err
		}
		s.FontSize = size
	case KeyMirror:
		on, err := parseSwitch(a.Value.Text())
		if err != nil {
			return err
		}
		s.MirrorMode = on
	case KeyFocus:
		on, err := parseSwitch(a.Value.Text())
		if err != nil {
			return err
		}
		s.ShowFocusLine = on
	default:
		return fmt.Errorf("未知的设置项 %q", a.Key)
	}
	return nil
}

func parseSwitch(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("无效的开关值 %q（应为 on/off）", v)
}

func mergeData(vars map[string]any, data any) any {
	extra, ok := data.(map[string]any)
	if !ok {
		if data != nil && len(vars) == 0 {
			return data
		}
		return vars
	}
	out := make(map[string]any, len(vars)+len(extra))
	for k, v := range vars {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// New builds a file from settings, keeping Script as the verbatim body.
func New(s script.Settings, vars map[string]any) *File {
	f := &File{Header: &Header{Title: StringLiteral(s.Title)}, Body: s.Script}
	speed := s.Speed
	f.Entries = []*Entry{
		{Assignment: &Assignment{Key: KeySpeed, Value: &Value{Number: &speed}}},
		{Assignment: identAssignment(KeyFont, string(s.FontSize))},
		{Assignment: identAssignment(KeyMirror, onOff(s.MirrorMode))},
		{Assignment: identAssignment(KeyFocus, onOff(s.ShowFocusLine))},
	}
	if len(vars) > 0 {
		obj := &InlineObject{}
		for _, k := range sortedKeys(vars) {
			obj.Entries = append(obj.Entries, &Assignment{Key: k, Value: valueOf(vars[k])})
		}
		f.Entries = append(f.Entries, &Entry{Vars: obj})
	}
	return f
}

// SetSpeed updates or appends the speed assignment.
func (h *Header) SetSpeed(speed float64) {
	if a := h.Lookup(KeySpeed); a != nil {
		a.Value = &Value{Number: &speed}
		return
	}
	h.Entries = append(h.Entries, &Entry{Assignment: &Assignment{Key: KeySpeed, Value: &Value{Number: &speed}}})
}

func identAssignment(key, v string) *Assignment {
	return &Assignment{Key: key, Value: &Value{Ident: &v}}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func valueOf(v any) *Value {
	switch t := v.(type) {
	case string:
		s := StringLiteral(t)
		return &Value{String: &s}
	case float64:
		return &Value{Number: &t}
	case int:
		n := float64(t)
		return &Value{Number: &n}
	case bool:
		s := strconv.FormatBool(t)
		return &Value{Ident: &s}
	case []any:
		arr := &ArrayValue{}
		for _, item := range t {
			arr.Values = append(arr.Values, valueOf(item))
		}
		return &Value{Array: arr}
	case map[string]any:
		obj := &InlineObject{}
		for _, k := range sortedKeys(t) {
			obj.Entries = append(obj.Entries, &Assignment{Key: k, Value: valueOf(t[k])})
		}
		return &Value{Object: obj}
	default:
		s := StringLiteral(fmt.Sprint(t))
		return &Value{String: &s}
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Format renders f back into .prompt syntax. Parsing the output yields an equivalent file.
func Format(f *File) string {
	var b strings.Builder
	fmt.Fprintf(&b, "prompt %s {\n", strconv.Quote(string(f.Title)))
	for _, e := range f.Entries {
		switch {
		case e.Assignment != nil:
			fmt.Fprintf(&b, "  %s: %s\n", e.Assignment.Key, formatValue(e.Assignment.Value))
		case e.Vars != nil:
			fmt.Fprintf(&b, "  vars %s\n", formatValue(&Value{Object: e.Vars}))
		}
	}
	b.WriteString("}\n")
	b.WriteString(Separator)
	b.WriteByte('\n')
	b.WriteString(f.Body)
	return b.String()
}

func formatValue(v *Value) string {
	switch {
	case v == nil:
		return `""`
	case v.String != nil:
		return strconv.Quote(string(*v.String))
	case v.Number != nil:
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	case v.Ident != nil:
		return *v.Ident
	case v.Array != nil:
		parts := make([]string, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			parts = append(parts, formatValue(item))
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case v.Object != nil:
		parts := make([]string, 0, len(v.Object.Entries))
		for _, a := range v.Object.Entries {
			parts = append(parts, a.Key+": "+formatValue(a.Value))
		}
		return "{ " + strings.Join(parts, ", ") + " }"
	default:
		return `""`
	}
}
