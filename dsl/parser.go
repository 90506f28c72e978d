package dsl

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Separator divides the header from the script body. The body after it is kept verbatim.
const Separator = "---"

var (
	dslLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Whitespace", Pattern: `[ \t\r]+`},
		{Name: "Newline", Pattern: `\n+`},
		{Name: "BlockComment", Pattern: `/\*[^*]*\*+(?:[^/*][^*]*\*+)*/`},
		{Name: "LineComment", Pattern: `//[^\n]*`},
		{Name: "HashComment", Pattern: `#[^\n]*`},
		{Name: "Number", Pattern: `-?(?:\d+\.\d+|\d+)`},
		{Name: "String", Pattern: `"(?:\\.|[^"])*"`},
		{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_-]*`},
		{Name: "Symbol", Pattern: `[][:;,]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
	})

	headerParser = participle.MustBuild[Header](
		participle.Lexer(dslLexer),
		participle.Elide("Whitespace", "LineComment", "BlockComment", "HashComment"),
	)
)

// File is a parsed .prompt file: the header AST plus the verbatim script body.
type File struct {
	*Header
	Body string
}

// Header is the root AST node of the part before the separator line.
type Header struct {
	Pos     lexer.Position `parser:"" json:"-"`
	Title   StringLiteral  `parser:"Newline* 'prompt' @String"`
	Entries []*Entry       `parser:"'{' Newline* ( @@ ( ';' | Newline )* )* '}' Newline*"`
}

// Entry is one header statement: a settings assignment or the vars block.
type Entry struct {
	Vars       *InlineObject `parser:"  'vars' @@"`
	Assignment *Assignment   `parser:"| @@"`
}

// Assignment uses colon syntax (key: value).
type Assignment struct {
	Pos   lexer.Position `parser:"" json:"-"`
	Key   string         `parser:"@Ident"`
	Value *Value         `parser:"':' Newline* @@"`
}

// Value represents header and variable values.
type Value struct {
	String *StringLiteral `parser:"  @String"`
	Number *float64       `parser:"| @Number"`
	Ident  *string        `parser:"| @Ident"`
	Array  *ArrayValue    `parser:"| @@"`
	Object *InlineObject  `parser:"| @@"`
}

// ArrayValue captures `[ ... ]` expressions.
type ArrayValue struct {
	Values []*Value `parser:"'[' Newline* ( @@ ( ',' | ';' )? Newline* )* ']'"`
}

// InlineObject captures `{ key: value }` inline maps.
type InlineObject struct {
	Entries []*Assignment `parser:"'{' Newline* ( @@ ( ',' | ';' )? Newline* )* '}'"`
}

// StringLiteral unquotes Go-style strings on capture.
type StringLiteral string

// Capture implements participle.Capture.
func (s *StringLiteral) Capture(values []string) error {
	if len(values) == 0 {
		return fmt.Errorf("string literal capture requires value")
	}
	val, err := strconv.Unquote(values[0])
	if err != nil {
		return err
	}
	*s = StringLiteral(val)
	return nil
}

// Parse parses a .prompt file from an io.Reader.
func Parse(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("读取脚本文件失败: %w", err)
	}
	return ParseString(string(data))
}

// ParseString parses .prompt content from a string.
func ParseString(input string) (*File, error) {
	header, body, ok := split(input)
	if !ok {
		return nil, fmt.Errorf("脚本文件缺少 %q 分隔行", Separator)
	}
	h, err := headerParser.ParseString("", header)
	if err != nil {
		return nil, err
	}
	return &File{Header: h, Body: body}, nil
}

// split cuts input at the first line consisting only of the separator.
func split(input string) (header, body string, ok bool) {
	input = strings.ReplaceAll(input, "\r\n", "\n")
	rest := input
	offset := 0
	for {
		line, tail, more := strings.Cut(rest, "\n")
		if strings.TrimSpace(line) == Separator {
			header = input[:offset]
			if more {
				return header, tail, true
			}
			return header, "", true
		}
		if !more {
			return "", "", false
		}
		offset += len(line) + 1
		rest = tail
	}
}

// Lookup returns the first assignment with key, or nil.
func (h *Header) Lookup(key string) *Assignment {
	for _, e := range h.Entries {
		if e.Assignment != nil && e.Assignment.Key == key {
			return e.Assignment
		}
	}
	return nil
}

// VarsBlock returns the vars block, or nil when the header has none.
func (h *Header) VarsBlock() *InlineObject {
	for _, e := range h.Entries {
		if e.Vars != nil {
			return e.Vars
		}
	}
	return nil
}

// Interface converts v into plain Go values (string, float64, []any, map[string]any)
// for interpolation lookups.
func (v *Value) Interface() any {
	switch {
	case v == nil:
		return nil
	case v.String != nil:
		return string(*v.String)
	case v.Number != nil:
		return *v.Number
	case v.Ident != nil:
		return *v.Ident
	case v.Array != nil:
		out := make([]any, 0, len(v.Array.Values))
		for _, item := range v.Array.Values {
			out = append(out, item.Interface())
		}
		return out
	case v.Object != nil:
		return v.Object.Map()
	default:
		return nil
	}
}

// Text returns the value as a plain string for settings fields.
func (v *Value) Text() string {
	switch {
	case v == nil:
		return ""
	case v.String != nil:
		return string(*v.String)
	case v.Ident != nil:
		return *v.Ident
	case v.Number != nil:
		return strconv.FormatFloat(*v.Number, 'f', -1, 64)
	default:
		return ""
	}
}

// Map converts an inline object into a map.
func (o *InlineObject) Map() map[string]any {
	out := make(map[string]any, len(o.Entries))
	for _, a := range o.Entries {
		out[a.Key] = a.Value.Interface()
	}
	return out
}
