package layout

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/ByLCY/boleto/dsl"
)

// parseArgs reads `[Style] key value key value ...`. When allowStyle is set
// a leading identifier followed by complete pairs is taken as a style name.
func parseArgs(args []*dsl.Lexeme, allowStyle bool) (string, map[string]string) {
	result := map[string]string{}
	if len(args) == 0 {
		return "", result
	}
	cursor := 0
	var style string
	if allowStyle && len(args)%2 == 1 && args[0].Type == "Ident" {
		style = args[0].Value
		cursor = 1
	}
	for ; cursor < len(args)-1; cursor += 2 {
		result[args[cursor].Value] = args[cursor+1].Value
	}
	return style, result
}

// attributes parses args and applies the style named by the style attribute
// (or the leading identifier when allowStyle is set).
func (b *builder) attributes(args []*dsl.Lexeme, allowStyle bool) map[string]string {
	style, attrs := parseArgs(args, allowStyle)
	return b.mergeStyle(style, attrs)
}

// mergeStyle layers inline attributes over the props of style. An empty
// style falls back to the inline style attribute.
func (b *builder) mergeStyle(style string, inline map[string]string) map[string]string {
	if style == "" {
		style = inline["style"]
	}
	out := map[string]string{}
	if s, ok := b.res.Styles[style]; ok {
		maps.Copy(out, s.Props)
	}
	maps.Copy(out, inline)
	return out
}

func extractText(block *dsl.Block) string {
	if block == nil {
		return ""
	}
	var sb strings.Builder
	for _, stmt := range block.Statements {
		if stmt.Text != nil {
			sb.WriteString(string(stmt.Text.Value))
		}
	}
	return sb.String()
}

func valueToString(val *dsl.Value) string {
	switch {
	case val == nil:
		return ""
	case val.String != nil:
		return string(*val.String)
	case val.Number != nil:
		return *val.Number
	case val.Color != nil:
		return *val.Color
	case val.Expr != nil:
		var sb strings.Builder
		for _, part := range val.Expr.Parts {
			sb.WriteString(part.Value)
		}
		return sb.String()
	}
	return ""
}

func valueToStringSlice(val *dsl.Value) []string {
	if val == nil {
		return nil
	}
	if val.Array == nil {
		if s := valueToString(val); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(val.Array.Values))
	for _, item := range val.Array.Values {
		if s := valueToString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// resolveColor accepts a declared color name or a hex literal.
func resolveColor(value string, res ResourceSet, fallback Color) Color {
	if value == "" {
		return fallback
	}
	if c, ok := res.Colors[value]; ok {
		return c
	}
	if strings.HasPrefix(value, "#") {
		if c, err := parseColor(value); err == nil {
			return c
		}
	}
	return fallback
}

func parseColor(value string) (Color, error) {
	hex := strings.TrimPrefix(value, "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 && len(hex) != 8 {
		return Color{}, fmt.Errorf("invalid color %q", value)
	}
	var rgb [3]int
	for i := range rgb {
		v, err := strconv.ParseUint(hex[2*i:2*i+2], 16, 8)
		if err != nil {
			return Color{}, fmt.Errorf("invalid color %q", value)
		}
		rgb[i] = int(v)
	}
	return Color{R: rgb[0], G: rgb[1], B: rgb[2]}, nil
}

func alignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch normalizeAlign(align) {
	case "center":
		return (container - width) / 2
	case "right":
		return container - width
	}
	return 0
}

// normalizeAlign maps start/end/middle onto left/right/center; anything
// else yields "".
func normalizeAlign(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "start":
		return "left"
	case "center", "middle":
		return "center"
	case "right", "end":
		return "right"
	}
	return ""
}

func normalizeWrap(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "break-word", "word-break:break-word":
		return "break-word"
	case "nowrap", "no-wrap":
		return "nowrap"
	case "normal":
		return "normal"
	}
	return "anywhere"
}

func hasAny(attrs map[string]string, keys ...string) bool {
	for _, k := range keys {
		if _, ok := attrs[k]; ok {
			return true
		}
	}
	return false
}
