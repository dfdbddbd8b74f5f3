package canvasrenderer

import (
	"strings"
	"unicode"

	"github.com/ByLCY/boleto/layout"
)

// wrapLines splits content into lines no wider than limit, as measured by
// measure. Explicit newlines always break, and an empty paragraph yields a
// blank line. Modes:
//
//	anywhere   break at whitespace, split words longer than a line
//	break-word break between any two runes
//	nowrap     break only at newlines
func wrapLines(content string, limit float64, measure func(string) float64, mode string) []layout.TextLine {
	if limit <= 0 {
		mode = "nowrap"
	}
	content = strings.ReplaceAll(content, "\r", "")
	var lines []layout.TextLine
	emit := func(s string) {
		lines = append(lines, layout.TextLine{Content: s, Width: measure(s)})
	}
	for _, para := range strings.Split(content, "\n") {
		switch mode {
		case "nowrap":
			emit(para)
		case "break-word":
			for _, s := range splitRunes(para, limit, measure) {
				emit(s)
			}
		default:
			for _, s := range wrapWords(para, limit, measure) {
				emit(s)
			}
		}
	}
	return lines
}

// wrapWords fills lines greedily with whitespace-separated tokens. Spaces at
// a break are dropped.
func wrapWords(para string, limit float64, measure func(string) float64) []string {
	var out []string
	var line strings.Builder
	width := 0.0
	flush := func() {
		out = append(out, strings.TrimRightFunc(line.String(), unicode.IsSpace))
		line.Reset()
		width = 0
	}
	for _, tok := range tokenize(para) {
		tw := measure(tok)
		space := strings.TrimSpace(tok) == ""
		if line.Len() > 0 && width+tw > limit {
			flush()
		}
		if space && line.Len() == 0 && len(out) > 0 {
			continue
		}
		if tw <= limit || space {
			line.WriteString(tok)
			width += tw
			continue
		}
		for _, chunk := range splitRunes(tok, limit, measure) {
			cw := measure(chunk)
			if line.Len() > 0 && width+cw > limit {
				flush()
			}
			line.WriteString(chunk)
			width += cw
		}
	}
	if line.Len() > 0 || len(out) == 0 {
		flush()
	}
	return out
}

// splitRunes cuts s into chunks no wider than limit. A single rune wider
// than limit still forms its own chunk.
func splitRunes(s string, limit float64, measure func(string) float64) []string {
	if s == "" {
		return []string{""}
	}
	var out []string
	var chunk []rune
	for _, r := range s {
		if len(chunk) > 0 && measure(string(append(chunk, r))) > limit {
			out = append(out, string(chunk))
			chunk = chunk[:0]
		}
		chunk = append(chunk, r)
	}
	return append(out, string(chunk))
}

// tokenize splits s into alternating runs of whitespace and non-whitespace.
func tokenize(s string) []string {
	var tokens []string
	var b strings.Builder
	lastSpace := false
	for _, r := range s {
		space := unicode.IsSpace(r)
		if b.Len() > 0 && space != lastSpace {
			tokens = append(tokens, b.String())
			b.Reset()
		}
		lastSpace = space
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		tokens = append(tokens, b.String())
	}
	return tokens
}
