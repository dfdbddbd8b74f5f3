package layout

import (
	"fmt"
	"math"
	"strings"

	"github.com/ByLCY/boleto/binding"
)

const defaultFontSizePt = 12.0

var defaultTextColor = Color{R: 30, G: 30, B: 30}

// composeTextBox binds content against data and splits it into lines with
// the typesetter. The returned height is the sum of line heights and
// leading.
func (b *builder) composeTextBox(style string, attrs map[string]string, content string, x, y, width float64, data any, wrap string) (TextBox, float64, error) {
	attrs = b.mergeStyle(style, attrs)
	fontName := attrs["font"]
	if fontName == "" {
		fontName = style
	}
	if fontName == "" {
		fontName = "Body"
	}
	if data != nil {
		content = binding.Interpolate(content, data)
	}

	fontSize := parseLength(attrs["size"])
	if fontSize <= 0 {
		fontSize = defaultFontSizePt * PtToMm
	}
	lineHeight := ParseLineHeight(attrs["line-height"]).Resolve(fontSize)

	font, err := b.resolveFontResource(fontName)
	if err != nil {
		return TextBox{}, 0, err
	}
	lines, err := b.layoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return TextBox{}, 0, err
	}

	total := 0.0
	leading := math.Max(lineHeight-fontSize, 0)
	for i := range lines {
		if lines[i].Height <= 0 {
			lines[i].Height = fontSize
		}
		switch {
		case i == 0:
			lines[i].GapBefore = 0
		case lines[i].GapBefore <= 0:
			lines[i].GapBefore = leading
		}
		total += lines[i].GapBefore + lines[i].Height
	}

	return TextBox{
		Content:    content,
		X:          x,
		Y:          y,
		Width:      width,
		LineHeight: lineHeight,
		Font:       fontName,
		FontSize:   fontSize,
		Color:      resolveColor(attrs["color"], b.res, defaultTextColor),
		Lines:      lines,
		Height:     total,
		Align:      normalizeAlign(attrs["align"]),
		Wrap:       wrap,
	}, total, nil
}

// resolveFontResource falls back to Body and then to any declared font.
func (b *builder) resolveFontResource(name string) (FontResource, error) {
	if font, ok := b.res.Fonts[name]; ok {
		return font, nil
	}
	if font, ok := b.res.Fonts["Body"]; ok {
		return font, nil
	}
	for _, font := range b.res.Fonts {
		return font, nil
	}
	return FontResource{}, fmt.Errorf("font %s is not defined and no default font exists", name)
}

func (b *builder) layoutLines(content string, width float64, font FontResource, fontSize, lineHeight float64, wrap string) ([]TextLine, error) {
	if strings.TrimSpace(content) == "" && !strings.Contains(content, "\n") {
		return []TextLine{{Content: "", Width: 0, Height: fontSize}}, nil
	}
	lines, err := b.typesetter.LayoutLines(content, width, font, fontSize, lineHeight, wrap)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		lines = []TextLine{{Content: "", Width: 0, Height: fontSize}}
	}
	lines[0].GapBefore = 0
	return lines, nil
}
