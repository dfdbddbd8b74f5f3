package htmlrenderer

import (
	"fmt"
	"html/template"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ByLCY/boleto/layout"
	"github.com/ByLCY/boleto/renderer"
)

const (
	defaultStrokeWidth = 0.2
	tableBorderWidth   = 0.2
)

type documentView struct {
	Charset string
	Title   string
	Pages   []pageView
}

type pageView struct {
	Width, Height string
	Style         template.CSS
	Texts         []textView
	Images        []imageView
	Lines         []lineView
	Rects         []rectView
	Circles       []circleView
}

type textView struct {
	Content string
	Style   template.CSS
}

type imageView struct {
	Src   template.URL
	Style template.CSS
}

type lineView struct {
	X1, Y1, X2, Y2      string
	Stroke, StrokeWidth string
	Dash                string
}

type rectView struct {
	X, Y, Width, Height string
	Fill, Stroke        string
	StrokeWidth         string
}

type circleView struct {
	CX, CY, R    string
	Fill, Stroke string
	StrokeWidth  string
}

// pageBuilder converts one result into view models. Image sources are
// resolved once per reference.
type pageBuilder struct {
	e       *Exporter
	fonts   map[string]layout.FontResource
	sources map[string]template.URL
}

func (e *Exporter) documentView(result *layout.Result) (documentView, error) {
	title := e.opts.Title
	if title == "" {
		title = result.Meta.Title
	}
	view := documentView{Charset: e.opts.CharacterEncoding, Title: title}
	b := &pageBuilder{e: e, fonts: result.Resources.Fonts, sources: map[string]template.URL{}}
	for i, page := range result.Pages {
		pv, err := b.page(page)
		if err != nil {
			return documentView{}, fmt.Errorf("page %d: %w", i+1, err)
		}
		view.Pages = append(view.Pages, pv)
	}
	return view, nil
}

// px converts millimetres to CSS pixels at 96 dpi scaled by the zoom ratio.
func (e *Exporter) px(mm float64) float64 {
	return mm * pxPerMM * e.opts.ZoomRatio
}

func (e *Exporter) pxs(mm float64) string {
	return strconv.FormatFloat(e.px(mm), 'f', 2, 64)
}

func (b *pageBuilder) page(page layout.Page) (pageView, error) {
	e := b.e
	pv := pageView{
		Width:  e.pxs(page.Width),
		Height: e.pxs(page.Height),
		Style:  template.CSS(fmt.Sprintf("width:%spx;height:%spx", e.pxs(page.Width), e.pxs(page.Height))),
	}
	for _, el := range []layout.Elements{page.Header.Elements, page.Elements, page.Footer.Elements} {
		if err := b.elements(&pv, el); err != nil {
			return pageView{}, err
		}
	}
	return pv, nil
}

func (b *pageBuilder) elements(pv *pageView, el layout.Elements) error {
	e := b.e
	for _, ln := range el.Lines {
		lv := lineView{
			X1: e.pxs(ln.X1), Y1: e.pxs(ln.Y1), X2: e.pxs(ln.X2), Y2: e.pxs(ln.Y2),
			Stroke:      cssColor(ln.Color),
			StrokeWidth: e.pxs(strokeOrDefault(ln.Width)),
		}
		if ln.Dash > 0 {
			lv.Dash = e.pxs(ln.Dash) + " " + e.pxs(ln.Dash)
		}
		pv.Lines = append(pv.Lines, lv)
	}
	for _, rc := range el.Rects {
		pv.Rects = append(pv.Rects, rectView{
			X: e.pxs(rc.X), Y: e.pxs(rc.Y), Width: e.pxs(rc.Width), Height: e.pxs(rc.Height),
			Fill:        fill(rc.FillColor),
			Stroke:      cssColor(rc.StrokeColor),
			StrokeWidth: e.pxs(strokeOrDefault(rc.StrokeWidth)),
		})
	}
	for _, c := range el.Circles {
		pv.Circles = append(pv.Circles, circleView{
			CX: e.pxs(c.CX), CY: e.pxs(c.CY), R: e.pxs(c.R),
			Fill:        fill(c.FillColor),
			Stroke:      cssColor(c.StrokeColor),
			StrokeWidth: e.pxs(strokeOrDefault(c.StrokeWidth)),
		})
	}
	for _, tb := range el.Texts {
		pv.Texts = append(pv.Texts, b.textLines(tb)...)
	}
	for _, box := range el.Images {
		if box.Path == "" {
			continue
		}
		src, err := b.imageSource(box.Path)
		if err != nil {
			return err
		}
		style := fmt.Sprintf("left:%spx;top:%spx", e.pxs(box.X), e.pxs(box.Y))
		if box.Width > 0 {
			style += fmt.Sprintf(";width:%spx", e.pxs(box.Width))
		}
		if box.Height > 0 {
			style += fmt.Sprintf(";height:%spx", e.pxs(box.Height))
		}
		if box.Opacity > 0 && box.Opacity < 1 {
			style += ";opacity:" + strconv.FormatFloat(box.Opacity, 'f', 2, 64)
		}
		pv.Images = append(pv.Images, imageView{Src: src, Style: template.CSS(style)})
	}
	for _, table := range el.Tables {
		if len(table.ColumnWidths) == 0 {
			continue
		}
		for _, row := range table.Rows {
			x := table.X
			for idx, cell := range row.Cells {
				colWidth := table.ColumnWidths[min(idx, len(table.ColumnWidths)-1)]
				background := "#ffffff"
				if row.IsHeader {
					background = "#f8f8f8"
				}
				pv.Rects = append(pv.Rects, rectView{
					X: e.pxs(x), Y: e.pxs(row.Y), Width: e.pxs(colWidth), Height: e.pxs(row.Height),
					Fill:        background,
					Stroke:      cssColor(table.BorderColor),
					StrokeWidth: e.pxs(tableBorderWidth),
				})
				pv.Texts = append(pv.Texts, b.textLines(cell.Text)...)
				x += colWidth
			}
		}
	}
	return nil
}

// textLines emits one positioned block per laid out line so the browser
// does not re-wrap the text.
func (b *pageBuilder) textLines(tb layout.TextBox) []textView {
	e := b.e
	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}
	font := fontCSS(renderer.FontFor(tb.Font, b.fonts))
	align := tb.Align
	if align == "" {
		align = "left"
	}
	out := make([]textView, 0, len(lines))
	y := tb.Y
	for _, line := range lines {
		y += line.GapBefore
		h := line.Height
		if h <= 0 {
			h = tb.FontSize
		}
		style := fmt.Sprintf("left:%spx;top:%spx;width:%spx;height:%spx;line-height:%spx;font-size:%spx;color:%s;text-align:%s;%s",
			e.pxs(tb.X), e.pxs(y), e.pxs(tb.Width), e.pxs(h), e.pxs(h), e.pxs(tb.FontSize), cssColor(tb.Color), align, font)
		out = append(out, textView{Content: line.Content, Style: template.CSS(style)})
		y += h
	}
	return out
}

func (b *pageBuilder) imageSource(ref string) (template.URL, error) {
	if src, ok := b.sources[ref]; ok {
		return src, nil
	}
	data, err := b.e.opts.Assets.Image(ref)
	if err != nil {
		return "", err
	}
	id := imageID(ref)
	src, err := b.e.opts.ImageHandler.HandleImage(id, data)
	if err != nil {
		return "", fmt.Errorf("handle image %s: %w", id, err)
	}
	b.sources[ref] = template.URL(src)
	return b.sources[ref], nil
}

// imageID names an image after its built-in name or its file name.
func imageID(ref string) string {
	if name, ok := renderer.BuiltinName(ref); ok {
		return name
	}
	return filepath.Base(ref)
}

func fontCSS(font layout.FontResource) string {
	family := "Latin Modern Sans"
	generic := "sans-serif"
	src := strings.ToLower(font.Src)
	if strings.Contains(src, "mono") {
		family, generic = "Latin Modern Mono", "monospace"
	}
	if font.Family != "" {
		family = font.Family
	}
	css := fmt.Sprintf("font-family:'%s',Arial,%s", strings.ReplaceAll(family, "'", ""), generic)
	style := strings.ToLower(font.Style)
	if strings.Contains(style, "bold") || strings.HasSuffix(src, "-bold") {
		css += ";font-weight:bold"
	}
	if strings.Contains(style, "italic") {
		css += ";font-style:italic"
	}
	return css
}

func strokeOrDefault(w float64) float64 {
	if w <= 0 {
		return defaultStrokeWidth
	}
	return w
}

func cssColor(c layout.Color) string {
	return fmt.Sprintf("#%02x%02x%02x", clamp(c.R), clamp(c.G), clamp(c.B))
}

func fill(c *layout.Color) string {
	if c == nil {
		return "none"
	}
	return cssColor(*c)
}

func clamp(v int) int {
	return max(0, min(v, 255))
}
