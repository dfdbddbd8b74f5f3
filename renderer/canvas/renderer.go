// Package canvasrenderer typesets text and renders layout results to PDF
// with github.com/tdewolff/canvas.
package canvasrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"math"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"
	"go.uber.org/zap"

	"github.com/ByLCY/boleto/fonts"
	"github.com/ByLCY/boleto/layout"
	"github.com/ByLCY/boleto/renderer"
)

const defaultStrokeWidth = 0.2

var ErrEmptyResult = errors.New("canvas: nothing to render")

// Renderer measures text for the layout pass and draws PDF pages.
type Renderer struct {
	assets *renderer.Assets
	log    *zap.Logger
	fonts  *fontCache
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ renderer.Exporter = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures a Renderer.
type Options struct {
	Assets *renderer.Assets
	Logger *zap.Logger
}

// New creates a renderer. Nil assets resolve only built-in fonts.
func New(opts Options) *Renderer {
	r := &Renderer{assets: opts.Assets, log: opts.Logger, fonts: newFontCache()}
	if r.assets == nil {
		r.assets = renderer.NewAssets("")
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}
	return r
}

// NewRenderer creates a renderer resolving relative paths against baseDir.
func NewRenderer(baseDir string) *Renderer {
	return New(Options{Assets: renderer.NewAssets(baseDir)})
}

// WithAssets returns a renderer drawing images from assets. The font cache
// is shared with r.
func (r *Renderer) WithAssets(assets *renderer.Assets) *Renderer {
	return &Renderer{assets: assets, log: r.log, fonts: r.fonts}
}

// Render renders the result into a PDF byte slice.
func (r *Renderer) Render(result *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Export(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export writes the result as PDF to w.
func (r *Renderer) Export(w io.Writer, result *layout.Result) error {
	if result == nil || len(result.Pages) == 0 {
		return ErrEmptyResult
	}
	writer := pdf.New(w, result.Pages[0].Width, result.Pages[0].Height, nil)
	meta := result.Meta
	writer.SetInfo(meta.Title, meta.Subject, strings.Join(meta.Keywords, ", "), meta.Author, meta.Creator)

	for i, page := range result.Pages {
		if i > 0 {
			writer.NewPage(page.Width, page.Height)
		}
		c := canvas.New(page.Width, page.Height)
		ctx := canvas.NewContext(c)
		ctx.SetCoordSystem(canvas.CartesianIV)
		for _, el := range []layout.Elements{page.Header.Elements, page.Elements, page.Footer.Elements} {
			if err := r.drawElements(ctx, el, result.Resources.Fonts); err != nil {
				return fmt.Errorf("page %d: %w", i+1, err)
			}
		}
		c.RenderTo(writer)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	r.log.Debug("pdf rendered", zap.Int("pages", len(result.Pages)))
	return nil
}

// LayoutLines implements layout.Typesetter. Sizes are millimetres; faces
// are created in points.
func (r *Renderer) LayoutLines(content string, width float64, font layout.FontResource, fontSize, lineHeight float64, wrap string) ([]layout.TextLine, error) {
	face, err := r.fontFace(font, fontSize*layout.MmToPt, layout.Color{})
	if err != nil {
		return nil, err
	}
	lines := wrapLines(content, width, face.TextWidth, wrap)

	textHeight := face.Metrics().LineHeight
	if textHeight <= 0 {
		textHeight = lineHeight
	}
	leading := math.Max(lineHeight-textHeight, 0)
	for i := range lines {
		lines[i].Height = textHeight
		if i > 0 {
			lines[i].GapBefore = leading
		}
	}
	return lines, nil
}

// drawElements paints shapes first so text and images stay on top.
func (r *Renderer) drawElements(ctx *canvas.Context, el layout.Elements, declared map[string]layout.FontResource) error {
	drawLines(ctx, el.Lines)
	drawRects(ctx, el.Rects)
	drawCircles(ctx, el.Circles)
	for _, tb := range el.Texts {
		if err := r.drawTextBox(ctx, tb, renderer.FontFor(tb.Font, declared)); err != nil {
			return err
		}
	}
	if err := r.drawImages(ctx, el.Images); err != nil {
		return err
	}
	return r.drawTables(ctx, el.Tables, declared)
}

func (r *Renderer) drawTextBox(ctx *canvas.Context, tb layout.TextBox, font layout.FontResource) error {
	face, err := r.fontFace(font, tb.FontSize*layout.MmToPt, tb.Color)
	if err != nil {
		return err
	}
	lines := tb.Lines
	if len(lines) == 0 {
		lines = []layout.TextLine{{Content: tb.Content, Width: tb.Width, Height: tb.LineHeight}}
	}

	align, anchorX := canvas.Left, tb.X
	switch tb.Align {
	case "center":
		align, anchorX = canvas.Center, tb.X+tb.Width/2
	case "right":
		align, anchorX = canvas.Right, tb.X+tb.Width
	}

	ascent := face.Metrics().Ascent
	y := tb.Y
	for _, line := range lines {
		y += line.GapBefore
		ctx.DrawText(anchorX, y+ascent, canvas.NewTextLine(face, line.Content, align))
		h := line.Height
		if h <= 0 {
			h = tb.FontSize
		}
		y += h
	}
	return nil
}

func (r *Renderer) drawImages(ctx *canvas.Context, images []layout.ImageBox) error {
	for _, box := range images {
		if box.Path == "" {
			continue
		}
		data, err := r.assets.Image(box.Path)
		if err != nil {
			return err
		}
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("decode image %s: %w", box.Path, err)
		}
		width := box.Width
		if width <= 0 {
			width = float64(img.Bounds().Dx()) / 4
		}
		dpmm := float64(img.Bounds().Dx()) / width
		if dpmm <= 0 {
			dpmm = 1
		}
		ctx.DrawImage(box.X, box.Y, img, canvas.DPMM(dpmm))
	}
	return nil
}

func (r *Renderer) drawTables(ctx *canvas.Context, tables []layout.TableBox, declared map[string]layout.FontResource) error {
	for _, table := range tables {
		if len(table.ColumnWidths) == 0 {
			continue
		}
		for _, row := range table.Rows {
			x := table.X
			for idx, cell := range row.Cells {
				colWidth := table.ColumnWidths[min(idx, len(table.ColumnWidths)-1)]
				fill := canvas.White
				if row.IsHeader {
					fill = canvas.Hex("#f8f8f8")
				}
				ctx.SetFillColor(fill)
				ctx.SetStrokeColor(toColor(table.BorderColor))
				ctx.SetStrokeWidth(defaultStrokeWidth)
				ctx.SetDashes(0)
				ctx.DrawPath(x, row.Y, canvas.Rectangle(colWidth, row.Height))

				if err := r.drawTextBox(ctx, cell.Text, renderer.FontFor(cell.Text.Font, declared)); err != nil {
					return err
				}
				x += colWidth
			}
		}
	}
	return nil
}

func drawLines(ctx *canvas.Context, lines []layout.Line) {
	for _, ln := range lines {
		ctx.SetStrokeColor(toColor(ln.Color))
		ctx.SetStrokeWidth(strokeOrDefault(ln.Width))
		if ln.Dash > 0 {
			ctx.SetDashes(0, ln.Dash, ln.Dash)
		} else {
			ctx.SetDashes(0)
		}
		p := &canvas.Path{}
		p.MoveTo(0, 0)
		p.LineTo(ln.X2-ln.X1, ln.Y2-ln.Y1)
		ctx.DrawPath(ln.X1, ln.Y1, p)
	}
	ctx.SetDashes(0)
}

func drawRects(ctx *canvas.Context, rects []layout.Rect) {
	for _, rc := range rects {
		ctx.SetFillColor(fillColor(rc.FillColor))
		ctx.SetStrokeColor(toColor(rc.StrokeColor))
		ctx.SetStrokeWidth(strokeOrDefault(rc.StrokeWidth))
		ctx.DrawPath(rc.X, rc.Y, canvas.Rectangle(rc.Width, rc.Height))
	}
}

func drawCircles(ctx *canvas.Context, circles []layout.Circle) {
	for _, c := range circles {
		ctx.SetFillColor(fillColor(c.FillColor))
		ctx.SetStrokeColor(toColor(c.StrokeColor))
		ctx.SetStrokeWidth(strokeOrDefault(c.StrokeWidth))
		ctx.DrawPath(c.CX-c.R, c.CY-c.R, canvas.Circle(c.R))
	}
}

func strokeOrDefault(w float64) float64 {
	if w <= 0 {
		return defaultStrokeWidth
	}
	return w
}

func fillColor(c *layout.Color) color.Color {
	if c == nil {
		return color.RGBA{}
	}
	return toColor(*c)
}

func toColor(c layout.Color) color.Color {
	return canvas.RGBA(float64(c.R)/255, float64(c.G)/255, float64(c.B)/255, 1)
}

type fontFamilyEntry struct {
	family *canvas.FontFamily
	style  canvas.FontStyle
}

// fontCache keeps loaded families keyed by name, source and style.
type fontCache struct {
	mu       sync.Mutex
	families map[string]fontFamilyEntry
	fallback *canvas.FontFamily
}

func newFontCache() *fontCache {
	return &fontCache{families: map[string]fontFamilyEntry{}}
}

func (r *Renderer) fontFace(font layout.FontResource, sizePt float64, col layout.Color) (*canvas.FontFace, error) {
	entry, err := r.fontFamily(font)
	if err != nil {
		return nil, err
	}
	return entry.family.Face(sizePt, toColor(col), entry.style, canvas.FontNormal), nil
}

// fontFamily loads font once. A font that cannot be loaded is replaced by
// its fallback source and then by the embedded sans.
func (r *Renderer) fontFamily(font layout.FontResource) (fontFamilyEntry, error) {
	key := font.Name + "|" + font.Src + "|" + font.Style
	fc := r.fonts
	fc.mu.Lock()
	defer fc.mu.Unlock()

	if entry, ok := fc.families[key]; ok {
		return entry, nil
	}
	style := parseFontStyle(font.Style)
	name := font.Family
	if name == "" {
		name = font.Name
	}
	family := canvas.NewFontFamily(name)

	err := r.loadFont(family, font.Src, style)
	if err != nil && font.Fallback != "" {
		err = r.loadFont(family, font.Fallback, style)
	}
	if err != nil {
		r.log.Warn("font unavailable, using embedded sans", zap.String("font", font.Name), zap.Error(err))
		fallback, fbErr := fc.fallbackFamily()
		if fbErr != nil {
			return fontFamilyEntry{}, errors.Join(err, fbErr)
		}
		entry := fontFamilyEntry{family: fallback, style: canvas.FontRegular}
		fc.families[key] = entry
		return entry, nil
	}
	entry := fontFamilyEntry{family: family, style: style}
	fc.families[key] = entry
	return entry, nil
}

func (r *Renderer) loadFont(family *canvas.FontFamily, src string, style canvas.FontStyle) error {
	data, err := r.assets.Font(src)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, style)
}

// fallbackFamily must be called with mu held.
func (fc *fontCache) fallbackFamily() (*canvas.FontFamily, error) {
	if fc.fallback != nil {
		return fc.fallback, nil
	}
	data, err := fonts.Load("sans")
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("boleto-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	fc.fallback = family
	return family, nil
}

func parseFontStyle(style string) canvas.FontStyle {
	s := strings.ToLower(style)
	result := canvas.FontRegular
	switch {
	case s == "":
		return result
	case strings.Contains(s, "black"):
		result = canvas.FontBlack
	case strings.Contains(s, "extrabold"):
		result = canvas.FontExtraBold
	case strings.Contains(s, "semibold"), strings.Contains(s, "demibold"):
		result = canvas.FontSemiBold
	case strings.Contains(s, "bold"):
		result = canvas.FontBold
	case strings.Contains(s, "medium"):
		result = canvas.FontMedium
	case strings.Contains(s, "light"):
		result = canvas.FontLight
	}
	if strings.Contains(s, "italic") || strings.Contains(s, "oblique") {
		result |= canvas.FontItalic
	}
	return result
}
