// Package htmlrenderer exports layout results as HTML pages: texts as
// absolutely positioned blocks, shapes as inline SVG and images through an
// ImageHandler.
package htmlrenderer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"math"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/svg"
	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/ByLCY/boleto/layout"
	"github.com/ByLCY/boleto/renderer"
)

const (
	DefaultCharacterEncoding = "ISO-8859-1"
	DefaultZoomRatio         = 1.3

	pxPerMM = 96 / 25.4
)

var (
	ErrEmptyResult     = errors.New("html: nothing to render")
	ErrInvalidEncoding = errors.New("html: unsupported character encoding")
	ErrInvalidZoom     = errors.New("html: zoom ratio must be a positive finite number")
)

// Options configures an Exporter. Zero values take the defaults.
type Options struct {
	CharacterEncoding string
	ZoomRatio         float64
	ImageHandler      ImageHandler
	Minify            bool
	// Title overrides the document meta title.
	Title  string
	Assets *renderer.Assets
	Logger *zap.Logger
}

// Exporter writes layout results as HTML.
type Exporter struct {
	opts     Options
	encoding encoding.Encoding
	minifier *minify.M
	log      *zap.Logger
}

var (
	_ renderer.Renderer = (*Exporter)(nil)
	_ renderer.Exporter = (*Exporter)(nil)
)

// New validates opts and returns an exporter.
func New(opts Options) (*Exporter, error) {
	if opts.CharacterEncoding == "" {
		opts.CharacterEncoding = DefaultCharacterEncoding
	}
	if opts.ZoomRatio == 0 {
		opts.ZoomRatio = DefaultZoomRatio
	}
	if opts.ZoomRatio < 0 || math.IsNaN(opts.ZoomRatio) || math.IsInf(opts.ZoomRatio, 0) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidZoom, opts.ZoomRatio)
	}
	if opts.ImageHandler == nil {
		opts.ImageHandler = InlineImages{}
	}
	if opts.Assets == nil {
		opts.Assets = renderer.NewAssets("")
	}
	enc, err := htmlindex.Get(opts.CharacterEncoding)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidEncoding, opts.CharacterEncoding)
	}
	e := &Exporter{opts: opts, encoding: enc, log: opts.Logger}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if opts.Minify {
		e.minifier = newMinifier()
	}
	return e, nil
}

func newMinifier() *minify.M {
	m := minify.New()
	m.Add("text/html", &html.Minifier{KeepDocumentTags: true, KeepEndTags: true, KeepQuotes: true})
	m.AddFunc("text/css", css.Minify)
	m.AddFunc("image/svg+xml", svg.Minify)
	return m
}

// Render returns the encoded HTML document.
func (e *Exporter) Render(result *layout.Result) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Export(&buf, result); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Export writes the HTML document to w in the configured encoding. Runes the
// encoding cannot represent become numeric character references.
func (e *Exporter) Export(w io.Writer, result *layout.Result) error {
	if result == nil || len(result.Pages) == 0 {
		return ErrEmptyResult
	}
	view, err := e.documentView(result)
	if err != nil {
		return err
	}
	var page bytes.Buffer
	if err := documentTemplate.Execute(&page, view); err != nil {
		return fmt.Errorf("execute html template: %w", err)
	}
	out := page.Bytes()
	if e.minifier != nil {
		if out, err = e.minifier.Bytes("text/html", out); err != nil {
			return fmt.Errorf("minify html: %w", err)
		}
	}
	if err := e.write(w, out); err != nil {
		return err
	}
	e.log.Debug("html exported",
		zap.Int("pages", len(result.Pages)),
		zap.String("encoding", e.opts.CharacterEncoding),
		zap.Int("bytes", len(out)),
	)
	return nil
}

func (e *Exporter) write(w io.Writer, utf8 []byte) error {
	if strings.EqualFold(e.opts.CharacterEncoding, "utf-8") || strings.EqualFold(e.opts.CharacterEncoding, "utf8") {
		_, err := w.Write(utf8)
		return err
	}
	enc := encoding.HTMLEscapeUnsupported(e.encoding.NewEncoder())
	encoded, err := enc.Bytes(utf8)
	if err != nil {
		return fmt.Errorf("encode html as %s: %w", e.opts.CharacterEncoding, err)
	}
	_, err = w.Write(encoded)
	return err
}

var documentTemplate = template.Must(template.New("document").Parse(documentHTML))

const documentHTML = `<!DOCTYPE html>
<html>
<head>
<meta http-equiv="Content-Type" content="text/html; charset={{.Charset}}">
<title>{{.Title}}</title>
<style type="text/css">
body{margin:0;padding:0;background:#e8e8e8}
.page{position:relative;overflow:hidden;margin:0 auto 8px auto;background:#fff;page-break-after:always}
.page:last-child{page-break-after:auto}
.t{position:absolute;margin:0;white-space:pre;overflow:visible}
.i{position:absolute}
.s{position:absolute;left:0;top:0}
@media print{body{background:#fff}.page{margin:0}}
</style>
</head>
<body>
{{range .Pages}}<div class="page" style="{{.Style}}">
<svg class="s" xmlns="http://www.w3.org/2000/svg" width="{{.Width}}" height="{{.Height}}">
{{- range .Rects}}
<rect x="{{.X}}" y="{{.Y}}" width="{{.Width}}" height="{{.Height}}" fill="{{.Fill}}" stroke="{{.Stroke}}" stroke-width="{{.StrokeWidth}}"/>
{{- end}}
{{- range .Circles}}
<circle cx="{{.CX}}" cy="{{.CY}}" r="{{.R}}" fill="{{.Fill}}" stroke="{{.Stroke}}" stroke-width="{{.StrokeWidth}}"/>
{{- end}}
{{- range .Lines}}
<line x1="{{.X1}}" y1="{{.Y1}}" x2="{{.X2}}" y2="{{.Y2}}" stroke="{{.Stroke}}" stroke-width="{{.StrokeWidth}}"{{if .Dash}} stroke-dasharray="{{.Dash}}"{{end}}/>
{{- end}}
</svg>
{{- range .Texts}}
<div class="t" style="{{.Style}}">{{.Content}}</div>
{{- end}}
{{- range .Images}}
<img class="i" src="{{.Src}}" style="{{.Style}}" alt="">
{{- end}}
</div>
{{end}}</body>
</html>
`
