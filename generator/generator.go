// Package generator turns boletos into printable documents. Each boleto is
// bound into a layout template, laid out on its own pages and exported as
// HTML (standalone, to disk or streamed with served images) or PDF.
package generator

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ByLCY/boleto/binding"
	"github.com/ByLCY/boleto/boleto"
	"github.com/ByLCY/boleto/dsl"
	"github.com/ByLCY/boleto/imagestore"
	"github.com/ByLCY/boleto/layout"
	canvasrenderer "github.com/ByLCY/boleto/renderer/canvas"
	htmlrenderer "github.com/ByLCY/boleto/renderer/html"
)

//go:embed templates/boleto.papyrus
var defaultTemplate string

var defaultDocument = sync.OnceValues(func() (*dsl.Document, error) {
	return dsl.ParseNamed("boleto.papyrus", strings.NewReader(defaultTemplate))
})

// DefaultTemplate returns the source of the built-in boleto layout.
func DefaultTemplate() string { return defaultTemplate }

var defaultParams = map[string]any{
	"title":  "Boleto Bancário",
	"footer": "",
}

// ImageSink receives the images referenced by a streamed page, keyed by the
// id used in the image URI.
type ImageSink func(images map[string][]byte) error

// Generator renders a fixed list of boletos. It is not safe for concurrent
// configuration changes; rendering methods may run concurrently once the
// generator is configured.
type Generator struct {
	boletos []*boleto.Boleto
	doc     *dsl.Document
	docErr  error
	params  map[string]any

	encoding  string
	zoom      float64
	imagesURI string
	minify    bool
	imageTTL  time.Duration

	log        *zap.Logger
	typesetter *canvasrenderer.Renderer
}

// New returns a generator using the built-in template.
func New(boletos ...*boleto.Boleto) *Generator {
	doc, err := defaultDocument()
	g := newGenerator(doc, nil, boletos)
	g.docErr = err
	return g
}

// NewWithTemplate returns a generator using the template read from tpl.
// params are available to the template under ${params.<name>}.
func NewWithTemplate(tpl io.Reader, params map[string]any, boletos ...*boleto.Boleto) (*Generator, error) {
	if tpl == nil {
		return nil, fail("parse template", errors.New("template is required"))
	}
	doc, err := dsl.ParseNamed("template", tpl)
	if err != nil {
		return nil, fail("parse template", err)
	}
	return newGenerator(doc, params, boletos), nil
}

func newGenerator(doc *dsl.Document, params map[string]any, boletos []*boleto.Boleto) *Generator {
	log := zap.NewNop()
	return &Generator{
		boletos:    boletos,
		doc:        doc,
		params:     binding.Merge(defaultParams, params),
		encoding:   DefaultCharacterEncoding,
		zoom:       DefaultZoomRatio,
		imagesURI:  DefaultImagesURI,
		imageTTL:   imagestore.DefaultTTL,
		log:        log,
		typesetter: canvasrenderer.New(canvasrenderer.Options{Logger: log}),
	}
}

// With returns a copy of g with opts applied. g itself is left unchanged,
// also when an option fails.
func (g *Generator) With(opts ...Option) (*Generator, error) {
	c := *g
	for _, opt := range opts {
		if err := opt(&c); err != nil {
			return nil, err
		}
	}
	c.typesetter = canvasrenderer.New(canvasrenderer.Options{Logger: c.log})
	return &c, nil
}

// HTML returns a self-contained page with every image inlined as a data URI.
func (g *Generator) HTML() ([]byte, error) {
	var buf bytes.Buffer
	if err := g.exportHTML(&buf, htmlrenderer.InlineImages{}); err != nil {
		return nil, fail("html", err)
	}
	return buf.Bytes(), nil
}

// HTMLFile writes the page to path and its images to a sibling
// <name>_files directory referenced by relative URIs.
func (g *Generator) HTMLFile(path string) error {
	dirName := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)) + "_files"
	handler := htmlrenderer.DirImages{
		Dir:       filepath.Join(filepath.Dir(path), dirName),
		URIPrefix: dirName + "/",
	}
	var buf bytes.Buffer
	if err := g.exportHTML(&buf, handler); err != nil {
		return fail("html file", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fail("html file", err)
	}
	return nil
}

// WriteHTML streams the page to w with images referenced through the images
// URI. The images are handed to sink before anything is written.
func (g *Generator) WriteHTML(w io.Writer, sink ImageSink) error {
	images := htmlrenderer.NewURIImages(g.imagesURI)
	var buf bytes.Buffer
	if err := g.exportHTML(&buf, images); err != nil {
		return fail("html stream", err)
	}
	if sink != nil {
		if err := sink(images.Images()); err != nil {
			return fail("html stream", fmt.Errorf("store images: %w", err))
		}
	}
	if _, err := w.Write(buf.Bytes()); err != nil {
		return fail("html stream", err)
	}
	return nil
}

// ServeHTML writes the page as an HTTP response. Its images are saved in
// store under the caller's print session so imagestore.Handler can serve
// them.
func (g *Generator) ServeHTML(w http.ResponseWriter, r *http.Request, store imagestore.Store) error {
	if store == nil {
		return fail("html response", errors.New("image store is required"))
	}
	session := imagestore.EnsureSession(w, r)
	w.Header().Set("Content-Type", "text/html; charset="+g.encoding)
	return g.WriteHTML(w, func(images map[string][]byte) error {
		return store.Save(r.Context(), session, images, g.imageTTL)
	})
}

// PDF renders the boletos as a PDF document.
func (g *Generator) PDF() ([]byte, error) {
	in, res, err := g.layout()
	if err != nil {
		return nil, fail("pdf", err)
	}
	out, err := g.typesetter.WithAssets(in.assets).Render(res)
	if err != nil {
		return nil, fail("pdf", err)
	}
	g.log.Info("boletos rendered", zap.String("format", "pdf"), zap.Int("boletos", len(g.boletos)), zap.Int("pages", len(res.Pages)))
	return out, nil
}

// PDFFile writes the PDF document to path.
func (g *Generator) PDFFile(path string) error {
	out, err := g.PDF()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fail("pdf file", err)
	}
	return nil
}

// Layout runs the layout pass alone, for debugging templates.
func (g *Generator) Layout() (*layout.Result, error) {
	_, res, err := g.layout()
	if err != nil {
		return nil, fail("layout", err)
	}
	return res, nil
}

func (g *Generator) exportHTML(w io.Writer, images htmlrenderer.ImageHandler) error {
	in, res, err := g.layout()
	if err != nil {
		return err
	}
	exporter, err := htmlrenderer.New(htmlrenderer.Options{
		CharacterEncoding: g.encoding,
		ZoomRatio:         g.zoom,
		ImageHandler:      images,
		Minify:            g.minify,
		Assets:            in.assets,
		Logger:            g.log,
	})
	if err != nil {
		return err
	}
	if err := exporter.Export(w, res); err != nil {
		return err
	}
	g.log.Info("boletos rendered", zap.String("format", "html"), zap.Int("boletos", len(g.boletos)), zap.Int("pages", len(res.Pages)))
	return nil
}

func (g *Generator) layout() (*input, *layout.Result, error) {
	if g.docErr != nil {
		return nil, nil, fmt.Errorf("built-in template: %w", g.docErr)
	}
	in, err := g.prepare()
	if err != nil {
		return nil, nil, err
	}
	res, err := layout.BuildAll(g.doc, in.items, layout.BuildOptions{Typesetter: g.typesetter, Logger: g.log})
	if err != nil {
		return nil, nil, err
	}
	return in, res, nil
}
