package htmlrenderer_test

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/boleto/layout"
	"github.com/ByLCY/boleto/renderer"
	htmlrenderer "github.com/ByLCY/boleto/renderer/html"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 2))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func sampleResult(text string) *layout.Result {
	return &layout.Result{
		Meta: layout.DocumentMeta{Title: "Boleto"},
		Resources: layout.ResourceSet{Fonts: map[string]layout.FontResource{
			"Body": {Name: "Body", Src: "embed:sans"},
		}},
		Pages: []layout.Page{{
			Width:  210,
			Height: 297,
			Elements: layout.Elements{
				Texts: []layout.TextBox{{
					Content:  text,
					X:        10,
					Y:        10,
					Width:    100,
					Font:     "Body",
					FontSize: 3.5,
					Lines:    []layout.TextLine{{Content: text, Width: 20, Height: 4}},
				}},
				Images: []layout.ImageBox{
					{Path: "built-in:barcode", X: 10, Y: 30, Width: 100, Height: 13},
					{Path: "built-in:barcode", X: 10, Y: 60, Width: 100, Height: 13},
				},
				Lines: []layout.Line{{X1: 0, Y1: 50, X2: 190, Y2: 50, Dash: 1}},
				Rects: []layout.Rect{{X: 0, Y: 0, Width: 190, Height: 20}},
			},
		}},
	}
}

func newExporter(t *testing.T, opts htmlrenderer.Options) *htmlrenderer.Exporter {
	t.Helper()
	if opts.Assets == nil {
		opts.Assets = renderer.NewAssets("")
		opts.Assets.AddImage("barcode", pngBytes(t))
	}
	e, err := htmlrenderer.New(opts)
	require.NoError(t, err)
	return e
}

func TestExportInlinesImages(t *testing.T) {
	out, err := newExporter(t, htmlrenderer.Options{CharacterEncoding: "UTF-8"}).Render(sampleResult("Sacado"))
	require.NoError(t, err)

	page := string(out)
	assert.Contains(t, page, `src="data:image/png;base64,`)
	assert.Contains(t, page, "charset=UTF-8")
	assert.Contains(t, page, "<title>Boleto</title>")
	assert.Contains(t, page, ">Sacado</div>")
	assert.Contains(t, page, `stroke-dasharray=`)
}

func TestExportURIImagesCollectsOncePerReference(t *testing.T) {
	images := htmlrenderer.NewURIImages("stella-boleto?image=")
	out, err := newExporter(t, htmlrenderer.Options{ImageHandler: images}).Render(sampleResult("x"))
	require.NoError(t, err)

	assert.Equal(t, 2, strings.Count(string(out), `src="stella-boleto?image=barcode"`))
	collected := images.Images()
	require.Len(t, collected, 1)
	assert.Equal(t, pngBytes(t), collected["barcode"])
}

func TestExportDirImagesWritesFiles(t *testing.T) {
	dir := t.TempDir()
	handler := htmlrenderer.DirImages{Dir: filepath.Join(dir, "boleto_files"), URIPrefix: "boleto_files/"}
	out, err := newExporter(t, htmlrenderer.Options{ImageHandler: handler}).Render(sampleResult("x"))
	require.NoError(t, err)

	assert.Contains(t, string(out), `src="boleto_files/barcode.png"`)
	data, err := os.ReadFile(filepath.Join(dir, "boleto_files", "barcode.png"))
	require.NoError(t, err)
	assert.Equal(t, pngBytes(t), data)
}

func TestExportLatin1EscapesUnsupportedRunes(t *testing.T) {
	out, err := newExporter(t, htmlrenderer.Options{}).Render(sampleResult("Ação ☃"))
	require.NoError(t, err)

	assert.Contains(t, string(out), "charset=ISO-8859-1")
	assert.True(t, bytes.Contains(out, []byte{'A', 0xe7, 0xe3, 'o'}), "ç and ã must be single latin-1 bytes")
	assert.Contains(t, string(out), "&#9731;")
}

func TestExportZoomScalesPixels(t *testing.T) {
	one, err := newExporter(t, htmlrenderer.Options{ZoomRatio: 1}).Render(sampleResult("x"))
	require.NoError(t, err)
	two, err := newExporter(t, htmlrenderer.Options{ZoomRatio: 2}).Render(sampleResult("x"))
	require.NoError(t, err)

	assert.Contains(t, string(one), "width:793.70px;height:1122.52px")
	assert.Contains(t, string(two), "width:1587.40px;height:2245.04px")
}

func TestExportMinify(t *testing.T) {
	plain, err := newExporter(t, htmlrenderer.Options{}).Render(sampleResult("Sacado"))
	require.NoError(t, err)
	small, err := newExporter(t, htmlrenderer.Options{Minify: true}).Render(sampleResult("Sacado"))
	require.NoError(t, err)

	assert.Less(t, len(small), len(plain))
	assert.Contains(t, string(small), "Sacado")
}

func TestExportTitleOverride(t *testing.T) {
	out, err := newExporter(t, htmlrenderer.Options{Title: "Segunda via"}).Render(sampleResult("x"))
	require.NoError(t, err)
	assert.Contains(t, string(out), "<title>Segunda via</title>")
}

func TestExportMissingImage(t *testing.T) {
	e := newExporter(t, htmlrenderer.Options{Assets: renderer.NewAssets("")})
	_, err := e.Render(sampleResult("x"))
	assert.ErrorIs(t, err, renderer.ErrAssetNotFound)
}

func TestExportEmptyResult(t *testing.T) {
	e := newExporter(t, htmlrenderer.Options{})
	_, err := e.Render(&layout.Result{})
	assert.ErrorIs(t, err, htmlrenderer.ErrEmptyResult)
}

func TestNewRejectsInvalidOptions(t *testing.T) {
	_, err := htmlrenderer.New(htmlrenderer.Options{CharacterEncoding: "klingon"})
	assert.ErrorIs(t, err, htmlrenderer.ErrInvalidEncoding)

	for _, zoom := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err = htmlrenderer.New(htmlrenderer.Options{ZoomRatio: zoom})
		assert.ErrorIs(t, err, htmlrenderer.ErrInvalidZoom, "zoom %v", zoom)
	}
}

func TestDataURI(t *testing.T) {
	uri := htmlrenderer.DataURI(pngBytes(t))
	assert.True(t, strings.HasPrefix(uri, "data:image/png;base64,iVBORw0KGgo"))
}
