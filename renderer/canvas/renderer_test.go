package canvasrenderer

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"testing"

	"github.com/tdewolff/canvas"

	"github.com/ByLCY/boleto/dsl"
	"github.com/ByLCY/boleto/layout"
	"github.com/ByLCY/boleto/renderer"
)

var sans = layout.FontResource{Name: "Body", Src: "embed:sans"}

func TestLayoutLinesWrapsText(t *testing.T) {
	r := NewRenderer("")
	size := 12 * layout.PtToMm

	lines, err := r.LayoutLines("hello world again", 10, sans, size, size*1.2, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected wrapping into multiple lines, got %d", len(lines))
	}
	for _, ln := range lines {
		if ln.Width > 10+1e-6 {
			t.Fatalf("line %q exceeds the limit: %.4f", ln.Content, ln.Width)
		}
	}
}

// TestLayoutLinesLeading checks that the first line has no gap and the
// others carry max(lineHeight-textHeight, 0) above them.
func TestLayoutLinesLeading(t *testing.T) {
	r := NewRenderer("")
	size := 12 * layout.PtToMm
	lineHeight := size * 1.3

	lines, err := r.LayoutLines("longlonglong longlonglong longlonglong longlonglong", 40, sans, size, lineHeight, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) < 2 {
		t.Fatalf("expected multiple lines, got %d", len(lines))
	}

	textHeight := lines[0].Height
	if textHeight <= 0 {
		t.Fatalf("expected positive text height, got %.6f", textHeight)
	}
	if lines[0].GapBefore != 0 {
		t.Fatalf("first line GapBefore should be 0, got %.6f", lines[0].GapBefore)
	}
	wantGap := math.Max(lineHeight-textHeight, 0)
	for i, ln := range lines[1:] {
		if math.Abs(ln.GapBefore-wantGap) > 1e-6 {
			t.Fatalf("line %d: GapBefore %.6f, want %.6f", i+1, ln.GapBefore, wantGap)
		}
		if math.Abs(ln.Height-textHeight) > 1e-6 {
			t.Fatalf("line %d: Height %.6f, want %.6f", i+1, ln.Height, textHeight)
		}
	}
}

func TestMissingFontFallsBackToEmbeddedSans(t *testing.T) {
	r := NewRenderer("")
	lines, err := r.LayoutLines("abc", 100, layout.FontResource{Name: "Gone", Src: "built-in:gone"}, 4, 5, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(lines) != 1 || lines[0].Width <= 0 {
		t.Fatalf("expected one measured line, got %+v", lines)
	}
}

func TestRenderPDF(t *testing.T) {
	doc, err := dsl.ParseString(`doc Boleto v1 {
  meta {
    title: "Boleto ${n}"
  }
  page A4 margin 10mm {
    header { text Body { "Recibo" } }
    box x 0 y 0 width 60mm height 10mm label "Vencimento" {
      text Body align right { "10/03/2025" }
    }
    line x1 0 y1 20mm x2 190mm y2 20mm dash 1.5mm
    circle cx 5mm cy 30mm r 2mm fill #CCCCCC
    absolute y 40mm {
      image src "${barcode}" width 100mm height 12mm
    }
    table columns 2 {
      header { cell { "A" } cell { "B" } }
      row { cell { "1" } cell { "2" } }
    }
  }
}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	assets := renderer.NewAssets("")
	assets.AddImage("barcode-0", solidPNG(t, 40, 5))
	r := New(Options{Assets: assets})

	res, err := layout.Build(doc, map[string]any{"n": 1, "barcode": "built-in:barcode-0"}, layout.BuildOptions{Typesetter: r})
	if err != nil {
		t.Fatalf("layout failed: %v", err)
	}

	out, err := r.Render(res)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF")) {
		t.Fatalf("expected a PDF, got %q", out[:min(len(out), 16)])
	}

	var buf bytes.Buffer
	if err := r.Export(&buf, res); err != nil {
		t.Fatalf("export failed: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatalf("expected Export to write a PDF")
	}
}

func TestRenderMissingImage(t *testing.T) {
	r := NewRenderer("")
	res := &layout.Result{Pages: []layout.Page{{
		Width:    100,
		Height:   100,
		Elements: layout.Elements{Images: []layout.ImageBox{{Path: "built-in:nope", Width: 10, Height: 10}}},
	}}}
	if _, err := r.Render(res); !errors.Is(err, renderer.ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestRenderEmptyResult(t *testing.T) {
	if _, err := NewRenderer("").Render(&layout.Result{}); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
	if _, err := NewRenderer("").Render(nil); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult for nil, got %v", err)
	}
}

func TestWithAssetsSharesFontCache(t *testing.T) {
	r := NewRenderer("")
	other := r.WithAssets(renderer.NewAssets("x"))
	if r.fonts != other.fonts {
		t.Fatalf("WithAssets must share the font cache")
	}
}

func TestParseFontStyle(t *testing.T) {
	if got := parseFontStyle(""); got != canvas.FontRegular {
		t.Fatalf("expected regular, got %v", got)
	}
	if parseFontStyle("bold") != parseFontStyle("Bold") {
		t.Fatalf("style names must be case-insensitive")
	}
	if parseFontStyle("bold") == parseFontStyle("semibold") {
		t.Fatalf("bold and semibold must differ")
	}
	if parseFontStyle("bold") == parseFontStyle("bold italic") {
		t.Fatalf("italic must be kept")
	}
}

func solidPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.Black)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
