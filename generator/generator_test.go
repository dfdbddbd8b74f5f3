package generator_test

import (
	"bytes"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/boleto/boleto"
	"github.com/ByLCY/boleto/generator"
	"github.com/ByLCY/boleto/imagestore"
)

func sampleBoleto() *boleto.Boleto {
	return &boleto.Boleto{
		Bank: "237",
		Beneficiary: boleto.Beneficiary{
			Name:      "Loja Exemplo Ltda",
			Document:  "12345678000195",
			Agency:    "1234",
			Account:   "12345",
			Wallet:    "09",
			OurNumber: "1",
		},
		Payer: boleto.Payer{
			Name:     "Fulano de Tal",
			Document: "12345678909",
			Address:  boleto.Address{Street: "Rua A, 10", City: "Recife", State: "PE"},
		},
		Dates: boleto.Dates{
			Document: boleto.NewDate(2025, time.March, 1),
			Due:      boleto.NewDate(2025, time.March, 10),
		},
		Amount:         decimal.RequireFromString("100.00"),
		DocumentNumber: "NF-123",
		Instructions:   []string{"Não receber após o vencimento."},
	}
}

func digitableLine(t *testing.T, b *boleto.Boleto) string {
	t.Helper()
	line, err := boleto.DigitableLine(b)
	require.NoError(t, err)
	return line
}

var imageRef = regexp.MustCompile(`image=((?:barcode|pix|logo)-[0-9a-f]{16})"`)

// imageRefs lists the image ids a streamed page points at, in page order.
func imageRefs(page string) []string {
	var ids []string
	for _, m := range imageRef.FindAllStringSubmatch(page, -1) {
		ids = append(ids, m[1])
	}
	return ids
}

func TestHTMLIsSelfContained(t *testing.T) {
	b := sampleBoleto()
	out, err := generator.New(b).HTML()
	require.NoError(t, err)

	page := string(out)
	assert.Contains(t, page, "charset=ISO-8859-1")
	assert.Contains(t, page, `src="data:image/png;base64,`)
	assert.NotContains(t, page, "stella-boleto?image=")
	assert.Contains(t, page, digitableLine(t, b))
	assert.Contains(t, page, "237-2")
	assert.Contains(t, page, "Recibo do Pagador")
	assert.Contains(t, page, "100,00")
	assert.Contains(t, page, "10/03/2025")
	assert.Contains(t, page, "stroke-dasharray")
	// latin-1 bytes, not UTF-8
	assert.True(t, bytes.Contains(out, []byte("N\xe3o receber")))
}

func TestHTMLOnePageRunPerBoleto(t *testing.T) {
	second := sampleBoleto()
	second.Payer.Name = "Beltrana"
	out, err := generator.New(sampleBoleto(), second).HTML()
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(string(out), `<div class="page"`))
	assert.Contains(t, string(out), "Beltrana")
}

func TestHTMLFileWritesImagesBesideThePage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boleto.html")
	require.NoError(t, generator.New(sampleBoleto()).HTMLFile(path))

	page, err := os.ReadFile(path)
	require.NoError(t, err)
	m := regexp.MustCompile(`src="boleto_files/(barcode-[0-9a-f]{16})\.png"`).FindStringSubmatch(string(page))
	require.Len(t, m, 2, "barcode image reference")

	img, err := os.ReadFile(filepath.Join(dir, "boleto_files", m[1]+".png"))
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")))
	assert.Equal(t, generator.ImageID("barcode", img), m[1])
}

func TestWriteHTMLHandsImagesToSink(t *testing.T) {
	b := sampleBoleto()
	b.Pix = "00020126580014br.gov.bcb.pix0136123e4567-e12b-12d1-a456-4266554400005204000053039865802BR5913Fulano de Tal6008BRASILIA62070503***63041D3D"
	g, err := generator.New(b).With(generator.WithImagesURI("/img?image="))
	require.NoError(t, err)

	var got map[string][]byte
	var buf bytes.Buffer
	require.NoError(t, g.WriteHTML(&buf, func(images map[string][]byte) error {
		got = images
		return nil
	}))
	require.Len(t, got, 2)
	for id, data := range got {
		kind := id[:strings.IndexByte(id, '-')]
		assert.Equal(t, generator.ImageID(kind, data), id)
		assert.Contains(t, buf.String(), `src="/img?image=`+id+`"`)
	}
	assert.Len(t, imageRefs(buf.String()), 2)

	sinkErr := errors.New("store down")
	buf.Reset()
	err = g.WriteHTML(&buf, func(map[string][]byte) error { return sinkErr })
	assert.ErrorIs(t, err, sinkErr)
	assert.Zero(t, buf.Len())
}

func TestServeHTMLStoresImagesPerSession(t *testing.T) {
	store := imagestore.NewMemoryStore()
	g := generator.New(sampleBoleto())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boleto", nil)
	require.NoError(t, g.ServeHTML(rec, req, store))

	assert.Equal(t, "text/html; charset=ISO-8859-1", rec.Header().Get("Content-Type"))
	ids := imageRefs(rec.Body.String())
	require.Len(t, ids, 1)
	assert.Contains(t, rec.Body.String(), `src="stella-boleto?image=`+ids[0]+`"`)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	require.Equal(t, imagestore.SessionCookie, cookies[0].Name)

	imgReq := httptest.NewRequest(http.MethodGet, "/stella-boleto?image="+ids[0], nil)
	imgReq.AddCookie(cookies[0])
	imgRec := httptest.NewRecorder()
	imagestore.Handler(store, nil).ServeHTTP(imgRec, imgReq)
	assert.Equal(t, http.StatusOK, imgRec.Code)
	assert.Equal(t, "image/png", imgRec.Header().Get("Content-Type"))

	assert.Error(t, g.ServeHTML(httptest.NewRecorder(), req, nil))
}

func TestServeHTMLKeepsEachRenderImagesApart(t *testing.T) {
	store := imagestore.NewMemoryStore()
	cheap := sampleBoleto()
	dear := sampleBoleto()
	dear.Amount = decimal.RequireFromString("999.99")

	first := httptest.NewRecorder()
	require.NoError(t, generator.New(cheap).ServeHTML(first, httptest.NewRequest(http.MethodGet, "/boleto", nil), store))
	cookie := first.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/boleto", nil)
	req.AddCookie(cookie)
	second := httptest.NewRecorder()
	require.NoError(t, generator.New(dear).ServeHTML(second, req, store))
	assert.Empty(t, second.Result().Cookies(), "session is reused")

	firstIDs, secondIDs := imageRefs(first.Body.String()), imageRefs(second.Body.String())
	require.Len(t, firstIDs, 1)
	require.Len(t, secondIDs, 1)
	assert.NotEqual(t, firstIDs[0], secondIDs[0])

	// both renders stay servable in the shared session
	for _, id := range []string{firstIDs[0], secondIDs[0]} {
		data, err := store.Get(req.Context(), cookie.Value, id)
		require.NoError(t, err)
		assert.Equal(t, generator.ImageID("barcode", data), id)
	}
}

func TestPDF(t *testing.T) {
	out, err := generator.New(sampleBoleto()).PDF()
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	path := filepath.Join(t.TempDir(), "boleto.pdf")
	require.NoError(t, generator.New(sampleBoleto()).PDFFile(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestChargedAmount(t *testing.T) {
	b := sampleBoleto()
	b.Discount = decimal.RequireFromString("10")
	b.Penalty = decimal.RequireFromString("2.5")
	g, err := generator.New(b).With(generator.WithCharacterEncoding("UTF-8"))
	require.NoError(t, err)
	out, err := g.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(out), ">92,50</div>")
	assert.Contains(t, string(out), ">10,00</div>")
}

func TestZoomAndMinify(t *testing.T) {
	g, err := generator.New(sampleBoleto()).With(generator.WithZoomRatio(1))
	require.NoError(t, err)
	plain, err := g.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(plain), "width:793.70px;height:1122.52px")

	g, err = generator.New(sampleBoleto()).With(generator.WithZoomRatio(1), generator.WithMinify(true))
	require.NoError(t, err)
	small, err := g.HTML()
	require.NoError(t, err)
	assert.Less(t, len(small), len(plain))
}

func TestSetParameter(t *testing.T) {
	g := generator.New(sampleBoleto())
	require.NoError(t, g.SetParameter(generator.CharacterEncoding, "UTF-8"))
	require.NoError(t, g.SetParameter(generator.ZoomRatio, "2"))
	require.NoError(t, g.SetParameter(generator.ZoomRatio, 1))
	for _, zoom := range []any{int64(2), int32(2), uint(2), uint8(2), float32(1.5)} {
		assert.NoError(t, g.SetParameter(generator.ZoomRatio, zoom), "%T", zoom)
	}
	require.NoError(t, g.SetParameter(generator.ImagesURI, "/images?image="))

	for _, tc := range []struct {
		p generator.Parameter
		v any
	}{
		{generator.CharacterEncoding, "klingon"},
		{generator.CharacterEncoding, 8859},
		{generator.ZoomRatio, -1.0},
		{generator.ZoomRatio, "big"},
		{generator.ZoomRatio, math.NaN()},
		{generator.ZoomRatio, math.Inf(1)},
		{generator.ZoomRatio, "NaN"},
		{generator.ZoomRatio, nil},
		{generator.ImagesURI, ""},
		{generator.Parameter("OTHER"), "x"},
	} {
		assert.ErrorIs(t, g.SetParameter(tc.p, tc.v), generator.ErrInvalidParameter, "%s=%v", tc.p, tc.v)
	}

	_, err := generator.New().With(generator.WithImageTTL(0))
	assert.ErrorIs(t, err, generator.ErrInvalidParameter)
}

func TestWithLeavesReceiverUnchanged(t *testing.T) {
	base := generator.New(sampleBoleto())
	_, err := base.With(generator.WithZoomRatio(1), generator.WithCharacterEncoding("klingon"))
	require.ErrorIs(t, err, generator.ErrInvalidParameter)

	scaled, err := base.With(generator.WithZoomRatio(1))
	require.NoError(t, err)
	assert.NotSame(t, base, scaled)

	after, err := base.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(after), "width:1031.81px")
	assert.NotContains(t, string(after), "width:793.70px")

	out, err := scaled.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "width:793.70px")
}

func TestErrorsAreGenerationErrors(t *testing.T) {
	_, err := generator.New().HTML()
	var gerr *generator.GenerationError
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, "html", gerr.Op)
	assert.ErrorIs(t, err, generator.ErrNoBoletos)

	bad := sampleBoleto()
	bad.Bank = "999"
	_, err = generator.New(bad).PDF()
	require.ErrorAs(t, err, &gerr)
	assert.ErrorIs(t, err, boleto.ErrUnknownBank)

	_, err = generator.New(sampleBoleto(), nil).HTML()
	assert.ErrorAs(t, err, &gerr)
	assert.ErrorContains(t, err, "boleto 2")
}

func TestNewWithTemplate(t *testing.T) {
	tpl := `doc Custom v1 {
  page A5 margin 10mm {
    text Body { "${params.greeting}, ${payer.name}" }
    text Body { "${digitableLine}" }
    image src "${images.barcode}" width 103mm height 13mm
  }
}`
	g, err := generator.NewWithTemplate(strings.NewReader(tpl), map[string]any{"greeting": "Olá"}, sampleBoleto())
	require.NoError(t, err)
	g, err = g.With(generator.WithCharacterEncoding("UTF-8"))
	require.NoError(t, err)

	out, err := g.HTML()
	require.NoError(t, err)
	assert.Contains(t, string(out), "Olá, Fulano de Tal")

	res, err := g.Layout()
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.InDelta(t, 148.0, res.Pages[0].Width, 1e-9)

	var gerr *generator.GenerationError
	_, err = generator.NewWithTemplate(nil, nil)
	assert.ErrorAs(t, err, &gerr)
	_, err = generator.NewWithTemplate(strings.NewReader("doc {"), nil)
	assert.ErrorAs(t, err, &gerr)
	assert.ErrorContains(t, err, "template")
}

func TestDefaultTemplateParses(t *testing.T) {
	assert.Contains(t, generator.DefaultTemplate(), "doc Boleto v1")
	res, err := generator.New(sampleBoleto()).Layout()
	require.NoError(t, err)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, "Boleto Bancário", res.Meta.Title)
	assert.Equal(t, "Loja Exemplo Ltda", res.Meta.Author)
	require.NotEmpty(t, res.Pages[0].Images)
	last := res.Pages[0].Images[len(res.Pages[0].Images)-1].Path
	assert.Regexp(t, `^built-in:barcode-[0-9a-f]{16}$`, last)
}
