package generator

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ByLCY/boleto/barcode"
	"github.com/ByLCY/boleto/boleto"
	"github.com/ByLCY/boleto/renderer"
)

// input is what one layout pass needs: one data map per boleto and the
// images the maps refer to as built-in:<id>.
type input struct {
	items  []any
	assets *renderer.Assets
}

func (g *Generator) prepare() (*input, error) {
	if len(g.boletos) == 0 {
		return nil, ErrNoBoletos
	}
	in := &input{items: make([]any, 0, len(g.boletos)), assets: renderer.NewAssets("")}
	for i, b := range g.boletos {
		data, err := g.boletoData(b, in.assets)
		if err != nil {
			return nil, fmt.Errorf("boleto %d: %w", i+1, err)
		}
		in.items = append(in.items, data)
	}
	return in, nil
}

// boletoData computes the printed numbers of one boleto, renders its
// symbols into assets and returns the values the template binds.
func (g *Generator) boletoData(src *boleto.Boleto, assets *renderer.Assets) (map[string]any, error) {
	if err := boleto.Validate(src); err != nil {
		return nil, err
	}
	b := src.WithDefaults()
	bank, err := boleto.LookupBank(b.Bank)
	if err != nil {
		return nil, err
	}
	code, err := boleto.Barcode(&b)
	if err != nil {
		return nil, err
	}
	line, err := boleto.LineFromBarcode(code)
	if err != nil {
		return nil, err
	}

	images := map[string]any{}
	symbol, err := barcode.ITF(code, 0, 0)
	if err != nil {
		return nil, err
	}
	images["barcode"] = addImage(assets, "barcode", symbol)
	if b.Pix != "" {
		qr, err := barcode.QRCode(b.Pix, 0)
		if err != nil {
			return nil, err
		}
		images["pix"] = addImage(assets, "pix", qr)
	}
	title := bank.Name()
	if logo := bank.Logo(); len(logo) > 0 {
		images["logo"] = addImage(assets, "logo", logo)
		title = ""
	}

	return map[string]any{
		"bank": map[string]any{
			"code":  bank.Code(),
			"label": boleto.BankLabel(bank.Code()),
			"name":  bank.Name(),
			"title": title,
		},
		"beneficiary": map[string]any{
			"name":       b.Beneficiary.Name,
			"document":   boleto.FormatDocument(b.Beneficiary.Document),
			"address":    b.Beneficiary.Address.String(),
			"agencyCode": bank.AgencyAndCode(&b),
			"wallet":     b.Beneficiary.Wallet,
		},
		"payer": map[string]any{
			"name":     b.Payer.Name,
			"document": boleto.FormatDocument(b.Payer.Document),
			"address":  b.Payer.Address.String(),
		},
		"boleto": map[string]any{
			"documentNumber": b.DocumentNumber,
			"currency":       b.Currency,
			"documentKind":   b.DocumentKind,
			"acceptance":     b.Acceptance,
			"ourNumber":      bank.OurNumber(&b),
			"amount":         boleto.FormatMoney(b.Amount, false),
			"discount":       boleto.FormatMoney(b.Discount, true),
			"deduction":      boleto.FormatMoney(b.Deduction, true),
			"penalty":        boleto.FormatMoney(b.Penalty, true),
			"surcharge":      boleto.FormatMoney(b.Surcharge, true),
			"charged":        charged(&b),
			"due":            b.Dates.Due.String(),
			"documentDate":   b.Dates.Document.String(),
			"processingDate": b.Dates.Processing.String(),
			"instructions":   b.Instructions,
			"paymentPlace":   b.PaymentPlaces,
		},
		"barcode":       code,
		"digitableLine": line,
		"images":        images,
		"params":        g.params,
	}, nil
}

// addImage registers data under its ImageID and returns the built-in ref.
func addImage(assets *renderer.Assets, kind string, data []byte) string {
	name := ImageID(kind, data)
	assets.AddImage(name, data)
	return renderer.Builtin(name)
}

// ImageID names an image after its content: <kind>-<16 hex digits of its
// SHA-256>. Pages streamed in the same print session never share an id for
// different bytes, so a cached image URI always shows the right symbol.
func ImageID(kind string, data []byte) string {
	sum := sha256.Sum256(data)
	return kind + "-" + hex.EncodeToString(sum[:8])
}

// charged is left blank unless the slip carries an adjustment.
func charged(b *boleto.Boleto) string {
	if b.Discount.IsZero() && b.Deduction.IsZero() && b.Penalty.IsZero() && b.Surcharge.IsZero() {
		return ""
	}
	total := b.Amount.Sub(b.Discount).Sub(b.Deduction).Add(b.Penalty).Add(b.Surcharge)
	return boleto.FormatMoney(decimal.Max(total, decimal.Zero), false)
}
