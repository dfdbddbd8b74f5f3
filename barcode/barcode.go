// Package barcode renders the machine-readable symbols printed on a boleto:
// the Interleaved 2 of 5 barcode and the PIX QR code of hybrid boletos.
package barcode

import (
	"bytes"
	"errors"
	"fmt"
	"image/png"
	"strings"

	bb "github.com/boombuler/barcode"
	"github.com/boombuler/barcode/twooffive"
	skipqrcode "github.com/skip2/go-qrcode"
)

var (
	ErrEmptyContent = errors.New("barcode: conteúdo vazio")
	ErrInvalidSize  = errors.New("barcode: dimensões inválidas")
)

const (
	// FEBRABAN symbol size: 103mm x 13mm. At 4 px/mm this keeps every narrow
	// bar at least one pixel wide for the 44-digit code.
	DefaultITFWidth  = 412
	DefaultITFHeight = 52

	defaultQRSize = 256
)

// ITF encodes digits as an Interleaved 2 of 5 PNG scaled to width x height.
func ITF(digits string, width, height int) ([]byte, error) {
	if strings.TrimSpace(digits) == "" {
		return nil, ErrEmptyContent
	}
	if width <= 0 {
		width = DefaultITFWidth
	}
	if height <= 0 {
		height = DefaultITFHeight
	}
	code, err := twooffive.Encode(digits, true)
	if err != nil {
		return nil, fmt.Errorf("codificar ITF: %w", err)
	}
	if width < code.Bounds().Dx() {
		return nil, fmt.Errorf("largura %d menor que %d módulos: %w", width, code.Bounds().Dx(), ErrInvalidSize)
	}
	scaled, err := bb.Scale(code, width, height)
	if err != nil {
		return nil, fmt.Errorf("redimensionar ITF: %w", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, scaled); err != nil {
		return nil, fmt.Errorf("codificar PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// QRCode renders payload (a PIX "copia e cola" string) as a PNG QR code.
func QRCode(payload string, size int) ([]byte, error) {
	if strings.TrimSpace(payload) == "" {
		return nil, ErrEmptyContent
	}
	if size <= 0 {
		size = defaultQRSize
	}
	data, err := skipqrcode.Encode(payload, skipqrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("gerar QR code: %w", err)
	}
	return data, nil
}
