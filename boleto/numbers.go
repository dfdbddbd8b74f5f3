package boleto

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	currencyCode    = "9" // Real
	barcodeLength   = 44
	lineCodeLength  = 47
	freeFieldLength = 25
	barcodeDVIndex  = 4
)

// Barcode returns the 44-digit barcode: bank(3) + currency(1) + DV(1) +
// due factor(4) + amount(10) + free field(25).
func Barcode(b *Boleto) (string, error) {
	bank, err := LookupBank(b.Bank)
	if err != nil {
		return "", err
	}
	factor, err := DueFactor(b.Dates.Due)
	if err != nil {
		return "", err
	}
	amount, err := b.amountInCents()
	if err != nil {
		return "", err
	}
	free, err := bank.FreeField(b)
	if err != nil {
		return "", err
	}
	if len(free) != freeFieldLength || !isDigits(free) {
		return "", fmt.Errorf("campo livre %q do banco %s: %w", free, bank.Code(), ErrInvalidBarcode)
	}
	body := bank.Code() + currencyCode + factor + amount + free
	dv := Mod11(body)
	return body[:barcodeDVIndex] + strconv.Itoa(dv) + body[barcodeDVIndex:], nil
}

// DigitableLine returns the formatted "linha digitável" of a boleto.
func DigitableLine(b *Boleto) (string, error) {
	code, err := Barcode(b)
	if err != nil {
		return "", err
	}
	return LineFromBarcode(code)
}

// LineFromBarcode converts a 44-digit barcode into its formatted
// digitable line.
func LineFromBarcode(code string) (string, error) {
	if len(code) != barcodeLength || !isDigits(code) {
		return "", fmt.Errorf("%q: %w", code, ErrInvalidBarcode)
	}
	free := code[19:44]
	f1 := code[0:4] + free[0:5]
	f2 := free[5:15]
	f3 := free[15:25]
	f1 += strconv.Itoa(Mod10(f1))
	f2 += strconv.Itoa(Mod10(f2))
	f3 += strconv.Itoa(Mod10(f3))
	return fmt.Sprintf("%s.%s %s.%s %s.%s %s %s",
		f1[:5], f1[5:], f2[:5], f2[5:], f3[:5], f3[5:], code[4:5], code[5:19]), nil
}

// BarcodeFromLine rebuilds the barcode from a digitable line, checking
// every field check digit and the general DV.
func BarcodeFromLine(line string) (string, error) {
	digits := onlyDigits(line)
	if len(digits) != lineCodeLength {
		return "", fmt.Errorf("%q: %w", line, ErrInvalidLineCode)
	}
	f1, f2, f3 := digits[0:10], digits[10:21], digits[21:32]
	for _, f := range []string{f1, f2, f3} {
		body, dv := f[:len(f)-1], f[len(f)-1:]
		if strconv.Itoa(Mod10(body)) != dv {
			return "", fmt.Errorf("dígito do campo %s: %w", f, ErrInvalidLineCode)
		}
	}
	var sb strings.Builder
	sb.WriteString(f1[0:4])
	sb.WriteString(digits[32:33])
	sb.WriteString(digits[33:47])
	sb.WriteString(f1[4:9])
	sb.WriteString(f2[0:10])
	sb.WriteString(f3[0:10])
	code := sb.String()
	if strconv.Itoa(Mod11(code[:4]+code[5:])) != code[4:5] {
		return "", fmt.Errorf("dígito geral de %q: %w", line, ErrInvalidLineCode)
	}
	return code, nil
}
