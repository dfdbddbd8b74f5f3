package boleto

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount as 1.234,56. Zero prints as an empty string
// when blankZero is set, which is how optional amounts appear on the slip.
func FormatMoney(v decimal.Decimal, blankZero bool) string {
	if blankZero && v.IsZero() {
		return ""
	}
	neg := v.IsNegative()
	s := v.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte('.')
		}
		sb.WriteRune(r)
	}
	sb.WriteByte(',')
	sb.WriteString(frac)
	return sb.String()
}

// FormatDocument formats an 11-digit CPF or a 14-digit CNPJ; anything else
// is returned unchanged.
func FormatDocument(doc string) string {
	d := onlyDigits(doc)
	switch len(d) {
	case 11:
		return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11]
	case 14:
		return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14]
	default:
		return doc
	}
}

// BankLabel appends the bank check digit to a 3-digit bank code, as printed
// in the slip header (237-2). Remainders giving 10 or 11 print as 0.
func BankLabel(code string) string {
	if len(code) != 3 || !isDigits(code) {
		return code
	}
	dv := 11 - mod11Remainder(code, 9)
	if dv > 9 {
		dv = 0
	}
	return code + "-" + strconv.Itoa(dv)
}
