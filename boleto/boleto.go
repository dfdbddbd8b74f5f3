// Package boleto models Brazilian payment slips and computes the numbers
// printed on them: barcode, digitable line, due factor and bank specific
// "nosso número" formatting.
package boleto

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingDueDate  = errors.New("boleto: data de vencimento ausente")
	ErrInvalidDueDate  = errors.New("boleto: data de vencimento inválida")
	ErrInvalidAmount   = errors.New("boleto: valor inválido")
	ErrUnknownBank     = errors.New("boleto: banco não suportado")
	ErrInvalidField    = errors.New("boleto: campo inválido")
	ErrInvalidBarcode  = errors.New("boleto: código de barras inválido")
	ErrInvalidLineCode = errors.New("boleto: linha digitável inválida")
)

const (
	DefaultCurrency     = "R$"
	DefaultDocumentKind = "DM"
	DefaultAcceptance   = "N"

	maxInstructions  = 5
	maxPaymentPlaces = 2
)

// Boleto is one payment slip.
type Boleto struct {
	Bank           string          `json:"bank" yaml:"bank" validate:"required,len=3,numeric"`
	Beneficiary    Beneficiary     `json:"beneficiary" yaml:"beneficiary"`
	Payer          Payer           `json:"payer" yaml:"payer"`
	Dates          Dates           `json:"dates" yaml:"dates"`
	Amount         decimal.Decimal `json:"amount" yaml:"amount"`
	DocumentNumber string          `json:"documentNumber" yaml:"documentNumber" validate:"max=15"`
	Currency       string          `json:"currency,omitempty" yaml:"currency,omitempty"`
	DocumentKind   string          `json:"documentKind,omitempty" yaml:"documentKind,omitempty"`
	Acceptance     string          `json:"acceptance,omitempty" yaml:"acceptance,omitempty" validate:"omitempty,oneof=S N"`
	Instructions   []string        `json:"instructions,omitempty" yaml:"instructions,omitempty" validate:"max=5"`
	PaymentPlaces  []string        `json:"paymentPlaces,omitempty" yaml:"paymentPlaces,omitempty" validate:"max=2"`
	Discount       decimal.Decimal `json:"discount" yaml:"discount"`
	Deduction      decimal.Decimal `json:"deduction" yaml:"deduction"`
	Penalty        decimal.Decimal `json:"penalty" yaml:"penalty"`
	Surcharge      decimal.Decimal `json:"surcharge" yaml:"surcharge"`
	Pix            string          `json:"pix,omitempty" yaml:"pix,omitempty"`
}

// Beneficiary is the party receiving the payment ("beneficiário").
type Beneficiary struct {
	Name        string  `json:"name" yaml:"name" validate:"required"`
	Document    string  `json:"document" yaml:"document" validate:"required"`
	Agency      string  `json:"agency" yaml:"agency" validate:"required,numeric,max=4"`
	AgencyDV    string  `json:"agencyDV,omitempty" yaml:"agencyDV,omitempty"`
	Account     string  `json:"account" yaml:"account" validate:"required,numeric"`
	AccountDV   string  `json:"accountDV,omitempty" yaml:"accountDV,omitempty"`
	Wallet      string  `json:"wallet" yaml:"wallet" validate:"required,numeric"`
	Agreement   string  `json:"agreement,omitempty" yaml:"agreement,omitempty" validate:"omitempty,numeric"`
	OurNumber   string  `json:"ourNumber" yaml:"ourNumber" validate:"required,numeric"`
	OurNumberDV string  `json:"ourNumberDV,omitempty" yaml:"ourNumberDV,omitempty"`
	Address     Address `json:"address" yaml:"address"`
}

// Payer is the party paying the slip ("pagador").
type Payer struct {
	Name     string  `json:"name" yaml:"name" validate:"required"`
	Document string  `json:"document" yaml:"document"`
	Address  Address `json:"address" yaml:"address"`
}

type Address struct {
	Street       string `json:"street" yaml:"street"`
	Neighborhood string `json:"neighborhood" yaml:"neighborhood"`
	City         string `json:"city" yaml:"city"`
	State        string `json:"state" yaml:"state" validate:"omitempty,len=2"`
	ZipCode      string `json:"zipCode" yaml:"zipCode"`
}

// String renders the address on a single line.
func (a Address) String() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{a.Street, a.Neighborhood} {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	city := a.City
	if a.State != "" {
		if city != "" {
			city += "/" + a.State
		} else {
			city = a.State
		}
	}
	if city != "" {
		parts = append(parts, city)
	}
	if a.ZipCode != "" {
		parts = append(parts, "CEP "+a.ZipCode)
	}
	return strings.Join(parts, " - ")
}

// Dates groups the three dates printed on a boleto.
type Dates struct {
	Document   Date `json:"document" yaml:"document"`
	Processing Date `json:"processing" yaml:"processing"`
	Due        Date `json:"due" yaml:"due"`
}

// Date is a calendar day. Its text form is 2006-01-02.
type Date struct{ t time.Time }

const dateLayout = "2006-01-02"

// NewDate returns the given day at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) Time() time.Time { return d.t }
func (d Date) IsZero() bool    { return d.t.IsZero() }

// String formats the date the Brazilian way (dd/mm/yyyy).
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format("02/01/2006")
}

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.t.Format(dateLayout)), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))
	if s == "" {
		*d = Date{}
		return nil
	}
	for _, layout := range []string{dateLayout, "02/01/2006", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			*d = DateOf(t)
			return nil
		}
	}
	return fmt.Errorf("data %q: %w", s, ErrInvalidField)
}

// WithDefaults returns a copy with empty presentation fields filled in. A
// missing document date becomes the issue day.
func (b Boleto) WithDefaults() Boleto {
	return b.WithDefaultsAt(DateOf(time.Now()))
}

// WithDefaultsAt is WithDefaults with an explicit issue day.
func (b Boleto) WithDefaultsAt(issued Date) Boleto {
	if b.Currency == "" {
		b.Currency = DefaultCurrency
	}
	if b.DocumentKind == "" {
		b.DocumentKind = DefaultDocumentKind
	}
	if b.Acceptance == "" {
		b.Acceptance = DefaultAcceptance
	}
	if b.Dates.Document.IsZero() {
		b.Dates.Document = issued
	}
	if b.Dates.Processing.IsZero() {
		b.Dates.Processing = b.Dates.Document
	}
	if len(b.PaymentPlaces) == 0 {
		b.PaymentPlaces = []string{"Pagável preferencialmente na rede bancária ou em qualquer correspondente bancário até o vencimento."}
	}
	return b
}

// amountInCents returns the amount as the 10-digit barcode field.
func (b *Boleto) amountInCents() (string, error) {
	if b.Amount.IsNegative() {
		return "", fmt.Errorf("%s: %w", b.Amount, ErrInvalidAmount)
	}
	cents := b.Amount.Shift(2).Round(0)
	s := cents.StringFixed(0)
	if len(s) > 10 {
		return "", fmt.Errorf("%s excede 10 dígitos: %w", b.Amount, ErrInvalidAmount)
	}
	return leftPad(s, 10), nil
}
