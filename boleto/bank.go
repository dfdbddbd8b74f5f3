package boleto

import (
	"fmt"
	"sort"
	"sync"
)

// Bank encodes the bank specific parts of a boleto.
type Bank interface {
	// Code is the 3-digit FEBRABAN bank number.
	Code() string
	Name() string
	// Logo returns image bytes for the slip header, or nil.
	Logo() []byte
	// FreeField returns the 25-digit "campo livre" of the barcode.
	FreeField(b *Boleto) (string, error)
	// OurNumber formats the "nosso número" as printed on the slip.
	OurNumber(b *Boleto) string
	// AgencyAndCode formats "agência / código do beneficiário".
	AgencyAndCode(b *Boleto) string
}

var (
	banksMu sync.RWMutex
	banks   = map[string]Bank{}
)

func init() {
	RegisterBank(BancoDoBrasil{})
	RegisterBank(Bradesco{})
	RegisterBank(Itau{})
}

// RegisterBank makes a bank available to LookupBank. A later registration
// for the same code replaces the earlier one.
func RegisterBank(bank Bank) {
	banksMu.Lock()
	defer banksMu.Unlock()
	banks[bank.Code()] = bank
}

// LookupBank returns the bank registered for code.
func LookupBank(code string) (Bank, error) {
	banksMu.RLock()
	defer banksMu.RUnlock()
	bank, ok := banks[code]
	if !ok {
		return nil, fmt.Errorf("%q: %w", code, ErrUnknownBank)
	}
	return bank, nil
}

// BankCodes lists the registered bank codes in ascending order.
func BankCodes() []string {
	banksMu.RLock()
	defer banksMu.RUnlock()
	codes := make([]string, 0, len(banks))
	for code := range banks {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// fixed validates that value is numeric and fits width, then zero-pads it.
func fixed(field, value string, width int) (string, error) {
	if !isDigits(value) {
		return "", fmt.Errorf("%s %q não numérico: %w", field, value, ErrInvalidField)
	}
	if len(value) > width {
		return "", fmt.Errorf("%s %q excede %d dígitos: %w", field, value, width, ErrInvalidField)
	}
	return leftPad(value, width), nil
}

func withDV(value, dv string) string {
	if dv == "" {
		return value
	}
	return value + "-" + dv
}
