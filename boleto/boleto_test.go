package boleto_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/ByLCY/boleto/boleto"
)

func sampleBradesco() *boleto.Boleto {
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
		Payer: boleto.Payer{Name: "Fulano de Tal", Document: "12345678909"},
		Dates: boleto.Dates{
			Document: boleto.NewDate(2025, time.March, 1),
			Due:      boleto.NewDate(2025, time.March, 10),
		},
		Amount: decimal.RequireFromString("100.00"),
	}
}

func TestMod10(t *testing.T) {
	assert.Equal(t, 0, boleto.Mod10("123"))
	assert.Equal(t, 9, boleto.Mod10("5"))
	assert.Equal(t, 4, boleto.Mod10("261533"))
}

func TestMod11(t *testing.T) {
	assert.Equal(t, 9, boleto.Mod11("1"))
	// remainder 0 maps to 1
	assert.Equal(t, 1, boleto.Mod11("0"))
}

func TestDueFactor(t *testing.T) {
	cases := []struct {
		date boleto.Date
		want string
	}{
		{boleto.NewDate(2000, time.July, 3), "1000"},
		{boleto.NewDate(2025, time.February, 21), "9999"},
		{boleto.NewDate(2025, time.February, 22), "1000"},
		{boleto.NewDate(2025, time.March, 10), "1016"},
	}
	for _, tc := range cases {
		got, err := boleto.DueFactor(tc.date)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.date.String())
	}

	_, err := boleto.DueFactor(boleto.NewDate(1990, time.January, 1))
	assert.ErrorIs(t, err, boleto.ErrInvalidDueDate)

	_, err = boleto.DueFactor(boleto.Date{})
	assert.ErrorIs(t, err, boleto.ErrMissingDueDate)
}

func TestBarcodeBradesco(t *testing.T) {
	b := sampleBradesco()
	code, err := boleto.Barcode(b)
	require.NoError(t, err)
	assert.Equal(t, "23795101600000100001234090000000000100123450", code)

	line, err := boleto.DigitableLine(b)
	require.NoError(t, err)
	assert.Equal(t, "23791.23405 90000.000001 01001.234507 5 10160000010000", line)

	bank, err := boleto.LookupBank("237")
	require.NoError(t, err)
	assert.Equal(t, "09/00000000001-1", bank.OurNumber(b))
}

func TestBarcodeBancoDoBrasil(t *testing.T) {
	b := sampleBradesco()
	b.Bank = "001"
	b.Beneficiary.Agreement = "1234567"
	b.Beneficiary.OurNumber = "42"
	b.Beneficiary.Wallet = "17"
	b.Amount = decimal.RequireFromString("1234.56")

	code, err := boleto.Barcode(b)
	require.NoError(t, err)
	assert.Equal(t, "00195101600001234560000001234567000000004217", code)

	line, err := boleto.LineFromBarcode(code)
	require.NoError(t, err)
	assert.Equal(t, "00190.00009 01234.567004 00000.042176 5 10160000123456", line)
}

func TestBarcodeItau(t *testing.T) {
	b := sampleBradesco()
	b.Bank = "341"
	b.Beneficiary.Agency = "57"
	b.Beneficiary.Account = "12345"
	b.Beneficiary.Wallet = "109"
	b.Beneficiary.OurNumber = "12345678"
	b.Amount = decimal.RequireFromString("99.90")

	code, err := boleto.Barcode(b)
	require.NoError(t, err)
	assert.Equal(t, "34196101600000099901091234567800057123457000", code)

	bank, err := boleto.LookupBank("341")
	require.NoError(t, err)
	assert.Equal(t, "109/12345678-0", bank.OurNumber(b))
	assert.Equal(t, "0057 / 12345-7", bank.AgencyAndCode(b))
}

func TestBarcodeFromLineRoundTrip(t *testing.T) {
	b := sampleBradesco()
	code, err := boleto.Barcode(b)
	require.NoError(t, err)
	line, err := boleto.LineFromBarcode(code)
	require.NoError(t, err)

	back, err := boleto.BarcodeFromLine(line)
	require.NoError(t, err)
	assert.Equal(t, code, back)

	// flipping a digit of the first field breaks its check digit
	broken := "23792" + line[5:]
	_, err = boleto.BarcodeFromLine(broken)
	assert.ErrorIs(t, err, boleto.ErrInvalidLineCode)

	_, err = boleto.BarcodeFromLine("123")
	assert.ErrorIs(t, err, boleto.ErrInvalidLineCode)
}

func TestBarcodeErrors(t *testing.T) {
	b := sampleBradesco()
	b.Bank = "999"
	_, err := boleto.Barcode(b)
	assert.ErrorIs(t, err, boleto.ErrUnknownBank)

	b = sampleBradesco()
	b.Amount = decimal.RequireFromString("100000000.00")
	_, err = boleto.Barcode(b)
	assert.ErrorIs(t, err, boleto.ErrInvalidAmount)

	b = sampleBradesco()
	b.Beneficiary.OurNumber = "123456789012"
	_, err = boleto.Barcode(b)
	assert.ErrorIs(t, err, boleto.ErrInvalidField)
}

func TestValidate(t *testing.T) {
	require.NoError(t, boleto.Validate(sampleBradesco()))

	b := sampleBradesco()
	b.Beneficiary.Name = ""
	assert.ErrorIs(t, boleto.Validate(b), boleto.ErrInvalidField)

	b = sampleBradesco()
	b.Dates.Due = boleto.Date{}
	assert.ErrorIs(t, boleto.Validate(b), boleto.ErrMissingDueDate)

	b = sampleBradesco()
	b.Dates.Due = boleto.NewDate(2025, time.February, 1)
	assert.ErrorIs(t, boleto.Validate(b), boleto.ErrInvalidDueDate)

	b = sampleBradesco()
	b.Discount = decimal.NewFromInt(-1)
	assert.ErrorIs(t, boleto.Validate(b), boleto.ErrInvalidAmount)

	b = sampleBradesco()
	b.Instructions = []string{"1", "2", "3", "4", "5", "6"}
	assert.ErrorIs(t, boleto.Validate(b), boleto.ErrInvalidField)
}

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "0,00", boleto.FormatMoney(decimal.Zero, false))
	assert.Equal(t, "", boleto.FormatMoney(decimal.Zero, true))
	assert.Equal(t, "1.234,56", boleto.FormatMoney(decimal.RequireFromString("1234.56"), false))
	assert.Equal(t, "12.345.678,90", boleto.FormatMoney(decimal.RequireFromString("12345678.9"), false))
	assert.Equal(t, "999,00", boleto.FormatMoney(decimal.NewFromInt(999), false))
}

func TestFormatDocument(t *testing.T) {
	assert.Equal(t, "123.456.789-09", boleto.FormatDocument("12345678909"))
	assert.Equal(t, "12.345.678/0001-95", boleto.FormatDocument("12345678000195"))
	assert.Equal(t, "abc", boleto.FormatDocument("abc"))
}

func TestBankLabel(t *testing.T) {
	assert.Equal(t, "001-9", boleto.BankLabel("001"))
	assert.Equal(t, "237-2", boleto.BankLabel("237"))
	assert.Equal(t, "341-7", boleto.BankLabel("341"))
	assert.Equal(t, "104-0", boleto.BankLabel("104"))
	assert.Equal(t, "12", boleto.BankLabel("12"))
}

func TestDateDecoding(t *testing.T) {
	var fromJSON struct {
		Due boleto.Date `json:"due"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"due":"2025-03-10"}`), &fromJSON))
	assert.Equal(t, "10/03/2025", fromJSON.Due.String())

	var fromYAML struct {
		Due boleto.Date `yaml:"due"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("due: 10/03/2025\n"), &fromYAML))
	assert.Equal(t, boleto.NewDate(2025, time.March, 10), fromYAML.Due)

	var bad boleto.Date
	assert.ErrorIs(t, bad.UnmarshalText([]byte("março")), boleto.ErrInvalidField)
}

func TestWithDefaults(t *testing.T) {
	b := sampleBradesco().WithDefaults()
	assert.Equal(t, boleto.DefaultCurrency, b.Currency)
	assert.Equal(t, boleto.DefaultDocumentKind, b.DocumentKind)
	assert.Equal(t, boleto.DefaultAcceptance, b.Acceptance)
	assert.Equal(t, b.Dates.Document, b.Dates.Processing)
	assert.Len(t, b.PaymentPlaces, 1)

	undated := sampleBradesco()
	undated.Dates.Document = boleto.Date{}
	issued := boleto.NewDate(2025, time.February, 28)
	filled := undated.WithDefaultsAt(issued)
	assert.Equal(t, issued, filled.Dates.Document)
	assert.Equal(t, issued, filled.Dates.Processing)
	assert.Equal(t, "28/02/2025", filled.Dates.Processing.String())
	assert.False(t, undated.WithDefaults().Dates.Document.IsZero())

	processed := sampleBradesco()
	processed.Dates.Processing = boleto.NewDate(2025, time.March, 2)
	assert.Equal(t, "02/03/2025", processed.WithDefaultsAt(issued).Dates.Processing.String())
}

func TestAddressString(t *testing.T) {
	a := boleto.Address{Street: "Rua A, 10", City: "São Paulo", State: "SP", ZipCode: "01000-000"}
	assert.Equal(t, "Rua A, 10 - São Paulo/SP - CEP 01000-000", a.String())
	assert.Equal(t, "", boleto.Address{}.String())
}

func TestBankCodes(t *testing.T) {
	assert.Equal(t, []string{"001", "237", "341"}, boleto.BankCodes())
}
