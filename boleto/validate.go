package boleto

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks struct constraints and the rules the barcode depends on.
// Bank specific field widths are checked when the barcode is computed.
func Validate(b *Boleto) error {
	if b == nil {
		return fmt.Errorf("boleto nil: %w", ErrInvalidField)
	}
	if err := validatorInstance().Struct(b); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s (%s): %w", verrs[0].Namespace(), verrs[0].Tag(), ErrInvalidField)
		}
		return err
	}
	if _, err := LookupBank(b.Bank); err != nil {
		return err
	}
	if b.Dates.Due.IsZero() {
		return ErrMissingDueDate
	}
	if !b.Dates.Document.IsZero() && b.Dates.Due.Time().Before(b.Dates.Document.Time()) {
		return fmt.Errorf("vencimento %s antes do documento %s: %w", b.Dates.Due, b.Dates.Document, ErrInvalidDueDate)
	}
	if _, err := b.amountInCents(); err != nil {
		return err
	}
	for _, v := range []struct {
		name string
		neg  bool
	}{
		{"desconto", b.Discount.IsNegative()},
		{"dedução", b.Deduction.IsNegative()},
		{"mora/multa", b.Penalty.IsNegative()},
		{"acréscimo", b.Surcharge.IsNegative()},
	} {
		if v.neg {
			return fmt.Errorf("%s negativo: %w", v.name, ErrInvalidAmount)
		}
	}
	if len(b.Instructions) > maxInstructions || len(b.PaymentPlaces) > maxPaymentPlaces {
		return fmt.Errorf("instruções/locais de pagamento em excesso: %w", ErrInvalidField)
	}
	return nil
}
