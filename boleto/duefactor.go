package boleto

import (
	"fmt"
	"time"
)

var dueFactorBase = time.Date(1997, time.October, 7, 0, 0, 0, 0, time.UTC)

const (
	dueFactorReset = 10000 // days after the base date when the factor wraps
	dueFactorMin   = 1000
	dueFactorSpan  = 9000
)

// DueFactor returns the 4-digit "fator de vencimento" for a due date: the
// number of days since 1997-10-07. On 2025-02-22 the factor wrapped from 9999
// back to 1000 and repeats every 9000 days from there.
func DueFactor(due Date) (string, error) {
	if due.IsZero() {
		return "", ErrMissingDueDate
	}
	days := daysBetween(dueFactorBase, due.Time())
	if days < 0 {
		return "", fmt.Errorf("vencimento %s anterior à data base: %w", due, ErrInvalidDueDate)
	}
	if days >= dueFactorReset {
		days = dueFactorMin + (days-dueFactorReset)%dueFactorSpan
	}
	return fmt.Sprintf("%04d", days), nil
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
