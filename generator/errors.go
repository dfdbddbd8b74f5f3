package generator

import (
	"errors"
	"fmt"
)

var (
	ErrNoBoletos        = errors.New("generator: no boletos to render")
	ErrInvalidParameter = errors.New("generator: invalid parameter")
)

// GenerationError is returned by every output method. It names the
// operation that failed and wraps the underlying engine error.
type GenerationError struct {
	Op  string
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("boleto generation failed (%s): %v", e.Op, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func fail(op string, err error) error {
	if err == nil {
		return nil
	}
	var gerr *GenerationError
	if errors.As(err, &gerr) {
		return err
	}
	return &GenerationError{Op: op, Err: err}
}
