package business

import (
	"fmt"

	"github.com/linnemanlabs/go-core/xerrors"
)

var (
	// ErrMissingField is returned when a required request field is absent.
	ErrMissingField = xerrors.New("missing field")

	// ErrDivisionByZero is returned when a divisor input is zero.
	ErrDivisionByZero = xerrors.New("division by zero")

	// ErrNonFinite is returned when an input is NaN or infinite.
	ErrNonFinite = xerrors.New("non-finite value")

	// ErrNegativeCustomers is returned when number_of_customers is below zero.
	ErrNegativeCustomers = xerrors.New("negative customer count")

	// ErrFractionalCustomers is returned when number_of_customers is not a whole number.
	ErrFractionalCustomers = xerrors.New("fractional customer count")

	// ErrTrailingData is returned when a JSON request is followed by more input.
	ErrTrailingData = xerrors.New("trailing data after request")

	// ErrStageOrder is returned when a stage runs before the stage it depends on.
	ErrStageOrder = xerrors.New("stage prerequisite not satisfied")
)

// MissingFieldError names the absent field.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error { return ErrMissingField }

// ArithmeticError names the input or metric that made the metrics
// impossible to compute, as a dotted path such as input.daily_cost.
type ArithmeticError struct {
	Field string
	Err   error
}

func (e *ArithmeticError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ArithmeticError) Unwrap() error { return e.Err }
