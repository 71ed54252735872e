package classify

import (
	"errors"
	"fmt"
)

// ErrContractViolation is matched by every ContractViolationError
var ErrContractViolation = errors.New("contract violation")

// ContractViolationError reports a required input field that is missing or
// not a finite number. It indicates a caller bug and is never defaulted.
type ContractViolationError struct {
	Field  string
	Detail string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("contract violation: %s %s", e.Field, e.Detail)
}

func (e *ContractViolationError) Is(target error) bool {
	return target == ErrContractViolation
}

func missing(field string) error {
	return &ContractViolationError{Field: field, Detail: "is missing"}
}

func nonFinite(field string, v float64) error {
	return &ContractViolationError{Field: field, Detail: fmt.Sprintf("is not finite (%v)", v)}
}
