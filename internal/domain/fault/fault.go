package fault

import (
	"errors"
	"fmt"
)

type Code string

const (
	EligibilityDenied Code = "eligibility_denied"
	InvalidAmount     Code = "invalid_amount"
	StateConflict     Code = "state_conflict"
	IntegrityFault    Code = "integrity_fault"
	NotFound          Code = "not_found"
	Forbidden         Code = "forbidden"
)

// Error is a domain failure with a machine-readable code and a reason
// suitable for user-facing display.
type Error struct {
	Code   Code
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func New(code Code, reason string) *Error {
	return &Error{Code: code, Reason: reason}
}

func CodeOf(err error) (Code, bool) {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Code, true
	}
	return "", false
}

func Is(err error, code Code) bool {
	got, ok := CodeOf(err)
	return ok && got == code
}
