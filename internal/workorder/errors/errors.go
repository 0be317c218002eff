package errors

import (
	"fmt"
)

var (
	ErrNotFound          = fmt.Errorf("not found")
	ErrInvalidInput      = fmt.Errorf("invalid input")
	ErrForbidden         = fmt.Errorf("forbidden")
	ErrInvalidTransition = fmt.Errorf("invalid transition")
	ErrConflict          = fmt.Errorf("conflict")
)
