package esocial

import (
	"errors"
	"fmt"
)

var (
	ErrNotInitialized     = errors.New("esocial: library instance not initialized")
	ErrAlreadyInitialized = errors.New("esocial: library instance already initialized")
	ErrNullInstance       = errors.New("esocial: initialization returned a null instance")
	ErrCallFailed         = errors.New("esocial: native call failed")
)

// CallError reports a non-zero status from a native entry point. Message is
// the library's own explanation, taken from the response buffer or from the
// last return text.
type CallError struct {
	Func    string
	Status  int32
	Message string

	// Err is the underlying buffer protocol error for sized reads.
	Err error
}

func (e *CallError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("esocial: %s returned %d", e.Func, e.Status)
	}
	return fmt.Sprintf("esocial: %s returned %d: %s", e.Func, e.Status, e.Message)
}

func (e *CallError) Unwrap() error { return e.Err }

func (e *CallError) Is(target error) bool { return target == ErrCallFailed }
