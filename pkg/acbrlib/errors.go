package acbrlib

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound reports that the resolved library path does not exist.
	ErrNotFound = errors.New("acbrlib: library not found")

	// ErrLoadFailed reports that the operating system refused to load the
	// library. The LoadError wrapping it carries the platform diagnostic.
	ErrLoadFailed = errors.New("acbrlib: library load failed")

	// ErrAlreadyLoading is returned when a load is requested while another load,
	// of any library, is still in flight. Callers may retry after a backoff.
	ErrAlreadyLoading = errors.New("acbrlib: a library load is already in progress")

	// ErrSymbolNotFound reports that a named entry point is not exported.
	ErrSymbolNotFound = errors.New("acbrlib: function not found")

	// ErrInvalidHandle reports an operation against a zero handle.
	ErrInvalidHandle = errors.New("acbrlib: invalid library handle")

	// ErrSizeQueryFailed reports a non-zero status from the size query phase of
	// a two-phase read.
	ErrSizeQueryFailed = errors.New("acbrlib: size query failed")

	// ErrFillFailed reports a non-zero status from the fill phase of a
	// two-phase read.
	ErrFillFailed = errors.New("acbrlib: buffer fill failed")

	// ErrBufferTooSmall reports that the native side kept asking for more room
	// than the re-queried buffer provided.
	ErrBufferTooSmall = errors.New("acbrlib: native result outgrew its buffer")

	ErrUnknownLibrary   = errors.New("acbrlib: unknown library identifier")
	ErrClosed           = errors.New("acbrlib: loader closed")
	ErrInvalidSignature = errors.New("acbrlib: unsupported function signature")
	ErrInvalidArgument  = errors.New("acbrlib: invalid argument")
	ErrUnsupported      = errors.New("acbrlib: dynamic loading not supported on this platform")
)

// LoadError describes a failed attempt to open a library file. Err is either
// ErrNotFound or ErrLoadFailed.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Path)
	}
	return fmt.Sprintf("%v: %s: %s", e.Err, e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// SymbolError reports a missing entry point.
type SymbolError struct {
	Name   string
	Reason string
}

func (e *SymbolError) Error() string {
	return "function not found: " + e.Name
}

func (e *SymbolError) Unwrap() error { return ErrSymbolNotFound }

// Phase names a step of the two-phase buffer protocol.
type Phase int

const (
	PhaseSizeQuery Phase = iota + 1
	PhaseFill
)

func (p Phase) String() string {
	switch p {
	case PhaseSizeQuery:
		return "size query"
	case PhaseFill:
		return "fill"
	default:
		return "unknown phase"
	}
}

// StatusError carries the non-zero status a native call returned during one
// phase of a two-phase read.
type StatusError struct {
	Phase  Phase
	Status int32
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v (status %d)", e.Unwrap(), e.Status)
}

func (e *StatusError) Unwrap() error {
	if e.Phase == PhaseSizeQuery {
		return ErrSizeQueryFailed
	}
	return ErrFillFailed
}

// Error wraps a registry failure with the operation and library it concerns.
type Error struct {
	Op      string
	Library LibraryID
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("acbrlib.%s(%s): %v", e.Op, e.Library, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
