package acbrlib

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hsiuhsiu/acbrlib-go/internal/dl"
)

// Handle is the opaque, address-sized value the operating system returns for a
// loaded library. The zero Handle means "no library loaded". Copies are
// non-owning references; the Loader that produced a Handle owns it.
type Handle uintptr

// Valid reports whether h refers to a loaded library.
func (h Handle) Valid() bool { return h != 0 }

// Platform is the OS-specific loader primitive. Implementations must share one
// error taxonomy: Open fails with a LoadError wrapping ErrNotFound or
// ErrLoadFailed, Symbol fails with a SymbolError, and successful calls return
// non-zero values.
type Platform interface {
	// Open loads the library file at path.
	Open(path string) (Handle, error)
	// Symbol resolves an exported entry point.
	Symbol(h Handle, name string) (uintptr, error)
	// Bind points the func variable behind fnPtr at the entry point addr.
	Bind(fnPtr any, addr uintptr) error
	// Close releases h. Callers treat failures as best-effort.
	Close(h Handle) error
}

// StatLibrary checks that path names an existing regular file (or a link to
// one) before any OS loader call is attempted, so a missing file is always
// reported as ErrNotFound rather than an opaque loader failure.
func StatLibrary(path string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &LoadError{Path: path, Err: ErrNotFound}
	}
	if err != nil {
		return &LoadError{Path: path, Reason: err.Error(), Err: ErrLoadFailed}
	}
	if info.IsDir() {
		return &LoadError{Path: path, Reason: "is a directory", Err: ErrLoadFailed}
	}
	return nil
}

// NativePlatform returns the Platform backed by the operating system's dynamic
// loader (dlopen on unix, LoadLibraryEx on windows).
func NativePlatform() Platform { return nativePlatform{} }

type nativePlatform struct{}

func (nativePlatform) Open(path string) (Handle, error) {
	if err := StatLibrary(path); err != nil {
		return 0, err
	}
	h, err := dl.Open(path)
	if err != nil || h == 0 {
		return 0, &LoadError{Path: path, Reason: reason(err, "loader returned a nil handle"), Err: ErrLoadFailed}
	}
	return Handle(h), nil
}

func (nativePlatform) Symbol(h Handle, name string) (uintptr, error) {
	if !h.Valid() {
		return 0, ErrInvalidHandle
	}
	addr, err := dl.Sym(uintptr(h), name)
	if err != nil || addr == 0 {
		return 0, &SymbolError{Name: name, Reason: reason(err, "nil address")}
	}
	return addr, nil
}

func (nativePlatform) Bind(fnPtr any, addr uintptr) error {
	if err := dl.Register(fnPtr, addr); err != nil {
		if errors.Is(err, dl.ErrUnsupported) {
			return ErrUnsupported
		}
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return nil
}

func (nativePlatform) Close(h Handle) error {
	if !h.Valid() {
		return nil
	}
	return dl.Close(uintptr(h))
}

func reason(err error, fallback string) string {
	switch {
	case errors.Is(err, dl.ErrUnsupported):
		return ErrUnsupported.Error()
	case err != nil:
		return err.Error()
	default:
		return fallback
	}
}
