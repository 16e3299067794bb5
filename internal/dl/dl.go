package dl

import (
	"errors"
	"fmt"
)

// ErrUnsupported reports that the current GOOS has no dynamic loader backend.
var ErrUnsupported = errors.New("acbrlib/internal/dl: dynamic loading not supported on this platform")

// Register binds the Go function variable behind fnPtr to the native entry
// point at addr. purego panics on signatures it cannot marshal; the panic is
// turned into an error so it never escapes the loader.
func Register(fnPtr any, addr uintptr) (err error) {
	if addr == 0 {
		return errors.New("acbrlib/internal/dl: nil function address")
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("acbrlib/internal/dl: register function: %v", r)
		}
	}()
	return register(fnPtr, addr)
}
