//go:build windows

package dl

import (
	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

// Open loads the DLL at path. LOAD_WITH_ALTERED_SEARCH_PATH makes the loader
// resolve the DLL's own dependencies starting from its directory. The error is
// the GetLastError text.
func Open(path string) (uintptr, error) {
	h, err := windows.LoadLibraryEx(path, 0, windows.LOAD_WITH_ALTERED_SEARCH_PATH)
	if err != nil {
		return 0, err
	}
	return uintptr(h), nil
}

// Sym resolves name inside the DLL behind handle.
func Sym(handle uintptr, name string) (uintptr, error) {
	proc, err := windows.GetProcAddress(windows.Handle(handle), name)
	if err != nil {
		return 0, err
	}
	return uintptr(proc), nil
}

// Close releases handle.
func Close(handle uintptr) error {
	return windows.FreeLibrary(windows.Handle(handle))
}

// SearchPathEnv is the environment variable holding the DLL search path.
func SearchPathEnv() string { return "PATH" }

// ACBr exports are stdcall. On windows/amd64 and windows/arm64 stdcall is the
// platform's single calling convention, so the exports are called like any
// other function. On windows/386, where the ACBr<x>32.dll builds live, purego
// dispatches through syscall.SyscallN, which uses stdcall there.
func register(fnPtr any, addr uintptr) error {
	purego.RegisterFunc(fnPtr, addr)
	return nil
}
