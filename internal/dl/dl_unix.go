//go:build darwin || freebsd || linux || netbsd

package dl

import (
	"runtime"

	"github.com/ebitengine/purego"
)

// Open loads the shared object at path with immediate symbol binding. The
// returned error carries the dlerror() text.
func Open(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW)
}

// Sym resolves name inside the shared object behind handle.
func Sym(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}

// Close releases handle.
func Close(handle uintptr) error {
	return purego.Dlclose(handle)
}

// SearchPathEnv is the environment variable holding the loader search path.
func SearchPathEnv() string {
	if runtime.GOOS == "darwin" {
		return "DYLD_LIBRARY_PATH"
	}
	return "LD_LIBRARY_PATH"
}

func register(fnPtr any, addr uintptr) error {
	purego.RegisterFunc(fnPtr, addr)
	return nil
}
