//go:build !(darwin || freebsd || linux || netbsd || windows)

package dl

func Open(string) (uintptr, error) { return 0, ErrUnsupported }

func Sym(uintptr, string) (uintptr, error) { return 0, ErrUnsupported }

func Close(uintptr) error { return ErrUnsupported }

func SearchPathEnv() string { return "LD_LIBRARY_PATH" }

func register(any, uintptr) error { return ErrUnsupported }
