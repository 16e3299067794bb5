package acbrlib

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
)

// envMu serializes edits of the search path variable. The environment is
// process-wide, so the lock is too.
var envMu sync.Mutex

// ensureSearchPath prepends dir to the path-list variable env unless it is
// already present, preserving every existing entry. It reports whether the
// variable changed.
func ensureSearchPath(env, dir string) (bool, error) {
	if dir == "" {
		return false, nil
	}
	envMu.Lock()
	defer envMu.Unlock()

	current := os.Getenv(env)
	for _, entry := range filepath.SplitList(current) {
		if samePath(entry, dir) {
			return false, nil
		}
	}
	value := dir
	if current != "" {
		value = dir + string(os.PathListSeparator) + current
	}
	if err := os.Setenv(env, value); err != nil {
		return false, err
	}
	return true, nil
}

func samePath(a, b string) bool {
	a, b = filepath.Clean(a), filepath.Clean(b)
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
