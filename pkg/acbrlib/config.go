package acbrlib

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hsiuhsiu/acbrlib-go/internal/dl"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

const (
	// ResourcesDirName is the directory, next to the running executable,
	// holding the native libraries.
	ResourcesDirName = "resources"
	// DepsDirName is the subdirectory of the resources directory holding the
	// libraries' own dependencies (OpenSSL, libxml2, ...).
	DepsDirName = "deps"
)

// Config controls how a Loader locates and opens libraries. The zero value
// loads from <executable dir>/resources with the native platform loader.
type Config struct {
	// ResourcesDir overrides <executable dir>/resources.
	ResourcesDir string

	// DepsDir overrides <ResourcesDir>/deps. It is prepended to the native
	// search path before the first load.
	DepsDir string

	// Filenames overrides LibraryID.Filename for selected identifiers.
	Filenames map[LibraryID]string

	// SearchPathEnv overrides the search path variable (PATH on windows,
	// LD_LIBRARY_PATH or DYLD_LIBRARY_PATH elsewhere).
	SearchPathEnv string

	// LoadTimeout bounds how long GetOrLoad waits for the OS loader. Zero
	// waits as long as the caller's context allows.
	LoadTimeout time.Duration

	// Encoding is the character set used by bindings built on this loader.
	Encoding Encoding

	Platform Platform
	Logger   logging.Logger
}

func (c Config) withDefaults() (Config, error) {
	if c.ResourcesDir == "" {
		exe, err := os.Executable()
		if err != nil {
			return c, err
		}
		if resolved, err := filepath.EvalSymlinks(exe); err == nil {
			exe = resolved
		}
		c.ResourcesDir = filepath.Join(filepath.Dir(exe), ResourcesDirName)
	}
	if c.DepsDir == "" {
		c.DepsDir = filepath.Join(c.ResourcesDir, DepsDirName)
	}
	if c.SearchPathEnv == "" {
		c.SearchPathEnv = dl.SearchPathEnv()
	}
	if c.Platform == nil {
		c.Platform = NativePlatform()
	}
	if c.Logger == nil {
		c.Logger = logging.New(nil)
	}
	return c, nil
}
