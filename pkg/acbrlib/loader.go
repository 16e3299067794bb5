package acbrlib

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

// State is the lifecycle position of one library inside a Loader.
type State int

const (
	Unloaded State = iota
	Loading
	Loaded
)

func (s State) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Loader owns every library handle opened through it. It maps each LibraryID
// to at most one Handle and allows a single load operation in flight across
// all identifiers: a load requested while another is running fails fast with
// ErrAlreadyLoading instead of queueing.
//
// A Loader is safe for concurrent use. Construct one per process (or per test)
// and pass it to the bindings that need it.
type Loader struct {
	cfg      Config
	platform Platform
	log      logging.Logger

	mu      sync.RWMutex
	entries map[LibraryID]Handle
	closed  bool

	// loading is the process-wide load guard. It is set for the whole
	// duration of one load (path resolution and OS open) and is always
	// cleared by the goroutine performing that load.
	loading   atomic.Bool
	loadingID atomic.Int64

	symbols sync.Map // symbolKey -> bound func value
}

// NewLoader builds a Loader from cfg, filling defaults for unset fields.
func NewLoader(cfg Config) (*Loader, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, fmt.Errorf("acbrlib: resolve resources directory: %w", err)
	}
	return &Loader{
		cfg:      cfg,
		platform: cfg.Platform,
		log:      logging.Component(cfg.Logger, "loader"),
		entries:  make(map[LibraryID]Handle),
	}, nil
}

// Config returns the effective configuration, defaults included.
func (l *Loader) Config() Config { return l.cfg }

// Encoding is the text encoding bindings should use with this loader.
func (l *Loader) Encoding() Encoding { return l.cfg.Encoding }

// Logger returns the loader's logger for bindings that want to share it.
func (l *Loader) Logger() logging.Logger { return l.log }

// Path returns the file GetOrLoad opens for id.
func (l *Loader) Path(id LibraryID) (string, error) {
	name, ok := l.cfg.Filenames[id]
	if !ok {
		name = id.Filename()
	}
	if name == "" {
		return "", ErrUnknownLibrary
	}
	return filepath.Join(l.cfg.ResourcesDir, name), nil
}

func (l *Loader) lookup(id LibraryID) (Handle, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	h, ok := l.entries[id]
	return h, ok
}

// registered reports whether h is the handle of some loaded library. Callers
// hold l.mu.
func (l *Loader) registered(h Handle) bool {
	for _, e := range l.entries {
		if e == h {
			return true
		}
	}
	return false
}

// Loaded reports whether id currently has a handle.
func (l *Loader) Loaded(id LibraryID) bool {
	_, ok := l.lookup(id)
	return ok
}

// State reports where id is in its lifecycle.
func (l *Loader) State(id LibraryID) State {
	if l.Loaded(id) {
		return Loaded
	}
	if l.loading.Load() && LibraryID(l.loadingID.Load()) == id {
		return Loading
	}
	return Unloaded
}

// GetOrLoad returns the handle for id, loading the library on first use.
//
// An already loaded library is returned without touching the load guard. A
// missing one is loaded only if no other load is in flight; otherwise the call
// fails immediately with ErrAlreadyLoading. The wait for the OS loader is
// bounded by ctx and Config.LoadTimeout. If the caller gives up, the load keeps
// running in the background, still holds the guard, and registers its handle
// when it succeeds.
func (l *Loader) GetOrLoad(ctx context.Context, id LibraryID) (Handle, error) {
	if h, ok := l.lookup(id); ok {
		return h, nil
	}
	if !id.Valid() && l.cfg.Filenames[id] == "" {
		return 0, &Error{Op: "load", Library: id, Err: ErrUnknownLibrary}
	}
	if err := ctx.Err(); err != nil {
		return 0, &Error{Op: "load", Library: id, Err: err}
	}
	if l.isClosed() {
		return 0, &Error{Op: "load", Library: id, Err: ErrClosed}
	}

	if !l.loading.CompareAndSwap(false, true) {
		return 0, &Error{Op: "load", Library: id, Err: ErrAlreadyLoading}
	}
	l.loadingID.Store(int64(id))

	// Another goroutine may have finished loading id between the fast-path
	// lookup and acquiring the guard.
	if h, ok := l.lookup(id); ok {
		l.release()
		return h, nil
	}

	if l.cfg.LoadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.LoadTimeout)
		defer cancel()
	}

	done := make(chan loadResult, 1)
	go func() {
		h, err := l.load(ctx, id)
		// Release before reporting so a caller that returns and immediately
		// loads another library never observes a stale guard.
		l.release()
		done <- loadResult{handle: h, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return 0, &Error{Op: "load", Library: id, Err: r.err}
		}
		return r.handle, nil
	case <-ctx.Done():
		l.log.Warn(ctx, "gave up waiting for library load", "library", id, "error", ctx.Err())
		return 0, &Error{Op: "load", Library: id, Err: ctx.Err()}
	}
}

type loadResult struct {
	handle Handle
	err    error
}

func (l *Loader) release() {
	l.loadingID.Store(0)
	l.loading.Store(false)
}

// load runs with the guard held.
func (l *Loader) load(ctx context.Context, id LibraryID) (Handle, error) {
	path, err := l.Path(id)
	if err != nil {
		return 0, err
	}

	added, err := ensureSearchPath(l.cfg.SearchPathEnv, l.cfg.DepsDir)
	if err != nil {
		return 0, fmt.Errorf("update %s: %w", l.cfg.SearchPathEnv, err)
	}
	if added {
		l.log.Debug(ctx, "added dependency directory to search path", "env", l.cfg.SearchPathEnv, "dir", l.cfg.DepsDir)
	}

	l.log.Debug(ctx, "loading library", "library", id, "path", path)
	start := time.Now()
	h, err := l.platform.Open(path)
	if err != nil {
		l.log.Warn(ctx, "library load failed", "library", id, "path", path, "error", err)
		return 0, err
	}
	if !h.Valid() {
		return 0, &LoadError{Path: path, Reason: "platform returned a zero handle", Err: ErrLoadFailed}
	}

	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		l.closeHandle(ctx, id, h)
		return 0, ErrClosed
	}
	l.entries[id] = h
	l.mu.Unlock()

	l.log.Info(ctx, "library loaded", "library", id, "path", path, "elapsed", time.Since(start))
	return h, nil
}

// Forget drops the registry entry for id without closing the library, so the
// next GetOrLoad performs a fresh load. Bindings use it after a failed native
// initialization. Use Unload to also release the OS handle.
func (l *Loader) Forget(id LibraryID) {
	l.mu.Lock()
	h, ok := l.entries[id]
	delete(l.entries, id)
	l.mu.Unlock()
	if !ok {
		return
	}
	l.dropSymbols(h)
	l.log.Debug(context.Background(), "library forgotten", "library", id)
}

// Unload removes the entry for id and closes its handle. Close failures are
// logged, not returned.
func (l *Loader) Unload(id LibraryID) {
	l.mu.Lock()
	h, ok := l.entries[id]
	delete(l.entries, id)
	l.mu.Unlock()
	if !ok {
		return
	}
	l.dropSymbols(h)
	l.closeHandle(context.Background(), id, h)
}

// Close unloads every library and rejects further loads. It is idempotent. A
// load still in flight when Close runs closes its own handle on completion.
func (l *Loader) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	entries := l.entries
	l.entries = make(map[LibraryID]Handle)
	l.mu.Unlock()

	for id, h := range entries {
		l.dropSymbols(h)
		l.closeHandle(context.Background(), id, h)
	}
	return nil
}

func (l *Loader) isClosed() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.closed
}

func (l *Loader) closeHandle(ctx context.Context, id LibraryID, h Handle) {
	if err := l.platform.Close(h); err != nil {
		l.log.Warn(ctx, "library close failed", "library", id, "error", err)
		return
	}
	l.log.Debug(ctx, "library unloaded", "library", id)
}
