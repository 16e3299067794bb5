package fakelib

import (
	"fmt"
	"path/filepath"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
)

// Library is a fake native library.
type Library struct {
	// Symbols maps exported names to Go funcs implementing them.
	Symbols map[string]any
}

// Platform is an in-memory acbrlib.Platform.
type Platform struct {
	// OpenHook, when set, runs inside Open after the existence check.
	OpenHook func(path string)
	// CloseErr is returned by every Close call when set.
	CloseErr error

	mu         sync.Mutex
	libs       map[string]*Library
	failures   map[string]string
	handles    map[acbrlib.Handle]*Library
	addrs      map[uintptr]any
	nextHandle acbrlib.Handle
	nextAddr   uintptr

	opens       atomic.Int64
	symbols     atomic.Int64
	binds       atomic.Int64
	closes      atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

var _ acbrlib.Platform = (*Platform)(nil)

func New() *Platform {
	return &Platform{
		libs:       make(map[string]*Library),
		failures:   make(map[string]string),
		handles:    make(map[acbrlib.Handle]*Library),
		addrs:      make(map[uintptr]any),
		nextHandle: 0x1000,
		nextAddr:   0x10,
	}
}

// Register makes files named filename loadable as lib.
func (p *Platform) Register(filename string, lib *Library) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.libs[filename] = lib
}

// FailWith makes opening files named filename fail with reason, the way a
// corrupt or wrong-architecture library would.
func (p *Platform) FailWith(filename, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failures[filename] = reason
}

func (p *Platform) Open(path string) (acbrlib.Handle, error) {
	p.opens.Add(1)
	n := p.inFlight.Add(1)
	defer p.inFlight.Add(-1)
	for {
		peak := p.maxInFlight.Load()
		if n <= peak || p.maxInFlight.CompareAndSwap(peak, n) {
			break
		}
	}

	if err := acbrlib.StatLibrary(path); err != nil {
		return 0, err
	}
	if p.OpenHook != nil {
		p.OpenHook(path)
	}

	name := filepath.Base(path)
	p.mu.Lock()
	defer p.mu.Unlock()
	if reason, ok := p.failures[name]; ok {
		return 0, &acbrlib.LoadError{Path: path, Reason: reason, Err: acbrlib.ErrLoadFailed}
	}
	lib, ok := p.libs[name]
	if !ok {
		return 0, &acbrlib.LoadError{Path: path, Reason: "not a registered fake library", Err: acbrlib.ErrLoadFailed}
	}
	p.nextHandle += 0x10
	h := p.nextHandle
	p.handles[h] = lib
	return h, nil
}

func (p *Platform) Symbol(h acbrlib.Handle, name string) (uintptr, error) {
	p.symbols.Add(1)
	if !h.Valid() {
		return 0, acbrlib.ErrInvalidHandle
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	lib, ok := p.handles[h]
	if !ok {
		return 0, acbrlib.ErrInvalidHandle
	}
	impl, ok := lib.Symbols[name]
	if !ok || impl == nil {
		return 0, &acbrlib.SymbolError{Name: name, Reason: "undefined symbol"}
	}
	p.nextAddr += 0x10
	addr := p.nextAddr
	p.addrs[addr] = impl
	return addr, nil
}

func (p *Platform) Bind(fnPtr any, addr uintptr) error {
	p.binds.Add(1)
	p.mu.Lock()
	impl, ok := p.addrs[addr]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("fakelib: no function at address %#x", addr)
	}

	target := reflect.ValueOf(fnPtr).Elem()
	v := reflect.ValueOf(impl)
	switch {
	case v.Type().AssignableTo(target.Type()):
		target.Set(v)
	case v.Type().ConvertibleTo(target.Type()):
		target.Set(v.Convert(target.Type()))
	default:
		return fmt.Errorf("%w: fake implements %v, caller wants %v", acbrlib.ErrInvalidSignature, v.Type(), target.Type())
	}
	return nil
}

func (p *Platform) Close(h acbrlib.Handle) error {
	p.closes.Add(1)
	if p.CloseErr != nil {
		return p.CloseErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.handles, h)
	return nil
}

// Opens returns the number of Open calls, including failed ones.
func (p *Platform) Opens() int { return int(p.opens.Load()) }

// SymbolLookups returns the number of Symbol calls.
func (p *Platform) SymbolLookups() int { return int(p.symbols.Load()) }

// Binds returns the number of Bind calls.
func (p *Platform) Binds() int { return int(p.binds.Load()) }

// Closes returns the number of Close calls.
func (p *Platform) Closes() int { return int(p.closes.Load()) }

// MaxConcurrentOpens returns the highest number of Open calls observed in
// flight at the same time.
func (p *Platform) MaxConcurrentOpens() int { return int(p.maxInFlight.Load()) }

// LiveHandles returns the number of handles opened and not yet closed.
func (p *Platform) LiveHandles() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handles)
}
