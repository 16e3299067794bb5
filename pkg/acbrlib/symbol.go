package acbrlib

import (
	"errors"
	"fmt"
	"reflect"
)

type symbolKey struct {
	handle Handle
	name   string
	typ    reflect.Type
}

// Resolve returns the address of the entry point name inside the library
// behind h. A zero handle is rejected before the platform is consulted.
func (l *Loader) Resolve(h Handle, name string) (uintptr, error) {
	if !h.Valid() {
		return 0, ErrInvalidHandle
	}
	if name == "" {
		return 0, fmt.Errorf("%w: empty symbol name", ErrInvalidArgument)
	}
	addr, err := l.platform.Symbol(h, name)
	if err != nil {
		var se *SymbolError
		if errors.As(err, &se) {
			return 0, se
		}
		if errors.Is(err, ErrInvalidHandle) {
			return 0, err
		}
		return 0, &SymbolError{Name: name, Reason: err.Error()}
	}
	if addr == 0 {
		return 0, &SymbolError{Name: name, Reason: "nil address"}
	}
	return addr, nil
}

// Bind resolves name and points the func variable behind fnPtr at it. The
// function type spells out the native signature; it may only use kinds that
// map one-to-one onto C scalars and pointers (see CheckSignature). This is the
// only place an address becomes a callable.
func (l *Loader) Bind(h Handle, name string, fnPtr any) error {
	v := reflect.ValueOf(fnPtr)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("%w: want a non-nil pointer to a func, got %T", ErrInvalidSignature, fnPtr)
	}
	if err := CheckSignature(v.Elem().Type()); err != nil {
		return err
	}
	addr, err := l.Resolve(h, name)
	if err != nil {
		return err
	}
	if err := l.platform.Bind(fnPtr, addr); err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	return nil
}

// Func returns a typed callable for name, binding it on first use and serving
// later calls from a per-handle cache. Handles no longer registered with the
// loader are bound on every call and never cached.
//
//	type nameFunc func(lib uintptr, buf *byte, size *int32) int32
//	fn, err := acbrlib.Func[nameFunc](loader, h, "eSocial_Nome")
func Func[F any](l *Loader, h Handle, name string) (F, error) {
	var zero F
	key := symbolKey{handle: h, name: name, typ: reflect.TypeFor[F]()}
	if v, ok := l.symbols.Load(key); ok {
		return v.(F), nil
	}
	var fn F
	if err := l.Bind(h, name, &fn); err != nil {
		return zero, err
	}
	// Forget, Unload and Close sweep the cache after removing the entry, so a
	// store made under the read lock while h is registered is always swept.
	l.mu.RLock()
	defer l.mu.RUnlock()
	if !l.registered(h) {
		return fn, nil
	}
	v, _ := l.symbols.LoadOrStore(key, fn)
	return v.(F), nil
}

func (l *Loader) dropSymbols(h Handle) {
	l.symbols.Range(func(k, _ any) bool {
		if k.(symbolKey).handle == h {
			l.symbols.Delete(k)
		}
		return true
	})
}

// CheckSignature reports whether t is a function type the loader can bind:
// not variadic, parameters limited to fixed-size integers, floats, bool,
// uintptr and pointers, and at most one scalar result.
func CheckSignature(t reflect.Type) error {
	if t == nil || t.Kind() != reflect.Func {
		return fmt.Errorf("%w: %v is not a func type", ErrInvalidSignature, t)
	}
	if t.IsVariadic() {
		return fmt.Errorf("%w: variadic functions are not supported", ErrInvalidSignature)
	}
	for i := 0; i < t.NumIn(); i++ {
		if !paramKinds[t.In(i).Kind()] {
			return fmt.Errorf("%w: parameter %d has unsupported type %v", ErrInvalidSignature, i, t.In(i))
		}
	}
	switch t.NumOut() {
	case 0:
	case 1:
		if !resultKinds[t.Out(0).Kind()] {
			return fmt.Errorf("%w: result has unsupported type %v", ErrInvalidSignature, t.Out(0))
		}
	default:
		return fmt.Errorf("%w: %d results, at most one is supported", ErrInvalidSignature, t.NumOut())
	}
	return nil
}

var paramKinds = map[reflect.Kind]bool{
	reflect.Bool:          true,
	reflect.Int32:         true,
	reflect.Int64:         true,
	reflect.Uint32:        true,
	reflect.Uint64:        true,
	reflect.Uintptr:       true,
	reflect.Float32:       true,
	reflect.Float64:       true,
	reflect.Pointer:       true,
	reflect.UnsafePointer: true,
}

var resultKinds = map[reflect.Kind]bool{
	reflect.Bool:          true,
	reflect.Int32:         true,
	reflect.Int64:         true,
	reflect.Uint32:        true,
	reflect.Uint64:        true,
	reflect.Uintptr:       true,
	reflect.Float32:       true,
	reflect.Float64:       true,
	reflect.UnsafePointer: true,
}
