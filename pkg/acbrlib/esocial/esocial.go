package esocial

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

// Native entry point shapes. The first argument of every call but
// initialization is the instance pointer returned by eSocial_Inicializar.
type (
	initFunc     func(lib *uintptr, configPath, cryptKey *byte) int32
	instFunc     func(lib uintptr) int32
	readFunc     func(lib uintptr, buf *byte, size *int32) int32
	textFunc     func(lib uintptr, s *byte) int32
	intFunc      func(lib uintptr, n int32) int32
	textIntFunc  func(lib uintptr, s *byte, n int32) int32
	readIntFunc  func(lib uintptr, n int32, buf *byte, size *int32) int32
	readTextFunc func(lib uintptr, s *byte, buf *byte, size *int32) int32
	readValue    func(lib uintptr, section, key *byte, buf *byte, size *int32) int32
	writeValue   func(lib uintptr, section, key, value *byte) int32
	employerIDs  func(lib uintptr, employer *byte, eventType int32, period *byte, buf *byte, size *int32) int32
	tableIDs     func(lib uintptr, employer *byte, eventType int32, key, from, to *byte, buf *byte, size *int32) int32
	workerIDs    func(lib uintptr, employer, cpf, from, to *byte, buf *byte, size *int32) int32
)

// Lib is one native eSocial instance.
type Lib struct {
	loader *acbrlib.Loader
	handle acbrlib.Handle
	enc    acbrlib.Encoding
	log    logging.Logger

	mu           sync.Mutex
	instance     uintptr
	configPath   string
	removeConfig bool
}

type Option func(*Lib)

// WithLogger overrides the loader's logger.
func WithLogger(log logging.Logger) Option {
	return func(l *Lib) {
		if log != nil {
			l.log = log
		}
	}
}

// WithEncoding overrides the loader's text encoding.
func WithEncoding(enc acbrlib.Encoding) Option {
	return func(l *Lib) { l.enc = enc }
}

// New loads the eSocial component through loader. The returned Lib must be
// initialized before any other call.
func New(ctx context.Context, loader *acbrlib.Loader, opts ...Option) (*Lib, error) {
	if loader == nil {
		return nil, fmt.Errorf("%w: nil loader", acbrlib.ErrInvalidArgument)
	}
	h, err := loader.GetOrLoad(ctx, acbrlib.ESocial)
	if err != nil {
		return nil, err
	}
	l := &Lib{
		loader: loader,
		handle: h,
		enc:    loader.Encoding(),
		log:    loader.Logger(),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.log = logging.Component(l.log, "esocial")
	return l, nil
}

// InitParams configures Initialize.
type InitParams struct {
	// ConfigPath is the INI file the instance reads and writes. The library
	// creates it when missing.
	ConfigPath string
	// CryptKey protects passwords stored in the INI file.
	CryptKey string
	// RemoveConfigOnClose deletes ConfigPath when the Lib is closed.
	RemoveConfigOnClose bool
}

// Initialize creates the native instance. A failed initialization makes the
// loader forget the component so the next New reloads it.
func (l *Lib) Initialize(ctx context.Context, p InitParams) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.instance != 0 {
		return ErrAlreadyInitialized
	}

	cfg, err := l.enc.CString(p.ConfigPath)
	if err != nil {
		return err
	}
	key, err := l.enc.CString(p.CryptKey)
	if err != nil {
		return err
	}
	fn, err := acbrlib.Func[initFunc](l.loader, l.handle, "eSocial_Inicializar")
	if err != nil {
		return err
	}

	var instance uintptr
	status := fn(&instance, &cfg[0], &key[0])
	switch {
	case status != 0:
		l.loader.Forget(acbrlib.ESocial)
		l.log.Warn(ctx, "initialization failed", "config", p.ConfigPath, "status", status)
		return &CallError{Func: "eSocial_Inicializar", Status: status}
	case instance == 0:
		l.loader.Forget(acbrlib.ESocial)
		return ErrNullInstance
	}

	l.instance = instance
	l.configPath = p.ConfigPath
	l.removeConfig = p.RemoveConfigOnClose
	l.log.Debug(ctx, "instance initialized", "config", p.ConfigPath, logging.Redacted("crypt_key"))
	return nil
}

// Initialized reports whether the native instance exists.
func (l *Lib) Initialized() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.instance != 0
}

// Close finalizes the native instance and, when requested at initialization,
// removes its configuration file. Calling Close again is a no-op.
func (l *Lib) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.instance == 0 {
		return nil
	}

	var errs []error
	fn, err := acbrlib.Func[instFunc](l.loader, l.handle, "eSocial_Finalizar")
	if err != nil {
		errs = append(errs, err)
	} else if status := fn(l.instance); status != 0 {
		errs = append(errs, &CallError{Func: "eSocial_Finalizar", Status: status})
	}
	l.instance = 0

	if l.removeConfig && l.configPath != "" {
		if err := os.Remove(l.configPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, fmt.Errorf("esocial: remove config: %w", err))
		}
	}
	l.log.Debug(context.Background(), "instance finalized", "config", l.configPath)
	return errors.Join(errs...)
}

// LastReturn returns the text the library left for its most recent call. When
// the library reports a failure the text is still returned, alongside a
// CallError carrying it as Message.
func (l *Lib) LastReturn() (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastReturn()
}

func (l *Lib) lastReturn() (string, error) {
	if l.instance == 0 {
		return "", ErrNotInitialized
	}
	fn, err := acbrlib.Func[readFunc](l.loader, l.handle, "eSocial_UltimoRetorno")
	if err != nil {
		return "", err
	}
	text, status := acbrlib.ReadFixed(acbrlib.LastReturnCapacity, func(buf *byte, size *int32) int32 {
		return fn(l.instance, buf, size)
	}, l.enc)
	if status != 0 {
		return text, &CallError{Func: "eSocial_UltimoRetorno", Status: status, Message: text}
	}
	return text, nil
}

// failure builds the CallError for a non-zero status, filling the message
// from the last return when the call produced none. The text is kept even
// when fetching it fails.
func (l *Lib) failure(name string, status int32, message string, cause error) error {
	if message == "" {
		message, _ = l.lastReturn()
	}
	return &CallError{Func: name, Status: status, Message: message, Err: cause}
}

// bindLocked resolves a typed entry point for the current instance. Callers
// hold l.mu.
func bindLocked[F any](l *Lib, name string) (F, error) {
	var zero F
	if l.instance == 0 {
		return zero, ErrNotInitialized
	}
	return acbrlib.Func[F](l.loader, l.handle, name)
}

func (l *Lib) cstr(s string) (*byte, error) {
	b, err := l.enc.CString(s)
	if err != nil {
		return nil, err
	}
	return &b[0], nil
}

func (l *Lib) cstrs(ss ...string) ([]*byte, error) {
	out := make([]*byte, len(ss))
	for i, s := range ss {
		p, err := l.cstr(s)
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

func (l *Lib) call(name string, invoke func(inst uintptr) int32) error {
	if l.instance == 0 {
		return ErrNotInitialized
	}
	if status := invoke(l.instance); status != 0 {
		return l.failure(name, status, "", nil)
	}
	return nil
}

// sized runs the two-phase read protocol against an entry point.
func (l *Lib) sized(name string, fill acbrlib.FillFunc) (string, error) {
	text, err := acbrlib.ReadSized(fill, l.enc)
	var se *acbrlib.StatusError
	if errors.As(err, &se) {
		return "", l.failure(name, se.Status, "", err)
	}
	return text, err
}

// fixed reads a transactional response into a ResponseCapacity buffer.
func (l *Lib) fixed(name string, fill acbrlib.FillFunc) (string, error) {
	text, status := acbrlib.ReadFixed(acbrlib.ResponseCapacity, fill, l.enc)
	if status != 0 {
		return "", l.failure(name, status, text, nil)
	}
	return text, nil
}

func (l *Lib) readNamed(name string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[readFunc](l, name)
	if err != nil {
		return "", err
	}
	return l.sized(name, func(buf *byte, size *int32) int32 {
		return fn(l.instance, buf, size)
	})
}

// Name returns the component name reported by the library.
func (l *Lib) Name() (string, error) { return l.readNamed("eSocial_Nome") }

// Version returns the component version reported by the library.
func (l *Lib) Version() (string, error) { return l.readNamed("eSocial_Versao") }

func (l *Lib) callText(name, arg string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[textFunc](l, name)
	if err != nil {
		return err
	}
	p, err := l.cstr(arg)
	if err != nil {
		return err
	}
	return l.call(name, func(inst uintptr) int32 { return fn(inst, p) })
}

func (l *Lib) callInt(name string, n int32) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[intFunc](l, name)
	if err != nil {
		return err
	}
	return l.call(name, func(inst uintptr) int32 { return fn(inst, n) })
}

func (l *Lib) callPlain(name string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[instFunc](l, name)
	if err != nil {
		return err
	}
	return l.call(name, func(inst uintptr) int32 { return fn(inst) })
}
