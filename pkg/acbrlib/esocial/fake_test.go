package esocial_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/fakelib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

// fakeESocial emulates the native component: a table of instances, each with
// an INI-like key store, loaded events and a last return message.
type fakeESocial struct {
	mu        sync.Mutex
	next      uintptr
	instances map[uintptr]*fakeInstance
	initFail  int32
	finalized int

	lastReturnStatus int32
}

type fakeInstance struct {
	config     string
	values     map[string]string
	events     []string
	lastReturn string
	employer   string
}

func newFakeESocial() *fakeESocial {
	return &fakeESocial{next: 0x100, instances: make(map[uintptr]*fakeInstance)}
}

func (f *fakeESocial) inst(lib uintptr) *fakeInstance {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.instances[lib]
}

// failLastReturn makes eSocial_UltimoRetorno report status after writing its
// text.
func (f *fakeESocial) failLastReturn(status int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastReturnStatus = status
}

func (f *fakeESocial) library() *fakelib.Library {
	text := func(fn func(in *fakeInstance, s string) int32) func(uintptr, *byte) int32 {
		return func(lib uintptr, s *byte) int32 {
			in := f.inst(lib)
			if in == nil {
				return -1
			}
			return fn(in, fakelib.GoString(s))
		}
	}
	read := func(fn func(in *fakeInstance) string) func(uintptr, *byte, *int32) int32 {
		return func(lib uintptr, buf *byte, size *int32) int32 {
			in := f.inst(lib)
			if in == nil {
				return -1
			}
			return fakelib.WriteText(buf, size, fn(in))
		}
	}

	return &fakelib.Library{Symbols: map[string]any{
		"eSocial_Inicializar": func(lib *uintptr, cfg, key *byte) int32 {
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.initFail != 0 {
				return f.initFail
			}
			f.next += 0x10
			f.instances[f.next] = &fakeInstance{config: fakelib.GoString(cfg), values: map[string]string{}}
			*lib = f.next
			return 0
		},
		"eSocial_Finalizar": func(lib uintptr) int32 {
			f.mu.Lock()
			defer f.mu.Unlock()
			if _, ok := f.instances[lib]; !ok {
				return -1
			}
			delete(f.instances, lib)
			f.finalized++
			return 0
		},
		"eSocial_Nome":          read(func(*fakeInstance) string { return "ACBrLibeSocial" }),
		"eSocial_Versao":        read(func(*fakeInstance) string { return "1.0.0.91" }),
		"eSocial_UltimoRetorno": func(lib uintptr, buf *byte, size *int32) int32 {
			in := f.inst(lib)
			if in == nil {
				return -1
			}
			status := fakelib.WriteText(buf, size, in.lastReturn)
			f.mu.Lock()
			defer f.mu.Unlock()
			if f.lastReturnStatus != 0 {
				return f.lastReturnStatus
			}
			return status
		},
		"eSocial_ConfigExportar": read(func(in *fakeInstance) string {
			return "[eSocial]\nPathSchemas=" + in.values["eSocial.PathSchemas"] + "\n"
		}),
		"eSocial_ObterCertificados": read(func(*fakeInstance) string { return "0123|CN=EMPRESA LTDA" }),
		"eSocial_ConfigLer":         text(func(*fakeInstance, string) int32 { return 0 }),
		"eSocial_ConfigImportar":    text(func(*fakeInstance, string) int32 { return 0 }),
		"eSocial_ConfigGravar": text(func(in *fakeInstance, path string) int32 {
			if path == "" {
				path = in.config
			}
			if err := os.WriteFile(path, []byte("[Principal]\n"), 0o600); err != nil {
				in.lastReturn = err.Error()
				return -5
			}
			return 0
		}),
		"eSocial_ConfigGravarValor": func(lib uintptr, section, key, value *byte) int32 {
			in := f.inst(lib)
			in.values[fakelib.GoString(section)+"."+fakelib.GoString(key)] = fakelib.GoString(value)
			return 0
		},
		"eSocial_ConfigLerValor": func(lib uintptr, section, key *byte, buf *byte, size *int32) int32 {
			in := f.inst(lib)
			v, ok := in.values[fakelib.GoString(section)+"."+fakelib.GoString(key)]
			if !ok {
				in.lastReturn = "Chave não encontrada"
				return -1
			}
			return fakelib.WriteText(buf, size, v)
		},
		"eSocial_CriarEventoeSocial": text(func(in *fakeInstance, ini string) int32 {
			in.events = append(in.events, ini)
			return 0
		}),
		"eSocial_CarregarXMLEventoeSocial": text(func(in *fakeInstance, xml string) int32 {
			if xml == "" {
				in.lastReturn = "XML vazio"
				return -10
			}
			in.events = append(in.events, xml)
			return 0
		}),
		"eSocial_LimpareSocial": func(lib uintptr) int32 {
			f.inst(lib).events = nil
			return 0
		},
		"eSocial_Validar": func(lib uintptr) int32 {
			in := f.inst(lib)
			if len(in.events) == 0 {
				in.lastReturn = "Nenhum evento carregado"
				return -1
			}
			return 0
		},
		"eSocial_EnviareSocial": func(lib uintptr, group int32, buf *byte, size *int32) int32 {
			in := f.inst(lib)
			if len(in.events) == 0 {
				fakelib.WriteText(buf, size, "Nenhum evento para enviar")
				return -1
			}
			in.lastReturn = "lote enviado"
			return fakelib.WriteText(buf, size, "[Envio]\nGrupo="+string(rune('0'+group))+"\n")
		},
		"eSocial_ConsultareSocial": func(lib uintptr, protocol *byte, buf *byte, size *int32) int32 {
			return fakelib.WriteText(buf, size, "[Consulta]\nProtocolo="+fakelib.GoString(protocol)+"\n")
		},
		"eSocial_CriarEnviareSocial": func(lib uintptr, ini *byte, group int32) int32 {
			in := f.inst(lib)
			in.events = append(in.events, fakelib.GoString(ini))
			return 0
		},
		"eSocial_SetIDEmpregador": text(func(in *fakeInstance, id string) int32 {
			in.employer = id
			return 0
		}),
		"eSocial_SetIDTransmissor": text(func(*fakeInstance, string) int32 { return 0 }),
		"eSocial_SetVersaoDF":      text(func(*fakeInstance, string) int32 { return 0 }),
		"eSocial_SetTipoEmpregador": func(lib uintptr, n int32) int32 {
			if n != 1 && n != 2 {
				f.inst(lib).lastReturn = "Tipo de empregador inválido"
				return -1
			}
			return 0
		},
		"eSocial_ConsultaIdentificadoresEventosEmpregador": func(lib uintptr, employer *byte, eventType int32, period *byte, buf *byte, size *int32) int32 {
			return fakelib.WriteText(buf, size, fakelib.GoString(employer)+"|"+fakelib.GoString(period))
		},
		"eSocial_ConsultaIdentificadoresEventosTabela": func(lib uintptr, employer *byte, eventType int32, key, from, to *byte, buf *byte, size *int32) int32 {
			return fakelib.WriteText(buf, size, fakelib.GoString(key)+"|"+fakelib.GoString(from)+"|"+fakelib.GoString(to))
		},
		"eSocial_ConsultaIdentificadoresEventosTrabalhador": func(lib uintptr, employer, cpf, from, to *byte, buf *byte, size *int32) int32 {
			if buf == nil {
				return 3
			}
			return 0
		},
		"eSocial_DownloadEventos": func(lib uintptr, employer, cpf, from, to *byte, buf *byte, size *int32) int32 {
			return fakelib.WriteText(buf, size, "<eSocial cpf=\""+fakelib.GoString(cpf)+"\"/>")
		},
	}}
}

type harness struct {
	loader   *acbrlib.Loader
	platform *fakelib.Platform
	fake     *fakeESocial
	dir      string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("ACBRLIB_ESOCIAL_TEST_PATH", "")

	dir := t.TempDir()
	fake := newFakeESocial()
	p := fakelib.New()
	p.Register(acbrlib.ESocial.Filename(), fake.library())
	require.NoError(t, os.WriteFile(filepath.Join(dir, acbrlib.ESocial.Filename()), []byte("stub"), 0o600))

	loader, err := acbrlib.NewLoader(acbrlib.Config{
		ResourcesDir:  dir,
		SearchPathEnv: "ACBRLIB_ESOCIAL_TEST_PATH",
		Platform:      p,
		Logger:        logging.Nop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = loader.Close() })
	return &harness{loader: loader, platform: p, fake: fake, dir: dir}
}

func (h *harness) ctx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
