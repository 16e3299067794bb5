package stress

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/fakelib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

// sessionFake implements the entry points an ESocialTask touches.
type sessionFake struct {
	mu        sync.Mutex
	next      uintptr
	live      map[uintptr]string
	sent      int
	finalized int
}

func (f *sessionFake) library() *fakelib.Library {
	return &fakelib.Library{Symbols: map[string]any{
		"eSocial_Inicializar": func(lib *uintptr, cfg, key *byte) int32 {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.next++
			f.live[f.next] = fakelib.GoString(cfg)
			*lib = f.next
			return 0
		},
		"eSocial_Finalizar": func(lib uintptr) int32 {
			f.mu.Lock()
			defer f.mu.Unlock()
			delete(f.live, lib)
			f.finalized++
			return 0
		},
		"eSocial_ConfigGravarValor": func(lib uintptr, section, key, value *byte) int32 { return 0 },
		"eSocial_ConfigGravar": func(lib uintptr, path *byte) int32 {
			if err := os.WriteFile(fakelib.GoString(path), []byte("[Principal]\n"), 0o600); err != nil {
				return -1
			}
			return 0
		},
		"eSocial_Versao": func(lib uintptr, buf *byte, size *int32) int32 {
			return fakelib.WriteText(buf, size, "1.0.0.91")
		},
		"eSocial_CarregarXMLEventoeSocial": func(lib uintptr, xml *byte) int32 { return 0 },
		"eSocial_EnviareSocial": func(lib uintptr, group int32, buf *byte, size *int32) int32 {
			f.mu.Lock()
			f.sent++
			f.mu.Unlock()
			return fakelib.WriteText(buf, size, "[Envio]\nCodigo=201\n")
		},
		"eSocial_UltimoRetorno": func(lib uintptr, buf *byte, size *int32) int32 {
			return fakelib.WriteText(buf, size, "Lote recebido com sucesso")
		},
	}}
}

func TestESocialTaskUnderContention(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	t.Setenv("ACBRLIB_STRESS_TEST_PATH", "")

	dir := t.TempDir()
	tempINI := filepath.Join(dir, "temp_ini")
	require.NoError(t, os.MkdirAll(tempINI, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, acbrlib.ESocial.Filename()), []byte("stub"), 0o600))

	fake := &sessionFake{live: map[uintptr]string{}}
	p := fakelib.New()
	p.Register(acbrlib.ESocial.Filename(), fake.library())
	p.OpenHook = func(string) { time.Sleep(20 * time.Millisecond) }

	loader, err := acbrlib.NewLoader(acbrlib.Config{
		ResourcesDir:  dir,
		SearchPathEnv: "ACBRLIB_STRESS_TEST_PATH",
		Platform:      p,
		Logger:        logging.Nop(),
	})
	require.NoError(t, err)
	defer loader.Close()

	task := ESocialTask(loader, Scenario{
		TempDir:     tempINI,
		LogPath:     filepath.Join(dir, "logs"),
		SchemasPath: filepath.Join(dir, "schemas"),
		EventXML:    "<eSocial/>",
		Group:       1,
	})

	opts := fastOptions(40, 8)
	opts.MaxRetries = 200
	rep, err := Run(ctx, task, opts)
	require.NoError(t, err)

	assert.Equal(t, 40, rep.Succeeded, "errors: %v", rep.Errors)
	assert.Equal(t, 1, p.Opens())
	assert.Equal(t, 1, p.MaxConcurrentOpens())
	assert.Equal(t, 40, fake.sent)
	assert.Equal(t, 40, fake.finalized)
	assert.Empty(t, fake.live)

	leftovers, err := os.ReadDir(tempINI)
	require.NoError(t, err)
	assert.Empty(t, leftovers, "every task removes its config file")
}
