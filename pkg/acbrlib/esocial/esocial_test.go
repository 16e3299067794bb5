package esocial_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/esocial"
)

func initialized(t *testing.T, h *harness) *esocial.Lib {
	t.Helper()
	lib, err := esocial.New(h.ctx(t), h.loader)
	require.NoError(t, err)
	require.NoError(t, lib.Initialize(h.ctx(t), esocial.InitParams{
		ConfigPath: filepath.Join(h.dir, "acbrlib.ini"),
		CryptKey:   "s3cret",
	}))
	t.Cleanup(func() { _ = lib.Close() })
	return lib
}

func TestNewSharesTheLoadedHandle(t *testing.T) {
	h := newHarness(t)

	for i := 0; i < 3; i++ {
		_, err := esocial.New(h.ctx(t), h.loader)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, h.platform.Opens())
}

func TestNewRequiresLoader(t *testing.T) {
	h := newHarness(t)
	_, err := esocial.New(h.ctx(t), nil)
	require.ErrorIs(t, err, acbrlib.ErrInvalidArgument)
}

func TestCallsBeforeInitialize(t *testing.T) {
	h := newHarness(t)
	lib, err := esocial.New(h.ctx(t), h.loader)
	require.NoError(t, err)

	_, err = lib.Version()
	require.ErrorIs(t, err, esocial.ErrNotInitialized)
	require.ErrorIs(t, lib.Clear(), esocial.ErrNotInitialized)
	_, err = lib.LastReturn()
	require.ErrorIs(t, err, esocial.ErrNotInitialized)
	assert.False(t, lib.Initialized())
	assert.NoError(t, lib.Close())
}

func TestNameAndVersion(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)

	name, err := lib.Name()
	require.NoError(t, err)
	assert.Equal(t, "ACBrLibeSocial", name)

	version, err := lib.Version()
	require.NoError(t, err)
	assert.Equal(t, "1.0.0.91", version)
}

func TestInitializeTwice(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)

	err := lib.Initialize(h.ctx(t), esocial.InitParams{ConfigPath: "other.ini"})
	require.ErrorIs(t, err, esocial.ErrAlreadyInitialized)
}

func TestInitializeFailureForgetsLibrary(t *testing.T) {
	h := newHarness(t)
	h.fake.initFail = -4

	lib, err := esocial.New(h.ctx(t), h.loader)
	require.NoError(t, err)

	err = lib.Initialize(h.ctx(t), esocial.InitParams{ConfigPath: "x.ini"})
	require.ErrorIs(t, err, esocial.ErrCallFailed)
	var ce *esocial.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "eSocial_Inicializar", ce.Func)
	assert.Equal(t, int32(-4), ce.Status)

	assert.False(t, h.loader.Loaded(acbrlib.ESocial))
	assert.Zero(t, h.platform.Closes(), "the handle is forgotten, not closed")

	h.fake.initFail = 0
	_, err = esocial.New(h.ctx(t), h.loader)
	require.NoError(t, err)
	assert.Equal(t, 2, h.platform.Opens())
}

func TestInitializeRejectsNUL(t *testing.T) {
	h := newHarness(t)
	lib, err := esocial.New(h.ctx(t), h.loader)
	require.NoError(t, err)

	err = lib.Initialize(h.ctx(t), esocial.InitParams{ConfigPath: "a\x00b"})
	require.ErrorIs(t, err, acbrlib.ErrInvalidArgument)
	assert.Zero(t, h.platform.Binds())
}

func TestCloseFinalizesAndRemovesOwnedConfig(t *testing.T) {
	h := newHarness(t)
	cfg := filepath.Join(h.dir, "config_owned.ini")

	lib, err := esocial.New(h.ctx(t), h.loader)
	require.NoError(t, err)
	require.NoError(t, lib.Initialize(h.ctx(t), esocial.InitParams{ConfigPath: cfg, RemoveConfigOnClose: true}))
	require.NoError(t, lib.ConfigWrite(""))
	require.FileExists(t, cfg)

	require.NoError(t, lib.Close())
	require.NoError(t, lib.Close())
	assert.NoFileExists(t, cfg)
	assert.Equal(t, 1, h.fake.finalized)
	assert.False(t, lib.Initialized())
	assert.True(t, h.loader.Loaded(acbrlib.ESocial), "closing an instance keeps the library loaded")
}

func TestCloseKeepsUnownedConfig(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)
	require.NoError(t, lib.ConfigWrite(""))

	require.NoError(t, lib.Close())
	assert.FileExists(t, filepath.Join(h.dir, "acbrlib.ini"))
}

func TestConfigValues(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)

	require.NoError(t, lib.ConfigWriteValue("eSocial", "PathSchemas", "/srv/schemas"))
	v, err := lib.ConfigReadValue("eSocial", "PathSchemas")
	require.NoError(t, err)
	assert.Equal(t, "/srv/schemas", v)

	ini, err := lib.ConfigExport()
	require.NoError(t, err)
	assert.Contains(t, ini, "PathSchemas=/srv/schemas")

	require.NoError(t, lib.ConfigRead(""))
	require.NoError(t, lib.ConfigImport("[Principal]\nLogNivel=4\n"))
}

func TestSizedReadFailureCarriesLastReturn(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)

	_, err := lib.ConfigReadValue("eSocial", "Missing")
	require.ErrorIs(t, err, acbrlib.ErrSizeQueryFailed)
	require.ErrorIs(t, err, esocial.ErrCallFailed)
	var ce *esocial.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "eSocial_ConfigLerValor", ce.Func)
	assert.Equal(t, "Chave não encontrada", ce.Message)
}

func TestLastReturnFailureKeepsText(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)
	h.fake.failLastReturn(-1)

	err := lib.Validate()
	var ce *esocial.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "eSocial_Validar", ce.Func)
	assert.Equal(t, "Nenhum evento carregado", ce.Message)

	text, err := lib.LastReturn()
	assert.Equal(t, "Nenhum evento carregado", text)
	require.ErrorIs(t, err, esocial.ErrCallFailed)
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "eSocial_UltimoRetorno", ce.Func)
	assert.Equal(t, int32(-1), ce.Status)
	assert.Equal(t, "Nenhum evento carregado", ce.Message)
	assert.Contains(t, err.Error(), "Nenhum evento carregado")
}

func TestEventsAndSend(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)

	_, err := lib.Send(1)
	var ce *esocial.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Nenhum evento para enviar", ce.Message, "the response buffer explains the failure")

	err = lib.Validate()
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Nenhum evento carregado", ce.Message)

	err = lib.LoadXMLEvent("")
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, int32(-10), ce.Status)

	require.NoError(t, lib.LoadXMLEvent("<eSocial/>"))
	require.NoError(t, lib.CreateEvent("[evtInfoEmpregador]\n"))
	require.NoError(t, lib.Validate())

	resp, err := lib.Send(1)
	require.NoError(t, err)
	assert.Contains(t, resp, "Grupo=1")

	last, err := lib.LastReturn()
	require.NoError(t, err)
	assert.Equal(t, "lote enviado", last)

	require.NoError(t, lib.Clear())
	require.Error(t, lib.Validate())

	require.NoError(t, lib.CreateAndSend("[evtTabRubrica]\n", 2))
	require.NoError(t, lib.Validate())

	resp, err = lib.Query("1.2.201907.0000000000000000001")
	require.NoError(t, err)
	assert.Contains(t, resp, "Protocolo=1.2.201907.0000000000000000001")
}

func TestIdentification(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)

	require.NoError(t, lib.SetEmployerID("12345678000199"))
	require.NoError(t, lib.SetTransmitterID("12345678000199"))
	require.NoError(t, lib.SetEmployerType(esocial.EmployerCNPJ))
	require.NoError(t, lib.SetVersionDF("S01_02_00"))

	err := lib.SetEmployerType(esocial.EmployerType(9))
	var ce *esocial.CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "Tipo de empregador inválido", ce.Message)
}

func TestQueries(t *testing.T) {
	h := newHarness(t)
	lib := initialized(t, h)

	got, err := lib.QueryEmployerEventIDs("12345678", 1, "2024-05")
	require.NoError(t, err)
	assert.Equal(t, "12345678|2024-05", got)

	got, err = lib.QueryTableEventIDs("12345678", 2, "CHAVE", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, "CHAVE|2024-01-01|2024-01-31", got)

	got, err = lib.DownloadEvents("12345678", "12345678901", "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.Equal(t, `<eSocial cpf="12345678901"/>`, got)

	_, err = lib.QueryWorkerEventIDs("12345678", "12345678901", "2024-01-01", "2024-01-31")
	require.ErrorIs(t, err, acbrlib.ErrSizeQueryFailed)

	certs, err := lib.Certificates()
	require.NoError(t, err)
	assert.Contains(t, certs, "EMPRESA LTDA")
}

func TestMissingEntryPoint(t *testing.T) {
	h := newHarness(t)
	partial := h.fake.library()
	delete(partial.Symbols, "eSocial_Versao")
	h.platform.Register(acbrlib.ESocial.Filename(), partial)

	lib := initialized(t, h)
	_, err := lib.Version()
	require.ErrorIs(t, err, acbrlib.ErrSymbolNotFound)
	assert.EqualError(t, err, "function not found: eSocial_Versao")

	_, err = lib.Name()
	require.NoError(t, err)
}

func TestLibraryFileMissing(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, os.Remove(filepath.Join(h.dir, acbrlib.ESocial.Filename())))

	_, err := esocial.New(h.ctx(t), h.loader)
	require.ErrorIs(t, err, acbrlib.ErrNotFound)
}
