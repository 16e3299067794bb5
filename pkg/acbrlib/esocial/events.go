package esocial

// EmployerType is the kind of registration identifying the employer.
type EmployerType int32

const (
	EmployerCNPJ EmployerType = 1
	EmployerCPF  EmployerType = 2
)

// CreateEvent builds events from an INI file or INI text and keeps them in
// the instance for sending.
func (l *Lib) CreateEvent(pathOrINI string) error {
	return l.callText("eSocial_CriarEventoeSocial", pathOrINI)
}

// LoadXMLEvent adds an event from an XML file or XML text.
func (l *Lib) LoadXMLEvent(pathOrXML string) error {
	return l.callText("eSocial_CarregarXMLEventoeSocial", pathOrXML)
}

// Clear discards every event held by the instance.
func (l *Lib) Clear() error { return l.callPlain("eSocial_LimpareSocial") }

// Validate checks the loaded events against the configured schemas.
func (l *Lib) Validate() error { return l.callPlain("eSocial_Validar") }

// Send transmits the loaded events as the given batch group and returns the
// web service response.
func (l *Lib) Send(group int32) (string, error) {
	const name = "eSocial_EnviareSocial"
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[readIntFunc](l, name)
	if err != nil {
		return "", err
	}
	return l.fixed(name, func(buf *byte, size *int32) int32 {
		return fn(l.instance, group, buf, size)
	})
}

// Query asks the web service for the result of a previously sent batch.
func (l *Lib) Query(protocol string) (string, error) {
	const name = "eSocial_ConsultareSocial"
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[readTextFunc](l, name)
	if err != nil {
		return "", err
	}
	p, err := l.cstr(protocol)
	if err != nil {
		return "", err
	}
	return l.fixed(name, func(buf *byte, size *int32) int32 {
		return fn(l.instance, p, buf, size)
	})
}

// CreateAndSend builds events from an INI file or text and transmits them in
// one call.
func (l *Lib) CreateAndSend(pathOrINI string, group int32) error {
	const name = "eSocial_CriarEnviareSocial"
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[textIntFunc](l, name)
	if err != nil {
		return err
	}
	p, err := l.cstr(pathOrINI)
	if err != nil {
		return err
	}
	return l.call(name, func(inst uintptr) int32 { return fn(inst, p, group) })
}

func (l *Lib) SetEmployerID(id string) error {
	return l.callText("eSocial_SetIDEmpregador", id)
}

func (l *Lib) SetTransmitterID(id string) error {
	return l.callText("eSocial_SetIDTransmissor", id)
}

func (l *Lib) SetEmployerType(t EmployerType) error {
	return l.callInt("eSocial_SetTipoEmpregador", int32(t))
}

// SetVersionDF selects the layout version of generated events, e.g. "S01_02_00".
func (l *Lib) SetVersionDF(version string) error {
	return l.callText("eSocial_SetVersaoDF", version)
}
