package esocial

// ConfigRead loads the INI file at path into the instance. An empty path
// rereads the file given at initialization.
func (l *Lib) ConfigRead(path string) error {
	return l.callText("eSocial_ConfigLer", path)
}

// ConfigWrite saves the instance configuration. An empty path writes the file
// given at initialization.
func (l *Lib) ConfigWrite(path string) error {
	return l.callText("eSocial_ConfigGravar", path)
}

// ConfigImport merges settings from an INI file or INI text.
func (l *Lib) ConfigImport(pathOrINI string) error {
	return l.callText("eSocial_ConfigImportar", pathOrINI)
}

// ConfigExport returns the current configuration as INI text.
func (l *Lib) ConfigExport() (string, error) {
	return l.readNamed("eSocial_ConfigExportar")
}

// ConfigReadValue returns one key of one section.
func (l *Lib) ConfigReadValue(section, key string) (string, error) {
	const name = "eSocial_ConfigLerValor"
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[readValue](l, name)
	if err != nil {
		return "", err
	}
	args, err := l.cstrs(section, key)
	if err != nil {
		return "", err
	}
	return l.sized(name, func(buf *byte, size *int32) int32 {
		return fn(l.instance, args[0], args[1], buf, size)
	})
}

// ConfigWriteValue sets one key of one section in memory. Call ConfigWrite
// to persist it.
func (l *Lib) ConfigWriteValue(section, key, value string) error {
	const name = "eSocial_ConfigGravarValor"
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[writeValue](l, name)
	if err != nil {
		return err
	}
	args, err := l.cstrs(section, key, value)
	if err != nil {
		return err
	}
	return l.call(name, func(inst uintptr) int32 {
		return fn(inst, args[0], args[1], args[2])
	})
}
