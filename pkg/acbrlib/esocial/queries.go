package esocial

// QueryEmployerEventIDs lists identifiers of employer events of one type in a
// reporting period (YYYY-MM).
func (l *Lib) QueryEmployerEventIDs(employer string, eventType int32, period string) (string, error) {
	const name = "eSocial_ConsultaIdentificadoresEventosEmpregador"
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[employerIDs](l, name)
	if err != nil {
		return "", err
	}
	args, err := l.cstrs(employer, period)
	if err != nil {
		return "", err
	}
	return l.sized(name, func(buf *byte, size *int32) int32 {
		return fn(l.instance, args[0], eventType, args[1], buf, size)
	})
}

// QueryTableEventIDs lists identifiers of table events of one type, filtered
// by key and date range.
func (l *Lib) QueryTableEventIDs(employer string, eventType int32, key, from, to string) (string, error) {
	const name = "eSocial_ConsultaIdentificadoresEventosTabela"
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[tableIDs](l, name)
	if err != nil {
		return "", err
	}
	args, err := l.cstrs(employer, key, from, to)
	if err != nil {
		return "", err
	}
	return l.sized(name, func(buf *byte, size *int32) int32 {
		return fn(l.instance, args[0], eventType, args[1], args[2], args[3], buf, size)
	})
}

// QueryWorkerEventIDs lists identifiers of events about one worker (CPF) in a
// date range.
func (l *Lib) QueryWorkerEventIDs(employer, cpf, from, to string) (string, error) {
	return l.workerRange("eSocial_ConsultaIdentificadoresEventosTrabalhador", employer, cpf, from, to)
}

// DownloadEvents fetches the XML of events about one worker in a date range.
func (l *Lib) DownloadEvents(employer, cpf, from, to string) (string, error) {
	return l.workerRange("eSocial_DownloadEventos", employer, cpf, from, to)
}

func (l *Lib) workerRange(name, employer, cpf, from, to string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn, err := bindLocked[workerIDs](l, name)
	if err != nil {
		return "", err
	}
	args, err := l.cstrs(employer, cpf, from, to)
	if err != nil {
		return "", err
	}
	return l.sized(name, func(buf *byte, size *int32) int32 {
		return fn(l.instance, args[0], args[1], args[2], args[3], buf, size)
	})
}

// Certificates lists the certificates available to the library.
func (l *Lib) Certificates() (string, error) {
	return l.readNamed("eSocial_ObterCertificados")
}
