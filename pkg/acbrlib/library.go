package acbrlib

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
)

// LibraryID names one native ACBr component.
type LibraryID int

const (
	ESocial LibraryID = iota + 1
	Reinf
	NFe
	CTe
	MDFe
	BPe
	GNRe
	Boleto
)

// stems holds the vendor spelling of each component, used verbatim in file
// names.
var stems = map[LibraryID]string{
	ESocial: "eSocial",
	Reinf:   "Reinf",
	NFe:     "NFe",
	CTe:     "CTe",
	MDFe:    "MDFe",
	BPe:     "BPe",
	GNRe:    "GNRe",
	Boleto:  "Boleto",
}

// Libraries lists every known identifier in declaration order.
func Libraries() []LibraryID {
	return []LibraryID{ESocial, Reinf, NFe, CTe, MDFe, BPe, GNRe, Boleto}
}

func (id LibraryID) String() string {
	if s, ok := stems[id]; ok {
		return s
	}
	return "LibraryID(" + strconv.Itoa(int(id)) + ")"
}

// Valid reports whether id names a known component.
func (id LibraryID) Valid() bool {
	_, ok := stems[id]
	return ok
}

// Filename returns the canonical file name of the component for the running
// platform, e.g. ACBreSocial64.dll on windows or libacbresocial64.so on linux.
// It returns "" for unknown identifiers.
func (id LibraryID) Filename() string {
	return filename(id, runtime.GOOS, strconv.IntSize)
}

func filename(id LibraryID, goos string, bits int) string {
	stem, ok := stems[id]
	if !ok {
		return ""
	}
	switch goos {
	case "windows":
		return fmt.Sprintf("ACBr%s%d.dll", stem, bits)
	case "darwin":
		return fmt.Sprintf("libacbr%s%d.dylib", strings.ToLower(stem), bits)
	default:
		return fmt.Sprintf("libacbr%s%d.so", strings.ToLower(stem), bits)
	}
}

// ParseLibraryID maps a component name (case-insensitive) back to its
// identifier.
func ParseLibraryID(name string) (LibraryID, error) {
	for id, stem := range stems {
		if strings.EqualFold(stem, name) {
			return id, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLibrary, name)
}
