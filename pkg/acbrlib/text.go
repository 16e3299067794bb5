package acbrlib

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
)

// Encoding selects the character set the native side uses for text. ACBr
// libraries answer in UTF-8 unless configured for the ANSI code page, which is
// Windows-1252 on Brazilian installations.
type Encoding int

const (
	UTF8 Encoding = iota
	Windows1252
	ISO8859_1
)

func (e Encoding) String() string {
	switch e {
	case UTF8:
		return "utf-8"
	case Windows1252:
		return "windows-1252"
	case ISO8859_1:
		return "iso-8859-1"
	default:
		return fmt.Sprintf("Encoding(%d)", int(e))
	}
}

// ParseEncoding accepts the names printed by Encoding.String.
func ParseEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return UTF8, nil
	case "windows-1252", "cp1252", "ansi":
		return Windows1252, nil
	case "iso-8859-1", "latin1":
		return ISO8859_1, nil
	default:
		return 0, fmt.Errorf("%w: unknown encoding %q", ErrInvalidArgument, name)
	}
}

func (e Encoding) codec() encoding.Encoding {
	switch e {
	case Windows1252:
		return charmap.Windows1252
	case ISO8859_1:
		return charmap.ISO8859_1
	default:
		return unicode.UTF8
	}
}

// Decode converts native bytes to a Go string. Decoding stops at the first NUL
// and is always lossy: illegal sequences become U+FFFD instead of failing.
func (e Encoding) Decode(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if len(b) == 0 {
		return ""
	}
	out, err := e.codec().NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "�")
	}
	return string(out)
}

// CString encodes s for the native side and appends the NUL terminator. It is
// the one-call convention for passing text in. Strings with an interior NUL
// are rejected because the native side would silently truncate them.
func (e Encoding) CString(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, fmt.Errorf("%w: string contains a NUL byte", ErrInvalidArgument)
	}
	var out []byte
	if e == UTF8 {
		out = []byte(s)
	} else {
		enc := encoding.ReplaceUnsupported(e.codec().NewEncoder())
		b, err := enc.Bytes([]byte(s))
		if err != nil {
			return nil, fmt.Errorf("%w: encode %s: %v", ErrInvalidArgument, e, err)
		}
		out = b
	}
	return append(out, 0), nil
}
