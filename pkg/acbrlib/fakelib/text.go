package fakelib

import "unsafe"

// WriteText implements the ACBr output convention inside a fake entry point:
// with a nil buffer it only reports the required size; otherwise it copies as
// much of text as fits in *size bytes, NUL-terminates when there is room, and
// sets *size to the full length of text.
func WriteText(buf *byte, size *int32, text string) int32 {
	n := int32(len(text))
	if buf == nil || *size <= 0 {
		*size = n
		return 0
	}
	dst := unsafe.Slice(buf, int(*size))
	copied := copy(dst, text)
	if copied < len(dst) {
		dst[copied] = 0
	}
	*size = n
	return 0
}

// GoString reads the NUL-terminated string a binding passed in.
func GoString(p *byte) string {
	if p == nil {
		return ""
	}
	var n int
	for *(*byte)(unsafe.Add(unsafe.Pointer(p), n)) != 0 {
		n++
	}
	return string(unsafe.Slice(p, n))
}
