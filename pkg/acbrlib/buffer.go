package acbrlib

import (
	"fmt"
	"math"
)

// FillFunc invokes a native entry point that writes text into buf and reports
// the written or required byte count through size. buf is nil during the size
// query phase of ReadSized. The return value is the native status, zero on
// success.
type FillFunc func(buf *byte, size *int32) int32

const (
	// LastReturnCapacity is the fixed buffer used to fetch a library's last
	// return message.
	LastReturnCapacity = 1 << 20
	// ResponseCapacity is the fixed buffer used for transactional responses.
	ResponseCapacity = 64 << 10
)

// maxSizedAttempts bounds the re-queries ReadSized performs when the native
// side reports a larger size on the fill phase than it did on the size query.
const maxSizedAttempts = 3

// Buffer is a caller-owned byte buffer paired with the in/out size field of
// the native protocol. Before a call the size equals the capacity; afterwards
// it holds what the native side wrote or requires. A size above the capacity
// means the buffer was not filled.
type Buffer struct {
	data []byte
	size int32
}

// NewBuffer allocates a zeroed buffer of the given capacity.
func NewBuffer(capacity int) *Buffer {
	if capacity < 0 {
		capacity = 0
	}
	if capacity > math.MaxInt32 {
		capacity = math.MaxInt32
	}
	b := &Buffer{data: make([]byte, capacity)}
	b.Reset()
	return b
}

// Ptr returns the address of the first byte, or nil for an empty buffer.
func (b *Buffer) Ptr() *byte {
	if len(b.data) == 0 {
		return nil
	}
	return &b.data[0]
}

// SizePtr returns the address of the size field handed to the native side.
func (b *Buffer) SizePtr() *int32 { return &b.size }

// Reset restores the size field to the capacity.
func (b *Buffer) Reset() { b.size = int32(len(b.data)) }

func (b *Buffer) Capacity() int { return len(b.data) }

func (b *Buffer) Size() int { return int(b.size) }

// Truncated reports whether the native side asked for more room than the
// buffer has.
func (b *Buffer) Truncated() bool { return int(b.size) > len(b.data) }

// Bytes returns the written prefix, bounded by both the reported size and the
// capacity.
func (b *Buffer) Bytes() []byte {
	n := int(b.size)
	if n < 0 {
		n = 0
	}
	if n > len(b.data) {
		n = len(b.data)
	}
	return b.data[:n]
}

// Text decodes the written prefix up to the first NUL.
func (b *Buffer) Text(enc Encoding) string {
	return enc.Decode(b.Bytes())
}

// ReadFixed performs a single call with a buffer of the given capacity and
// returns the decoded text together with the native status. The text is
// returned even when the status is non-zero since libraries usually explain
// the failure in it.
func ReadFixed(capacity int, fn FillFunc, enc Encoding) (string, int32) {
	buf := NewBuffer(capacity)
	status := fn(buf.Ptr(), buf.SizePtr())
	return buf.Text(enc), status
}

// ReadSized retrieves text of arbitrary length in two calls: a size query with
// a nil buffer, then a fill into exactly required+1 bytes. A non-zero status
// from the size query fails with ErrSizeQueryFailed and the fill is never
// attempted; a non-zero status from the fill fails with ErrFillFailed.
func ReadSized(fn FillFunc, enc Encoding) (string, error) {
	var required int32
	if status := fn(nil, &required); status != 0 {
		return "", &StatusError{Phase: PhaseSizeQuery, Status: status}
	}
	for attempt := 0; attempt < maxSizedAttempts; attempt++ {
		if required < 0 || required == math.MaxInt32 {
			return "", fmt.Errorf("%w: native side reported size %d", ErrInvalidArgument, required)
		}
		buf := NewBuffer(int(required) + 1)
		if status := fn(buf.Ptr(), buf.SizePtr()); status != 0 {
			return "", &StatusError{Phase: PhaseFill, Status: status}
		}
		if !buf.Truncated() {
			return buf.Text(enc), nil
		}
		required = buf.size
	}
	return "", ErrBufferTooSmall
}
