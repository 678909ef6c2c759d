package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// NullLength marks a null string or buffer, distinct from an empty one.
	NullLength uint32 = 0xFFFFFFFF
	// NullPointer is the normalized form of a zero pointer.
	NullPointer = "0x0"
	// TypeLen is the width of an object type tag ("int", "hda", ...).
	TypeLen = 3
)

var (
	ErrTruncatedInput = errors.New("wire: truncated input")
	ErrMalformedFrame = errors.New("wire: malformed frame")
	ErrInvalidPointer = errors.New("wire: invalid pointer")
	ErrInvalidNumber  = errors.New("wire: invalid number")
)

// ReadU32 interprets the first 4 bytes of b as a big-endian unsigned integer.
func ReadU32(b []byte) (uint32, error) {
	if len(b) < 4 {
		return 0, fmt.Errorf("%w: need 4 bytes for length, have %d", ErrMalformedFrame, len(b))
	}
	return binary.BigEndian.Uint32(b[0:4]), nil
}

// Reader is a forward-only cursor over one decoded frame body.
type Reader struct {
	buf []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

// Offset reports the number of bytes consumed so far.
func (r *Reader) Offset() int {
	return r.off
}

// Remaining reports the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.buf) - r.off
}

func (r *Reader) take(n int, what string) ([]byte, error) {
	if n < 0 || n > r.Remaining() {
		return nil, fmt.Errorf("%w: %s needs %d bytes at offset %d, have %d", ErrTruncatedInput, what, n, r.off, r.Remaining())
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) U32() (uint32, error) {
	b, err := r.take(4, "u32")
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (r *Reader) Int32() (int32, error) {
	b, err := r.take(4, "int32")
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

func (r *Reader) Int64() (int64, error) {
	b, err := r.take(8, "int64")
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

func (r *Reader) Char() (byte, error) {
	b, err := r.take(1, "char")
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// Type reads a 3-byte object type tag.
func (r *Reader) Type() (string, error) {
	b, err := r.take(TypeLen, "type")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Buffer reads a 4-byte length prefix and that many raw bytes. The null
// length yields (nil, true); an empty buffer yields a non-nil empty slice.
func (r *Reader) Buffer() ([]byte, bool, error) {
	n, err := r.U32()
	if err != nil {
		return nil, false, err
	}
	if n == NullLength {
		return nil, true, nil
	}
	if uint64(n) > uint64(r.Remaining()) {
		return nil, false, fmt.Errorf("%w: declared length %d at offset %d, have %d", ErrTruncatedInput, n, r.off, r.Remaining())
	}
	b, err := r.take(int(n), "buffer")
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, false, nil
}

// String reads a length-prefixed string; null reports true.
func (r *Reader) String() (string, bool, error) {
	b, null, err := r.Buffer()
	if err != nil {
		return "", false, err
	}
	return string(b), null, nil
}

// shortText reads the 1-byte-length text encoding shared by pointers, longs
// and times.
func (r *Reader) shortText(what string) (string, error) {
	n, err := r.Char()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n), what)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Pointer reads a 1-byte length and ASCII hex digits, normalized to "0x...".
func (r *Reader) Pointer() (string, error) {
	raw, err := r.shortText("pointer")
	if err != nil {
		return "", err
	}
	return NormalizePointer(raw)
}

// Long reads a signed 64-bit integer transmitted as decimal text.
func (r *Reader) Long() (string, error) {
	raw, err := r.shortText("long")
	if err != nil {
		return "", err
	}
	if _, err := strconv.ParseInt(raw, 10, 64); err != nil {
		return "", fmt.Errorf("%w: long %q", ErrInvalidNumber, raw)
	}
	return raw, nil
}

// Time reads a unix timestamp transmitted as decimal text.
func (r *Reader) Time() (int64, error) {
	raw, err := r.shortText("time")
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: time %q", ErrInvalidNumber, raw)
	}
	return v, nil
}

// NormalizePointer maps raw hex digits (with or without 0x) to "0x<lowerhex>".
func NormalizePointer(raw string) (string, error) {
	raw = strings.TrimPrefix(strings.ToLower(raw), "0x")
	if raw == "" {
		return NullPointer, nil
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("%w: %q", ErrInvalidPointer, raw)
		}
	}
	raw = strings.TrimLeft(raw, "0")
	if raw == "" {
		return NullPointer, nil
	}
	return "0x" + raw, nil
}
