package wire

import (
	"bytes"
	"errors"
	"testing"
)

func TestReadU32IgnoresTrailingBytes(t *testing.T) {
	prefix := []byte{0x00, 0x01, 0x02, 0x03}
	want := uint32(0x00010203)
	for _, tail := range [][]byte{nil, {0xff}, bytes.Repeat([]byte{0xaa}, 64)} {
		got, err := ReadU32(append(append([]byte{}, prefix...), tail...))
		if err != nil {
			t.Fatalf("read u32: %v", err)
		}
		if got != want {
			t.Fatalf("expected %#x, got %#x", want, got)
		}
	}
}

func TestReadU32ShortInputIsMalformed(t *testing.T) {
	_, err := ReadU32([]byte{1, 2, 3})
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("expected ErrMalformedFrame, got %v", err)
	}
}

func TestReaderFixedWidthIntegers(t *testing.T) {
	var b []byte
	b = AppendInt32(b, -2)
	b = AppendInt64(b, -1<<40)
	r := NewReader(b)
	i32, err := r.Int32()
	if err != nil || i32 != -2 {
		t.Fatalf("expected -2, got %d err=%v", i32, err)
	}
	i64, err := r.Int64()
	if err != nil || i64 != -1<<40 {
		t.Fatalf("expected %d, got %d err=%v", int64(-1<<40), i64, err)
	}
	if r.Remaining() != 0 || r.Offset() != 12 {
		t.Fatalf("expected cursor at 12, got off=%d rem=%d", r.Offset(), r.Remaining())
	}
	if _, err := r.Int32(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestReaderStringNullVersusEmpty(t *testing.T) {
	var b []byte
	b = AppendNullString(b)
	b = AppendString(b, "")
	b = AppendString(b, "hello")
	r := NewReader(b)

	s, null, err := r.String()
	if err != nil || !null || s != "" {
		t.Fatalf("expected null string, got %q null=%v err=%v", s, null, err)
	}
	s, null, err = r.String()
	if err != nil || null || s != "" {
		t.Fatalf("expected empty string, got %q null=%v err=%v", s, null, err)
	}
	s, null, err = r.String()
	if err != nil || null || s != "hello" {
		t.Fatalf("expected hello, got %q null=%v err=%v", s, null, err)
	}
}

func TestReaderStringDeclaredLengthPastEnd(t *testing.T) {
	b := AppendU32(nil, 10)
	b = append(b, "abc"...)
	r := NewReader(b)
	if _, _, err := r.String(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}

	huge := AppendU32(nil, 0xFFFFFFFE)
	if _, _, err := NewReader(huge).Buffer(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput for huge length, got %v", err)
	}
}

func TestReaderPointerNormalization(t *testing.T) {
	cases := []struct {
		raw  []byte
		want string
	}{
		{raw: []byte{0}, want: NullPointer},
		{raw: append([]byte{1}, "0"...), want: NullPointer},
		{raw: append([]byte{4}, "1ABC"...), want: "0x1abc"},
		{raw: append([]byte{7}, "55e8b40"...), want: "0x55e8b40"},
	}
	for _, tc := range cases {
		got, err := NewReader(tc.raw).Pointer()
		if err != nil {
			t.Fatalf("pointer %q: %v", tc.raw, err)
		}
		if got != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got)
		}
	}
}

func TestReaderPointerTruncatedAndInvalid(t *testing.T) {
	if _, err := NewReader(append([]byte{8}, "12"...)).Pointer(); !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
	if _, err := NewReader(append([]byte{2}, "zz"...)).Pointer(); !errors.Is(err, ErrInvalidPointer) {
		t.Fatalf("expected ErrInvalidPointer, got %v", err)
	}
}

func TestReaderLongAndTime(t *testing.T) {
	var b []byte
	b = AppendLong(b, "-9223372036854775808")
	b = AppendTime(b, 1700000000)
	b = AppendLong(b, "12x")
	r := NewReader(b)
	l, err := r.Long()
	if err != nil || l != "-9223372036854775808" {
		t.Fatalf("unexpected long %q err=%v", l, err)
	}
	ts, err := r.Time()
	if err != nil || ts != 1700000000 {
		t.Fatalf("unexpected time %d err=%v", ts, err)
	}
	if _, err := r.Long(); !errors.Is(err, ErrInvalidNumber) {
		t.Fatalf("expected ErrInvalidNumber, got %v", err)
	}
}

func TestAppendPointerRoundTrip(t *testing.T) {
	for _, ptr := range []string{"0x1abc", NullPointer, ""} {
		got, err := NewReader(AppendPointer(nil, ptr)).Pointer()
		if err != nil {
			t.Fatalf("pointer %q: %v", ptr, err)
		}
		want := ptr
		if want == "" {
			want = NullPointer
		}
		if got != want {
			t.Fatalf("expected %q, got %q", want, got)
		}
	}
}
