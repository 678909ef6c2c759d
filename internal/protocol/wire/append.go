package wire

import (
	"encoding/binary"
	"strconv"
	"strings"
)

func AppendU32(dst []byte, v uint32) []byte {
	return binary.BigEndian.AppendUint32(dst, v)
}

func AppendInt32(dst []byte, v int32) []byte {
	return binary.BigEndian.AppendUint32(dst, uint32(v))
}

func AppendInt64(dst []byte, v int64) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(v))
}

// AppendBuffer writes a length-prefixed buffer; null writes NullLength.
func AppendBuffer(dst []byte, b []byte, null bool) []byte {
	if null {
		return AppendU32(dst, NullLength)
	}
	dst = AppendU32(dst, uint32(len(b)))
	return append(dst, b...)
}

func AppendString(dst []byte, s string) []byte {
	return AppendBuffer(dst, []byte(s), false)
}

func AppendNullString(dst []byte) []byte {
	return AppendBuffer(dst, nil, true)
}

func appendShortText(dst []byte, s string) []byte {
	if len(s) > 255 {
		s = s[:255]
	}
	dst = append(dst, byte(len(s)))
	return append(dst, s...)
}

// AppendPointer writes a pointer the way the relay does: hex digits without
// the 0x prefix, "0" for null.
func AppendPointer(dst []byte, ptr string) []byte {
	raw := strings.TrimPrefix(strings.ToLower(ptr), "0x")
	if raw == "" {
		raw = "0"
	}
	return appendShortText(dst, raw)
}

func AppendLong(dst []byte, v string) []byte {
	return appendShortText(dst, v)
}

func AppendTime(dst []byte, v int64) []byte {
	return appendShortText(dst, strconv.FormatInt(v, 10))
}
