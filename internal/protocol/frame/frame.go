package frame

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/danmuck/weechatpage/internal/protocol/wire"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const (
	// LengthLen is the size of the big-endian total-length prefix.
	LengthLen = 4
	// HeaderLen covers the length prefix plus the compression flag.
	HeaderLen = LengthLen + 1
)

// Compression is the flag byte following the length prefix.
type Compression byte

const (
	CompressionNone Compression = 0
	CompressionZlib Compression = 1
	CompressionZstd Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "off"
	case CompressionZlib:
		return "zlib"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", byte(c))
	}
}

// ParseCompression maps the init option spelling back to a flag.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "", "off":
		return CompressionNone, nil
	case "zlib":
		return CompressionZlib, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedCompression, s)
	}
}

var (
	ErrUnsupportedCompression = errors.New("frame: unsupported compression")
	ErrFrameTooLarge          = errors.New("frame: frame too large")
)

// Limits constrains assembler memory use.
type Limits struct {
	MaxFrameBytes uint32
	MaxBodyBytes  int64
}

func DefaultLimits() Limits {
	return Limits{
		MaxFrameBytes: 64 * 1024 * 1024,
		MaxBodyBytes:  256 * 1024 * 1024,
	}
}

// Assembler turns an arbitrarily chunked byte stream into whole frames.
// After every Push the pending buffer holds fewer than LengthLen bytes or a
// single frame whose declared length exceeds what has arrived.
type Assembler struct {
	buf    []byte
	limits Limits
}

func NewAssembler(limits Limits) *Assembler {
	if limits.MaxFrameBytes == 0 {
		limits.MaxFrameBytes = DefaultLimits().MaxFrameBytes
	}
	return &Assembler{limits: limits}
}

// Buffered reports how many bytes are waiting for the rest of their frame.
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

// Push appends p and returns every frame it completed, in stream order.
// A malformed length prefix is fatal: the stream cannot be resynchronized.
func (a *Assembler) Push(p []byte) ([][]byte, error) {
	a.buf = append(a.buf, p...)

	var frames [][]byte
	for len(a.buf) >= LengthLen {
		n, err := wire.ReadU32(a.buf)
		if err != nil {
			return frames, err
		}
		if n < HeaderLen {
			return frames, fmt.Errorf("%w: declared length %d below header size %d", wire.ErrMalformedFrame, n, HeaderLen)
		}
		if n > a.limits.MaxFrameBytes {
			return frames, fmt.Errorf("%w: declared length %d exceeds %d", ErrFrameTooLarge, n, a.limits.MaxFrameBytes)
		}
		if uint64(len(a.buf)) < uint64(n) {
			break
		}
		f := make([]byte, n)
		copy(f, a.buf[:n])
		frames = append(frames, f)
		a.buf = a.buf[n:]
	}
	if len(a.buf) == 0 {
		a.buf = nil
	}
	return frames, nil
}

// Open validates one frame's length prefix and returns its decompressed body:
// everything after the compression flag.
func Open(f []byte, limits Limits) ([]byte, error) {
	n, err := wire.ReadU32(f)
	if err != nil {
		return nil, err
	}
	if uint64(n) != uint64(len(f)) {
		return nil, fmt.Errorf("%w: declared length %d, frame has %d bytes", wire.ErrMalformedFrame, n, len(f))
	}
	if len(f) < HeaderLen {
		return nil, fmt.Errorf("%w: missing compression flag", wire.ErrMalformedFrame)
	}
	body := f[HeaderLen:]
	switch c := Compression(f[LengthLen]); c {
	case CompressionNone:
		return body, nil
	case CompressionZlib:
		zr, err := zlib.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("frame: zlib open: %w", err)
		}
		defer zr.Close()
		return readBody(zr, limits)
	case CompressionZstd:
		zr, err := zstd.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("frame: zstd open: %w", err)
		}
		defer zr.Close()
		return readBody(zr, limits)
	default:
		return nil, fmt.Errorf("%w: flag %d", ErrUnsupportedCompression, byte(c))
	}
}

func readBody(r io.Reader, limits Limits) ([]byte, error) {
	limit := limits.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultLimits().MaxBodyBytes
	}
	out, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("frame: decompress: %w", err)
	}
	if int64(len(out)) > limit {
		return nil, ErrFrameTooLarge
	}
	return out, nil
}

// Seal wraps body into a frame with the given compression applied.
func Seal(body []byte, c Compression) ([]byte, error) {
	var payload []byte
	switch c {
	case CompressionNone:
		payload = body
	case CompressionZlib:
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		if _, err := zw.Write(body); err != nil {
			return nil, err
		}
		if err := zw.Close(); err != nil {
			return nil, err
		}
		payload = buf.Bytes()
	case CompressionZstd:
		zw, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		payload = zw.EncodeAll(body, nil)
		if err := zw.Close(); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: flag %d", ErrUnsupportedCompression, byte(c))
	}
	out := make([]byte, 0, HeaderLen+len(payload))
	out = wire.AppendU32(out, uint32(HeaderLen+len(payload)))
	out = append(out, byte(c))
	return append(out, payload...), nil
}
