package protocol

import (
	"fmt"
	"strings"

	"github.com/danmuck/weechatpage/internal/protocol/frame"
	"github.com/danmuck/weechatpage/internal/protocol/wire"
)

// EncodeMessage builds a frame body: identifier followed by tagged objects.
func EncodeMessage(id string, values ...Value) ([]byte, error) {
	out := wire.AppendString(nil, id)
	for i, v := range values {
		var err error
		out, err = AppendValue(out, v)
		if err != nil {
			return nil, fmt.Errorf("protocol: encode object %d: %w", i, err)
		}
	}
	return out, nil
}

// EncodeFrame builds a complete frame the way the relay sends it.
func EncodeFrame(c frame.Compression, id string, values ...Value) ([]byte, error) {
	body, err := EncodeMessage(id, values...)
	if err != nil {
		return nil, err
	}
	return frame.Seal(body, c)
}

// AppendValue writes v's type tag and payload.
func AppendValue(dst []byte, v Value) ([]byte, error) {
	if !v.Type.Known() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(v.Type))
	}
	dst = append(dst, string(v.Type)...)
	return appendPayload(dst, v, v.Type)
}

func appendPayload(dst []byte, v Value, want Type) ([]byte, error) {
	if v.Type != want {
		return nil, v.mismatch(want)
	}
	switch v.Type {
	case TypeChar:
		return append(dst, v.Char), nil
	case TypeInt:
		return wire.AppendInt32(dst, v.Int), nil
	case TypeLong:
		return wire.AppendLong(dst, v.Text), nil
	case TypeString:
		if v.Null {
			return wire.AppendNullString(dst), nil
		}
		return wire.AppendString(dst, v.Text), nil
	case TypeBuffer:
		return wire.AppendBuffer(dst, v.Bytes, v.Null), nil
	case TypePointer:
		return wire.AppendPointer(dst, v.Text), nil
	case TypeTime:
		return wire.AppendTime(dst, v.Time), nil
	case TypeHashtable:
		dst = append(dst, string(v.KeyType)...)
		dst = append(dst, string(v.ValueType)...)
		dst = wire.AppendInt32(dst, int32(len(v.Pairs)))
		var err error
		for _, p := range v.Pairs {
			if dst, err = appendPayload(dst, p.Key, v.KeyType); err != nil {
				return nil, err
			}
			if dst, err = appendPayload(dst, p.Value, v.ValueType); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case TypeArray:
		dst = append(dst, string(v.ElemType)...)
		dst = wire.AppendInt32(dst, int32(len(v.Items)))
		var err error
		for _, item := range v.Items {
			if dst, err = appendPayload(dst, item, v.ElemType); err != nil {
				return nil, err
			}
		}
		return dst, nil
	case TypeHdata:
		if v.Hdata == nil {
			return nil, v.mismatch(TypeHdata)
		}
		return appendHdata(dst, v.Hdata)
	case TypeInfo:
		if v.Info == nil {
			return nil, v.mismatch(TypeInfo)
		}
		dst = wire.AppendString(dst, v.Info.Name)
		if v.Info.NullText {
			return wire.AppendNullString(dst), nil
		}
		return wire.AppendString(dst, v.Info.Value), nil
	case TypeInfolist:
		if v.Infolist == nil {
			return nil, v.mismatch(TypeInfolist)
		}
		dst = wire.AppendString(dst, v.Infolist.Name)
		dst = wire.AppendInt32(dst, int32(len(v.Infolist.Items)))
		var err error
		for _, item := range v.Infolist.Items {
			dst = wire.AppendInt32(dst, int32(len(item.Vars)))
			for _, iv := range item.Vars {
				dst = wire.AppendString(dst, iv.Name)
				if dst, err = AppendValue(dst, iv.Value); err != nil {
					return nil, err
				}
			}
		}
		return dst, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(v.Type))
}

func appendHdata(dst []byte, h *Hdata) ([]byte, error) {
	dst = wire.AppendString(dst, strings.Join(h.Path, "/"))
	dst = wire.AppendString(dst, formatKeys(h.Keys))
	dst = wire.AppendInt32(dst, int32(len(h.Rows)))
	for i, row := range h.Rows {
		if len(row.Pointers) != len(h.Path) {
			return nil, fmt.Errorf("%w: row %d has %d pointers for %d path segments", ErrUnexpectedShape, i, len(row.Pointers), len(h.Path))
		}
		for _, p := range row.Pointers {
			dst = wire.AppendPointer(dst, p)
		}
		for _, k := range h.Keys {
			v, err := row.Get(k.Name)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			if dst, err = appendPayload(dst, v, k.Type); err != nil {
				return nil, fmt.Errorf("row %d column %q: %w", i, k.Name, err)
			}
		}
	}
	return dst, nil
}
