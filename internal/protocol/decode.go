package protocol

import (
	"fmt"

	"github.com/danmuck/weechatpage/internal/protocol/frame"
	"github.com/danmuck/weechatpage/internal/protocol/wire"
)

// MaxDepth bounds htb/arr/inl nesting so a hostile frame cannot exhaust the stack.
const MaxDepth = 32

// Message is one decoded relay message.
type Message struct {
	ID     string
	NullID bool
	Values []Value
}

// Hdata returns the payload's first object as hdata, which is the shape of
// every buffer event.
func (m *Message) Hdata() (*Hdata, error) {
	if m == nil || len(m.Values) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrUnexpectedShape)
	}
	return m.Values[0].AsHdata()
}

// DecodeFrame opens one complete frame and decodes its body.
func DecodeFrame(f []byte, limits frame.Limits) (*Message, error) {
	body, err := frame.Open(f, limits)
	if err != nil {
		return nil, err
	}
	return DecodeMessage(body)
}

// DecodeMessage decodes a frame body: identifier then objects until the
// body is exhausted. Any short read fails the whole message.
func DecodeMessage(body []byte) (*Message, error) {
	r := wire.NewReader(body)
	id, null, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("protocol: message id: %w", err)
	}
	msg := &Message{ID: id, NullID: null}
	for r.Remaining() > 0 {
		v, err := DecodeValue(r)
		if err != nil {
			return nil, fmt.Errorf("protocol: message %q object %d: %w", id, len(msg.Values), err)
		}
		msg.Values = append(msg.Values, v)
	}
	return msg, nil
}

// DecodeValue reads one type tag and its payload.
func DecodeValue(r *wire.Reader) (Value, error) {
	return decodeTagged(r, 0)
}

func decodeTagged(r *wire.Reader, depth int) (Value, error) {
	tag, err := r.Type()
	if err != nil {
		return Value{}, err
	}
	return decodeTyped(r, Type(tag), depth)
}

func decodeTyped(r *wire.Reader, t Type, depth int) (Value, error) {
	if depth > MaxDepth {
		return Value{}, ErrNestingTooDeep
	}
	switch t {
	case TypeChar:
		c, err := r.Char()
		return Value{Type: t, Char: c}, err
	case TypeInt:
		i, err := r.Int32()
		return Value{Type: t, Int: i}, err
	case TypeLong:
		l, err := r.Long()
		return Value{Type: t, Text: l}, err
	case TypeString:
		s, null, err := r.String()
		return Value{Type: t, Text: s, Null: null}, err
	case TypeBuffer:
		b, null, err := r.Buffer()
		return Value{Type: t, Bytes: b, Null: null}, err
	case TypePointer:
		p, err := r.Pointer()
		return Value{Type: t, Text: p}, err
	case TypeTime:
		ts, err := r.Time()
		return Value{Type: t, Time: ts}, err
	case TypeHashtable:
		return decodeHashtable(r, depth)
	case TypeArray:
		return decodeArray(r, depth)
	case TypeHdata:
		h, err := decodeHdata(r, depth)
		if err != nil {
			return Value{}, err
		}
		return HdataValue(h), nil
	case TypeInfo:
		return decodeInfo(r)
	case TypeInfolist:
		return decodeInfolist(r, depth)
	default:
		return Value{}, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
}

func readType(r *wire.Reader) (Type, error) {
	tag, err := r.Type()
	if err != nil {
		return "", err
	}
	t := Type(tag)
	if !t.Known() {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, tag)
	}
	return t, nil
}

// readCount reads an element count. Every element occupies at least one
// byte, so a count above the remaining bytes cannot be satisfied.
func readCount(r *wire.Reader) (int, error) {
	n, err := r.Int32()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidCount, n)
	}
	if int64(n) > int64(r.Remaining()) {
		return 0, fmt.Errorf("%w: count %d exceeds %d remaining bytes", ErrTruncatedInput, n, r.Remaining())
	}
	return int(n), nil
}

func decodeHashtable(r *wire.Reader, depth int) (Value, error) {
	kt, err := readType(r)
	if err != nil {
		return Value{}, err
	}
	vt, err := readType(r)
	if err != nil {
		return Value{}, err
	}
	n, err := readCount(r)
	if err != nil {
		return Value{}, err
	}
	v := Value{Type: TypeHashtable, KeyType: kt, ValueType: vt}
	for i := 0; i < n; i++ {
		key, err := decodeTyped(r, kt, depth+1)
		if err != nil {
			return Value{}, fmt.Errorf("hashtable key %d: %w", i, err)
		}
		val, err := decodeTyped(r, vt, depth+1)
		if err != nil {
			return Value{}, fmt.Errorf("hashtable value %d: %w", i, err)
		}
		v.Pairs = append(v.Pairs, Pair{Key: key, Value: val})
	}
	return v, nil
}

func decodeArray(r *wire.Reader, depth int) (Value, error) {
	et, err := readType(r)
	if err != nil {
		return Value{}, err
	}
	n, err := readCount(r)
	if err != nil {
		return Value{}, err
	}
	v := Value{Type: TypeArray, ElemType: et}
	for i := 0; i < n; i++ {
		item, err := decodeTyped(r, et, depth+1)
		if err != nil {
			return Value{}, fmt.Errorf("array element %d: %w", i, err)
		}
		v.Items = append(v.Items, item)
	}
	return v, nil
}

func decodeHdata(r *wire.Reader, depth int) (*Hdata, error) {
	hpath, _, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("hdata path: %w", err)
	}
	keySpec, _, err := r.String()
	if err != nil {
		return nil, fmt.Errorf("hdata keys: %w", err)
	}
	keys, err := parseKeys(keySpec)
	if err != nil {
		return nil, err
	}
	n, err := r.Int32()
	if err != nil {
		return nil, fmt.Errorf("hdata count: %w", err)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: hdata count %d", ErrInvalidCount, n)
	}
	h := &Hdata{Path: splitPath(hpath), Keys: keys}
	if n > 0 && len(h.Path)+len(h.Keys) == 0 {
		return nil, fmt.Errorf("%w: %d hdata rows without path or keys", ErrInvalidCount, n)
	}
	if int64(n) > int64(r.Remaining()) {
		return nil, fmt.Errorf("%w: hdata count %d exceeds %d remaining bytes", ErrTruncatedInput, n, r.Remaining())
	}
	for i := 0; i < int(n); i++ {
		row := Row{
			Pointers: make([]string, 0, len(h.Path)),
			Values:   make(map[string]Value, len(h.Keys)),
		}
		for range h.Path {
			p, err := r.Pointer()
			if err != nil {
				return nil, fmt.Errorf("hdata row %d pointer: %w", i, err)
			}
			row.Pointers = append(row.Pointers, p)
		}
		for _, k := range h.Keys {
			v, err := decodeTyped(r, k.Type, depth+1)
			if err != nil {
				return nil, fmt.Errorf("hdata row %d column %q: %w", i, k.Name, err)
			}
			row.Values[k.Name] = v
		}
		h.Rows = append(h.Rows, row)
	}
	return h, nil
}

func decodeInfo(r *wire.Reader) (Value, error) {
	name, _, err := r.String()
	if err != nil {
		return Value{}, err
	}
	val, null, err := r.String()
	if err != nil {
		return Value{}, err
	}
	return InfoValue(Info{Name: name, Value: val, NullText: null}), nil
}

func decodeInfolist(r *wire.Reader, depth int) (Value, error) {
	name, _, err := r.String()
	if err != nil {
		return Value{}, err
	}
	n, err := readCount(r)
	if err != nil {
		return Value{}, err
	}
	l := &Infolist{Name: name}
	for i := 0; i < n; i++ {
		vars, err := readCount(r)
		if err != nil {
			return Value{}, fmt.Errorf("infolist item %d: %w", i, err)
		}
		var item InfolistItem
		for j := 0; j < vars; j++ {
			vname, _, err := r.String()
			if err != nil {
				return Value{}, fmt.Errorf("infolist item %d var %d: %w", i, j, err)
			}
			v, err := decodeTagged(r, depth+1)
			if err != nil {
				return Value{}, fmt.Errorf("infolist item %d var %q: %w", i, vname, err)
			}
			item.Vars = append(item.Vars, InfolistVar{Name: vname, Value: v})
		}
		l.Items = append(l.Items, item)
	}
	return InfolistValue(l), nil
}
