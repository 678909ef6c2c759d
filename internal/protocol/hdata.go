package protocol

import (
	"fmt"
	"strings"

	"github.com/danmuck/weechatpage/internal/protocol/wire"
)

// Key is one declared hdata column.
type Key struct {
	Name string
	Type Type
}

// Hdata is the relay's table of addressed objects.
type Hdata struct {
	Path []string
	Keys []Key
	Rows []Row
}

// Row is one addressed object: its pointer chain (one per path segment)
// plus one value per declared key.
type Row struct {
	Pointers []string
	Values   map[string]Value
}

// Pointer returns the first pointer of the chain, the object the path
// starts from.
func (r Row) Pointer() string {
	if len(r.Pointers) == 0 {
		return wire.NullPointer
	}
	return r.Pointers[0]
}

func (r Row) Has(name string) bool {
	_, ok := r.Values[name]
	return ok
}

func (r Row) Get(name string) (Value, error) {
	v, ok := r.Values[name]
	if !ok {
		return Value{}, fmt.Errorf("%w: %q", ErrMissingColumn, name)
	}
	return v, nil
}

func (r Row) Text(name string) (string, error) {
	v, err := r.Get(name)
	if err != nil {
		return "", err
	}
	return v.AsString()
}

func (r Row) Flag(name string) (bool, error) {
	v, err := r.Get(name)
	if err != nil {
		return false, err
	}
	return v.Flag()
}

// splitPath counts path segments. The relay separates them with "/";
// ":" is accepted as well.
func splitPath(hpath string) []string {
	return strings.FieldsFunc(hpath, func(r rune) bool {
		return r == '/' || r == ':'
	})
}

// parseKeys reads "name:type,name:type".
func parseKeys(spec string) ([]Key, error) {
	if spec == "" {
		return nil, nil
	}
	parts := strings.Split(spec, ",")
	keys := make([]Key, 0, len(parts))
	for _, part := range parts {
		name, typ, ok := strings.Cut(part, ":")
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidKeySpec, part)
		}
		t := Type(typ)
		if !t.Known() {
			return nil, fmt.Errorf("%w: %q in key %q", ErrUnknownType, typ, name)
		}
		keys = append(keys, Key{Name: name, Type: t})
	}
	return keys, nil
}

func formatKeys(keys []Key) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.Name+":"+string(k.Type))
	}
	return strings.Join(parts, ",")
}
