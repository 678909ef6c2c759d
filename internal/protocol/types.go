package protocol

import (
	"fmt"
	"strconv"
)

// Type is the 3-byte object type tag.
type Type string

const (
	TypeChar      Type = "chr"
	TypeInt       Type = "int"
	TypeLong      Type = "lon"
	TypeString    Type = "str"
	TypeBuffer    Type = "buf"
	TypePointer   Type = "ptr"
	TypeTime      Type = "tim"
	TypeHashtable Type = "htb"
	TypeHdata     Type = "hda"
	TypeInfo      Type = "inf"
	TypeInfolist  Type = "inl"
	TypeArray     Type = "arr"
)

// Known reports whether t is part of the object grammar.
func (t Type) Known() bool {
	switch t {
	case TypeChar, TypeInt, TypeLong, TypeString, TypeBuffer, TypePointer, TypeTime,
		TypeHashtable, TypeHdata, TypeInfo, TypeInfolist, TypeArray:
		return true
	}
	return false
}

// Value is one decoded object. Type selects which of the remaining fields
// carries the payload.
type Value struct {
	Type Type

	Char  byte
	Int   int32
	Text  string // str, lon and ptr
	Null  bool   // null str or buf
	Bytes []byte
	Time  int64

	// Array elements share ElemType; hashtable pairs share KeyType/ValueType.
	ElemType  Type
	Items     []Value
	KeyType   Type
	ValueType Type
	Pairs     []Pair

	Hdata    *Hdata
	Info     *Info
	Infolist *Infolist
}

// Pair is one hashtable entry. Order follows the wire.
type Pair struct {
	Key   Value
	Value Value
}

// Info is a name/value pair returned by an info request.
type Info struct {
	Name     string
	Value    string
	NullText bool
}

// Infolist is a named list of items, each a list of typed variables.
type Infolist struct {
	Name  string
	Items []InfolistItem
}

type InfolistItem struct {
	Vars []InfolistVar
}

type InfolistVar struct {
	Name  string
	Value Value
}

func Char(c byte) Value { return Value{Type: TypeChar, Char: c} }
func Int(i int32) Value { return Value{Type: TypeInt, Int: i} }
func Long(v int64) Value { return Value{Type: TypeLong, Text: strconv.FormatInt(v, 10)} }
func String(s string) Value { return Value{Type: TypeString, Text: s} }
func NullString() Value { return Value{Type: TypeString, Null: true} }
func Pointer(p string) Value { return Value{Type: TypePointer, Text: p} }
func Time(unix int64) Value { return Value{Type: TypeTime, Time: unix} }
func HdataValue(h *Hdata) Value { return Value{Type: TypeHdata, Hdata: h} }
func InfoValue(i Info) Value { return Value{Type: TypeInfo, Info: &i} }
func InfolistValue(l *Infolist) Value {
	return Value{Type: TypeInfolist, Infolist: l}
}

// Buffer copies b; a nil b produces a null buffer.
func Buffer(b []byte) Value {
	if b == nil {
		return Value{Type: TypeBuffer, Null: true}
	}
	out := make([]byte, len(b))
	copy(out, b)
	return Value{Type: TypeBuffer, Bytes: out}
}

func Array(elem Type, items ...Value) Value {
	return Value{Type: TypeArray, ElemType: elem, Items: items}
}

func Hashtable(key, value Type, pairs ...Pair) Value {
	return Value{Type: TypeHashtable, KeyType: key, ValueType: value, Pairs: pairs}
}

func (v Value) mismatch(want Type) error {
	return fmt.Errorf("%w: got %s want %s", ErrTypeMismatch, v.Type, want)
}

// Flag reads a chr used as a boolean (non-zero is set). Int values are
// accepted too.
func (v Value) Flag() (bool, error) {
	switch v.Type {
	case TypeChar:
		return v.Char != 0, nil
	case TypeInt:
		return v.Int != 0, nil
	default:
		return false, v.mismatch(TypeChar)
	}
}

func (v Value) AsInt() (int32, error) {
	if v.Type != TypeInt {
		return 0, v.mismatch(TypeInt)
	}
	return v.Int, nil
}

func (v Value) AsLong() (int64, error) {
	if v.Type != TypeLong {
		return 0, v.mismatch(TypeLong)
	}
	return strconv.ParseInt(v.Text, 10, 64)
}

// AsString returns str text; a null string reads as "".
func (v Value) AsString() (string, error) {
	if v.Type != TypeString {
		return "", v.mismatch(TypeString)
	}
	return v.Text, nil
}

func (v Value) AsPointer() (string, error) {
	if v.Type != TypePointer {
		return "", v.mismatch(TypePointer)
	}
	return v.Text, nil
}

func (v Value) AsTime() (int64, error) {
	if v.Type != TypeTime {
		return 0, v.mismatch(TypeTime)
	}
	return v.Time, nil
}

func (v Value) AsBytes() ([]byte, error) {
	if v.Type != TypeBuffer {
		return nil, v.mismatch(TypeBuffer)
	}
	out := make([]byte, len(v.Bytes))
	copy(out, v.Bytes)
	return out, nil
}

func (v Value) AsHdata() (*Hdata, error) {
	if v.Type != TypeHdata || v.Hdata == nil {
		return nil, v.mismatch(TypeHdata)
	}
	return v.Hdata, nil
}

// Strings returns the elements of an array of str.
func (v Value) Strings() ([]string, error) {
	if v.Type != TypeArray {
		return nil, v.mismatch(TypeArray)
	}
	out := make([]string, 0, len(v.Items))
	for _, item := range v.Items {
		s, err := item.AsString()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Lookup finds a hashtable entry whose key text equals key.
func (v Value) Lookup(key string) (Value, bool) {
	if v.Type != TypeHashtable {
		return Value{}, false
	}
	for _, p := range v.Pairs {
		switch p.Key.Type {
		case TypeString, TypePointer, TypeLong:
			if p.Key.Text == key {
				return p.Value, true
			}
		}
	}
	return Value{}, false
}
