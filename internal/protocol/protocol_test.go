package protocol

import (
	"bytes"
	"errors"
	"reflect"
	"testing"

	"github.com/danmuck/weechatpage/internal/protocol/frame"
	"github.com/danmuck/weechatpage/internal/protocol/wire"
)

func bufferHdata() *Hdata {
	return &Hdata{
		Path: []string{"buffer"},
		Keys: []Key{{Name: "name", Type: TypeString}, {Name: "number", Type: TypeInt}},
		Rows: []Row{
			{Pointers: []string{"0x1abc"}, Values: map[string]Value{"name": String("core.weechat"), "number": Int(1)}},
			{Pointers: []string{"0x2def"}, Values: map[string]Value{"name": String("irc.libera.#go"), "number": Int(2)}},
		},
	}
}

func lineHdata() *Hdata {
	return &Hdata{
		Path: []string{"line_data"},
		Keys: []Key{
			{Name: "buffer", Type: TypePointer},
			{Name: "date", Type: TypeTime},
			{Name: "displayed", Type: TypeChar},
			{Name: "highlight", Type: TypeChar},
			{Name: "tags_array", Type: TypeArray},
			{Name: "prefix", Type: TypeString},
			{Name: "message", Type: TypeString},
		},
		Rows: []Row{{
			Pointers: []string{"0x77"},
			Values: map[string]Value{
				"buffer":     Pointer("0x1abc"),
				"date":       Time(1700000000),
				"displayed":  Char(1),
				"highlight":  Char(0),
				"tags_array": Array(TypeString, String("irc_privmsg"), String("notify_private")),
				"prefix":     String("alice"),
				"message":    String("hi there"),
			},
		}},
	}
}

func TestRoundTripEncodeDecode(t *testing.T) {
	values := []Value{
		Char('x'),
		Int(-42),
		Long(-9000000000),
		String("hello"),
		String(""),
		NullString(),
		Buffer([]byte{0x00, 0xff}),
		Buffer(nil),
		Pointer("0xdeadbeef"),
		Pointer(wire.NullPointer),
		Time(1700000000),
		Array(TypeInt, Int(1), Int(2), Int(3)),
		Hashtable(TypeString, TypeString,
			Pair{Key: String("name"), Value: String("#chan")},
			Pair{Key: String("type"), Value: String("channel")},
		),
		HdataValue(bufferHdata()),
		HdataValue(lineHdata()),
		InfoValue(Info{Name: "version", Value: "4.1.0"}),
		InfolistValue(&Infolist{Name: "buffer", Items: []InfolistItem{{Vars: []InfolistVar{
			{Name: "pointer", Value: Pointer("0x1abc")},
			{Name: "number", Value: Int(1)},
		}}}}),
	}

	body, err := EncodeMessage("round", values...)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := DecodeMessage(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.ID != "round" || msg.NullID {
		t.Fatalf("unexpected id %q null=%v", msg.ID, msg.NullID)
	}
	if len(msg.Values) != len(values) {
		t.Fatalf("expected %d values, got %d", len(values), len(msg.Values))
	}
	for i := range values {
		if !reflect.DeepEqual(msg.Values[i], values[i]) {
			t.Fatalf("value %d mismatch:\ngot:  %+v\nwant: %+v", i, msg.Values[i], values[i])
		}
	}

	again, err := EncodeMessage(msg.ID, msg.Values...)
	if err != nil {
		t.Fatalf("re-encode: %v", err)
	}
	if !bytes.Equal(body, again) {
		t.Fatalf("round-trip bytes mismatch")
	}
}

func TestDecodeFrameIsIdempotent(t *testing.T) {
	f, err := EncodeFrame(frame.CompressionNone, "_buffer_line_added", HdataValue(lineHdata()))
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	first, err := DecodeFrame(f, frame.DefaultLimits())
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	second, err := DecodeFrame(f, frame.DefaultLimits())
	if err != nil {
		t.Fatalf("decode again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("decode not idempotent")
	}
}

func TestDecodeCompressedFrame(t *testing.T) {
	for _, c := range []frame.Compression{frame.CompressionZlib, frame.CompressionZstd} {
		f, err := EncodeFrame(c, "buffer_list", HdataValue(bufferHdata()))
		if err != nil {
			t.Fatalf("%s encode: %v", c, err)
		}
		msg, err := DecodeFrame(f, frame.DefaultLimits())
		if err != nil {
			t.Fatalf("%s decode: %v", c, err)
		}
		h, err := msg.Hdata()
		if err != nil {
			t.Fatalf("%s hdata: %v", c, err)
		}
		if len(h.Rows) != 2 || h.Rows[1].Pointer() != "0x2def" {
			t.Fatalf("%s: unexpected rows %+v", c, h.Rows)
		}
	}
}

func TestDecodeNullAndEmptyID(t *testing.T) {
	msg, err := DecodeMessage(wire.AppendNullString(nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !msg.NullID || msg.ID != "" || len(msg.Values) != 0 {
		t.Fatalf("unexpected message %+v", msg)
	}
	msg, err = DecodeMessage(wire.AppendString(nil, ""))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if msg.NullID || msg.ID != "" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestDecodeHdataZeroRowsConsumesHeaderOnly(t *testing.T) {
	var b []byte
	b = wire.AppendString(b, "buffer")
	b = wire.AppendString(b, "name:str,number:int")
	b = wire.AppendInt32(b, 0)
	trailer := []byte("int")
	trailer = wire.AppendInt32(trailer, 7)
	r := wire.NewReader(append(append([]byte("hda"), b...), trailer...))

	v, err := DecodeValue(r)
	if err != nil {
		t.Fatalf("decode hdata: %v", err)
	}
	if r.Offset() != 3+len(b) {
		t.Fatalf("expected offset %d, got %d", 3+len(b), r.Offset())
	}
	h, err := v.AsHdata()
	if err != nil {
		t.Fatalf("as hdata: %v", err)
	}
	if len(h.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(h.Rows))
	}
	if len(h.Keys) != 2 || h.Keys[1].Name != "number" || h.Keys[1].Type != TypeInt {
		t.Fatalf("unexpected keys %+v", h.Keys)
	}
	next, err := DecodeValue(r)
	if err != nil || next.Int != 7 {
		t.Fatalf("expected trailing int 7, got %+v err=%v", next, err)
	}
}

func TestDecodeHdataMultiSegmentPath(t *testing.T) {
	h := &Hdata{
		Path: []string{"buffer", "lines", "line", "line_data"},
		Keys: []Key{{Name: "message", Type: TypeString}},
		Rows: []Row{{
			Pointers: []string{"0x1", "0x2", "0x3", "0x4"},
			Values:   map[string]Value{"message": String("m")},
		}},
	}
	body, err := EncodeMessage("", HdataValue(h))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := DecodeMessage(body)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, _ := msg.Hdata()
	if !reflect.DeepEqual(got.Rows[0].Pointers, h.Rows[0].Pointers) {
		t.Fatalf("unexpected pointers %v", got.Rows[0].Pointers)
	}
	if got.Rows[0].Pointer() != "0x1" {
		t.Fatalf("expected first pointer, got %q", got.Rows[0].Pointer())
	}
}

func TestDecodeHdataTruncatedRowFailsWholeMessage(t *testing.T) {
	body, err := EncodeMessage("_buffer_line_added", HdataValue(lineHdata()))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	for cut := 1; cut < 12; cut++ {
		_, err := DecodeMessage(body[:len(body)-cut])
		if !errors.Is(err, ErrTruncatedInput) {
			t.Fatalf("cut=%d: expected ErrTruncatedInput, got %v", cut, err)
		}
	}
}

func TestDecodeHdataRowCountPastEnd(t *testing.T) {
	var b []byte
	b = append(b, "hda"...)
	b = wire.AppendString(b, "buffer")
	b = wire.AppendString(b, "name:str")
	b = wire.AppendInt32(b, 1000)
	_, err := DecodeValue(wire.NewReader(b))
	if !errors.Is(err, ErrTruncatedInput) {
		t.Fatalf("expected ErrTruncatedInput, got %v", err)
	}
}

func TestDecodeHdataInvalidKeySpec(t *testing.T) {
	var b []byte
	b = append(b, "hda"...)
	b = wire.AppendString(b, "buffer")
	b = wire.AppendString(b, "name")
	b = wire.AppendInt32(b, 0)
	if _, err := DecodeValue(wire.NewReader(b)); !errors.Is(err, ErrInvalidKeySpec) {
		t.Fatalf("expected ErrInvalidKeySpec, got %v", err)
	}

	b = append([]byte("hda"), wire.AppendString(nil, "buffer")...)
	b = wire.AppendString(b, "name:zzz")
	b = wire.AppendInt32(b, 0)
	if _, err := DecodeValue(wire.NewReader(b)); !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestDecodeHashtableTypesDeclaredOnce(t *testing.T) {
	var b []byte
	b = append(b, "htbstrint"...)
	b = wire.AppendInt32(b, 2)
	b = wire.AppendString(b, "a")
	b = wire.AppendInt32(b, 1)
	b = wire.AppendString(b, "b")
	b = wire.AppendInt32(b, 2)
	r := wire.NewReader(b)
	v, err := DecodeValue(r)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Remaining() != 0 {
		t.Fatalf("expected all bytes consumed, %d left", r.Remaining())
	}
	got, ok := v.Lookup("b")
	if !ok || got.Int != 2 {
		t.Fatalf("expected b=2, got %+v ok=%v", got, ok)
	}
	if _, ok := v.Lookup("c"); ok {
		t.Fatalf("unexpected key c")
	}
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := DecodeValue(wire.NewReader([]byte("zzz")))
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestDecodeNegativeCount(t *testing.T) {
	b := append([]byte("arrint"), wire.AppendInt32(nil, -1)...)
	_, err := DecodeValue(wire.NewReader(b))
	if !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
}

func TestDecodeNestingLimit(t *testing.T) {
	// arr of arr of ... each holding one element.
	var b []byte
	for i := 0; i < MaxDepth+2; i++ {
		b = append(b, "arr"...)
		b = wire.AppendInt32(b, 1)
	}
	b = append(b, "int"...)
	b = wire.AppendInt32(b, 1)
	b = wire.AppendInt32(b, 5)
	_, err := DecodeValue(wire.NewReader(append([]byte("arr"), b...)))
	if !errors.Is(err, ErrNestingTooDeep) {
		t.Fatalf("expected nesting failure, got %v", err)
	}
}

func TestRowAccessors(t *testing.T) {
	row := lineHdata().Rows[0]
	if _, err := row.Get("nope"); !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("expected ErrMissingColumn, got %v", err)
	}
	if _, err := row.Text("displayed"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
	displayed, err := row.Flag("displayed")
	if err != nil || !displayed {
		t.Fatalf("expected displayed, got %v err=%v", displayed, err)
	}
	tags, err := row.Values["tags_array"].Strings()
	if err != nil || len(tags) != 2 || tags[0] != "irc_privmsg" {
		t.Fatalf("unexpected tags %v err=%v", tags, err)
	}
}

func TestEncodeRejectsColumnTypeMismatch(t *testing.T) {
	h := bufferHdata()
	h.Rows[0].Values["number"] = String("one")
	if _, err := EncodeMessage("x", HdataValue(h)); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch, got %v", err)
	}
}
