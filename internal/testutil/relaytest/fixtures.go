package relaytest

import "github.com/danmuck/weechatpage/internal/protocol"

// BufferList builds the reply to "(buffer_list) hdata buffer:gui_buffers(*) name".
// Pairs are pointer, name, pointer, name...
func BufferList(pairs ...string) protocol.Value {
	h := &protocol.Hdata{
		Path: []string{"buffer"},
		Keys: []protocol.Key{{Name: "name", Type: protocol.TypeString}},
	}
	for i := 0; i+1 < len(pairs); i += 2 {
		h.Rows = append(h.Rows, protocol.Row{
			Pointers: []string{pairs[i]},
			Values:   map[string]protocol.Value{"name": protocol.String(pairs[i+1])},
		})
	}
	return protocol.HdataValue(h)
}

// BufferOpened builds a _buffer_opened payload carrying the name only in
// local_variables, as the relay sends it.
func BufferOpened(ptr, fullName, name string) protocol.Value {
	return protocol.HdataValue(&protocol.Hdata{
		Path: []string{"buffer"},
		Keys: []protocol.Key{
			{Name: "number", Type: protocol.TypeInt},
			{Name: "full_name", Type: protocol.TypeString},
			{Name: "local_variables", Type: protocol.TypeHashtable},
		},
		Rows: []protocol.Row{{
			Pointers: []string{ptr},
			Values: map[string]protocol.Value{
				"number":    protocol.Int(2),
				"full_name": protocol.String(fullName),
				"local_variables": protocol.Hashtable(protocol.TypeString, protocol.TypeString,
					protocol.Pair{Key: protocol.String("plugin"), Value: protocol.String("irc")},
					protocol.Pair{Key: protocol.String("name"), Value: protocol.String(name)},
				),
			},
		}},
	})
}

// BufferClosing builds a _buffer_closing payload.
func BufferClosing(ptr string) protocol.Value {
	return protocol.HdataValue(&protocol.Hdata{
		Path: []string{"buffer"},
		Keys: []protocol.Key{{Name: "number", Type: protocol.TypeInt}},
		Rows: []protocol.Row{{
			Pointers: []string{ptr},
			Values:   map[string]protocol.Value{"number": protocol.Int(2)},
		}},
	})
}

// Line describes one _buffer_line_added row.
type Line struct {
	Buffer    string
	Displayed bool
	Highlight bool
	Tags      []string
	Prefix    string
	Message   string
}

func flag(b bool) protocol.Value {
	if b {
		return protocol.Char(1)
	}
	return protocol.Char(0)
}

// LineAdded builds a _buffer_line_added payload with one row per line.
func LineAdded(lines ...Line) protocol.Value {
	h := &protocol.Hdata{
		Path: []string{"line_data"},
		Keys: []protocol.Key{
			{Name: "buffer", Type: protocol.TypePointer},
			{Name: "date", Type: protocol.TypeTime},
			{Name: "displayed", Type: protocol.TypeChar},
			{Name: "highlight", Type: protocol.TypeChar},
			{Name: "tags_array", Type: protocol.TypeArray},
			{Name: "prefix", Type: protocol.TypeString},
			{Name: "message", Type: protocol.TypeString},
		},
	}
	for i, l := range lines {
		tags := make([]protocol.Value, 0, len(l.Tags))
		for _, tag := range l.Tags {
			tags = append(tags, protocol.String(tag))
		}
		h.Rows = append(h.Rows, protocol.Row{
			Pointers: []string{"0xf00" + string(rune('0'+i%10))},
			Values: map[string]protocol.Value{
				"buffer":     protocol.Pointer(l.Buffer),
				"date":       protocol.Time(1700000000),
				"displayed":  flag(l.Displayed),
				"highlight":  flag(l.Highlight),
				"tags_array": protocol.Array(protocol.TypeString, tags...),
				"prefix":     protocol.String(l.Prefix),
				"message":    protocol.String(l.Message),
			},
		})
	}
	return protocol.HdataValue(h)
}
