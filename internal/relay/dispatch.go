package relay

import (
	"errors"
	"fmt"
	"strings"

	"github.com/danmuck/weechatpage/internal/notify"
	"github.com/danmuck/weechatpage/internal/observability"
	"github.com/danmuck/weechatpage/internal/protocol"
	"github.com/rs/zerolog"
)

const (
	// EventMarker starts every identifier the relay uses for pushed events.
	EventMarker = "_"
	eventPrefix = "sys"
	// MiscHandler receives messages with an empty or null identifier.
	MiscHandler = "misc"
)

var ErrUnknownMessageIdentifier = errors.New("relay: unknown message identifier")

// State is the connection-scoped state handed to every handler. It is owned
// by one read loop.
type State struct {
	Registry *Registry
	Commands *Commands
	Notifier notify.Notifier
	Clean    func(string) string
	Log      zerolog.Logger
}

// Handler processes one decoded message against the connection state.
type Handler func(st *State, msg *protocol.Message) error

// HandlerName derives the table key for an identifier: "_buffer_opened"
// becomes "sys_buffer_opened", an empty identifier becomes "misc".
func HandlerName(id string) string {
	if id == "" {
		return MiscHandler
	}
	if strings.HasPrefix(id, EventMarker) {
		return eventPrefix + id
	}
	return id
}

// Dispatcher routes messages through a handler table built once.
type Dispatcher struct {
	handlers map[string]Handler
}

// NewDispatcher returns a dispatcher with the default handler table.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{handlers: make(map[string]Handler)}
	for name, h := range defaultHandlers() {
		d.handlers[name] = h
	}
	return d
}

// Register adds or replaces a handler.
func (d *Dispatcher) Register(name string, h Handler) {
	d.handlers[name] = h
}

func (d *Dispatcher) Lookup(name string) (Handler, bool) {
	h, ok := d.handlers[name]
	return h, ok
}

// Dispatch runs the handler for msg. Unknown identifiers are reported and
// dropped without error; handler failures are returned.
func (d *Dispatcher) Dispatch(st *State, msg *protocol.Message) error {
	name := HandlerName(msg.ID)
	h, ok := d.handlers[name]
	if !ok {
		observability.RecordUnknownMessage()
		err := fmt.Errorf("%w: %q", ErrUnknownMessageIdentifier, msg.ID)
		st.Log.Warn().
			Err(err).
			Str("id", msg.ID).
			Str("handler", name).
			Str("payload", summarize(msg)).
			Msg("relay.Dispatcher.Dispatch unknown message")
		return nil
	}
	observability.RecordMessage(name)
	if err := h(st, msg); err != nil {
		return fmt.Errorf("relay: handler %s: %w", name, err)
	}
	return nil
}

// summarize describes a payload without dumping it.
func summarize(msg *protocol.Message) string {
	parts := make([]string, 0, len(msg.Values))
	for _, v := range msg.Values {
		if v.Type == protocol.TypeHdata && v.Hdata != nil {
			parts = append(parts, fmt.Sprintf("hda(%s rows=%d)", strings.Join(v.Hdata.Path, "/"), len(v.Hdata.Rows)))
			continue
		}
		parts = append(parts, string(v.Type))
	}
	return "[" + strings.Join(parts, " ") + "]"
}
