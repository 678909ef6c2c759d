package relay

import (
	"errors"
	"fmt"

	"github.com/danmuck/weechatpage/internal/observability"
	"github.com/danmuck/weechatpage/internal/protocol"
)

func defaultHandlers() map[string]Handler {
	return map[string]Handler{
		BufferListID:            handleBufferList,
		"sys_buffer_line_added": handleLineAdded,
		"sys_buffer_opened":     handleBufferOpened,
		"sys_buffer_closing":    handleBufferClosing,
		MiscHandler:             handleMisc,

		// Subscribed by "sync" but irrelevant to notifications.
		"sys_nicklist":                ignore,
		"sys_nicklist_diff":           ignore,
		"sys_buffer_localvar_added":   ignore,
		"sys_buffer_localvar_removed": ignore,
		"sys_buffer_localvar_changed": ignore,
		"sys_buffer_title_changed":    ignore,
		"sys_buffer_renamed":          ignore,
	}
}

func ignore(*State, *protocol.Message) error {
	return nil
}

func handleMisc(st *State, msg *protocol.Message) error {
	st.Log.Debug().
		Bool("null_id", msg.NullID).
		Str("payload", summarize(msg)).
		Msg("relay.handleMisc ignored uncategorized message")
	return nil
}

// handleBufferList fills the registry from the initial listing. Rows are
// validated before any is applied.
func handleBufferList(st *State, msg *protocol.Message) error {
	h, err := msg.Hdata()
	if err != nil {
		return err
	}
	names := make(map[string]string, len(h.Rows))
	for i, row := range h.Rows {
		name, err := row.Text("name")
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		names[row.Pointer()] = name
	}
	for ptr, name := range names {
		st.Registry.Put(ptr, name)
	}
	st.Log.Info().Int("buffers", st.Registry.Len()).Msg("relay.handleBufferList synced")
	return nil
}

func handleLineAdded(st *State, msg *protocol.Message) error {
	h, err := msg.Hdata()
	if err != nil {
		return err
	}
	var errs []error
	for i, row := range h.Rows {
		line, err := LineFromRow(row)
		if err != nil {
			errs = append(errs, fmt.Errorf("row %d: %w", i, err))
			continue
		}
		if !ShouldNotify(line) {
			continue
		}
		name, err := st.Registry.Lookup(line.Buffer)
		if err != nil {
			// closed or never listed: skip, never fail the message
			st.Log.Debug().Err(err).Msg("relay.handleLineAdded skipped line")
			continue
		}
		text := FormatNotification(name, line)
		if st.Clean != nil {
			text = st.Clean(text)
		}
		if st.Notifier != nil {
			st.Notifier.Notify(text)
		}
		observability.RecordNotification()
	}
	return errors.Join(errs...)
}

// bufferName prefers a direct "name" column and falls back to the "name"
// local variable.
func bufferName(row protocol.Row) (string, error) {
	if row.Has("name") {
		return row.Text("name")
	}
	vars, err := row.Get("local_variables")
	if err != nil {
		return "", err
	}
	v, ok := vars.Lookup("name")
	if !ok {
		return "", fmt.Errorf("%w: local_variables[name]", protocol.ErrMissingColumn)
	}
	return v.AsString()
}

func handleBufferOpened(st *State, msg *protocol.Message) error {
	h, err := msg.Hdata()
	if err != nil {
		return err
	}
	for i, row := range h.Rows {
		name, err := bufferName(row)
		if err != nil {
			return fmt.Errorf("row %d: %w", i, err)
		}
		ptr := row.Pointer()
		if err := st.Commands.Sync(ptr); err != nil {
			st.Log.Warn().Err(err).Str("buffer", ptr).Msg("relay.handleBufferOpened sync failed")
		}
		st.Registry.Put(ptr, name)
		st.Log.Debug().Str("buffer", ptr).Str("name", name).Msg("relay.handleBufferOpened registered")
	}
	return nil
}

func handleBufferClosing(st *State, msg *protocol.Message) error {
	h, err := msg.Hdata()
	if err != nil {
		return err
	}
	for _, row := range h.Rows {
		ptr := row.Pointer()
		if err := st.Commands.Desync(ptr); err != nil {
			st.Log.Warn().Err(err).Str("buffer", ptr).Msg("relay.handleBufferClosing desync failed")
		}
		if !st.Registry.Remove(ptr) {
			st.Log.Debug().Str("buffer", ptr).Msg("relay.handleBufferClosing buffer was not registered")
		}
	}
	return nil
}
