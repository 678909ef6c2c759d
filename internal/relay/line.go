package relay

import (
	"fmt"
	"slices"

	"github.com/danmuck/weechatpage/internal/protocol"
)

const (
	TagPrivateMessage = "irc_privmsg"
	TagNotifyPrivate  = "notify_private"
)

// Line is the view of one buffer line row that the notification filter needs.
type Line struct {
	Buffer    string
	Date      int64
	Displayed bool
	Highlight bool
	Tags      []string
	Prefix    string
	Message   string
}

// LineFromRow reads a _buffer_line_added row. "date" is optional; every
// other column is required.
func LineFromRow(row protocol.Row) (Line, error) {
	var l Line
	bufVal, err := row.Get("buffer")
	if err != nil {
		return Line{}, err
	}
	if l.Buffer, err = bufVal.AsPointer(); err != nil {
		return Line{}, fmt.Errorf("column %q: %w", "buffer", err)
	}
	if l.Displayed, err = row.Flag("displayed"); err != nil {
		return Line{}, err
	}
	if l.Highlight, err = row.Flag("highlight"); err != nil {
		return Line{}, err
	}
	tags, err := row.Get("tags_array")
	if err != nil {
		return Line{}, err
	}
	if l.Tags, err = tags.Strings(); err != nil {
		return Line{}, fmt.Errorf("column %q: %w", "tags_array", err)
	}
	if l.Prefix, err = row.Text("prefix"); err != nil {
		return Line{}, err
	}
	if l.Message, err = row.Text("message"); err != nil {
		return Line{}, err
	}
	if row.Has("date") {
		if l.Date, err = row.Values["date"].AsTime(); err != nil {
			return Line{}, fmt.Errorf("column %q: %w", "date", err)
		}
	}
	return l, nil
}

func (l Line) HasTag(tag string) bool {
	return slices.Contains(l.Tags, tag)
}

// ShouldNotify is true for displayed private messages that either
// highlight the user or carry the notify_private tag.
func ShouldNotify(l Line) bool {
	return l.Displayed &&
		l.HasTag(TagPrivateMessage) &&
		(l.Highlight || l.HasTag(TagNotifyPrivate))
}

// FormatNotification renders the raw (uncleaned) notification text.
func FormatNotification(bufferName string, l Line) string {
	return fmt.Sprintf("%s - %s - %s", bufferName, l.Prefix, l.Message)
}
