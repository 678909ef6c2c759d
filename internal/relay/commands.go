package relay

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/danmuck/weechatpage/internal/protocol/frame"
)

const (
	// BufferListID tags the reply to the initial buffer listing request.
	BufferListID = "buffer_list"

	cmdQuit    = "quit"
	cmdSyncAll = "sync"
)

var (
	ErrCommandsClosed = errors.New("relay: command stream closed")
	ErrInvalidPointer = errors.New("relay: invalid pointer for command")
)

// Commands writes newline-terminated text commands. Writes are serialized
// and nothing is written after Quit.
type Commands struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func NewCommands(w io.Writer) *Commands {
	return &Commands{w: w}
}

func (c *Commands) send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCommandsClosed
	}
	_, err := io.WriteString(c.w, line+"\n")
	return err
}

// Init authenticates and selects message compression.
func (c *Commands) Init(password string, compression frame.Compression) error {
	return c.send(fmt.Sprintf("init password=%s,compression=%s", escapeOption(password), compression))
}

// ListBuffers asks for every buffer's pointer and name, answered with the
// BufferListID identifier.
func (c *Commands) ListBuffers() error {
	return c.send("(" + BufferListID + ") hdata buffer:gui_buffers(*) name")
}

func (c *Commands) SyncAll() error {
	return c.send(cmdSyncAll)
}

func (c *Commands) Sync(ptr string) error {
	if err := checkPointer(ptr); err != nil {
		return err
	}
	return c.send("sync " + ptr + " *")
}

func (c *Commands) Desync(ptr string) error {
	if err := checkPointer(ptr); err != nil {
		return err
	}
	return c.send("desync " + ptr + " *")
}

// Quit writes the final command; later writes fail with ErrCommandsClosed.
func (c *Commands) Quit() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrCommandsClosed
	}
	c.closed = true
	_, err := io.WriteString(c.w, cmdQuit+"\n")
	return err
}

// escapeOption escapes the init option separator and the escape itself.
func escapeOption(v string) string {
	v = strings.ReplaceAll(v, `\`, `\\`)
	return strings.ReplaceAll(v, ",", `\,`)
}

func checkPointer(ptr string) error {
	if ptr == "" || strings.ContainsAny(ptr, " \t\r\n") {
		return fmt.Errorf("%w: %q", ErrInvalidPointer, ptr)
	}
	return nil
}
