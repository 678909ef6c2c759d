// Package notify delivers formatted notification text to the local user.
// Delivery failures are logged here and never returned to the relay client.
package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

const (
	KindExec    = "exec"
	KindConsole = "console"
	KindLog     = "log"
)

var ErrUnknownKind = errors.New("notify: unknown notifier kind")

// Notifier accepts one already-cleaned line of text.
type Notifier interface {
	Notify(text string)
}

// Func adapts a plain function to Notifier.
type Func func(text string)

func (f Func) Notify(text string) { f(text) }

// Config selects and parameterizes a notifier.
type Config struct {
	Kind    string
	Command string
	Args    []string
	Title   string
	Timeout time.Duration
	Out     io.Writer
}

func DefaultConfig() Config {
	return Config{
		Kind:    KindExec,
		Command: "notify-send",
		Title:   "WeeChat",
		Timeout: 5 * time.Second,
	}
}

// New builds the notifier named by cfg.Kind.
func New(cfg Config) (Notifier, error) {
	switch strings.TrimSpace(cfg.Kind) {
	case KindExec, "":
		return NewExec(cfg), nil
	case KindConsole:
		return NewConsole(cfg.Out, cfg.Title), nil
	case KindLog:
		return Log{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, cfg.Kind)
	}
}

// Exec runs an external command per notification: command, args..., title, text.
type Exec struct {
	command string
	args    []string
	title   string
	timeout time.Duration
	run     func(ctx context.Context, name string, args ...string) error
}

func NewExec(cfg Config) *Exec {
	def := DefaultConfig()
	if strings.TrimSpace(cfg.Command) == "" {
		cfg.Command = def.Command
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	return &Exec{
		command: cfg.Command,
		args:    append([]string(nil), cfg.Args...),
		title:   cfg.Title,
		timeout: cfg.Timeout,
		run: func(ctx context.Context, name string, args ...string) error {
			return exec.CommandContext(ctx, name, args...).Run()
		},
	}
}

func (e *Exec) argv(text string) []string {
	argv := append([]string(nil), e.args...)
	if e.title != "" {
		argv = append(argv, e.title)
	}
	return append(argv, text)
}

func (e *Exec) Notify(text string) {
	ctx, cancel := context.WithTimeout(context.Background(), e.timeout)
	defer cancel()
	if err := e.run(ctx, e.command, e.argv(text)...); err != nil {
		log.Warn().Err(err).Str("command", e.command).Msg("notify.Exec.Notify failed")
	}
}

// Console writes one styled line per notification.
type Console struct {
	mu    sync.Mutex
	out   io.Writer
	title string
	label lipgloss.Style
	body  lipgloss.Style
}

func NewConsole(out io.Writer, title string) *Console {
	if out == nil {
		out = os.Stdout
	}
	return &Console{
		out:   out,
		title: title,
		label: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		body:  lipgloss.NewStyle(),
	}
}

func (c *Console) Notify(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	line := c.body.Render(text)
	if c.title != "" {
		line = c.label.Render("["+c.title+"]") + " " + line
	}
	if _, err := fmt.Fprintln(c.out, line); err != nil {
		log.Warn().Err(err).Msg("notify.Console.Notify write failed")
	}
}

// Log emits notifications as structured log events.
type Log struct{}

func (Log) Notify(text string) {
	log.Info().Str("notification", text).Msg("notify.Log.Notify")
}
