package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/danmuck/weechatpage/internal/notify"
	"github.com/danmuck/weechatpage/internal/observability"
	"github.com/danmuck/weechatpage/internal/protocol"
	"github.com/danmuck/weechatpage/internal/protocol/frame"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	ErrAddressRequired  = errors.New("relay: address required")
	ErrConnectionClosed = errors.New("relay: connection closed by peer")
)

const defaultReadBufferSize = 64 * 1024

// Config describes one relay connection.
type Config struct {
	Address        string
	Password       string
	Compression    frame.Compression
	Limits         frame.Limits
	ConnectTimeout time.Duration
	ReadBufferSize int
}

func DefaultConfig() Config {
	return Config{
		Compression:    frame.CompressionNone,
		Limits:         frame.DefaultLimits(),
		ConnectTimeout: 10 * time.Second,
		ReadBufferSize: defaultReadBufferSize,
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	if c.Limits.MaxFrameBytes == 0 {
		c.Limits.MaxFrameBytes = def.Limits.MaxFrameBytes
	}
	if c.Limits.MaxBodyBytes == 0 {
		c.Limits.MaxBodyBytes = def.Limits.MaxBodyBytes
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.ReadBufferSize <= 0 {
		c.ReadBufferSize = def.ReadBufferSize
	}
	return c
}

// Options carries the collaborators of a connection.
type Options struct {
	Notifier   notify.Notifier
	Clean      func(string) string
	Dispatcher *Dispatcher
}

// Client is one relay connection and the state derived from it.
type Client struct {
	cfg        Config
	id         string
	conn       net.Conn
	log        zerolog.Logger
	state      *State
	dispatcher *Dispatcher
	assembler  *frame.Assembler

	closing   atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// Dial connects and performs the handshake.
func Dial(ctx context.Context, cfg Config, opts Options) (*Client, error) {
	if strings.TrimSpace(cfg.Address) == "" {
		return nil, ErrAddressRequired
	}
	cfg = cfg.WithDefaults()
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", cfg.Address)
	if err != nil {
		return nil, fmt.Errorf("relay: dial %s: %w", cfg.Address, err)
	}
	c := NewClient(conn, cfg, opts)
	if err := c.Handshake(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// NewClient wraps an established connection without writing anything.
func NewClient(conn net.Conn, cfg Config, opts Options) *Client {
	cfg = cfg.WithDefaults()
	id := uuid.NewString()
	logger := log.With().Str("conn_id", id).Str("relay", cfg.Address).Logger()
	d := opts.Dispatcher
	if d == nil {
		d = NewDispatcher()
	}
	return &Client{
		cfg:  cfg,
		id:   id,
		conn: conn,
		log:  logger,
		state: &State{
			Registry: NewRegistry(),
			Commands: NewCommands(conn),
			Notifier: opts.Notifier,
			Clean:    opts.Clean,
			Log:      logger,
		},
		dispatcher: d,
		assembler:  frame.NewAssembler(cfg.Limits),
	}
}

func (c *Client) ID() string {
	return c.id
}

// Registry exposes the buffer registry. It is only safe to read from a
// handler or after Run has returned.
func (c *Client) Registry() *Registry {
	return c.state.Registry
}

// Handshake writes init, the buffer listing request and sync-all, in order.
func (c *Client) Handshake() error {
	cmds := c.state.Commands
	if err := cmds.Init(c.cfg.Password, c.cfg.Compression); err != nil {
		return fmt.Errorf("relay: init: %w", err)
	}
	if err := cmds.ListBuffers(); err != nil {
		return fmt.Errorf("relay: list buffers: %w", err)
	}
	if err := cmds.SyncAll(); err != nil {
		return fmt.Errorf("relay: sync: %w", err)
	}
	observability.SetConnected(true)
	c.log.Info().Str("compression", c.cfg.Compression.String()).Msg("relay.Client.Handshake sent")
	return nil
}

// Run reads and dispatches until ctx is cancelled (returns nil) or the
// connection fails (returns the error). Either way Close has run when Run
// returns.
func (c *Client) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = c.Close()
	})
	defer stop()
	defer c.Close()

	buf := make([]byte, c.cfg.ReadBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			if ferr := c.Feed(buf[:n]); ferr != nil {
				c.log.Error().Err(ferr).Msg("relay.Client.Run framing lost")
				return ferr
			}
		}
		if err != nil {
			if c.closing.Load() {
				c.log.Info().Msg("relay.Client.Run shutdown")
				return nil
			}
			if errors.Is(err, io.EOF) {
				return ErrConnectionClosed
			}
			return fmt.Errorf("relay: read: %w", err)
		}
	}
}

// Feed pushes raw stream bytes through framing, decoding and dispatch.
// Only a framing error is returned; per-frame failures are logged and the
// frame is dropped.
func (c *Client) Feed(p []byte) error {
	frames, err := c.assembler.Push(p)
	for _, f := range frames {
		c.handleFrame(f)
	}
	return err
}

func (c *Client) handleFrame(f []byte) {
	compression := frame.Compression(f[frame.LengthLen]).String()
	observability.RecordFrame(compression)

	msg, err := protocol.DecodeFrame(f, c.cfg.Limits)
	if err != nil {
		observability.RecordDecodeError("decode")
		c.log.Error().Err(err).Int("bytes", len(f)).Msg("relay.Client.handleFrame decode failed")
		return
	}
	if err := c.dispatcher.Dispatch(c.state, msg); err != nil {
		observability.RecordDecodeError("handler")
		c.log.Error().Err(err).Str("id", msg.ID).Msg("relay.Client.handleFrame handler failed")
	}
}

// Close writes quit and closes the connection. Only the first call does
// anything; later calls return the first result.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closing.Store(true)
		if err := c.state.Commands.Quit(); err != nil {
			c.log.Debug().Err(err).Msg("relay.Client.Close quit not delivered")
		}
		c.closeErr = c.conn.Close()
		observability.SetConnected(false)
		c.log.Info().Msg("relay.Client.Close closed")
	})
	return c.closeErr
}
