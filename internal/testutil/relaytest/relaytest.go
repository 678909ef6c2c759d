// Package relaytest runs an in-process fake relay for client tests.
package relaytest

import (
	"bufio"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/danmuck/weechatpage/internal/protocol"
	"github.com/danmuck/weechatpage/internal/protocol/frame"
)

const waitTimeout = 5 * time.Second

// Server accepts one client connection, records its command lines and
// pushes encoded frames to it.
type Server struct {
	t     *testing.T
	ln    net.Listener
	conn  chan net.Conn
	lines chan string

	mu     sync.Mutex
	client net.Conn
}

func NewServer(t *testing.T) *Server {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("relaytest: listen: %v", err)
	}
	s := &Server{
		t:     t,
		ln:    ln,
		conn:  make(chan net.Conn, 1),
		lines: make(chan string, 128),
	}
	go s.accept()
	t.Cleanup(s.Close)
	return s
}

func (s *Server) accept() {
	conn, err := s.ln.Accept()
	if err != nil {
		close(s.lines)
		return
	}
	s.conn <- conn
	scanner := bufio.NewScanner(conn)
	for scanner.Scan() {
		s.lines <- scanner.Text()
	}
	close(s.lines)
}

func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Conn waits for the client connection.
func (s *Server) Conn() net.Conn {
	s.t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client
	}
	select {
	case c := <-s.conn:
		s.client = c
		return c
	case <-time.After(waitTimeout):
		s.t.Fatalf("relaytest: no client connected")
		return nil
	}
}

// NextLine returns the next command line; ok is false once the client hung up.
func (s *Server) NextLine() (string, bool) {
	s.t.Helper()
	select {
	case line, ok := <-s.lines:
		return line, ok
	case <-time.After(waitTimeout):
		s.t.Fatalf("relaytest: timed out waiting for a command")
		return "", false
	}
}

func (s *Server) ExpectLine(want string) {
	s.t.Helper()
	got, ok := s.NextLine()
	if !ok {
		s.t.Fatalf("relaytest: expected %q, client closed", want)
	}
	if got != want {
		s.t.Fatalf("relaytest: expected command %q, got %q", want, got)
	}
}

// ExpectClosed drains remaining lines and fails if the client keeps the
// connection open.
func (s *Server) ExpectClosed() []string {
	s.t.Helper()
	var rest []string
	for {
		line, ok := s.NextLine()
		if !ok {
			return rest
		}
		rest = append(rest, line)
	}
}

// Send encodes one uncompressed message and writes it.
func (s *Server) Send(id string, values ...protocol.Value) {
	s.t.Helper()
	s.SendCompressed(frame.CompressionNone, id, values...)
}

func (s *Server) SendCompressed(c frame.Compression, id string, values ...protocol.Value) {
	s.t.Helper()
	f, err := protocol.EncodeFrame(c, id, values...)
	if err != nil {
		s.t.Fatalf("relaytest: encode %q: %v", id, err)
	}
	s.SendRaw(f)
}

func (s *Server) SendRaw(b []byte) {
	s.t.Helper()
	if _, err := s.Conn().Write(b); err != nil {
		s.t.Fatalf("relaytest: write: %v", err)
	}
}

// Hangup closes the server side of the client connection.
func (s *Server) Hangup() {
	s.t.Helper()
	_ = s.Conn().Close()
}

func (s *Server) Close() {
	_ = s.ln.Close()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		select {
		case c := <-s.conn:
			s.client = c
		default:
		}
	}
	if s.client != nil {
		_ = s.client.Close()
	}
}
