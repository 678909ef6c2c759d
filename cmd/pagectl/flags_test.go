package main

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/weechatpage/internal/config"
	"github.com/danmuck/weechatpage/internal/testutil/relaytest"
	"github.com/danmuck/weechatpage/internal/testutil/testlog"
)

func TestLoadConfigExampleFile(t *testing.T) {
	testlog.Start(t)
	t.Setenv(config.EnvRelayPassword, "from-env")
	opts, err := parseFlags([]string{"--config", "ex.config.toml"}, io.Discard)
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Address() != "127.0.0.1:9001" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.Relay.Compression != "zlib" || cfg.Relay.Password != "from-env" {
		t.Fatalf("unexpected relay config %+v", cfg.Relay)
	}
	if cfg.Notify.Kind != "console" || cfg.Metrics.Addr != "127.0.0.1:9464" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestFlagsOverrideFile(t *testing.T) {
	testlog.Start(t)
	opts, err := parseFlags([]string{
		"-c", "ex.config.toml",
		"--host", "relay.example",
		"--port", "9443",
		"--compression", "ZSTD",
		"--notifier", "log",
		"--metrics-addr", "",
	}, io.Discard)
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Address() != "relay.example:9443" {
		t.Fatalf("unexpected address %q", cfg.Address())
	}
	if cfg.Relay.Compression != "zstd" || cfg.Notify.Kind != "log" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Metrics.Addr != "" {
		t.Fatalf("expected metrics disabled by flag, got %q", cfg.Metrics.Addr)
	}
	if cfg.Log.Level != "debug" {
		t.Fatalf("expected file log level to survive, got %q", cfg.Log.Level)
	}
}

func TestLoadConfigRejectsBadFlag(t *testing.T) {
	testlog.Start(t)
	opts, err := parseFlags([]string{"--compression", "lz4"}, io.Discard)
	if err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	if _, err := loadConfig(opts); !errors.Is(err, config.ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParseFlagsRejectsPositionalArgs(t *testing.T) {
	if _, err := parseFlags([]string{"extra"}, io.Discard); err == nil {
		t.Fatalf("expected error for positional argument")
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	testlog.Start(t)
	t.Setenv(config.EnvRelayPassword, "")
	srv := relaytest.NewServer(t)
	host, port := splitAddr(t, srv.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() {
		done <- run(ctx, []string{"--host", host, "--port", port, "--notifier", "log"})
	}()

	srv.ExpectLine("init password=,compression=off")
	srv.ExpectLine("(buffer_list) hdata buffer:gui_buffers(*) name")
	srv.ExpectLine("sync")
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected clean exit, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return after cancel")
	}
	if rest := srv.ExpectClosed(); len(rest) != 1 || rest[0] != "quit" {
		t.Fatalf("expected quit on shutdown, got %v", rest)
	}
}

func splitAddr(t *testing.T, addr string) (string, string) {
	t.Helper()
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("split %q: %v", addr, err)
	}
	return host, port
}
