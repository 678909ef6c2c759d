package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/weechatpage/internal/config"
	"github.com/danmuck/weechatpage/internal/logging"
	"github.com/danmuck/weechatpage/internal/notify"
	"github.com/danmuck/weechatpage/internal/observability"
	"github.com/danmuck/weechatpage/internal/protocol/frame"
	"github.com/danmuck/weechatpage/internal/relay"
	"github.com/danmuck/weechatpage/internal/textclean"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

func main() {
	logging.ConfigureRuntime()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "pagectl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if opts.help {
		opts.flags.Usage()
		return nil
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}
	if err := logging.SetLevel(cfg.Log.Level); err != nil {
		return err
	}

	relayCfg, notifier, err := buildRuntime(cfg)
	if err != nil {
		return err
	}

	if cfg.Metrics.Addr != "" {
		go func() {
			if err := observability.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.Error().Err(err).Str("addr", cfg.Metrics.Addr).Msg("pagectl metrics server stopped")
			}
		}()
	}

	client, err := relay.Dial(ctx, relayCfg, relay.Options{
		Notifier: notifier,
		Clean:    textclean.Clean,
	})
	if err != nil {
		return err
	}
	log.Info().Str("relay", relayCfg.Address).Str("conn_id", client.ID()).Msg("pagectl connected")
	return client.Run(ctx)
}

func buildRuntime(cfg config.Config) (relay.Config, notify.Notifier, error) {
	compression, err := frame.ParseCompression(cfg.Relay.Compression)
	if err != nil {
		return relay.Config{}, nil, err
	}
	relayCfg := relay.DefaultConfig()
	relayCfg.Address = cfg.Address()
	relayCfg.Password = cfg.Relay.Password
	relayCfg.Compression = compression

	notifier, err := notify.New(notify.Config{
		Kind:    cfg.Notify.Kind,
		Command: cfg.Notify.Command,
		Args:    cfg.Notify.Args,
		Title:   cfg.Notify.Title,
		Timeout: cfg.Notify.Timeout,
		Out:     os.Stdout,
	})
	if err != nil {
		return relay.Config{}, nil, err
	}
	return relayCfg, notifier, nil
}
