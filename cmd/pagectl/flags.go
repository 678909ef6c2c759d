package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/danmuck/weechatpage/internal/config"
	"github.com/spf13/pflag"
)

type options struct {
	configPath string
	help       bool
	flags      *pflag.FlagSet

	host        string
	port        int
	compression string
	notifier    string
	metricsAddr string
	logLevel    string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{}
	fs := pflag.NewFlagSet("pagectl", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVarP(&opts.configPath, "config", "c", "", "path to a TOML or YAML config file")
	fs.StringVar(&opts.host, "host", "", "relay host")
	fs.IntVar(&opts.port, "port", 0, "relay port")
	fs.StringVar(&opts.compression, "compression", "", "message compression: off, zlib or zstd")
	fs.StringVar(&opts.notifier, "notifier", "", "notifier kind: exec, console or log")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "serve /metrics and /health on this address")
	fs.StringVar(&opts.logLevel, "log-level", "", "log level (PAGE_LOG_LEVEL wins)")
	fs.BoolVarP(&opts.help, "help", "h", false, "show usage")
	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pagectl [flags]\n\nForward WeeChat highlights and private messages to a desktop notifier.\n\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	opts.flags = fs
	return opts, nil
}

// loadConfig layers defaults, the config file, the environment and finally
// explicitly set flags.
func loadConfig(opts *options) (config.Config, error) {
	cfg := config.Default()
	if opts.configPath != "" {
		loaded, err := config.Load(opts.configPath)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
	}
	config.ApplyEnv(&cfg)

	changed := opts.flags.Changed
	if changed("host") {
		cfg.Relay.Host = strings.TrimSpace(opts.host)
	}
	if changed("port") {
		cfg.Relay.Port = opts.port
	}
	if changed("compression") {
		cfg.Relay.Compression = strings.ToLower(strings.TrimSpace(opts.compression))
	}
	if changed("notifier") {
		cfg.Notify.Kind = strings.TrimSpace(opts.notifier)
	}
	if changed("metrics-addr") {
		cfg.Metrics.Addr = strings.TrimSpace(opts.metricsAddr)
	}
	if changed("log-level") {
		cfg.Log.Level = strings.TrimSpace(opts.logLevel)
	}
	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}
