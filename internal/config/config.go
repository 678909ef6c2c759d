package config

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const EnvRelayPassword = "PAGE_RELAY_PASSWORD"

var ErrInvalidConfig = errors.New("config: invalid")

// Config is the static startup configuration. It is loaded once and never
// reloaded.
type Config struct {
	Relay   RelayConfig
	Notify  NotifyConfig
	Metrics MetricsConfig
	Log     LogConfig
}

type RelayConfig struct {
	Host        string
	Port        int
	Password    string
	Compression string
}

type NotifyConfig struct {
	Kind    string
	Command string
	Args    []string
	Title   string
	Timeout time.Duration
}

type MetricsConfig struct {
	Addr string
}

type LogConfig struct {
	Level string
}

func Default() Config {
	return Config{
		Relay: RelayConfig{
			Host:        "localhost",
			Port:        9001,
			Compression: "off",
		},
		Notify: NotifyConfig{
			Kind:    "exec",
			Command: "notify-send",
			Title:   "WeeChat",
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "info"},
	}
}

// Address is the relay dial address.
func (c Config) Address() string {
	return net.JoinHostPort(c.Relay.Host, strconv.Itoa(c.Relay.Port))
}

type fileConfig struct {
	Relay struct {
		Host        *string `toml:"host" yaml:"host"`
		Port        *int    `toml:"port" yaml:"port"`
		Password    *string `toml:"password" yaml:"password"`
		Compression *string `toml:"compression" yaml:"compression"`
	} `toml:"relay" yaml:"relay"`
	Notify struct {
		Kind    *string  `toml:"kind" yaml:"kind"`
		Command *string  `toml:"command" yaml:"command"`
		Args    []string `toml:"args" yaml:"args"`
		Title   *string  `toml:"title" yaml:"title"`
		Timeout *string  `toml:"timeout" yaml:"timeout"`
	} `toml:"notify" yaml:"notify"`
	Metrics struct {
		Addr *string `toml:"addr" yaml:"addr"`
	} `toml:"metrics" yaml:"metrics"`
	Log struct {
		Level *string `toml:"level" yaml:"level"`
	} `toml:"log" yaml:"log"`
}

// Load reads a TOML or YAML file (by extension) over Default, applies the
// password environment override and validates the result.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}

	var raw fileConfig
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&raw); err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
	default:
		meta, err := toml.Decode(string(data), &raw)
		if err != nil {
			return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, fmt.Errorf("%w: unknown key %q in %s", ErrInvalidConfig, undecoded[0].String(), path)
		}
	}

	cfg := Default()
	if err := apply(&cfg, raw); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	ApplyEnv(&cfg)
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func apply(cfg *Config, raw fileConfig) error {
	if raw.Relay.Host != nil {
		cfg.Relay.Host = strings.TrimSpace(*raw.Relay.Host)
	}
	if raw.Relay.Port != nil {
		cfg.Relay.Port = *raw.Relay.Port
	}
	if raw.Relay.Password != nil {
		cfg.Relay.Password = *raw.Relay.Password
	}
	if raw.Relay.Compression != nil {
		cfg.Relay.Compression = strings.ToLower(strings.TrimSpace(*raw.Relay.Compression))
	}
	if raw.Notify.Kind != nil {
		cfg.Notify.Kind = strings.TrimSpace(*raw.Notify.Kind)
	}
	if raw.Notify.Command != nil {
		cfg.Notify.Command = strings.TrimSpace(*raw.Notify.Command)
	}
	if raw.Notify.Args != nil {
		cfg.Notify.Args = append([]string(nil), raw.Notify.Args...)
	}
	if raw.Notify.Title != nil {
		cfg.Notify.Title = *raw.Notify.Title
	}
	if raw.Notify.Timeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*raw.Notify.Timeout))
		if err != nil {
			return fmt.Errorf("parse notify.timeout: %w", err)
		}
		cfg.Notify.Timeout = d
	}
	if raw.Metrics.Addr != nil {
		cfg.Metrics.Addr = strings.TrimSpace(*raw.Metrics.Addr)
	}
	if raw.Log.Level != nil {
		cfg.Log.Level = strings.TrimSpace(*raw.Log.Level)
	}
	return nil
}

// ApplyEnv lets the relay password come from the environment instead of a file.
func ApplyEnv(cfg *Config) {
	if pw, ok := os.LookupEnv(EnvRelayPassword); ok {
		cfg.Relay.Password = pw
	}
}

func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.Relay.Host) == "" {
		return fmt.Errorf("%w: relay.host is required", ErrInvalidConfig)
	}
	if cfg.Relay.Port < 1 || cfg.Relay.Port > 65535 {
		return fmt.Errorf("%w: relay.port %d out of range", ErrInvalidConfig, cfg.Relay.Port)
	}
	switch cfg.Relay.Compression {
	case "off", "zlib", "zstd":
	default:
		return fmt.Errorf("%w: relay.compression %q", ErrInvalidConfig, cfg.Relay.Compression)
	}
	switch cfg.Notify.Kind {
	case "exec", "console", "log":
	default:
		return fmt.Errorf("%w: notify.kind %q", ErrInvalidConfig, cfg.Notify.Kind)
	}
	if cfg.Notify.Kind == "exec" && strings.TrimSpace(cfg.Notify.Command) == "" {
		return fmt.Errorf("%w: notify.command is required for exec notifier", ErrInvalidConfig)
	}
	if cfg.Notify.Timeout < 0 {
		return fmt.Errorf("%w: notify.timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}
