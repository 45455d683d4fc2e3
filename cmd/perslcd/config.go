package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/giantswarm/perslc"
)

// Config is the perslcd configuration file.
type Config struct {
	Bus               string           `toml:"bus"`
	ShutdownModes     []string         `toml:"shutdown_modes"`
	RegisterTimeoutMs int64            `toml:"register_timeout_ms"`
	ObjectPath        string           `toml:"object_path"`
	LockFile          string           `toml:"lock_file"`
	MetricsAddr       string           `toml:"metrics_addr"`
	WaitForManagerMs  int64            `toml:"wait_for_manager_ms"`
	LogLevel          string           `toml:"log_level"`
	LogFormat         string           `toml:"log_format"`
	Databases         []DatabaseConfig `toml:"database"`
	Plugins           []PluginConfig   `toml:"plugin"`
}

// DatabaseConfig is one database opened at startup. Shared databases are
// closed by the bulk close step instead of occupying a slot.
type DatabaseConfig struct {
	Path   string `toml:"path"`
	Shared bool   `toml:"shared"`
}

// PluginConfig is one storage plugin loaded at startup.
type PluginConfig struct {
	Name string `toml:"name"`
	Path string `toml:"path"`
	Slot int    `toml:"slot"`
}

var shutdownModes = map[string]perslc.ShutdownType{
	"normal": perslc.ShutdownNormal,
	"fast":   perslc.ShutdownFast,
	"runup":  perslc.ShutdownRunup,
}

// defaultConfig returns the configuration used for keys the file omits.
func defaultConfig() Config {
	return Config{
		Bus:               perslc.DefaultBus,
		ShutdownModes:     []string{"normal"},
		RegisterTimeoutMs: perslc.DefaultRegisterTimeout.Milliseconds(),
		ObjectPath:        perslc.DefaultObjectPath,
		LogLevel:          "info",
		LogFormat:         "text",
	}
}

// LoadConfig reads the TOML file at path over the defaults. An empty path
// returns the defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate returns every problem in c joined with errors.Join.
func (c Config) Validate() error {
	var errs []error

	if c.Bus != perslc.SystemBus && c.Bus != perslc.SessionBus {
		errs = append(errs, fmt.Errorf("bus must be %q or %q, got %q", perslc.SystemBus, perslc.SessionBus, c.Bus))
	}
	if _, err := c.shutdownMode(); err != nil {
		errs = append(errs, err)
	}
	if c.RegisterTimeoutMs <= 0 || c.RegisterTimeoutMs > 1<<32-1 {
		errs = append(errs, fmt.Errorf("register_timeout_ms must be in 1..%d, got %d", uint32(1<<32-1), c.RegisterTimeoutMs))
	}
	if c.ObjectPath == "" {
		errs = append(errs, errors.New("object_path must not be empty"))
	}
	if c.WaitForManagerMs < 0 {
		errs = append(errs, fmt.Errorf("wait_for_manager_ms must not be negative, got %d", c.WaitForManagerMs))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		errs = append(errs, fmt.Errorf("log_format must be \"text\" or \"json\", got %q", c.LogFormat))
	}
	for i, db := range c.Databases {
		if db.Path == "" {
			errs = append(errs, fmt.Errorf("database[%d]: path must not be empty", i))
		}
	}
	slots := make(map[int]string, len(c.Plugins))
	for i, p := range c.Plugins {
		if p.Name == "" || p.Path == "" {
			errs = append(errs, fmt.Errorf("plugin[%d]: name and path must not be empty", i))
		}
		if p.Slot < 0 || p.Slot >= perslc.DefaultPluginSlots {
			errs = append(errs, fmt.Errorf("plugin[%d]: slot must be in 0..%d, got %d", i, perslc.DefaultPluginSlots-1, p.Slot))
		}
		if other, ok := slots[p.Slot]; ok {
			errs = append(errs, fmt.Errorf("plugin[%d]: slot %d already used by %q", i, p.Slot, other))
		}
		slots[p.Slot] = p.Name
	}

	return errors.Join(errs...)
}

func (c Config) shutdownMode() (perslc.ShutdownType, error) {
	if len(c.ShutdownModes) == 0 {
		return 0, errors.New("shutdown_modes must not be empty")
	}
	var mode perslc.ShutdownType
	for _, name := range c.ShutdownModes {
		m, ok := shutdownModes[strings.ToLower(name)]
		if !ok {
			return 0, fmt.Errorf("unknown shutdown mode %q", name)
		}
		mode |= m
	}
	return mode, nil
}

// Options converts c into coordinator options. c must be valid.
func (c Config) Options() []perslc.Option {
	mode, _ := c.shutdownMode()
	opts := []perslc.Option{
		perslc.WithBus(c.Bus),
		perslc.WithShutdownMode(mode),
		perslc.WithRegisterTimeout(time.Duration(c.RegisterTimeoutMs) * time.Millisecond),
		perslc.WithObjectPath(c.ObjectPath),
	}
	if c.LockFile != "" {
		opts = append(opts, perslc.WithLockFile(c.LockFile))
	}
	if c.WaitForManagerMs > 0 {
		opts = append(opts, perslc.WithManagerWait(time.Duration(c.WaitForManagerMs)*time.Millisecond))
	}
	return opts
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
