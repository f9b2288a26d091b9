// Package config loads the echoprint CLI configuration.
//
// The file lives under os.UserConfigDir()/echoprint/, or $ECHOPRINT_CONFIG_DIR
// when set:
//
//	echoprint/
//	├── config.yaml
//	└── history/          # badger journal (default history.dir)
//
// Example config.yaml:
//
//	seconds: 20
//	codegen:
//	  path: echoprint-codegen
//	  args: ["-"]
//	  timeout: 30s
//	history:
//	  keep: 100
//	log:
//	  level: info
//	  file: /tmp/echoprint.log
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/goccy/go-yaml"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/haivivi/echoprint/go/pkg/capture"
	"github.com/haivivi/echoprint/go/pkg/cli"
)

const appName = "echoprint"

// DefaultKeep is the number of journal records kept when history.keep is
// unset.
const DefaultKeep = 100

// Config is the contents of config.yaml.
type Config struct {
	// Dir is the configuration directory. Not stored.
	Dir string `yaml:"-" json:"-"`

	// Seconds is the default capture duration.
	Seconds int `yaml:"seconds,omitempty" json:"seconds,omitempty"`

	Codegen Codegen `yaml:"codegen,omitempty" json:"codegen,omitempty"`
	History History `yaml:"history,omitempty" json:"history,omitempty"`
	Log     Log     `yaml:"log,omitempty" json:"log,omitempty"`
}

// Codegen configures the external code generator.
type Codegen struct {
	Path string   `yaml:"path,omitempty" json:"path,omitempty"`
	Args []string `yaml:"args,omitempty" json:"args,omitempty"`

	// Timeout is a Go duration string such as "30s".
	Timeout string `yaml:"timeout,omitempty" json:"timeout,omitempty"`
}

// History configures the pass journal.
type History struct {
	// Dir is the badger directory. Empty means <config dir>/history.
	Dir string `yaml:"dir,omitempty" json:"dir,omitempty"`

	// Keep is the number of records retained. Zero means DefaultKeep and a
	// negative value keeps everything.
	Keep int `yaml:"keep,omitempty" json:"keep,omitempty"`

	Disabled bool `yaml:"disabled,omitempty" json:"disabled,omitempty"`
}

// Log configures slog output.
type Log struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level,omitempty" json:"level,omitempty"`

	// File, when set, sends logs to a size-rotated file instead of stderr.
	File string `yaml:"file,omitempty" json:"file,omitempty"`

	// MaxSizeMB rotates the file at this size. Zero means 10.
	MaxSizeMB int `yaml:"max_size_mb,omitempty" json:"max_size_mb,omitempty"`

	// MaxBackups is the number of rotated files kept. Zero means 3.
	MaxBackups int `yaml:"max_backups,omitempty" json:"max_backups,omitempty"`
}

// Load loads the configuration from the default location.
func Load() (*Config, error) {
	paths, err := cli.NewPaths(appName)
	if err != nil {
		return nil, fmt.Errorf("cannot determine config directory: %w", err)
	}
	return LoadFrom(paths.AppDir)
}

// LoadFrom loads <dir>/config.yaml. A missing file yields the defaults.
func LoadFrom(dir string) (*Config, error) {
	cfg := &Config{Dir: dir}
	data, err := os.ReadFile(cfg.File())
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.File(), err)
	}
	cfg.Dir = dir
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", cfg.File(), err)
	}
	return cfg, nil
}

// Save writes the configuration to <dir>/config.yaml.
func (c *Config) Save() error {
	paths := cli.Paths{AppDir: c.Dir}
	if err := paths.EnsureAppDir(); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return os.WriteFile(c.File(), data, 0644)
}

// Validate checks field values.
func (c *Config) Validate() error {
	if c.Seconds < 0 {
		return fmt.Errorf("seconds must not be negative, got %d", c.Seconds)
	}
	if _, err := c.CodegenTimeout(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 {
		return errors.New("log.max_size_mb and log.max_backups must not be negative")
	}
	return nil
}

// File returns the config file path.
func (c *Config) File() string {
	return (&cli.Paths{AppDir: c.Dir}).ConfigFile()
}

// CaptureSeconds returns the configured duration, or capture.DefaultSeconds.
func (c *Config) CaptureSeconds() int {
	if c.Seconds == 0 {
		return capture.DefaultSeconds
	}
	return c.Seconds
}

// CodegenTimeout parses codegen.timeout. Empty means zero.
func (c *Config) CodegenTimeout() (time.Duration, error) {
	if c.Codegen.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Codegen.Timeout)
	if err != nil {
		return 0, fmt.Errorf("codegen.timeout: %w", err)
	}
	if d < 0 {
		return 0, fmt.Errorf("codegen.timeout must not be negative, got %s", d)
	}
	return d, nil
}

// HistoryDir returns history.dir, or <config dir>/history.
func (c *Config) HistoryDir() string {
	if c.History.Dir != "" {
		return c.History.Dir
	}
	return (&cli.Paths{AppDir: c.Dir}).HistoryDir()
}

// HistoryKeep returns the retention limit. Zero means unlimited.
func (c *Config) HistoryKeep() int {
	switch {
	case c.History.Keep == 0:
		return DefaultKeep
	case c.History.Keep < 0:
		return 0
	}
	return c.History.Keep
}

// LogLevel parses log.level. Empty means info.
func (c *Config) LogLevel() (slog.Level, error) {
	var l slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// LogWriter returns the log destination: a rotating file when log.file is
// set, otherwise stderr. The caller closes it.
func (c *Config) LogWriter(stderr io.Writer) io.WriteCloser {
	if c.Log.File == "" {
		return nopCloser{stderr}
	}
	size, backups := c.Log.MaxSizeMB, c.Log.MaxBackups
	if size == 0 {
		size = 10
	}
	if backups == 0 {
		backups = 3
	}
	return &lumberjack.Logger{
		Filename:   c.Log.File,
		MaxSize:    size,
		MaxBackups: backups,
	}
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
