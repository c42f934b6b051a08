// Package config holds the runtime configuration of invrollup commands.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/eunmann/inv-rollup/pkg/inventory"
	"github.com/eunmann/inv-rollup/pkg/logging"
	"github.com/eunmann/inv-rollup/pkg/rollup"
	"github.com/eunmann/inv-rollup/pkg/s3fetch"
)

// EnvLogFormat overrides the default log format.
const EnvLogFormat = "INVROLLUP_LOG_FORMAT"

// Log formats.
const (
	LogFormatAuto = "auto"
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// ErrUsage marks errors caused by missing or contradictory flags.
var ErrUsage = errors.New("usage error")

// Config holds all runtime configuration for a run or batch.
type Config struct {
	Label     string
	Input     string
	Dir       string
	OutDir    string
	LogDir    string
	LogFormat string
	Debug     bool

	Delimiter     string
	Columns       inventory.Columns
	UnknownServer string
	Parquet       bool
	ProgressEvery uint64
	MaxDepth      int
}

// yamlConfig is the on-disk YAML structure. Pointer fields distinguish
// absent keys from zero values.
type yamlConfig struct {
	Out           *string            `yaml:"out"`
	LogDir        *string            `yaml:"log_dir"`
	LogFormat     *string            `yaml:"log_format"`
	Delimiter     *string            `yaml:"delimiter"`
	Columns       *inventory.Columns `yaml:"columns"`
	UnknownServer *string            `yaml:"unknown_server"`
	Parquet       *bool              `yaml:"parquet"`
	ProgressEvery *uint64            `yaml:"progress_every"`
	MaxDepth      *int               `yaml:"max_depth"`
}

// Default returns the configuration used when no flags or file are given.
func Default() Config {
	return Config{
		LogFormat:     DefaultLogFormat(),
		Delimiter:     inventory.DefaultDelimiter,
		Columns:       inventory.DefaultColumns(),
		UnknownServer: rollup.UnknownServer,
		ProgressEvery: logging.DefaultProgressEvery,
	}
}

// DefaultLogFormat returns $INVROLLUP_LOG_FORMAT, or "auto".
func DefaultLogFormat() string {
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		return strings.ToLower(v)
	}
	return LogFormatAuto
}

// LoadFromFile reads a YAML config file and merges its values into c.
// Values for which explicit reports true (the flag was given on the command
// line) are kept. explicit may be nil.
func (c *Config) LoadFromFile(path string, explicit func(flag string) bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	if explicit == nil {
		explicit = func(string) bool { return false }
	}

	setString(&c.OutDir, yc.Out, explicit("out"))
	setString(&c.LogDir, yc.LogDir, explicit("log-dir"))
	setString(&c.LogFormat, yc.LogFormat, explicit("log-format"))
	setString(&c.Delimiter, yc.Delimiter, explicit("delimiter"))
	setString(&c.UnknownServer, yc.UnknownServer, explicit("unknown-server"))
	if yc.Columns != nil {
		setString(&c.Columns.ServerName, &yc.Columns.ServerName, explicit("server-column") || yc.Columns.ServerName == "")
		setString(&c.Columns.DirectoryName, &yc.Columns.DirectoryName, explicit("directory-column") || yc.Columns.DirectoryName == "")
		setString(&c.Columns.Length, &yc.Columns.Length, explicit("length-column") || yc.Columns.Length == "")
	}
	if yc.Parquet != nil && !explicit("parquet") {
		c.Parquet = *yc.Parquet
	}
	if yc.ProgressEvery != nil && !explicit("progress-every") {
		c.ProgressEvery = *yc.ProgressEvery
	}
	if yc.MaxDepth != nil && !explicit("depth") {
		c.MaxDepth = *yc.MaxDepth
	}
	return nil
}

func setString(dst, src *string, keep bool) {
	if src == nil || keep {
		return
	}
	*dst = *src
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	c.LogFormat = strings.ToLower(c.LogFormat)
	if !slices.Contains([]string{LogFormatAuto, LogFormatText, LogFormatJSON}, c.LogFormat) {
		return fmt.Errorf("invalid log format %q: must be auto, text or json", c.LogFormat)
	}
	if c.Delimiter == "" || strings.ContainsAny(c.Delimiter, "\r\n") {
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	if c.Columns.DirectoryName == "" || c.Columns.Length == "" {
		return errors.New("directory and length column names must not be empty")
	}
	if c.MaxDepth < 0 {
		return errors.New("depth cannot be negative")
	}
	return nil
}

// ValidateRun checks a single summarize run.
func (c *Config) ValidateRun() error {
	if c.Input == "" {
		return fmt.Errorf("%w: --input is required", ErrUsage)
	}
	if c.OutDir == "" {
		return fmt.Errorf("%w: --out is required", ErrUsage)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if !s3fetch.IsS3URI(c.Input) {
		if _, err := os.Stat(c.Input); err != nil {
			return fmt.Errorf("input not accessible: %w", err)
		}
	}
	return nil
}

// ValidateBatch checks a batch over a directory of extracts.
func (c *Config) ValidateBatch() error {
	if c.Dir == "" {
		return fmt.Errorf("%w: --dir is required", ErrUsage)
	}
	if c.OutDir == "" {
		return fmt.Errorf("%w: --out is required", ErrUsage)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("directory not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", c.Dir)
	}
	return nil
}

// ReaderConfig returns the extract reader settings.
func (c *Config) ReaderConfig() inventory.ReaderConfig {
	return inventory.ReaderConfig{
		Columns:   c.Columns,
		Delimiter: c.Delimiter,
	}
}
