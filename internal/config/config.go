package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"dir2opus/internal/decoders"
	"dir2opus/internal/media/audio"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Encoder contains opusenc settings.
type Encoder struct {
	Binary string `toml:"binary"`
	// Quality is passed as --comp (0-10). QualityUnset omits the flag.
	Quality int `toml:"quality"`
	// Bitrate is the target in kbit/s passed as --bitrate. Zero omits the flag.
	Bitrate int  `toml:"bitrate"`
	Quiet   bool `toml:"quiet"`
	// FormatBitrate overrides Bitrate for sources of a given format.
	FormatBitrate map[string]int `toml:"format_bitrate"`
}

// Conversion contains batch and pipeline behaviour switches.
type Conversion struct {
	Recursive         bool     `toml:"recursive"`
	DeleteInput       bool     `toml:"delete_input"`
	PreserveWAV       bool     `toml:"preserve_wav"`
	NoPipe            bool     `toml:"no_pipe"`
	SkipExisting      bool     `toml:"skip_existing"`
	StrictDecoderExit bool     `toml:"strict_decoder_exit"`
	Formats           []string `toml:"formats"`
}

// Journal contains configuration for the conversion history database.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// RetentionDays prunes per-run log files older than this many days. Zero keeps everything.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for dir2opus.
//
// Configuration sections:
//   - Paths: state (journal, lock) and log directories
//   - Encoder: opusenc binary and flags
//   - Conversion: pipeline mode and cleanup switches
//   - Decoders: decoder identifier per source format
//   - Binaries: optional executable path per decoder identifier
//   - Journal: conversion history database
//   - Logging: log format and level
type Config struct {
	Paths      Paths             `toml:"paths"`
	Encoder    Encoder           `toml:"encoder"`
	Conversion Conversion        `toml:"conversion"`
	Decoders   map[string]string `toml:"decoders"`
	Binaries   map[string]string `toml:"binaries"`
	Journal    Journal           `toml:"journal"`
	Logging    Logging           `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/dir2opus/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("dir2opus.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// JournalPath returns the SQLite history database location.
func (c *Config) JournalPath() string {
	if strings.TrimSpace(c.Journal.Path) != "" {
		return c.Journal.Path
	}
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// LockPath returns the file used to keep concurrent runs apart.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "dir2opus.lock")
}

// EncoderBinary returns the opusenc executable.
func (c *Config) EncoderBinary() string {
	if strings.TrimSpace(c.Encoder.Binary) == "" {
		return defaultEncoderBinary
	}
	return c.Encoder.Binary
}

// DecoderFor returns the decoder identifier configured for a format. WAV
// sources return an empty string because they need no decoder.
func (c *Config) DecoderFor(f audio.Format) string {
	if !f.NeedsConversion() {
		return ""
	}
	if id := strings.TrimSpace(c.Decoders[f.String()]); id != "" {
		return id
	}
	return decoders.Default(f)
}

// BinaryFor resolves the executable for a decoder identifier, honouring the
// [binaries] overrides.
func (c *Config) BinaryFor(decoderID string) string {
	if path := strings.TrimSpace(c.Binaries[decoderID]); path != "" {
		return path
	}
	return decoderID
}

// EnabledFormats returns the source formats the scanner should pick up.
func (c *Config) EnabledFormats() []audio.Format {
	out := make([]audio.Format, 0, len(c.Conversion.Formats))
	for _, name := range c.Conversion.Formats {
		if f, err := audio.ParseFormat(name); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// BitrateFor returns the bitrate for a source format, applying per-format
// overrides on top of the global setting.
func (c *Config) BitrateFor(f audio.Format) int {
	if rate, ok := c.Encoder.FormatBitrate[f.String()]; ok && rate > 0 {
		return rate
	}
	return c.Encoder.Bitrate
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
