package config

import (
	"fmt"
	"strings"

	"dir2opus/internal/decoders"
	"dir2opus/internal/media/audio"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeEncoder()
	c.normalizeConversion()
	c.normalizeDecoders()
	c.normalizeBinaries()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Journal.Path) != "" {
		if c.Journal.Path, err = expandPath(c.Journal.Path); err != nil {
			return fmt.Errorf("journal.path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeEncoder() {
	c.Encoder.Binary = strings.TrimSpace(c.Encoder.Binary)
	if c.Encoder.Binary == "" {
		c.Encoder.Binary = defaultEncoderBinary
	}
	if len(c.Encoder.FormatBitrate) == 0 {
		c.Encoder.FormatBitrate = nil
		return
	}
	normalized := make(map[string]int, len(c.Encoder.FormatBitrate))
	for key, rate := range c.Encoder.FormatBitrate {
		normalized[strings.ToLower(strings.TrimSpace(key))] = rate
	}
	c.Encoder.FormatBitrate = normalized
}

func (c *Config) normalizeConversion() {
	if len(c.Conversion.Formats) == 0 {
		c.Conversion.Formats = defaultFormats()
		return
	}
	seen := make(map[string]struct{}, len(c.Conversion.Formats))
	formats := make([]string, 0, len(c.Conversion.Formats))
	for _, value := range c.Conversion.Formats {
		value = strings.ToLower(strings.TrimSpace(value))
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		formats = append(formats, value)
	}
	c.Conversion.Formats = formats
}

// normalizeDecoders lower-cases keys and identifiers and fills the default
// decoder for any format the file left out.
func (c *Config) normalizeDecoders() {
	normalized := make(map[string]string, len(c.Decoders))
	for key, id := range c.Decoders {
		key = strings.ToLower(strings.TrimSpace(key))
		id = strings.ToLower(strings.TrimSpace(id))
		if key == "" || id == "" {
			continue
		}
		normalized[key] = id
	}
	for _, f := range audio.Formats() {
		if !f.NeedsConversion() {
			continue
		}
		if _, ok := normalized[f.String()]; !ok {
			normalized[f.String()] = decoders.Default(f)
		}
	}
	c.Decoders = normalized
}

func (c *Config) normalizeBinaries() {
	if len(c.Binaries) == 0 {
		c.Binaries = nil
		return
	}
	normalized := make(map[string]string, len(c.Binaries))
	for id, path := range c.Binaries {
		id = strings.ToLower(strings.TrimSpace(id))
		path = strings.TrimSpace(path)
		if id == "" || path == "" {
			continue
		}
		if strings.HasPrefix(path, "~") {
			if expanded, err := expandPath(path); err == nil {
				path = expanded
			}
		}
		normalized[id] = path
	}
	c.Binaries = normalized
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
