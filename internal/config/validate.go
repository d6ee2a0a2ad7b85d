package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"dir2opus/internal/decoders"
	"dir2opus/internal/media/audio"
)

const (
	minQuality = 0
	maxQuality = 10
	minBitrate = 6
	maxBitrate = 512
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateEncoder(); err != nil {
		return err
	}
	if err := c.validateConversion(); err != nil {
		return err
	}
	if err := c.validateDecoders(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateEncoder() error {
	if strings.TrimSpace(c.Encoder.Binary) == "" {
		return errors.New("encoder.binary must be set")
	}
	if err := ValidateQuality(c.Encoder.Quality); err != nil {
		return fmt.Errorf("encoder.quality: %w", err)
	}
	if err := ValidateBitrate(c.Encoder.Bitrate); err != nil {
		return fmt.Errorf("encoder.bitrate: %w", err)
	}
	for key, rate := range c.Encoder.FormatBitrate {
		f, err := audio.ParseFormat(key)
		if err != nil {
			return fmt.Errorf("encoder.format_bitrate: %w", err)
		}
		if err := ValidateBitrate(rate); err != nil {
			return fmt.Errorf("encoder.format_bitrate.%s: %w", f, err)
		}
	}
	return nil
}

// ValidateQuality checks an opusenc --comp value. QualityUnset is accepted.
func ValidateQuality(quality int) error {
	if quality == QualityUnset {
		return nil
	}
	if quality < minQuality || quality > maxQuality {
		return fmt.Errorf("must be between %d and %d, got %d", minQuality, maxQuality, quality)
	}
	return nil
}

// ValidateBitrate checks an opusenc --bitrate value in kbit/s. Zero is accepted
// and leaves the encoder default in place.
func ValidateBitrate(bitrate int) error {
	if bitrate == 0 {
		return nil
	}
	if bitrate < minBitrate || bitrate > maxBitrate {
		return fmt.Errorf("must be between %d and %d kbit/s, got %d", minBitrate, maxBitrate, bitrate)
	}
	return nil
}

func (c *Config) validateConversion() error {
	if len(c.Conversion.Formats) == 0 {
		return errors.New("conversion.formats must list at least one format")
	}
	for _, name := range c.Conversion.Formats {
		if _, err := audio.ParseFormat(name); err != nil {
			return fmt.Errorf("conversion.formats: %w", err)
		}
	}
	return nil
}

func (c *Config) validateDecoders() error {
	keys := make([]string, 0, len(c.Decoders))
	for key := range c.Decoders {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		f, err := audio.ParseFormat(key)
		if err != nil {
			return fmt.Errorf("decoders: %w", err)
		}
		if err := ValidateDecoder(f, c.Decoders[key]); err != nil {
			return fmt.Errorf("decoders.%s: %w", key, err)
		}
	}
	for id := range c.Binaries {
		if _, ok := decoders.Lookup(id); !ok && id != "opusenc" {
			return fmt.Errorf("binaries: unknown program %q (expected one of %s, opusenc)", id, strings.Join(decoders.IDs(), ", "))
		}
	}
	return nil
}

// ValidateDecoder checks that id names a known decoder able to read f.
func ValidateDecoder(f audio.Format, id string) error {
	if !f.NeedsConversion() {
		return fmt.Errorf("format %s is passed to the encoder directly and takes no decoder", f)
	}
	spec, ok := decoders.Lookup(id)
	if !ok {
		return fmt.Errorf("unsupported decoder %q (expected one of %s)", id, strings.Join(decoders.IDs(), ", "))
	}
	if !spec.Supports(f) {
		return fmt.Errorf("decoder %q cannot read %s files", spec.ID, f)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be zero or positive")
	}
	return nil
}
