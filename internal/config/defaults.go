package config

import (
	"dir2opus/internal/decoders"
	"dir2opus/internal/media/audio"
)

const (
	defaultStateDir       = "~/.local/share/dir2opus"
	defaultLogDir         = "~/.local/share/dir2opus/logs"
	defaultEncoderBinary  = "opusenc"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultJournalEnabled = true
	defaultRetentionDays  = 30

	// QualityUnset leaves opusenc's --comp at its built-in default.
	QualityUnset = -1
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Encoder: Encoder{
			Binary:  defaultEncoderBinary,
			Quality: QualityUnset,
		},
		Conversion: Conversion{
			StrictDecoderExit: true,
			Formats:           defaultFormats(),
		},
		Decoders: defaultDecoders(),
		Journal: Journal{
			Enabled: defaultJournalEnabled,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}

func defaultFormats() []string {
	formats := audio.Formats()
	out := make([]string, 0, len(formats))
	for _, f := range formats {
		out = append(out, f.String())
	}
	return out
}

func defaultDecoders() map[string]string {
	out := make(map[string]string)
	for _, f := range audio.Formats() {
		if !f.NeedsConversion() {
			continue
		}
		out[f.String()] = decoders.Default(f)
	}
	return out
}
