package main

import (
	"maps"
	"slices"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"dir2opus/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.flagPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) flagPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

// snapshot returns a deep copy of the loaded configuration that a command may
// modify with flag overrides.
func (c *commandContext) snapshot() (*config.Config, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	clone := *cfg
	clone.Encoder.FormatBitrate = maps.Clone(cfg.Encoder.FormatBitrate)
	clone.Conversion.Formats = slices.Clone(cfg.Conversion.Formats)
	clone.Decoders = maps.Clone(cfg.Decoders)
	clone.Binaries = maps.Clone(cfg.Binaries)
	if clone.Decoders == nil {
		clone.Decoders = map[string]string{}
	}
	return &clone, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
