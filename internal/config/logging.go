package config

import "github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level      string          `yaml:"level"`      // debug, info, warn, error
	Format     string          `yaml:"format"`     // json, text
	Dir        string          `yaml:"dir"`        // category log directory
	DebugMode  bool            `yaml:"debug_mode"` // Master toggle - false = no category logs
	Categories map[string]bool `yaml:"categories"` // Per-category toggles
}

// IsCategoryEnabled returns whether logging is enabled for a category.
// Returns false if debug_mode is false.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true // All enabled by default in debug mode
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}

// Options converts the section into logging.Options.
func (c *LoggingConfig) Options() logging.Options {
	return logging.Options{
		Dir:        c.Dir,
		Level:      c.Level,
		DebugMode:  c.DebugMode,
		JSONFormat: c.Format == "json",
		Categories: c.Categories,
	}
}
