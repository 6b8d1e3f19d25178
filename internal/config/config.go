package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/logging"
	"github.com/LukeCreativeInd/cm-logistics-manifest/internal/policy"
)

// DefaultPath is where `manifest config init` writes and the CLI reads.
const DefaultPath = "manifest.yaml"

// Config holds all manifest generator configuration.
type Config struct {
	// Output archives
	Output OutputConfig `yaml:"output"`

	// External templates
	Templates TemplatesConfig `yaml:"templates"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Inbox watcher
	Watch WatchConfig `yaml:"watch"`

	// Customer groups. Empty means the built-in groups.
	Groups []policy.GroupPolicy `yaml:"groups"`
}

// OutputConfig configures where archives are written.
type OutputConfig struct {
	Dir       string `yaml:"dir"`
	Overwrite bool   `yaml:"overwrite"`
}

// TemplatesConfig locates the CX-Ready template.
type TemplatesConfig struct {
	CXReady string `yaml:"cx_ready"`
}

// WatchConfig configures `manifest watch`.
type WatchConfig struct {
	InboxDir     string `yaml:"inbox_dir"`
	Group        string `yaml:"group"`
	ColdPickup   bool   `yaml:"cold_pickup"`
	Debounce     string `yaml:"debounce"`
	ProcessedDir string `yaml:"processed_dir"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: OutputConfig{
			Dir: "manifests",
		},
		Templates: TemplatesConfig{
			CXReady: "cx_manifest_template.xlsx",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Dir:    "logs",
		},
		Watch: WatchConfig{
			InboxDir:     "inbox",
			Group:        "clean-eats",
			Debounce:     "2s",
			ProcessedDir: "inbox/processed",
		},
		Groups: policy.Builtin(),
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides apply in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		logging.Boot("no config at %s, using defaults", path)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Groups) == 0 {
		cfg.Groups = policy.Builtin()
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("MANIFEST_OUTPUT_DIR"); dir != "" {
		c.Output.Dir = dir
	}
	if path := os.Getenv("MANIFEST_CX_TEMPLATE"); path != "" {
		c.Templates.CXReady = path
	}
	if dir := os.Getenv("MANIFEST_INBOX_DIR"); dir != "" {
		c.Watch.InboxDir = dir
	}
	if level := os.Getenv("MANIFEST_LOG_LEVEL"); level != "" {
		c.Logging.Level = strings.ToLower(level)
	}
	if v := os.Getenv("MANIFEST_DEBUG"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = on
		}
	}
}

// GetDebounce returns the watcher debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d <= 0 {
		return 2 * time.Second
	}
	return d
}

// ValidLogLevels lists the accepted logging levels.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output directory not configured (set output.dir or MANIFEST_OUTPUT_DIR)")
	}

	validLevel := false
	for _, l := range ValidLogLevels {
		if c.Logging.Level == l {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid log level: %s (valid: %v)", c.Logging.Level, ValidLogLevels)
	}

	if _, err := c.Registry(); err != nil {
		return err
	}
	return nil
}

// Registry builds the group registry from the configured groups.
func (c *Config) Registry() (*policy.Registry, error) {
	groups := c.Groups
	if len(groups) == 0 {
		groups = policy.Builtin()
	}
	return policy.NewRegistry(groups)
}
