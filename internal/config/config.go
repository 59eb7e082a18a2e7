// Package config loads and hot-reloads doculens configuration through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Orsso/DocuLens/internal/extract"
)

// Manager handles loading and hot-reloading configuration.
type Manager struct {
	mu        sync.RWMutex
	config    *Config
	callbacks []func(*Config)
}

// NewManager creates a new config manager and loads initial config.
func NewManager(cfgFile string) (*Manager, error) {
	cm := &Manager{
		callbacks: make([]func(*Config), 0),
	}

	if err := cm.initViper(cfgFile); err != nil {
		return nil, err
	}

	cfg, err := cm.load()
	if err != nil {
		return nil, err
	}
	cm.config = cfg

	return cm, nil
}

// initViper sets up viper with defaults and config file.
func (cm *Manager) initViper(cfgFile string) error {
	defaults := DefaultConfig()
	viper.SetDefault("server", defaults.Server)
	viper.SetDefault("pipeline", defaults.Pipeline)
	viper.SetDefault("naming", defaults.Naming)
	viper.SetDefault("captions", defaults.Captions)

	// Environment variables with DOCULENS_ prefix
	viper.SetEnvPrefix("DOCULENS")
	viper.AutomaticEnv()

	// Config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.doculens")
	}

	// Try to read config file (not required)
	if err := viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}

// load parses the current viper state into a Config struct.
func (cm *Manager) load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}

// Get returns the current configuration (thread-safe).
func (cm *Manager) Get() *Config {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.config
}

// OnChange registers a callback for config changes.
func (cm *Manager) OnChange(fn func(*Config)) {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	cm.callbacks = append(cm.callbacks, fn)
}

// WatchConfig enables hot-reloading of configuration.
func (cm *Manager) WatchConfig() {
	viper.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := cm.load()
		if err != nil {
			return
		}

		cm.mu.Lock()
		cm.config = cfg
		callbacks := make([]func(*Config), len(cm.callbacks))
		copy(callbacks, cm.callbacks)
		cm.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	viper.WatchConfig()
}

// ResolveEnvVars expands ${ENV_VAR} references in a string.
func ResolveEnvVars(value string) string {
	if value == "" {
		return value
	}
	pattern := regexp.MustCompile(`\$\{([^}]+)\}`)
	return pattern.ReplaceAllStringFunc(value, func(match string) string {
		varName := match[2 : len(match)-1]
		return os.Getenv(varName)
	})
}

// ToExtractorConfig converts the pipeline and naming sections into the
// extractor's config, falling back to extractor defaults for unset values.
func (c *Config) ToExtractorConfig() extract.Config {
	cfg := extract.DefaultConfig()

	if c.Pipeline.HashSize > 0 {
		cfg.HashSize = c.Pipeline.HashSize
	}
	if c.Pipeline.SimilarityThreshold > 0 {
		cfg.SimilarityThreshold = c.Pipeline.SimilarityThreshold
	}
	if c.Pipeline.MinOccurrences > 0 {
		cfg.MinOccurrences = c.Pipeline.MinOccurrences
	}
	if c.Pipeline.MinImageDimension > 0 {
		cfg.MinImageDim = c.Pipeline.MinImageDimension
	}
	if c.Pipeline.FlatMinPages > 0 {
		cfg.FlatMinPages = c.Pipeline.FlatMinPages
	}
	if c.Pipeline.FlatPagesDivisor > 0 {
		cfg.FlatPagesDivisor = c.Pipeline.FlatPagesDivisor
	}
	if len(c.Pipeline.Denylist) > 0 {
		cfg.HeadingDenylist = c.Pipeline.Denylist
	}

	switch c.Naming.Scheme {
	case string(extract.SchemeOpaque):
		cfg.Naming.Scheme = extract.SchemeOpaque
	case string(extract.SchemeNomenclature), "":
		cfg.Naming.Scheme = extract.SchemeNomenclature
	}
	if c.Naming.Prefix != "" {
		cfg.Naming.Prefix = c.Naming.Prefix
	}

	return cfg
}

// ResolvedAPIKey returns the captions API key with ${ENV_VAR} references
// expanded.
func (c *CaptionsCfg) ResolvedAPIKey() string {
	return ResolveEnvVars(c.APIKey)
}

// WriteDefault writes the default configuration to the specified path.
func WriteDefault(path string) error {
	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# DocuLens configuration
# API keys use ${ENV_VAR} syntax to reference environment variables
# Set these in your shell: export MISTRAL_API_KEY=xxx OPENAI_API_KEY=xxx

`)
	return os.WriteFile(path, append(header, data...), 0o644)
}
