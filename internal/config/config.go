// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all roster configuration.
type Config struct {
	API   API   `yaml:"api"`
	List  List  `yaml:"list"`
	Cache Cache `yaml:"cache"`
	Log   Log   `yaml:"log"`
}

// API holds remote catalog settings.
type API struct {
	BaseURL      string        `yaml:"base_url"`
	Resource     string        `yaml:"resource"`      // Collection path under BaseURL, e.g. "people"
	RelatedField string        `yaml:"related_field"` // Field holding a related-entity URL; empty disables lookups
	Timeout      time.Duration `yaml:"timeout"`
}

// List holds list view settings.
type List struct {
	PageSize int           `yaml:"page_size"`
	CacheTTL time.Duration `yaml:"cache_ttl"` // 0 disables page caching
}

// Cache holds resolver cache limits. Zero means unbounded.
type Cache struct {
	MaxEntries int           `yaml:"max_entries"`
	TTL        time.Duration `yaml:"ttl"`
}

// Log holds logging settings.
type Log struct {
	Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
	Format string `yaml:"format"` // "text" | "json"
	File   string `yaml:"file"`   // Log destination while the browser owns the terminal
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		API: API{
			BaseURL:      "https://www.swapi.tech/api",
			Resource:     "people",
			RelatedField: "homeworld",
			Timeout:      10 * time.Second,
		},
		List: List{
			PageSize: 12,
			CacheTTL: 5 * time.Minute,
		},
		Log: Log{
			Level:  "info",
			Format: "text",
			File:   ".roster/roster.log",
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return &cfg, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		// Comment-only YAML files produce EOF with no decoded content.
		if errors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &cfg, nil
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return errors.New("config: api.base_url cannot be empty")
	}
	u, err := url.Parse(c.API.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("config: api.base_url must be an absolute http(s) URL, got %q", c.API.BaseURL)
	}
	if strings.Trim(c.API.Resource, "/") == "" {
		return errors.New("config: api.resource cannot be empty")
	}
	if c.API.Timeout <= 0 {
		return fmt.Errorf("config: api.timeout must be positive, got %v", c.API.Timeout)
	}
	if c.List.PageSize < 1 {
		return fmt.Errorf("config: list.page_size must be at least 1, got %d", c.List.PageSize)
	}
	if c.List.CacheTTL < 0 {
		return fmt.Errorf("config: list.cache_ttl must be non-negative, got %v", c.List.CacheTTL)
	}
	if c.Cache.MaxEntries < 0 {
		return fmt.Errorf("config: cache.max_entries must be non-negative, got %d", c.Cache.MaxEntries)
	}
	if c.Cache.TTL < 0 {
		return fmt.Errorf("config: cache.ttl must be non-negative, got %v", c.Cache.TTL)
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
		// valid
	default:
		return fmt.Errorf("config: log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "", "text", "json":
		// valid
	default:
		return fmt.Errorf("config: log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}
	return nil
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: ROSTER_BASE_URL, ROSTER_TIMEOUT, ROSTER_PAGE_SIZE, ROSTER_LOG_LEVEL.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("ROSTER_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("ROSTER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid ROSTER_TIMEOUT %q: %w", v, err)
		}
		c.API.Timeout = d
	}
	if v := os.Getenv("ROSTER_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid ROSTER_PAGE_SIZE %q: %w", v, err)
		}
		c.List.PageSize = n
	}
	if v := os.Getenv("ROSTER_LOG_LEVEL"); v != "" {
		c.Log.Level = strings.ToLower(v)
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	API   *rawAPI   `yaml:"api"`
	List  *rawList  `yaml:"list"`
	Cache *rawCache `yaml:"cache"`
	Log   *rawLog   `yaml:"log"`
}

type rawAPI struct {
	BaseURL      *string        `yaml:"base_url"`
	Resource     *string        `yaml:"resource"`
	RelatedField *string        `yaml:"related_field"`
	Timeout      *time.Duration `yaml:"timeout"`
}

type rawList struct {
	PageSize *int           `yaml:"page_size"`
	CacheTTL *time.Duration `yaml:"cache_ttl"`
}

type rawCache struct {
	MaxEntries *int           `yaml:"max_entries"`
	TTL        *time.Duration `yaml:"ttl"`
}

type rawLog struct {
	Level  *string `yaml:"level"`
	Format *string `yaml:"format"`
	File   *string `yaml:"file"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if a := layer.API; a != nil {
		setIf(&c.API.BaseURL, a.BaseURL)
		setIf(&c.API.Resource, a.Resource)
		setIf(&c.API.RelatedField, a.RelatedField)
		setIf(&c.API.Timeout, a.Timeout)
	}
	if l := layer.List; l != nil {
		setIf(&c.List.PageSize, l.PageSize)
		setIf(&c.List.CacheTTL, l.CacheTTL)
	}
	if ch := layer.Cache; ch != nil {
		setIf(&c.Cache.MaxEntries, ch.MaxEntries)
		setIf(&c.Cache.TTL, ch.TTL)
	}
	if l := layer.Log; l != nil {
		setIf(&c.Log.Level, l.Level)
		setIf(&c.Log.Format, l.Format)
		setIf(&c.Log.File, l.File)
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
