// Package config provides configuration loading from YAML files.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Library sources.
const (
	SourceStatic  = "static"
	SourceCatalog = "catalog"
)

// Config represents the application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Library  LibraryConfig  `yaml:"library"`
	Playback PlaybackConfig `yaml:"playback"`
	Audio    AudioConfig    `yaml:"audio"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr         string      `yaml:"addr" default:":8080"`
	ControlToken string      `yaml:"control_token"`
	Hooks        HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnStarted []string `yaml:"on_started"`
	OnStopped []string `yaml:"on_stopped"`
}

// LibraryConfig represents where the track list comes from.
type LibraryConfig struct {
	Source     string        `yaml:"source" default:"static" validate:"oneof=static catalog"`
	PlaylistID string        `yaml:"playlist_id"`
	Tracks     []TrackConfig `yaml:"tracks" validate:"dive"`
	Catalog    CatalogConfig `yaml:"catalog"`
}

// TrackConfig represents a single statically configured track.
type TrackConfig struct {
	ID       string `yaml:"id" validate:"required"`
	Title    string `yaml:"title"`
	Artist   string `yaml:"artist"`
	CoverURL string `yaml:"cover_url"`
	Source   string `yaml:"source" validate:"required"`
}

// CatalogConfig represents the music catalog API configuration.
type CatalogConfig struct {
	BaseURL   string `yaml:"base_url" validate:"omitempty,url"`
	Token     string `yaml:"token"`
	TimeoutMs int    `yaml:"timeout_ms" default:"10000" validate:"gte=0,lte=120000"`
}

// PlaybackConfig represents playback control configuration.
type PlaybackConfig struct {
	InitialVolume int  `yaml:"initial_volume" default:"50" validate:"gte=0,lte=100"`
	AutoAdvance   bool `yaml:"auto_advance"`
	PlayWaitMs    int  `yaml:"play_wait_ms" default:"3000" validate:"gte=0,lte=60000"`
}

// AudioConfig represents audio output configuration.
type AudioConfig struct {
	Backend  string         `yaml:"backend" default:"speaker" validate:"oneof=speaker"`
	BaseDir  string         `yaml:"base_dir"`
	Settings map[string]any `yaml:"settings,omitempty"`
}

// StorageConfig represents S3 compatible object storage configuration.
type StorageConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Region    string `yaml:"region"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// LoggingConfig represents log file rotation settings.
// They apply when logging to a file.
type LoggingConfig struct {
	MaxSizeMB  int `yaml:"max_size_mb" default:"100" validate:"min=0"`
	MaxBackups int `yaml:"max_backups" default:"3" validate:"min=0"`
	MaxAgeDays int `yaml:"max_age_days" default:"28" validate:"min=0"`
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	return Parse(data)
}

// Parse parses configuration from YAML bytes.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	// Override with environment variables
	cfg.overrideFromEnv()

	// Set defaults using creasty/defaults
	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("CATALOG_TOKEN"); v != "" {
		c.Library.Catalog.Token = v
	}
	if v := os.Getenv("CONTROL_TOKEN"); v != "" {
		c.Server.ControlToken = v
	}
	if v := os.Getenv("STORAGE_ACCESS_KEY"); v != "" {
		c.Storage.AccessKey = v
	}
	if v := os.Getenv("STORAGE_SECRET_KEY"); v != "" {
		c.Storage.SecretKey = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}

	if err := c.validateLibrary(); err != nil {
		return err
	}

	return nil
}

// validateLibrary checks that the selected library source is usable.
func (c *Config) validateLibrary() error {
	switch c.Library.Source {
	case SourceCatalog:
		if c.Library.Catalog.BaseURL == "" {
			return errors.New("library.catalog.base_url is required when library.source is catalog")
		}
	case SourceStatic, "":
		if len(c.Library.Tracks) == 0 {
			return errors.New("library.tracks must not be empty when library.source is static")
		}
		seen := make(map[string]struct{}, len(c.Library.Tracks))
		for _, t := range c.Library.Tracks {
			if _, ok := seen[t.ID]; ok {
				return errors.Newf("duplicate track id in library.tracks: %s", t.ID)
			}
			seen[t.ID] = struct{}{}
		}
	}
	return nil
}

// StorageEnabled reports whether object storage is configured.
func (c *Config) StorageEnabled() bool {
	return c.Storage.Endpoint != ""
}

// PlayWait returns how long play requests wait for the track to start.
func (c *Config) PlayWait() time.Duration {
	return time.Duration(c.Playback.PlayWaitMs) * time.Millisecond
}

// CatalogTimeout returns the catalog HTTP timeout.
func (c *Config) CatalogTimeout() time.Duration {
	return time.Duration(c.Library.Catalog.TimeoutMs) * time.Millisecond
}
