// Package config loads and validates triagekit configuration from a TOML
// file and TRIAGEKIT_* environment variables.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/triagekit/triagekit/internal/errors"
)

// Config holds application configuration.
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Log     LogConfig     `mapstructure:"log"`

	// DataDir is the directory holding the finding database.
	DataDir string `mapstructure:"data_dir"`

	// Actor is the identity recorded against imported findings.
	Actor string `mapstructure:"actor"`

	// CacheTTL bounds how long a cached blob listing is served before a
	// fresh provider listing is performed.
	CacheTTL time.Duration `mapstructure:"cache_ttl"`

	// DBMaxOpenConns limits open database connections. 0 means the
	// database/sql default.
	DBMaxOpenConns int `mapstructure:"db_max_open_conns"`

	// DBMaxIdleConns limits idle database connections.
	DBMaxIdleConns int `mapstructure:"db_max_idle_conns"`
}

// StorageConfig identifies the Toolshed object store. Endpoint and Bucket
// are required; everything else has a usable default or falls back to the
// SDK credential chain.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`

	// UsePathStyle forces path-style addressing, required for MinIO and
	// most non-AWS S3-compatible stores.
	UsePathStyle bool `mapstructure:"use_path_style"`
}

// LogConfig controls structured log output.
type LogConfig struct {
	Level string `mapstructure:"level"`

	// File, when set, sends log output to a rotated file instead of stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// Load reads configuration from path (default "config.toml" in the working
// directory; a missing file is fine, env vars may carry everything) and
// validates it.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(".")
	}

	setDefaults(v)

	v.SetEnvPrefix("TRIAGEKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is tolerated unless one was named explicitly.
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound || path != "" {
			return nil, errors.NewConfiguration("cannot read config: " + err.Error())
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.NewConfiguration("cannot parse config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Every key gets a default so AutomaticEnv can bind TRIAGEKIT_* variables
// during Unmarshal; viper only considers keys it knows about.
func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", "")
	v.SetDefault("actor", "toolshed-import")
	v.SetDefault("cache_ttl", time.Hour)
	v.SetDefault("db_max_open_conns", 0)
	v.SetDefault("db_max_idle_conns", 0)
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "us-east-1")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.use_path_style", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 50)
	v.SetDefault("log.max_backups", 3)
}

// Validate checks that the required storage settings are present. These are
// fatal before any I/O is attempted.
func (c *Config) Validate() error {
	if c.Storage.Endpoint == "" {
		return errors.NewConfiguration("storage.endpoint must be set")
	}
	if c.Storage.Bucket == "" {
		return errors.NewConfiguration("storage.bucket must be set")
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = time.Hour
	}
	return nil
}
