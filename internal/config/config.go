// Package config provides configuration loading for go-nntparc.
// The loaded Config is passed explicitly to the client, processor and
// web constructors; there is no process-wide singleton.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// AppVersion is set at build time.
var AppVersion = "-unset-"

// Config is the complete process configuration.
type Config struct {
	// Groups lists "server/group" URLs to archive.
	Groups []string `mapstructure:"groups"`

	// FetchNewCount bounds the initial fetch of an empty group;
	// FetchCount bounds incremental fetches beyond the watermark.
	FetchNewCount        int `mapstructure:"fetch_new_count"`
	FetchCount           int `mapstructure:"fetch_count"`
	FetchIntervalMinutes int `mapstructure:"fetch_interval_minutes"`
	FetchChunkSize       int `mapstructure:"fetch_chunk_size"`

	Debug bool `mapstructure:"debug"`

	NNTP     NNTPConfig     `mapstructure:"nntp"`
	Web      WebConfig      `mapstructure:"web"`
	Database DatabaseConfig `mapstructure:"database"`
}

// NNTPConfig holds client transport settings shared by all servers.
type NNTPConfig struct {
	Port           int           `mapstructure:"port"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

// WebConfig holds web interface settings.
type WebConfig struct {
	ListenAddr string `mapstructure:"listen_addr"`
	SSL        bool   `mapstructure:"ssl"`
	// AdminPasswordHash is a bcrypt hash protecting the manual /update
	// trigger; generate one with cmd/hashpw. Empty disables the trigger.
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
}

// DatabaseConfig holds store settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		FetchNewCount:        50,
		FetchCount:           250,
		FetchIntervalMinutes: 15,
		FetchChunkSize:       50,
		NNTP: NNTPConfig{
			Port:           119,
			ConnectTimeout: 30 * time.Second,
		},
		Web: WebConfig{
			ListenAddr: ":8080",
		},
		Database: DatabaseConfig{
			Path: "data/nntparc.sq3",
		},
	}
}

// Load reads the config file at path (TOML), falling back to
// data/config.toml, with NNTPARC_* environment overrides.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath("data")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("NNTPARC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, cfg)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetch_new_count", cfg.FetchNewCount)
	v.SetDefault("fetch_count", cfg.FetchCount)
	v.SetDefault("fetch_interval_minutes", cfg.FetchIntervalMinutes)
	v.SetDefault("fetch_chunk_size", cfg.FetchChunkSize)
	v.SetDefault("debug", cfg.Debug)
	v.SetDefault("nntp.port", cfg.NNTP.Port)
	v.SetDefault("nntp.connect_timeout", cfg.NNTP.ConnectTimeout)
	v.SetDefault("web.listen_addr", cfg.Web.ListenAddr)
	v.SetDefault("web.ssl", cfg.Web.SSL)
	v.SetDefault("database.path", cfg.Database.Path)
}

// FetchInterval returns the sleep between refresh cycles.
func (c *Config) FetchInterval() time.Duration {
	return time.Duration(c.FetchIntervalMinutes) * time.Minute
}
