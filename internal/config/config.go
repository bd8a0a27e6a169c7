// Package config provides configuration management for the simulator.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Game    GameConfig    `mapstructure:"game"`
	Data    DataConfig    `mapstructure:"data"`
	Server  ServerConfig  `mapstructure:"server"`
	Journal JournalConfig `mapstructure:"journal"`
	UI      UIConfig      `mapstructure:"ui"`
}

// GameConfig holds season parameters. AlphaTarget is in percentage points:
// 5.0 means the portfolio must beat the index by five points.
type GameConfig struct {
	AUM         float64 `mapstructure:"aum"`
	AlphaTarget float64 `mapstructure:"alpha_target"`
	Speed       int     `mapstructure:"speed"`
	Mode        string  `mapstructure:"mode"` // "single", "aggregate"
	MinYear     int     `mapstructure:"min_year"`
	MaxYear     int     `mapstructure:"max_year"`
}

// DataConfig holds upstream market data settings. With no endpoint the
// seeded generator serves everything.
type DataConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds the HTTP server settings.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// JournalConfig holds the season journal settings.
type JournalConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// UIConfig holds terminal output settings.
type UIConfig struct {
	ColorEnabled bool `mapstructure:"color_enabled"`
}

// DefaultConfigDir returns the default configuration directory.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".config/wsrpg"
	}
	return filepath.Join(home, ".config", "wsrpg")
}

// Load loads configuration from the specified directory.
// If configDir is empty, uses the default config directory.
func Load(configDir string) (*Config, error) {
	if configDir == "" {
		configDir = DefaultConfigDir()
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(configDir)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("loading config.toml: %w", err)
		}
		if err := createTemplateConfig(configDir); err != nil {
			return nil, fmt.Errorf("writing config template: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("game.aum", 10000.0)
	v.SetDefault("game.alpha_target", 5.0)
	v.SetDefault("game.speed", 1)
	v.SetDefault("game.mode", "aggregate")
	v.SetDefault("game.min_year", 1925)
	v.SetDefault("game.max_year", 2025)
	v.SetDefault("data.endpoint", "")
	v.SetDefault("data.api_key", "")
	v.SetDefault("data.timeout", "10s")
	v.SetDefault("server.addr", ":8090")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("journal.enabled", true)
	v.SetDefault("journal.path", filepath.Join(DefaultConfigDir(), "journal.db"))
	v.SetDefault("ui.color_enabled", true)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WSRPG_DATA_ENDPOINT"); v != "" {
		cfg.Data.Endpoint = v
	}
	if v := os.Getenv("WSRPG_DATA_API_KEY"); v != "" {
		cfg.Data.APIKey = v
	}
	if v := os.Getenv("WSRPG_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Game.AUM <= 0 {
		return fmt.Errorf("game.aum must be positive")
	}
	if c.Game.AlphaTarget < 0 {
		return fmt.Errorf("game.alpha_target must be non-negative")
	}
	if c.Game.Speed < 1 || c.Game.Speed > 5 {
		return fmt.Errorf("game.speed must be between 1 and 5")
	}
	if c.Game.Mode != "single" && c.Game.Mode != "aggregate" {
		return fmt.Errorf("invalid game.mode: %s (must be 'single' or 'aggregate')", c.Game.Mode)
	}
	if c.Game.MinYear > c.Game.MaxYear {
		return fmt.Errorf("game.min_year must not exceed game.max_year")
	}
	return nil
}
