package internal

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

type NovaRowConfig struct {
	AppName string `mapstructure:"app_name"`

	Storage struct {
		Workdir            string `mapstructure:"workdir"`
		BufferPoolCapacity int    `mapstructure:"buffer_pool_capacity"`
	} `mapstructure:"storage"`

	Log struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`

	CLI struct {
		HistoryFile string `mapstructure:"history_file"`
		HistoryMax  int    `mapstructure:"history_max"`
	} `mapstructure:"cli"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_name", "novarow")
	v.SetDefault("storage.workdir", "./data")
	v.SetDefault("storage.buffer_pool_capacity", 128)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("cli.history_file", "/tmp/novarow_history")
	v.SetDefault("cli.history_max", 1000)
}

func newViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("NOVAROW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func unmarshal(v *viper.Viper) (*NovaRowConfig, error) {
	var cfg NovaRowConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// DefaultConfig returns the built-in defaults with NOVAROW_* environment
// overrides applied.
func DefaultConfig() *NovaRowConfig {
	cfg, err := unmarshal(newViper())
	if err != nil {
		// defaults are plain scalars; decoding them cannot fail
		panic(err)
	}
	return cfg
}

// LoadConfig reads a YAML file on top of the defaults. Environment variables
// such as NOVAROW_STORAGE_WORKDIR take precedence over the file.
func LoadConfig(path string) (*NovaRowConfig, error) {
	v := newViper()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return unmarshal(v)
}

// SlogLevel maps log.level to a slog level; unknown names fall back to info.
func (c *NovaRowConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
