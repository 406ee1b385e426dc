package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the settings for one nthflow invocation
type Config struct {
	Definitions string `mapstructure:"definitions"` // file, directory or glob of definition files
	Schema      string `mapstructure:"schema"`      // optional schema file replacing the built-in one
	Output      string `mapstructure:"output"`      // plan file; empty writes nothing
	Workers     int    `mapstructure:"workers"`
	KeepGoing   bool   `mapstructure:"keep_going"`
	StableIDs   bool   `mapstructure:"stable_ids"`
	Log         struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
	} `mapstructure:"log"`
}

// EnvPrefix is prepended to every environment variable, e.g. NTHFLOW_LOG_LEVEL
const EnvPrefix = "NTHFLOW"

// NewViper returns a viper instance with defaults and environment binding set up
func NewViper() *viper.Viper {
	v := viper.New()

	v.SetDefault("definitions", "")
	v.SetDefault("schema", "")
	v.SetDefault("output", "")
	v.SetDefault("workers", runtime.GOMAXPROCS(0))
	v.SetDefault("keep_going", false)
	v.SetDefault("stable_ids", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the optional config file and unmarshals everything into a Config.
// Without an explicit file, nthflow.yaml is looked up in . and ./config.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("nthflow")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	cfg.Definitions = strings.TrimSpace(cfg.Definitions)
	return &cfg, nil
}

// Validate checks the settings a build cannot run without
func (c *Config) Validate() error {
	if c.Definitions == "" {
		return errors.New("definitions is required (flag --definitions, env NTHFLOW_DEFINITIONS or config key definitions)")
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	return nil
}
