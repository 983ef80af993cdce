// Package config loads mskboard settings from an optional YAML file and
// MSK_-prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"mskboard/internal/kv"
)

// EnvPrefix prefixes every environment override, e.g. MSK_STORAGE_DRIVER.
const EnvPrefix = "MSK"

// Config is the full runtime configuration.
type Config struct {
	Storage  SlotConfig     `mapstructure:"storage"`
	Session  SlotConfig     `mapstructure:"session"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Simulate SimulateConfig `mapstructure:"simulate"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// SlotConfig selects a key-value backend.
type SlotConfig struct {
	Driver          string `mapstructure:"driver"`
	Path            string `mapstructure:"path"`
	DSN             string `mapstructure:"dsn"`
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	Prefix          string `mapstructure:"prefix"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	PathStyle       bool   `mapstructure:"path_style"`
}

// AuthConfig tunes the stub authenticator.
type AuthConfig struct {
	Delay time.Duration `mapstructure:"delay"`
}

// SimulateConfig adds artificial latency to mutations.
type SimulateConfig struct {
	Latency time.Duration `mapstructure:"latency"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Metrics exporters accepted by metrics.exporter.
const (
	ExporterPrometheus = "prometheus"
	ExporterExpvar     = "expvar"
)

// MetricsConfig selects the metrics exporter and where the shell serves it.
type MetricsConfig struct {
	Exporter  string `mapstructure:"exporter"`
	Addr      string `mapstructure:"addr"`
	Namespace string `mapstructure:"namespace"`
}

// KV converts the slot settings into a backend configuration.
func (c SlotConfig) KV() kv.Config {
	return kv.Config{
		Driver:          kv.Driver(c.Driver),
		Path:            c.Path,
		DSN:             c.DSN,
		Bucket:          c.Bucket,
		Region:          c.Region,
		Endpoint:        c.Endpoint,
		Prefix:          c.Prefix,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		PathStyle:       c.PathStyle,
	}
}

// DefaultSessionPath is where the session slot lives by default, so a login
// survives between CLI invocations until the temp directory is cleaned.
func DefaultSessionPath() string {
	return filepath.Join(os.TempDir(), "mskboard-session")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.driver", string(kv.DriverFilesystem))
	v.SetDefault("storage.path", "./mskdata")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.prefix", "")
	v.SetDefault("storage.access_key_id", "")
	v.SetDefault("storage.secret_access_key", "")
	v.SetDefault("storage.path_style", false)

	v.SetDefault("session.driver", string(kv.DriverFilesystem))
	v.SetDefault("session.path", DefaultSessionPath())
	v.SetDefault("session.dsn", "")
	v.SetDefault("session.bucket", "")
	v.SetDefault("session.region", "")
	v.SetDefault("session.endpoint", "")
	v.SetDefault("session.prefix", "")
	v.SetDefault("session.access_key_id", "")
	v.SetDefault("session.secret_access_key", "")
	v.SetDefault("session.path_style", false)

	v.SetDefault("auth.delay", "500ms")
	v.SetDefault("simulate.latency", "0s")
	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("metrics.exporter", ExporterPrometheus)
	v.SetDefault("metrics.addr", "")
	v.SetDefault("metrics.namespace", "mskboard")
}

// Load reads configuration. An explicit path must exist; without one,
// mskboard.yaml is looked up in the working directory and the user config
// directory, and its absence is not an error.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("mskboard")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "mskboard"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validateAndNormalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validateAndNormalize() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	c.Metrics.Exporter = strings.ToLower(strings.TrimSpace(c.Metrics.Exporter))
	var problems []string
	if err := c.Storage.validate("storage"); err != nil {
		problems = append(problems, err.Error())
	}
	if err := c.Session.validate("session"); err != nil {
		problems = append(problems, err.Error())
	}
	if !slices.Contains([]string{"debug", "info", "warn", "error"}, c.Log.Level) {
		problems = append(problems, fmt.Sprintf("log.level %q must be one of debug, info, warn, error", c.Log.Level))
	}
	if c.Log.Format != "console" && c.Log.Format != "json" {
		problems = append(problems, fmt.Sprintf("log.format %q must be console or json", c.Log.Format))
	}
	if c.Metrics.Exporter != ExporterPrometheus && c.Metrics.Exporter != ExporterExpvar {
		problems = append(problems, fmt.Sprintf("metrics.exporter %q must be prometheus or expvar", c.Metrics.Exporter))
	}
	if c.Auth.Delay < 0 {
		problems = append(problems, "auth.delay must not be negative")
	}
	if c.Simulate.Latency < 0 {
		problems = append(problems, "simulate.latency must not be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *SlotConfig) validate(section string) error {
	c.Driver = strings.ToLower(strings.TrimSpace(c.Driver))
	if c.Driver == "" {
		c.Driver = string(kv.DriverMemory)
	}
	if !slices.Contains(kv.Drivers(), kv.Driver(c.Driver)) {
		return fmt.Errorf("%s.driver %q is not supported", section, c.Driver)
	}
	if kv.Driver(c.Driver) == kv.DriverS3 && c.Bucket == "" {
		return fmt.Errorf("%s.bucket is required for the s3 driver", section)
	}
	return nil
}
