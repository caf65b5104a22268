package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Map       MapConfig       `mapstructure:"map"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

type ServiceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type MapConfig struct {
	CenterLon   float64       `mapstructure:"center_lon"`
	CenterLat   float64       `mapstructure:"center_lat"`
	Zoom        float64       `mapstructure:"zoom"`
	SettleDelay time.Duration `mapstructure:"settle_delay"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Path   string `mapstructure:"path"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
	Endpoint    string `mapstructure:"endpoint"`
}

// Flags declares the command-line overrides. Flag names match config keys.
func Flags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (default ./geomap.yaml)")
	fs.String("service.base_url", "", "data service base URL")
	fs.Duration("service.timeout", 0, "per-request timeout")
	fs.Float64("map.center_lon", 0, "initial centre longitude")
	fs.Float64("map.center_lat", 0, "initial centre latitude")
	fs.Float64("map.zoom", 0, "initial zoom level")
	fs.String("log.level", "", "debug, info, warn or error")
	fs.String("log.path", "", "log file path")
	fs.String("metrics.addr", "", "serve Prometheus metrics on this address")
}

// Load reads configuration from defaults, the optional config file,
// GEOMAP_* environment variables and the flags that were set, in increasing
// order of precedence. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("service.base_url", "http://localhost:3000")
	v.SetDefault("service.timeout", 10*time.Second)
	v.SetDefault("map.center_lon", 12.079811)
	v.SetDefault("map.center_lat", 50.884842)
	v.SetDefault("map.zoom", 12)
	v.SetDefault("map.settle_delay", 250*time.Millisecond)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.path", "geomap.log")
	v.SetDefault("metrics.addr", "")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "geomap")
	v.SetDefault("telemetry.endpoint", "localhost:4317")

	// Config file (optional unless named explicitly)
	explicit := ""
	if fs != nil {
		explicit, _ = fs.GetString("config")
	}
	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", explicit, err)
		}
	} else {
		v.SetConfigName("geomap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "geomap"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	// Environment variables: GEOMAP_SERVICE_BASE_URL → service.base_url
	v.SetEnvPrefix("GEOMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		var bindErr error
		fs.Visit(func(f *pflag.Flag) {
			if f.Name == "config" || bindErr != nil {
				return
			}
			bindErr = v.BindPFlag(f.Name, f)
		})
		if bindErr != nil {
			return nil, fmt.Errorf("bind flags: %w", bindErr)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks that required configuration fields are present and sane.
func (c *Config) Validate() error {
	var errs []string

	if u, err := url.Parse(c.Service.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Sprintf("service.base_url must be an absolute URL, got %q", c.Service.BaseURL))
	}
	if c.Service.Timeout < 0 {
		errs = append(errs, "service.timeout must not be negative")
	}
	if c.Map.CenterLon < -180 || c.Map.CenterLon > 180 {
		errs = append(errs, fmt.Sprintf("map.center_lon must be -180..180, got %g", c.Map.CenterLon))
	}
	if c.Map.CenterLat < -85.0511 || c.Map.CenterLat > 85.0511 {
		errs = append(errs, fmt.Sprintf("map.center_lat must be -85.0511..85.0511, got %g", c.Map.CenterLat))
	}
	if c.Map.Zoom < 0 || c.Map.Zoom > 22 {
		errs = append(errs, fmt.Sprintf("map.zoom must be 0-22, got %g", c.Map.Zoom))
	}
	if c.Map.SettleDelay < 0 {
		errs = append(errs, "map.settle_delay must not be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		errs = append(errs, "telemetry.endpoint is required when telemetry is enabled")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
