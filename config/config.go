// Package config loads flightbook settings from a YAML file and FLIGHTBOOK_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	appDir     = "flightbook"
	configName = "flightbook"
	envPrefix  = "FLIGHTBOOK"
)

type Config struct {
	API     API     `mapstructure:"api" yaml:"api"`
	Cache   Cache   `mapstructure:"cache" yaml:"cache"`
	Booking Booking `mapstructure:"booking" yaml:"booking"`
	Log     Log     `mapstructure:"log" yaml:"log"`
}

type API struct {
	BaseURL           string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout           time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxAttempts       int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int           `mapstructure:"burst" yaml:"burst"`
}

type Cache struct {
	Backend    string        `mapstructure:"backend" yaml:"backend"`
	AirportTTL time.Duration `mapstructure:"airport_ttl" yaml:"airport_ttl"`
	Redis      Redis         `mapstructure:"redis" yaml:"redis"`
}

type Redis struct {
	Addr     string `mapstructure:"addr" yaml:"addr"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
}

type Booking struct {
	StrictPhone      bool          `mapstructure:"strict_phone" yaml:"strict_phone"`
	SearchDebounce   time.Duration `mapstructure:"search_debounce" yaml:"search_debounce"`
	StrictInvariants bool          `mapstructure:"strict_invariants" yaml:"strict_invariants"`
}

type Log struct {
	Level       string `mapstructure:"level" yaml:"level"`
	File        string `mapstructure:"file" yaml:"file"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

const (
	CacheFile  = "file"
	CacheRedis = "redis"
	CacheNone  = "none"
)

func Default() Config {
	return Config{
		API: API{
			BaseURL:           "http://localhost:8080/api/public",
			Timeout:           12 * time.Second,
			MaxAttempts:       3,
			RequestsPerSecond: 10,
			Burst:             5,
		},
		Cache: Cache{
			Backend:    CacheFile,
			AirportTTL: 7 * 24 * time.Hour,
			Redis:      Redis{Addr: "localhost:6379"},
		},
		Booking: Booking{
			SearchDebounce: 300 * time.Millisecond,
		},
		Log: Log{Level: "info"},
	}
}

// Load reads the config file at path, or searches the default locations when path is empty.
// A missing file is not an error; defaults and environment still apply.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		if dir, err := Dir(); err == nil {
			v.AddConfigPath(dir)
		}
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(path != "" && os.IsNotExist(err)) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return errors.New("config: api.base_url is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("config: api.timeout must be positive")
	}
	if c.API.MaxAttempts < 1 {
		return errors.New("config: api.max_attempts must be at least 1")
	}
	switch c.Cache.Backend {
	case CacheFile, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("config: unknown cache.backend %q", c.Cache.Backend)
	}
	if c.Booking.SearchDebounce < 0 {
		return errors.New("config: booking.search_debounce must not be negative")
	}
	return nil
}

// WriteDefault writes the default configuration as YAML. Existing files are left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists", path)
		}
	}
	payload, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// Dir is the per-user directory holding flightbook.yaml.
func Dir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir), nil
}

func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName+".yaml"), nil
}

func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("api.base_url", d.API.BaseURL)
	v.SetDefault("api.timeout", d.API.Timeout)
	v.SetDefault("api.max_attempts", d.API.MaxAttempts)
	v.SetDefault("api.requests_per_second", d.API.RequestsPerSecond)
	v.SetDefault("api.burst", d.API.Burst)
	v.SetDefault("cache.backend", d.Cache.Backend)
	v.SetDefault("cache.airport_ttl", d.Cache.AirportTTL)
	v.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	v.SetDefault("booking.strict_phone", d.Booking.StrictPhone)
	v.SetDefault("booking.search_debounce", d.Booking.SearchDebounce)
	v.SetDefault("booking.strict_invariants", d.Booking.StrictInvariants)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
	v.SetDefault("log.development", d.Log.Development)
}
