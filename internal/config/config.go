// Package config loads the bridge configuration from configs/config.yml,
// an optional .env file and HEATZY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"heatzy_bridge/internal/models"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "HEATZY"

var (
	ErrMissingCredentials = errors.New("heatzy.username and heatzy.password are required")
	ErrInvalidJitter      = errors.New("polling.jitter_max must not be lower than polling.jitter_min")
	ErrInvalidInterval    = errors.New("polling.interval and cache.freshness must be positive")
)

type Config struct {
	Heatzy  HeatzyConfig  `mapstructure:"heatzy"`
	Session SessionConfig `mapstructure:"session"`
	Polling PollingConfig `mapstructure:"polling"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Sync    SyncConfig    `mapstructure:"sync"`
	Port    string        `mapstructure:"port"`
	DB      DBConfig      `mapstructure:"db"`
	Log     LogConfig     `mapstructure:"log"`
	Auth    AuthConfig    `mapstructure:"auth"`
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
}

type HeatzyConfig struct {
	Username       string        `mapstructure:"username"`
	Password       string        `mapstructure:"password"`
	Modes          []string      `mapstructure:"modes"`
	BaseURL        string        `mapstructure:"base_url"`
	ApplicationID  string        `mapstructure:"application_id"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type SessionConfig struct {
	HonorVendorExpiry bool `mapstructure:"honor_vendor_expiry"`
}

type PollingConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	JitterMin time.Duration `mapstructure:"jitter_min"`
	JitterMax time.Duration `mapstructure:"jitter_max"`
}

type CacheConfig struct {
	Freshness time.Duration `mapstructure:"freshness"`
}

type SyncConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type DBConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key"`
	TokenTTL   time.Duration `mapstructure:"token_ttl"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("heatzy.username", "")
	v.SetDefault("heatzy.password", "")
	v.SetDefault("heatzy.modes", []string{"Confort", "Eco", "Eco Plus", "Sleep", "Antifreeze"})
	v.SetDefault("heatzy.base_url", "https://euapi.gizwits.com")
	v.SetDefault("heatzy.application_id", "c70a66ff039d41b4a220e198b0fcc8b3")
	v.SetDefault("heatzy.request_timeout", 12*time.Second)

	v.SetDefault("session.honor_vendor_expiry", false)

	v.SetDefault("polling.interval", 60*time.Second)
	v.SetDefault("polling.jitter_min", 5*time.Second)
	v.SetDefault("polling.jitter_max", 10*time.Second)

	v.SetDefault("cache.freshness", 60*time.Second)
	v.SetDefault("sync.interval", 15*time.Minute)

	v.SetDefault("port", "8080")
	v.SetDefault("db.path", "heatzy.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("auth.signing_key", "")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "heatzy")
	v.SetDefault("mqtt.client_id", "heatzy-bridge")
}

// Load reads the configuration. An empty path searches configs/config.yml
// and ./config.yml and tolerates their absence; an explicit path must
// exist. envFile is loaded first, if it exists, so its values reach the
// HEATZY_* lookups.
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the settings the bridge cannot run without.
func (c *Config) Validate() error {
	if c.Heatzy.Username == "" || c.Heatzy.Password == "" {
		return ErrMissingCredentials
	}
	if _, err := c.SelectedModes(); err != nil {
		return err
	}
	if c.Polling.Interval <= 0 || c.Cache.Freshness <= 0 {
		return ErrInvalidInterval
	}
	if c.Polling.JitterMin < 0 || c.Polling.JitterMax < c.Polling.JitterMin {
		return ErrInvalidJitter
	}
	return nil
}

// SelectedModes resolves heatzy.modes. An empty list selects every mode.
func (c *Config) SelectedModes() ([]models.Mode, error) {
	if len(c.Heatzy.Modes) == 0 {
		return models.SelectableModes(), nil
	}
	modes, err := models.ParseModes(c.Heatzy.Modes)
	if err != nil {
		return nil, fmt.Errorf("heatzy.modes: %w", err)
	}
	return modes, nil
}
