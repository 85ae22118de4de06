// Package config loads service settings from defaults, an optional config
// file, a .env file and FIXIT_ environment variables, in increasing order
// of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/erazemk/fixitforward/internal/platform/logger"
)

// EnvPrefix prefixes every environment variable, e.g. FIXIT_REDIS_ADDRESS.
const EnvPrefix = "FIXIT"

// Config is the full service configuration.
type Config struct {
	Addr    string        `mapstructure:"addr"`
	DB      string        `mapstructure:"db"`
	Log     logger.Config `mapstructure:"log"`
	Storage StorageConfig `mapstructure:"storage"`
	Mongo   MongoConfig   `mapstructure:"mongo"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MinIO   MinIOConfig   `mapstructure:"minio"`
	NATS    NATSConfig    `mapstructure:"nats"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Session SessionConfig `mapstructure:"session"`
}

// StorageConfig picks a backend per repository.
type StorageConfig struct {
	Items  string `mapstructure:"items"`
	Chat   string `mapstructure:"chat"`
	Images string `mapstructure:"images"`
}

type MongoConfig struct {
	URI            string        `mapstructure:"uri"`
	Database       string        `mapstructure:"database"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
}

// NATSConfig enables the event bus when URL is set.
type NATSConfig struct {
	URL string `mapstructure:"url"`
}

// JWTConfig holds the signing key. Empty means the key kept in the database.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
}

// SessionConfig sets how often expired sessions are dropped.
type SessionConfig struct {
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMinIO  = "minio"
)

// SetDefaults registers every key with its default value.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("db", "fixit.sqlite3")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.time_format", "")
	v.SetDefault("log.file", "")

	v.SetDefault("storage.items", BackendSQLite)
	v.SetDefault("storage.chat", BackendSQLite)
	v.SetDefault("storage.images", BackendSQLite)

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "fixit")
	v.SetDefault("mongo.connect_timeout", "10s")

	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "fixit:")

	v.SetDefault("minio.endpoint", "localhost:9000")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "fixit-images")
	v.SetDefault("minio.use_ssl", false)

	v.SetDefault("nats.url", "")
	v.SetDefault("jwt.secret", "")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "fixit")

	v.SetDefault("session.sweep_interval", "10m")
}

// Load reads the configuration into v. path names a config file or a
// directory holding fixit.yaml; a missing file is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	SetDefaults(v)

	if fi, err := os.Stat(path); path != "" && err == nil && !fi.IsDir() {
		v.SetConfigFile(path)
	} else {
		if path != "" && err == nil {
			v.AddConfigPath(path)
		}
		v.AddConfigPath(".")
		v.SetConfigName("fixit")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the backend choices.
func (c *Config) Validate() error {
	checks := []struct {
		key, value string
		allowed    []string
	}{
		{"storage.items", c.Storage.Items, []string{BackendSQLite, BackendMemory, BackendMongo}},
		{"storage.chat", c.Storage.Chat, []string{BackendSQLite, BackendMemory, BackendRedis}},
		{"storage.images", c.Storage.Images, []string{BackendSQLite, BackendMinIO}},
	}
	for _, ch := range checks {
		if !slices.Contains(ch.allowed, ch.value) {
			return fmt.Errorf("%s: unknown backend %q (want one of %s)", ch.key, ch.value, strings.Join(ch.allowed, ", "))
		}
	}
	if c.Addr == "" {
		return errors.New("addr: required")
	}
	return nil
}
