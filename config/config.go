// Package config loads service settings from the environment (and an optional
// .env file) with defaults for local development. Nested keys map to
// environment variables by replacing dots with underscores, so store.backend
// is read from STORE_BACKEND.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string         `mapstructure:"port" validate:"required"`
	Env      string         `mapstructure:"env" validate:"required"`
	Store    StoreConfig    `mapstructure:"store"`
	Mongo    MongoConfig    `mapstructure:"mongo"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Email    EmailConfig    `mapstructure:"emailjs"`
	Rate     RateConfig     `mapstructure:"rate_limit"`
	APILog   APILogConfig   `mapstructure:"apilog"`
	Log      LogConfig      `mapstructure:"log"`
}

type StoreConfig struct {
	// Backend is one of memory, file, mongo, redis or postgres.
	Backend string `mapstructure:"backend" validate:"oneof=memory file mongo redis postgres"`
	// Fallback puts the JSON file store under DataDir behind a remote backend.
	Fallback bool   `mapstructure:"fallback"`
	DataDir  string `mapstructure:"data_dir" validate:"required"`
}

type MongoConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"db"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type JWTConfig struct {
	Secret string        `mapstructure:"secret" validate:"required"`
	TTL    time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type EmailConfig struct {
	ServiceID  string        `mapstructure:"service_id"`
	TemplateID string        `mapstructure:"template_id"`
	PublicKey  string        `mapstructure:"public_key"`
	Endpoint   string        `mapstructure:"endpoint" validate:"url"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type RateConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gt=0"`
	Burst int     `mapstructure:"burst" validate:"min=1"`
}

type APILogConfig struct {
	Capacity int `mapstructure:"capacity" validate:"min=1"`
}

type LogConfig struct {
	// File enables a JSON log file under logs/ when non-empty; the value is
	// used as the file name prefix.
	File string `mapstructure:"file"`
}

// DefaultJWTSecret is the development signing key. Production refuses it.
const DefaultJWTSecret = "dev-secret-change-me"

var validate = validator.New()

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("env", "development")

	v.SetDefault("store.backend", "file")
	v.SetDefault("store.fallback", true)
	v.SetDefault("store.data_dir", ".data")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.db", "learnspace")

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("postgres.dsn", "")

	v.SetDefault("jwt.secret", DefaultJWTSecret)
	v.SetDefault("jwt.ttl", 24*time.Hour)

	v.SetDefault("emailjs.service_id", "")
	v.SetDefault("emailjs.template_id", "")
	v.SetDefault("emailjs.public_key", "")
	v.SetDefault("emailjs.endpoint", "https://api.emailjs.com/api/v1.0/email/send")
	v.SetDefault("emailjs.timeout", 10*time.Second)

	v.SetDefault("rate_limit.rps", 5.0)
	v.SetDefault("rate_limit.burst", 10)

	v.SetDefault("apilog.capacity", 1000)

	v.SetDefault("log.file", "")
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromViper(NewViper())
}

// NewViper returns a viper instance bound to the environment with defaults set.
func NewViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// FromViper decodes and validates a Config.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate runs struct validation and the per-backend checks.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	if cfg.IsProduction() && cfg.JWT.Secret == DefaultJWTSecret {
		return fmt.Errorf("config validation failed: JWT_SECRET must be set in production")
	}
	switch cfg.Store.Backend {
	case "mongo":
		if cfg.Mongo.URI == "" {
			return fmt.Errorf("config validation failed: MONGO_URI is required for the mongo backend")
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("config validation failed: REDIS_ADDR is required for the redis backend")
		}
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return fmt.Errorf("config validation failed: POSTGRES_DSN is required for the postgres backend")
		}
	}
	return nil
}

// EmailConfigured reports whether all EmailJS identifiers are set.
func (c *Config) EmailConfigured() bool {
	return c.Email.ServiceID != "" && c.Email.TemplateID != "" && c.Email.PublicKey != ""
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Addr returns the listen address, accepting PORT with or without a colon.
func (c *Config) Addr() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}
