// Package config loads runtime settings from .env, the environment and an
// optional YAML file, and opens the database.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	GinMode  string
	LogLevel string

	DB DBConfig

	SessionTTL time.Duration
	JWTSecret  string
	JWTTTL     time.Duration

	NATSURL string
	Redis   RedisConfig

	IdempotencyTTL time.Duration
	OutboxInterval time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	CORSOrigin     string
	CurrencySymbol string
}

type DBConfig struct {
	Driver       string
	DSN          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	MaxOpenConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("gin_mode", "debug")
	v.SetDefault("log_level", "info")

	v.SetDefault("db_driver", "mysql")
	v.SetDefault("db_host", "127.0.0.1")
	v.SetDefault("db_port", 3306)
	v.SetDefault("db_user", "root")
	v.SetDefault("db_name", "table_session")
	v.SetDefault("db_max_open_conns", 25)

	v.SetDefault("session_ttl", 4*time.Hour)
	v.SetDefault("jwt_ttl", 12*time.Hour)

	v.SetDefault("redis_db", 0)
	v.SetDefault("idempotency_ttl", 10*time.Minute)
	v.SetDefault("outbox_interval", 500*time.Millisecond)

	v.SetDefault("rate_limit_rps", 5.0)
	v.SetDefault("rate_limit_burst", 20)

	v.SetDefault("cors_origin", "*")
	v.SetDefault("currency_symbol", "Rp")
}

// Load reads .env (when present), then the environment. CONFIG_FILE may point
// to a YAML file whose keys use the same names in lower case; environment
// variables win over the file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path := v.GetString("config_file"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return fromViper(v)
}

func fromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:     v.GetString("port"),
		GinMode:  v.GetString("gin_mode"),
		LogLevel: v.GetString("log_level"),
		DB: DBConfig{
			Driver:       strings.ToLower(v.GetString("db_driver")),
			DSN:          v.GetString("db_dsn"),
			Host:         v.GetString("db_host"),
			Port:         v.GetInt("db_port"),
			User:         v.GetString("db_user"),
			Password:     v.GetString("db_password"),
			Name:         v.GetString("db_name"),
			MaxOpenConns: v.GetInt("db_max_open_conns"),
		},
		SessionTTL: v.GetDuration("session_ttl"),
		JWTSecret:  v.GetString("jwt_secret"),
		JWTTTL:     v.GetDuration("jwt_ttl"),
		NATSURL:    v.GetString("nats_url"),
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		IdempotencyTTL: v.GetDuration("idempotency_ttl"),
		OutboxInterval: v.GetDuration("outbox_interval"),
		RateLimitRPS:   v.GetFloat64("rate_limit_rps"),
		RateLimitBurst: v.GetInt("rate_limit_burst"),
		CORSOrigin:     v.GetString("cors_origin"),
		CurrencySymbol: v.GetString("currency_symbol"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	switch c.DB.Driver {
	case "mysql":
	case "sqlite":
		if c.DB.DSN == "" {
			return fmt.Errorf("DB_DSN is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	if c.OutboxInterval <= 0 {
		return fmt.Errorf("OUTBOX_INTERVAL must be positive")
	}
	return nil
}

// MySQLDSN builds the go-sql-driver DSN from the discrete DB_* settings unless
// DB_DSN is set.
func (d DBConfig) MySQLDSN() string {
	if d.DSN != "" {
		return d.DSN
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		d.User, d.Password, d.Host, d.Port, d.Name)
}
