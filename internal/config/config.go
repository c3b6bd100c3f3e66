package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config is built once at startup and handed to every component.
// Nothing in the services reads viper directly.
type Config struct {
	Env      string
	Port     string
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Stripe   StripeConfig
	Argon2   Argon2Config
}

type DatabaseConfig struct {
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	SecretKey string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	BaseURL       string
}

type Argon2Config struct {
	Time       uint32
	Memory     uint32
	Threads    uint8
	KeyLength  uint32
	SaltLength int
}

// Load reads configuration from viper with defaults suitable for
// local development.
func Load() *Config {
	viper.SetDefault("env", "development")
	viper.SetDefault("port", "8080")

	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", "5432")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "password")
	viper.SetDefault("database.name", "game_portal")
	viper.SetDefault("database.ssl_mode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime", time.Minute*5)

	viper.SetDefault("redis.host", "localhost")
	viper.SetDefault("redis.port", "6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)

	viper.SetDefault("jwt.secret_key", "change-this-secret")
	viper.SetDefault("stripe.base_url", "http://localhost:3000")

	viper.SetDefault("argon2.time", 1)
	viper.SetDefault("argon2.memory", 64*1024)
	viper.SetDefault("argon2.threads", 4)
	viper.SetDefault("argon2.key_length", 32)
	viper.SetDefault("argon2.salt_length", 16)

	return &Config{
		Env:  viper.GetString("env"),
		Port: viper.GetString("port"),
		Database: DatabaseConfig{
			Host:            viper.GetString("database.host"),
			Port:            viper.GetString("database.port"),
			User:            viper.GetString("database.user"),
			Password:        viper.GetString("database.password"),
			Name:            viper.GetString("database.name"),
			SSLMode:         viper.GetString("database.ssl_mode"),
			MaxOpenConns:    viper.GetInt("database.max_open_conns"),
			MaxIdleConns:    viper.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: viper.GetDuration("database.conn_max_lifetime"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("redis.host"),
			Port:     viper.GetString("redis.port"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		JWT: JWTConfig{
			SecretKey: viper.GetString("jwt.secret_key"),
		},
		Stripe: StripeConfig{
			SecretKey:     viper.GetString("stripe.secret_key"),
			WebhookSecret: viper.GetString("stripe.webhook_secret"),
			BaseURL:       viper.GetString("stripe.base_url"),
		},
		Argon2: Argon2Config{
			Time:       viper.GetUint32("argon2.time"),
			Memory:     viper.GetUint32("argon2.memory"),
			Threads:    uint8(viper.GetInt("argon2.threads")),
			KeyLength:  viper.GetUint32("argon2.key_length"),
			SaltLength: viper.GetInt("argon2.salt_length"),
		},
	}
}

// IsProduction controls the Secure flag on the session cookie.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
