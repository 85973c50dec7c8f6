package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Signaling  SignalingConfig
	Encryption EncryptionConfig
	JWT        JWTConfig
	SMTP       SMTPConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	User         string `mapstructure:"user"`
	Password     string `mapstructure:"password"`
	Name         string `mapstructure:"name"`
	SSLMode      string `mapstructure:"sslmode"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
}

type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

type SignalingConfig struct {
	// Backend selects the mailbox store: "memory" (single process) or
	// "redis" (multi-instance deployments).
	Backend         string        `mapstructure:"backend"`
	MessageTTL      time.Duration `mapstructure:"message_ttl"`
	SweepInterval   time.Duration `mapstructure:"sweep_interval"`
	SessionCacheTTL time.Duration `mapstructure:"session_cache_ttl"`
}

type EncryptionConfig struct {
	// FieldSecret derives the key protecting clinical text at rest.
	// Absence is fatal at startup, never a silent fallback to plaintext.
	FieldSecret string `mapstructure:"field_secret" envconfig:"FIELD_SECRET"`
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

// LoadConfig reads config.yaml and overlays TELEMED_* environment
// variables on top.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := envconfig.Process("telemed", &config); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("signaling.backend", "memory")
	viper.SetDefault("signaling.message_ttl", "5m")
	viper.SetDefault("signaling.sweep_interval", "1m")
	viper.SetDefault("signaling.session_cache_ttl", "30s")
	viper.SetDefault("jwt.expiry_hours", 24)
	viper.SetDefault("smtp.port", 587)
}
