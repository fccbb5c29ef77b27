package config

import (
	"github.com/spf13/viper"
	"strings"
	"time"
)

// Config is the main struct that holds all configuration for the application.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	RabbitMQ RabbitMQConfig `mapstructure:"rabbitmq"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Channels ChannelsConfig `mapstructure:"channels"`
}

// LoggerConfig holds logging-specific settings. Pretty switches the output
// from JSON to the human-readable console writer.
type LoggerConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// HTTPConfig holds HTTP server-specific settings.
type HTTPConfig struct {
	Port    string `mapstructure:"port"`
	GinMode string `mapstructure:"gin_mode"`
}

// PostgresConfig holds all settings for the PostgreSQL database connection.
type PostgresConfig struct {
	DSN  string     `mapstructure:"dsn"`
	Pool PoolConfig `mapstructure:"pool"`
}

// PoolConfig defines the connection pool settings for the database.
type PoolConfig struct {
	MaxConns        int           `mapstructure:"max_conns"`
	MinConns        int           `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RabbitMQConfig holds all settings for the RabbitMQ connection.
type RabbitMQConfig struct {
	DSN string `mapstructure:"dsn"`
}

// RedisConfig holds all settings for the Redis connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ChannelsConfig holds per-channel provider credentials. An empty credential
// disables only that channel; it is never an error.
type ChannelsConfig struct {
	// Mode can be "production" or "log_only". In "log_only" mode the email
	// and whatsapp senders are replaced by the LogNotifier.
	Mode string `mapstructure:"mode"`
	// Timeout bounds every outbound provider call.
	Timeout  time.Duration  `mapstructure:"timeout"`
	Email    EmailConfig    `mapstructure:"email"`
	WhatsApp WhatsAppConfig `mapstructure:"whatsapp"`
	Push     PushConfig     `mapstructure:"push"`
}

// EmailConfig holds the transactional-email provider settings. The primary
// transport is the Brevo HTTP API; SMTP is an optional fallback used when no
// API key is configured.
type EmailConfig struct {
	APIKey      string     `mapstructure:"api_key"`
	SenderEmail string     `mapstructure:"sender_email"`
	SenderName  string     `mapstructure:"sender_name"`
	SMTP        SMTPConfig `mapstructure:"smtp"`
}

// SMTPConfig holds the fallback SMTP relay settings.
type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// WhatsAppConfig holds the messaging gateway settings.
type WhatsAppConfig struct {
	Token string `mapstructure:"token"`
}

// PushConfig holds the push provider settings. ServiceAccount is the raw
// secret blob as stored in the secret manager; it may be hand-edited or
// double-escaped and is repaired by the credential reader, not here.
type PushConfig struct {
	ServiceAccount string `mapstructure:"service_account"`
}

// NewConfig parses the YAML file and environment variables to return a configuration struct.
func NewConfig() (*Config, error) {
	v := viper.New()

	v.SetConfigFile("configs/config.yaml")

	v.SetDefault("logger.level", "info")
	v.SetDefault("http.port", ":8080")
	v.SetDefault("http.gin_mode", "release")
	v.SetDefault("channels.mode", "production")
	v.SetDefault("channels.timeout", 10*time.Second)
	v.SetDefault("channels.email.sender_name", "أهجازلي - Ahjazly")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
