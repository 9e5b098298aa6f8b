package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	SMTP     SMTPConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port           int `mapstructure:"port"`
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// JWTConfig drives the token issuer. ClockOffsetHours is the deployment-wide
// wall-clock normalization applied to token windows, refresh-expiry comparison
// and lifecycle timestamps; set to 0 for plain UTC.
type JWTConfig struct {
	SigningKey         string `mapstructure:"signing_key"`
	Issuer             string `mapstructure:"issuer"`
	Audience           string `mapstructure:"audience"`
	AccessTokenMinutes int    `mapstructure:"access_token_minutes"`
	RefreshExpiryHours int    `mapstructure:"refresh_expiry_hours"`
	ClockOffsetHours   int    `mapstructure:"clock_offset_hours"`
}

// ClockOffset returns the normalization offset as a duration.
func (c JWTConfig) ClockOffset() time.Duration {
	return time.Duration(c.ClockOffsetHours) * time.Hour
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type SMTPConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type StorageConfig struct {
	Root        string `mapstructure:"root"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	viper.SetDefault("jwt.access_token_minutes", 60)
	viper.SetDefault("jwt.refresh_expiry_hours", 168)
	viper.SetDefault("jwt.clock_offset_hours", 4)
	viper.SetDefault("storage.max_upload_mb", 3)

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
