package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Practice   PracticeConfig
	Scheduling SchedulingConfig
	Export     ExportConfig
	RateLimit  RateLimitConfig
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

type PracticeConfig struct {
	OwnerID string `mapstructure:"owner_id"`
}

type SchedulingConfig struct {
	WindowStartHour        int `mapstructure:"window_start_hour"`
	WindowEndHour          int `mapstructure:"window_end_hour"`
	DragGranularityMinutes int `mapstructure:"drag_granularity_minutes"`
}

type ExportConfig struct {
	WhatsappTemplate string `mapstructure:"whatsapp_template"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.timeoutSeconds", 30)
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("practice.owner_id", "00000000-0000-0000-0000-000000000000")
	viper.SetDefault("scheduling.window_start_hour", 8)
	viper.SetDefault("scheduling.window_end_hour", 21)
	viper.SetDefault("scheduling.drag_granularity_minutes", 5)
	viper.SetDefault("ratelimit.rps", 50)
	viper.SetDefault("ratelimit.burst", 100)

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}
