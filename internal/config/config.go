package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

type PushConfig struct {
	MaxConnectionsPerUser int           `mapstructure:"max_connections_per_user"`
	PollInterval          time.Duration `mapstructure:"poll_interval"`
	HeartbeatInterval     time.Duration `mapstructure:"heartbeat_interval"`
	FeedLimit             int           `mapstructure:"feed_limit"`
}

type EmailConfig struct {
	From            string   `mapstructure:"from"`
	SMTPHost        string   `mapstructure:"smtp_host"`
	SMTPPort        int      `mapstructure:"smtp_port"`
	Username        string   `mapstructure:"username"`
	Password        string   `mapstructure:"password"`
	AlertRecipients []string `mapstructure:"alert_recipients"`
}

type UploadConfig struct {
	Dir          string   `mapstructure:"dir"`
	MaxSizeBytes int64    `mapstructure:"max_size_bytes"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type Config struct {
	DatabaseURL string       `mapstructure:"database_url"`
	ServerPort  string       `mapstructure:"server_port"`
	JWTSecret   string       `mapstructure:"jwt_secret"`
	Push        PushConfig   `mapstructure:"push"`
	Email       EmailConfig  `mapstructure:"email"`
	Upload      UploadConfig `mapstructure:"upload"`
}

// Load reads the configuration from a YAML file and returns a Config instance.
func Load() *Config {
	v := viper.New()

	// Look for config in the current directory and ./config
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.AddConfigPath("./config")
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file: %v", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		log.Fatalf("Error unmarshalling config: %v", err)
	}

	ApplyDefaults(&config)

	if config.JWTSecret == "" {
		log.Fatal("JWT secret must be set in the config file")
	}

	return &config
}

// ApplyDefaults fills in the fallback values for anything the config file
// leaves unset.
func ApplyDefaults(config *Config) {
	if config.ServerPort == "" {
		config.ServerPort = "8080"
	}
	if config.Push.MaxConnectionsPerUser <= 0 {
		config.Push.MaxConnectionsPerUser = 3
	}
	if config.Push.PollInterval <= 0 {
		config.Push.PollInterval = 15 * time.Second
	}
	if config.Push.HeartbeatInterval <= 0 {
		config.Push.HeartbeatInterval = 30 * time.Second
	}
	if config.Push.FeedLimit <= 0 {
		config.Push.FeedLimit = 5
	}
	if config.Email.SMTPPort == 0 {
		config.Email.SMTPPort = 587
	}
	if config.Upload.Dir == "" {
		config.Upload.Dir = "./uploads"
	}
	if config.Upload.MaxSizeBytes <= 0 {
		config.Upload.MaxSizeBytes = 10 << 20
	}
	if len(config.Upload.AllowedTypes) == 0 {
		config.Upload.AllowedTypes = []string{
			"image/png", "image/jpeg", "image/gif", "application/pdf", "text/plain",
		}
	}
}
