package config

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"
)

// Config holds the configuration for the animeloop server and its dependencies.
type Config struct {
	// Listen is the address the API server will listen on.
	Listen string `yaml:"listen" mapstructure:"listen"`
	// ServerURL is the public base URL of the server, used to derive file and loop page URLs.
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	// CDNURL is an optional CDN base URL used for file URLs when a query asks for cdn links.
	CDNURL string `yaml:"cdn_url" mapstructure:"cdn_url"`
	// APIKey guards the mutating API endpoints. Empty disables them.
	APIKey string `yaml:"api_key" mapstructure:"api_key"`
	// LogLevel is the default log level (debug, info, warn, error).
	LogLevel string `yaml:"log_level" mapstructure:"log_level"`
	// MongoDB holds the document store configuration.
	MongoDB *MongoDBConfig `yaml:"mongodb" mapstructure:"mongodb"`
	// Storage holds the file store configuration.
	Storage *StorageConfig `yaml:"storage" mapstructure:"storage"`
	// Bot holds the random loop announcement bot configuration.
	Bot *BotConfig `yaml:"bot" mapstructure:"bot"`
}

// MongoDBConfig holds the document store configuration.
type MongoDBConfig struct {
	// URL is the mongodb connection string.
	URL string `yaml:"url" mapstructure:"url"`
	// Database is the database name.
	Database string `yaml:"database" mapstructure:"database"`
}

// StorageConfig holds the file store configuration.
type StorageConfig struct {
	// DataDir is the directory the rendition files are stored in.
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`
	// UploadDir is the directory incoming extraction artifacts are read from.
	UploadDir string `yaml:"upload_dir" mapstructure:"upload_dir"`
}

// BotConfig holds the configuration for the random loop announcement bot.
type BotConfig struct {
	// Enabled indicates whether the scheduled announcement job runs.
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
	// Schedule is the cron schedule for the announcement job.
	Schedule string `yaml:"schedule" mapstructure:"schedule"`
	// WebhookURL is the endpoint announcements are posted to.
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
	// Topic is an optional topic set on every announcement.
	Topic string `yaml:"topic" mapstructure:"topic"`
	// Token is an optional bearer token for the webhook endpoint.
	Token string `yaml:"token" mapstructure:"token"`
	// Hashtag is appended to every announcement.
	Hashtag string `yaml:"hashtag" mapstructure:"hashtag"`
}

// Load reads the configuration from the specified path and returns a Config struct.
// If path is empty, it searches the default locations.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigType("yaml")
	v.SetEnvPrefix("ANIMELOOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.animeloop")
		v.AddConfigPath("/etc/animeloop")
	}

	if err := v.ReadInConfig(); err != nil {
		// If no config file is found, use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		log.Debug("Using config file", "file", v.ConfigFileUsed())
		log.Debug("Some environment variables can be set with the ANIMELOOP_ prefix to override config file values")
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	sanitizeConfig(&c)

	if err := validateConfig(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

// setDefaults sets default values for the configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", "0.0.0.0:8201")
	v.SetDefault("server_url", "http://localhost:8201")
	v.SetDefault("cdn_url", "")
	v.SetDefault("api_key", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("mongodb.url", "mongodb://localhost:27017")
	v.SetDefault("mongodb.database", "animeloop")

	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.upload_dir", "./upload")

	v.SetDefault("bot.enabled", false)
	v.SetDefault("bot.schedule", "0 */6 * * *") // Every 6 hours
	v.SetDefault("bot.webhook_url", "")
	v.SetDefault("bot.topic", "")
	v.SetDefault("bot.token", "")
	v.SetDefault("bot.hashtag", "#Animeloop")
}

// sanitizeConfig trims values that commonly pick up stray whitespace or slashes.
func sanitizeConfig(c *Config) {
	c.ServerURL = strings.TrimRight(strings.TrimSpace(c.ServerURL), "/")
	c.CDNURL = strings.TrimRight(strings.TrimSpace(c.CDNURL), "/")
	if c.MongoDB != nil {
		c.MongoDB.URL = strings.TrimSpace(c.MongoDB.URL)
	}
	if c.Bot != nil {
		c.Bot.WebhookURL = strings.TrimSpace(c.Bot.WebhookURL)
	}
}

// validateConfig validates the required configuration values.
func validateConfig(c *Config) error {
	if c.Listen == "" {
		return fmt.Errorf("listen address is required")
	}
	if c.ServerURL == "" {
		return fmt.Errorf("server_url is required")
	}
	if c.MongoDB == nil || c.MongoDB.URL == "" {
		return fmt.Errorf("mongodb.url is required")
	}
	if c.MongoDB.Database == "" {
		return fmt.Errorf("mongodb.database is required")
	}
	if c.Storage == nil || c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Bot != nil && c.Bot.Enabled && c.Bot.WebhookURL == "" {
		return fmt.Errorf("bot.webhook_url is required when the bot is enabled")
	}
	return nil
}
