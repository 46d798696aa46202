package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration for the application.
type Config struct {
	ServerPort  string `mapstructure:"SERVER_PORT"`
	LogLevel    string `mapstructure:"LOG_LEVEL"`
	PostgresURL string `mapstructure:"POSTGRES_URL"`
	RedisAddr   string `mapstructure:"REDIS_ADDR"`

	ScrapeWorkers     int `mapstructure:"SCRAPE_WORKERS"`
	ScrapeQueueSize   int `mapstructure:"SCRAPE_QUEUE_SIZE"`
	PageLoadTimeout   int `mapstructure:"PAGE_LOAD_TIMEOUT"`  // seconds
	SettleDelayMillis int `mapstructure:"SETTLE_DELAY_MS"`    // after navigation
	ItemDelayMillis   int `mapstructure:"ITEM_DELAY_MS"`      // between detail pages
	DedupTTLHours     int `mapstructure:"DEDUP_TTL_HOURS"`    // recently-scraped marker

	JWTSecret     string `mapstructure:"JWT_SECRET"`
	JWTTTLMinutes int    `mapstructure:"JWT_TTL_MINUTES"`

	ExportDir  string `mapstructure:"EXPORT_DIR"`
	ExportBase string `mapstructure:"EXPORT_BASE"` // file name without extension
}

// Load reads configuration from file or environment variables.
func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")
	viper.AutomaticEnv()

	// Attempt to read the .env file, but don't fail if it's not present.
	// This allows configuration purely through environment variables.
	_ = viper.ReadInConfig()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("SCRAPE_WORKERS", 3)
	viper.SetDefault("SCRAPE_QUEUE_SIZE", 32)
	viper.SetDefault("PAGE_LOAD_TIMEOUT", 30)
	viper.SetDefault("SETTLE_DELAY_MS", 2000)
	viper.SetDefault("ITEM_DELAY_MS", 500)
	viper.SetDefault("DEDUP_TTL_HOURS", 48)
	viper.SetDefault("JWT_TTL_MINUTES", 60*24*7) // one week
	viper.SetDefault("EXPORT_DIR", "data")
	viper.SetDefault("EXPORT_BASE", "book_catalog")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) PageTimeout() time.Duration {
	return time.Duration(c.PageLoadTimeout) * time.Second
}

func (c *Config) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMillis) * time.Millisecond
}

func (c *Config) ItemDelay() time.Duration {
	return time.Duration(c.ItemDelayMillis) * time.Millisecond
}

func (c *Config) DedupTTL() time.Duration {
	return time.Duration(c.DedupTTLHours) * time.Hour
}

func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLMinutes) * time.Minute
}
