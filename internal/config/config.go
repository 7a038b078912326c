package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Ayash-Bera/webgpt-analyzer/internal/extraction"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port      string
		RateLimit int
	}
	ChatGPT struct {
		BaseURL   string
		Timeout   time.Duration
		UserAgent string
	}
	Extraction struct {
		UsedResultsScope string
		MaxEmbeddedDepth int
	}
	Database struct {
		URL string
	}
	Redis struct {
		URL string
	}
	Log struct {
		Level string
	}
}

// Load reads config.yaml from the working directory if present, then the
// environment (server.port becomes SERVER_PORT).
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	return fromViper(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.rate_limit", 60)
	v.SetDefault("chatgpt.base_url", "https://chatgpt.com")
	v.SetDefault("chatgpt.timeout", "0s")
	v.SetDefault("chatgpt.user_agent", "")
	v.SetDefault("extraction.used_results_scope", string(extraction.ScopeAllTurns))
	v.SetDefault("extraction.max_embedded_depth", extraction.DefaultOptions().MaxEmbeddedDepth)
	v.SetDefault("database.url", "")
	v.SetDefault("redis.url", "")
	v.SetDefault("log.level", "info")
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	var config Config
	config.Server.Port = v.GetString("server.port")
	config.Server.RateLimit = v.GetInt("server.rate_limit")
	config.ChatGPT.BaseURL = v.GetString("chatgpt.base_url")
	config.ChatGPT.Timeout = v.GetDuration("chatgpt.timeout")
	config.ChatGPT.UserAgent = v.GetString("chatgpt.user_agent")
	config.Extraction.UsedResultsScope = v.GetString("extraction.used_results_scope")
	config.Extraction.MaxEmbeddedDepth = v.GetInt("extraction.max_embedded_depth")
	config.Database.URL = v.GetString("database.url")
	config.Redis.URL = v.GetString("redis.url")
	config.Log.Level = v.GetString("log.level")

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.RateLimit <= 0 {
		return fmt.Errorf("server.rate_limit must be positive, got %d", c.Server.RateLimit)
	}
	u, err := url.Parse(c.ChatGPT.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("chatgpt.base_url must be an absolute URL, got %q", c.ChatGPT.BaseURL)
	}
	if c.ChatGPT.Timeout < 0 {
		return fmt.Errorf("chatgpt.timeout cannot be negative")
	}
	if _, err := extraction.ParseUsedResultsScope(c.Extraction.UsedResultsScope); err != nil {
		return err
	}
	if c.Extraction.MaxEmbeddedDepth < 0 {
		return fmt.Errorf("extraction.max_embedded_depth cannot be negative")
	}
	return nil
}

// ExtractionOptions converts the extraction section into engine options.
func (c *Config) ExtractionOptions() extraction.Options {
	scope, _ := extraction.ParseUsedResultsScope(c.Extraction.UsedResultsScope)
	return extraction.Options{
		UsedResultsScope: scope,
		MaxEmbeddedDepth: c.Extraction.MaxEmbeddedDepth,
	}
}
