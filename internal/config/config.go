// Package config binds the application configuration from a YAML file with
// environment-variable overrides and sensible defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// AppConfig holds the complete application configuration
type AppConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Scraper ScraperConfig `yaml:"scraper"`
	Browser BrowserConfig `yaml:"browser"`
	Worker  WorkerConfig  `yaml:"worker"`
	Proxies ProxyConfig   `yaml:"proxies"`
	Store   StoreConfig   `yaml:"store"`
	Logging LogConfig     `yaml:"logging"`
}

// ServerConfig holds the HTTP API server configuration
type ServerConfig struct {
	Host string `yaml:"host" envconfig:"HOST"`
	Port string `yaml:"port" envconfig:"PORT"`
}

// ScraperConfig holds the scraper configuration
type ScraperConfig struct {
	Timeout           time.Duration `yaml:"timeout" envconfig:"SCRAPER_TIMEOUT"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"SCRAPER_MAX_RETRIES"`
	RetryDelay        time.Duration `yaml:"retry_delay" envconfig:"SCRAPER_RETRY_DELAY"`
	UserAgents        []string      `yaml:"user_agents,omitempty"`
	MaxBodySize       int64         `yaml:"max_body_size" envconfig:"SCRAPER_MAX_BODY_SIZE"`
	MaxURLLength      int           `yaml:"max_url_length" envconfig:"SCRAPER_MAX_URL_LENGTH"`
	AllowedSchemes    []string      `yaml:"allowed_schemes,omitempty"`
	EnableStatic      bool          `yaml:"enable_static" envconfig:"SCRAPER_ENABLE_STATIC"`
	EnableDynamic     bool          `yaml:"enable_dynamic" envconfig:"SCRAPER_ENABLE_DYNAMIC"`
	EnableScreenshots bool          `yaml:"enable_screenshots" envconfig:"SCRAPER_ENABLE_SCREENSHOTS"`
}

// BrowserConfig holds the headless-browser configuration for dynamic scraping
type BrowserConfig struct {
	Headless  bool          `yaml:"headless" envconfig:"BROWSER_HEADLESS"`
	UserAgent string        `yaml:"user_agent" envconfig:"BROWSER_USER_AGENT"`
	// WaitTime is the settle delay after navigation before reading the page.
	WaitTime time.Duration `yaml:"wait_time" envconfig:"BROWSER_WAIT_TIME"`
	// WaitTimeout bounds waiting for the extraction selector to appear.
	WaitTimeout time.Duration `yaml:"wait_timeout" envconfig:"BROWSER_WAIT_TIMEOUT"`
}

// WorkerConfig holds the batch worker pool configuration
type WorkerConfig struct {
	Workers   int           `yaml:"workers" envconfig:"WORKER_COUNT"`
	RateLimit time.Duration `yaml:"rate_limit" envconfig:"WORKER_RATE_LIMIT"`
	MaxURLs   int           `yaml:"max_urls" envconfig:"WORKER_MAX_URLS"`
}

// ProxyConfig holds the proxy configuration
type ProxyConfig struct {
	Enabled bool     `yaml:"enabled" envconfig:"PROXY_ENABLED"`
	Rotate  bool     `yaml:"rotate" envconfig:"PROXY_ROTATE"`
	List    []string `yaml:"list"`
	Auth    struct {
		Username string `yaml:"username" envconfig:"PROXY_USERNAME"`
		Password string `yaml:"password" envconfig:"PROXY_PASSWORD"`
	} `yaml:"auth"`
}

// StoreConfig holds the scrape-history persistence configuration
type StoreConfig struct {
	Enabled  bool   `yaml:"enabled" envconfig:"STORE_ENABLED"`
	URI      string `yaml:"uri" envconfig:"STORE_URI"`
	Database string `yaml:"database" envconfig:"STORE_DATABASE"`
}

// LogConfig holds the logging configuration
type LogConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Development bool   `yaml:"development" envconfig:"LOG_DEV"`
}

// Load reads configuration starting from the defaults, overlaying the YAML
// file (when given) and finally any environment variables.
func Load(filename string) (*AppConfig, error) {
	config := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := envconfig.Process("", config); err != nil {
		return nil, fmt.Errorf("applying environment overrides: %w", err)
	}

	if len(config.Scraper.UserAgents) == 0 {
		config.Scraper.UserAgents = DefaultUserAgents
	}
	if len(config.Scraper.AllowedSchemes) == 0 {
		config.Scraper.AllowedSchemes = DefaultAllowedSchemes
	}

	return config, nil
}

// Default creates the default configuration
func Default() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8000",
		},
		Scraper: ScraperConfig{
			Timeout:           30 * time.Second,
			MaxRetries:        3,
			RetryDelay:        2 * time.Second,
			UserAgents:        DefaultUserAgents,
			MaxBodySize:       10 * 1024 * 1024,
			MaxURLLength:      2048,
			AllowedSchemes:    DefaultAllowedSchemes,
			EnableStatic:      true,
			EnableDynamic:     true,
			EnableScreenshots: true,
		},
		Browser: BrowserConfig{
			Headless:    true,
			UserAgent:   DefaultUserAgents[0],
			WaitTime:    2 * time.Second,
			WaitTimeout: 5 * time.Second,
		},
		Worker: WorkerConfig{
			Workers:   3,
			RateLimit: time.Second,
			MaxURLs:   50,
		},
		Proxies: ProxyConfig{
			Enabled: false,
			Rotate:  true,
			List:    []string{},
		},
		Store: StoreConfig{
			Enabled:  false,
			URI:      "mongodb://localhost:27017",
			Database: "scrape_api",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}
