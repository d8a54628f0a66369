package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const DefaultPath = "config.yaml"

type SelectorConfig struct {
	Quote  string `yaml:"quote"`
	Text   string `yaml:"text"`
	Author string `yaml:"author"`
	Next   string `yaml:"next"`
}

type SourceConfig struct {
	BaseURL   string         `yaml:"base_url"`
	Selectors SelectorConfig `yaml:"selectors"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeoutSec  int    `yaml:"read_timeout_sec"`
	WriteTimeoutSec int    `yaml:"write_timeout_sec"`
	Debug           bool   `yaml:"debug"`
}

type DBConfig struct {
	Connection  string `yaml:"connection"`
	Database    string `yaml:"database"`
	Collections struct {
		Runs string `yaml:"runs"`
	} `yaml:"collections"`
}

// Enabled reports whether run history should be persisted.
func (c DBConfig) Enabled() bool {
	return c.Connection != ""
}

type LogicConfig struct {
	TimeoutSec    int    `yaml:"timeout_sec"`
	UserAgent     string `yaml:"user_agent"`
	MaxHops       int    `yaml:"max_hops"`
	RespectRobots bool   `yaml:"respect_robots"`
	DelayMS       int    `yaml:"delay_ms"`
	// MaxBodyBytes caps one page body; 0 means unlimited.
	MaxBodyBytes int `yaml:"max_body_bytes"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

type SpiderConfig struct {
	Server ServerConfig `yaml:"server"`
	Source SourceConfig `yaml:"source"`
	Logic  LogicConfig  `yaml:"logic"`
	DB     DBConfig     `yaml:"db"`
	Log    LogConfig    `yaml:"log"`
}

func Default() *SpiderConfig {
	cfg := &SpiderConfig{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeoutSec:  10,
			WriteTimeoutSec: 120,
		},
		Source: SourceConfig{
			BaseURL: "http://quotes.toscrape.com/tag/",
			Selectors: SelectorConfig{
				Quote:  "div.quote",
				Text:   "span.text",
				Author: "small.author",
				Next:   "li.next > a",
			},
		},
		Logic: LogicConfig{
			TimeoutSec:    30,
			UserAgent:     "Mozilla/5.0 (compatible; QuoteSpider/1.0)",
			MaxHops:       10,
			RespectRobots: true,
			MaxBodyBytes:  16 << 20,
		},
		DB: DBConfig{
			Database: "quotes",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
	cfg.DB.Collections.Runs = "crawl_runs"
	return cfg
}

// LoadConfig reads path over the defaults and applies environment overrides.
// A missing file at DefaultPath is not an error.
func LoadConfig(path string) (*SpiderConfig, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *SpiderConfig) applyEnv() {
	if v := os.Getenv("QUOTES_BASE_URL"); v != "" {
		c.Source.BaseURL = v
	}
	if v := os.Getenv("QUOTES_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("QUOTES_MONGO_URI"); v != "" {
		c.DB.Connection = v
	}
	if v := os.Getenv("QUOTES_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *SpiderConfig) Validate() error {
	u, err := url.Parse(c.Source.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: source.base_url must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.Source.BaseURL)
	}

	sel := c.Source.Selectors
	if sel.Quote == "" || sel.Text == "" || sel.Author == "" || sel.Next == "" {
		return fmt.Errorf("%w: all source.selectors must be set", ErrInvalidConfig)
	}
	if c.Logic.TimeoutSec <= 0 {
		return fmt.Errorf("%w: logic.timeout_sec must be positive", ErrInvalidConfig)
	}
	// Listing URLs commonly redirect once to add a trailing slash.
	if c.Logic.MaxHops < 1 {
		return fmt.Errorf("%w: logic.max_hops must be at least 1", ErrInvalidConfig)
	}
	if c.Logic.DelayMS < 0 || c.Logic.MaxBodyBytes < 0 {
		return fmt.Errorf("%w: logic.delay_ms and logic.max_body_bytes must not be negative", ErrInvalidConfig)
	}
	if c.DB.Enabled() && (c.DB.Database == "" || c.DB.Collections.Runs == "") {
		return fmt.Errorf("%w: db.database and db.collections.runs are required when db.connection is set", ErrInvalidConfig)
	}
	return nil
}

var ErrInvalidConfig = errors.New("invalid config")
