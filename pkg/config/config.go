package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Upstream struct {
	SearchURL string        `yaml:"searchURL" validate:"required,url"`
	TopURL    string        `yaml:"topURL" validate:"required,url"`
	Referer   string        `yaml:"referer,omitempty"`
	UserAgent string        `yaml:"userAgent,omitempty"`
	Timeout   time.Duration `yaml:"timeout" validate:"gt=0"`
}

type Images struct {
	Host  string `yaml:"host,omitempty"`
	Proxy string `yaml:"proxy,omitempty"`
}

type Redis struct {
	Addr     string `yaml:"addr,omitempty"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`
}

type Log struct {
	Level  string `yaml:"level" validate:"required"`
	Format string `yaml:"format" validate:"oneof=auto text json"`
}

type Config struct {
	Listen    string   `yaml:"listen" validate:"required"`
	CacheTime int      `yaml:"cacheTime" validate:"gt=0"`
	Upstream  Upstream `yaml:"upstream"`
	Images    Images   `yaml:"images,omitempty"`
	Redis     Redis    `yaml:"redis,omitempty"`
	Log       Log      `yaml:"log"`
}

// Default returns the settings used when neither a file nor the
// environment override them.
func Default() *Config {
	return &Config{
		Listen:    ":8080",
		CacheTime: 7200,
		Upstream: Upstream{
			SearchURL: "https://movie.douban.com/j/search_subjects",
			TopURL:    "https://movie.douban.com/top250",
			Referer:   "https://movie.douban.com/",
			UserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			Timeout:   10 * time.Second,
		},
		Images: Images{
			Host:  "doubanio.com",
			Proxy: "https://images.weserv.nl/?url=",
		},
		Log: Log{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load reads the yaml file at path on top of the defaults, applies
// environment overrides and validates the result. An empty path skips the
// file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		yamlFile, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
		}
		if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
			return nil, fmt.Errorf("syntax error in config file '%s': %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Listen = getenv("LISTEN", c.Listen)
	c.CacheTime = getenvInt("CACHE_TIME", c.CacheTime)
	if secs := getenvInt("HTTP_TIMEOUT", 0); secs > 0 {
		c.Upstream.Timeout = time.Duration(secs) * time.Second
	}
	c.Upstream.UserAgent = getenv("USER_AGENT", c.Upstream.UserAgent)
	c.Images.Proxy = getenv("IMAGE_PROXY", c.Images.Proxy)
	c.Redis.Addr = getenv("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = getenv("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getenvInt("REDIS_DB", c.Redis.DB)
	c.Log.Level = getenv("LOG_LEVEL", c.Log.Level)
	c.Log.Format = getenv("LOG_FORMAT", c.Log.Format)
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

func getenv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return n
}
