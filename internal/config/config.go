package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/gtracker/forum-backend/pkg/logger"
	"gopkg.in/yaml.v3"
)

// Config application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	JWT           JWTConfig           `yaml:"jwt"`
	CORS          CORSConfig          `yaml:"cors"`
	Storage       StorageConfig       `yaml:"storage"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
	SMTP          SMTPConfig          `yaml:"smtp"`
	External      ExternalConfig      `yaml:"external"`
	Profile       ProfileConfig       `yaml:"profile"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
}

// ServerConfig HTTP server settings
type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"` // debug, release, test
	Env  string `yaml:"env"`  // local, development, staging, production
}

// DatabaseConfig relational store settings
type DatabaseConfig struct {
	Driver          string `yaml:"driver"` // mysql, postgres, sqlite
	Host            string `yaml:"host"`
	Port            int    `yaml:"port"`
	User            string `yaml:"user"`
	Password        string `yaml:"password"`
	DBName          string `yaml:"dbname"`
	SSLMode         string `yaml:"sslmode"`
	Path            string `yaml:"path"` // sqlite file
	MaxIdleConns    int    `yaml:"max_idle_conns"`
	MaxOpenConns    int    `yaml:"max_open_conns"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime"` // seconds
}

// GetDSN builds the driver specific DSN
func (d DatabaseConfig) GetDSN() string {
	switch d.Driver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
			d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
	case "sqlite":
		return d.Path
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
			d.User, d.Password, d.Host, d.Port, d.DBName)
	}
}

// RedisConfig redis connection settings
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

// JWTConfig token settings
type JWTConfig struct {
	Secret    string `yaml:"secret"`
	ExpiresIn int    `yaml:"expires_in"` // seconds
}

// CORSConfig allowed origins, comma separated
type CORSConfig struct {
	AllowOrigins string `yaml:"allow_origins"`
}

// StorageConfig S3-compatible object storage
type StorageConfig struct {
	Enabled         bool   `yaml:"enabled"`
	Endpoint        string `yaml:"endpoint"`
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	CDNURL          string `yaml:"cdn_url"`
	BasePath        string `yaml:"base_path"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
}

// ElasticsearchConfig thread search index
type ElasticsearchConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Addresses []string `yaml:"addresses"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	Index     string   `yaml:"index"`
}

// SMTPConfig outbound email
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
	FromName string `yaml:"from_name"`
}

// ExternalConfig third-party catalog providers
type ExternalConfig struct {
	TMDBAPIKey     string `yaml:"tmdb_api_key"`
	TMDBBaseURL    string `yaml:"tmdb_base_url"`
	SteamBaseURL   string `yaml:"steam_base_url"`
	SteamAppIDPath string `yaml:"steam_appid_path"`
	CacheTTLDays   int    `yaml:"cache_ttl_days"`
}

// ProfileConfig default media for new profiles
type ProfileConfig struct {
	DefaultAvatarURL string `yaml:"default_avatar_url"`
	DefaultBannerURL string `yaml:"default_banner_url"`
}

// RateLimitConfig per-IP request budget
type RateLimitConfig struct {
	Enabled           bool `yaml:"enabled"`
	RequestsPerMinute int  `yaml:"requests_per_minute"`
}

// IsDevelopment reports whether the server runs in a local/dev environment
func (c *Config) IsDevelopment() bool {
	switch c.Server.Env {
	case "", "local", "dev", "development":
		return true
	}
	return false
}

// Load reads a YAML config file, expanding ${VAR} references from the environment
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()

	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("jwt.secret is required")
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3001
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 50
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 300
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 10
	}
	if c.JWT.ExpiresIn == 0 {
		c.JWT.ExpiresIn = 7 * 24 * 3600
	}
	if c.Elasticsearch.Index == "" {
		c.Elasticsearch.Index = "threads"
	}
	if c.External.TMDBBaseURL == "" {
		c.External.TMDBBaseURL = "https://api.themoviedb.org/3"
	}
	if c.External.SteamBaseURL == "" {
		c.External.SteamBaseURL = "https://store.steampowered.com/api"
	}
	if c.External.SteamAppIDPath == "" {
		c.External.SteamAppIDPath = "data/appid.json"
	}
	if c.External.CacheTTLDays == 0 {
		c.External.CacheTTLDays = 30
	}
	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 120
	}
}

// LogResolved prints the effective configuration without secrets
func LogResolved(cfg *Config) {
	logger.GetLogger().Info().
		Str("env", cfg.Server.Env).
		Int("port", cfg.Server.Port).
		Str("db_driver", cfg.Database.Driver).
		Str("db_host", cfg.Database.Host).
		Str("db_name", cfg.Database.DBName).
		Str("redis", fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)).
		Bool("storage", cfg.Storage.Enabled).
		Bool("elasticsearch", cfg.Elasticsearch.Enabled).
		Bool("smtp", cfg.SMTP.Host != "").
		Bool("tmdb_key", cfg.External.TMDBAPIKey != "").
		Str("cors", strings.TrimSpace(cfg.CORS.AllowOrigins)).
		Msg("config resolved")
}
