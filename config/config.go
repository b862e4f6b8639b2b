package config

import (
	"fmt"
	"sort"
	"time"
)

type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	JWT           JWTConfig
	Admin         AdminConfig
	ContentSafety ContentSafetyConfig
	TextAnalytics TextAnalyticsConfig
	Cache         CacheConfig
	Pipeline      PipelineConfig
}

type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	GinMode        string   `mapstructure:"gin_mode"`
	Env            string   `mapstructure:"env"`
	LogLevel       string   `mapstructure:"log_level"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// DatabaseConfig accepts either a full URL or the individual fields
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
}

// DSN builds the postgres connection string
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode)
}

type JWTConfig struct {
	Secret      string `mapstructure:"secret"`
	ExpiryHours int    `mapstructure:"expiry_hours"`
}

// AdminConfig holds the single moderator account. PasswordHash is a bcrypt hash.
type AdminConfig struct {
	Username     string `mapstructure:"username"`
	PasswordHash string `mapstructure:"password_hash"`
}

type ContentSafetyConfig struct {
	Endpoint          string        `mapstructure:"endpoint"`
	APIKey            string        `mapstructure:"api_key"`
	SeverityThreshold int           `mapstructure:"severity_threshold"`
	Timeout           time.Duration `mapstructure:"timeout"`
}

type TextAnalyticsConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	APIKey   string        `mapstructure:"api_key"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the analysis memo cache. Backend is "memory" or "redis".
type CacheConfig struct {
	Backend       string        `mapstructure:"backend"`
	TTL           time.Duration `mapstructure:"ttl"`
	RedisAddr     string        `mapstructure:"redis_addr"`
	RedisPassword string        `mapstructure:"redis_password"`
	RedisDB       int           `mapstructure:"redis_db"`
}

type PipelineConfig struct {
	MinLength       int           `mapstructure:"min_length"`
	MaxLength       int           `mapstructure:"max_length"`
	StoreRetryDelay time.Duration `mapstructure:"store_retry_delay"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
	ReviewInterval  time.Duration `mapstructure:"review_interval"`
	StaleAfter      time.Duration `mapstructure:"stale_after"`
}

// Load resolves every section once. Endpoints, keys and secrets have no
// defaults and must come from one of the provider's sources.
func Load(p *Provider) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:           "8080",
			GinMode:        "debug",
			Env:            "development",
			LogLevel:       "info",
			AllowedOrigins: []string{"*"},
		},
		Database: DatabaseConfig{
			Port:    "5432",
			SSLMode: "disable",
		},
		JWT: JWTConfig{ExpiryHours: 24},
		ContentSafety: ContentSafetyConfig{
			SeverityThreshold: 4,
			Timeout:           10 * time.Second,
		},
		TextAnalytics: TextAnalyticsConfig{Timeout: 10 * time.Second},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     time.Hour,
		},
		Pipeline: PipelineConfig{
			MinLength:       10,
			MaxLength:       1000,
			StoreRetryDelay: time.Second,
			RateLimit:       2,
			RateBurst:       10,
			ReviewInterval:  5 * time.Minute,
			StaleAfter:      24 * time.Hour,
		},
	}

	sections := []struct {
		name     string
		out      interface{}
		optional []string
	}{
		{"server", &cfg.Server, []string{"port", "gin_mode", "env", "log_level", "allowed_origins"}},
		{"db", &cfg.Database, []string{"url", "host", "port", "user", "password", "name", "ssl_mode"}},
		{"jwt", &cfg.JWT, []string{"expiry_hours"}},
		{"admin", &cfg.Admin, nil},
		{"content_safety", &cfg.ContentSafety, []string{"severity_threshold", "timeout"}},
		{"text_analytics", &cfg.TextAnalytics, []string{"timeout"}},
		{"cache", &cfg.Cache, []string{"backend", "ttl", "redis_addr", "redis_password", "redis_db"}},
		{"pipeline", &cfg.Pipeline, []string{
			"min_length", "max_length", "store_retry_delay", "rate_limit",
			"rate_burst", "review_interval", "stale_after",
		}},
	}
	for _, s := range sections {
		if err := p.Section(s.name, s.out, s.optional...); err != nil {
			return nil, err
		}
	}

	if cfg.Database.URL == "" {
		var missing []string
		for key, v := range map[string]string{
			"db.host": cfg.Database.Host, "db.name": cfg.Database.Name,
			"db.password": cfg.Database.Password, "db.user": cfg.Database.User,
		} {
			if v == "" {
				missing = append(missing, key)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return nil, &MissingConfigError{Section: "db", Keys: missing, Sources: p.sourceNames()}
		}
	}

	switch cfg.Cache.Backend {
	case "memory":
	case "redis":
		if cfg.Cache.RedisAddr == "" {
			return nil, &MissingConfigError{
				Section: "cache",
				Keys:    []string{"cache.redis_addr"},
				Sources: p.sourceNames(),
			}
		}
	default:
		return nil, fmt.Errorf("cache.backend: unsupported value %q", cfg.Cache.Backend)
	}
	if cfg.Pipeline.MinLength < 1 || cfg.Pipeline.MaxLength < cfg.Pipeline.MinLength {
		return nil, fmt.Errorf("pipeline: invalid content bounds [%d, %d]",
			cfg.Pipeline.MinLength, cfg.Pipeline.MaxLength)
	}

	return cfg, nil
}

// DefaultProvider layers a secrets directory over the environment over a YAML file
func DefaultProvider(secretsDir, file string) (*Provider, error) {
	fs, err := NewFileSource(file)
	if err != nil {
		return nil, err
	}
	return NewProvider(SecretsDirSource{Dir: secretsDir}, EnvSource{}, fs), nil
}
