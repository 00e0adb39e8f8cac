package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

const defaultConfigFile = "config.yaml"

// DefaultSecretKey signs tokens when SECRET_KEY is unset. Never use it in production.
const DefaultSecretKey = "ecoalerta-insecure-dev-key-change-in-production"

// Config holds every runtime setting of the API. Keys mirror the
// environment variable names in lower case.
type Config struct {
	AppEnv   string `koanf:"app_env"`
	GinMode  string `koanf:"gin_mode"`
	Port     string `koanf:"port"`
	LogLevel string `koanf:"log_level"`
	// LogFormat is "text" or "json".
	LogFormat string `koanf:"log_format"`

	DBDriver   string `koanf:"db_driver"`
	DBHost     string `koanf:"db_host"`
	DBPort     string `koanf:"db_port"`
	DBName     string `koanf:"db_name"`
	DBUser     string `koanf:"db_user"`
	DBPassword string `koanf:"db_password"`
	DBSSLMode  string `koanf:"db_sslmode"`
	DBPath     string `koanf:"db_path"`

	SecretKey       string        `koanf:"secret_key"`
	AccessTokenTTL  time.Duration `koanf:"access_token_ttl"`
	RefreshTokenTTL time.Duration `koanf:"refresh_token_ttl"`

	CORSAllowedOrigins string `koanf:"cors_allowed_origins"`
	FrontendURL        string `koanf:"frontend_url"`
	TrustedProxies     string `koanf:"trusted_proxies"`

	MediaRoot   string `koanf:"media_root"`
	MediaURL    string `koanf:"media_url"`
	MaxUploadMB int64  `koanf:"max_upload_mb"`

	PageSize               int     `koanf:"page_size"`
	RateLimitPerSecond     int     `koanf:"rate_limit_per_second"`
	AuthRateLimitPerMinute int     `koanf:"auth_rate_limit_per_minute"`
	HeatmapDefaultRadius   float64 `koanf:"heatmap_default_radius"`

	SeedInspectorPassword string `koanf:"seed_inspector_password"`
}

var defaults = map[string]any{
	"app_env":                    "development",
	"gin_mode":                   "debug",
	"port":                       "8000",
	"log_level":                  "info",
	"log_format":                 "text",
	"db_driver":                  "postgres",
	"db_host":                    "localhost",
	"db_port":                    "5432",
	"db_name":                    "postgres",
	"db_user":                    "postgres",
	"db_password":                "",
	"db_sslmode":                 "disable",
	"db_path":                    "ecoalerta.db",
	"secret_key":                 DefaultSecretKey,
	"access_token_ttl":           60 * time.Minute,
	"refresh_token_ttl":          24 * time.Hour,
	"cors_allowed_origins":       "http://localhost:5173,http://127.0.0.1:5173",
	"frontend_url":               "",
	"trusted_proxies":            "127.0.0.1",
	"media_root":                 "media",
	"media_url":                  "/media/",
	"max_upload_mb":              int64(10),
	"page_size":                  20,
	"rate_limit_per_second":      50,
	"auth_rate_limit_per_minute": 10,
	"heatmap_default_radius":     0.01,
	"seed_inspector_password":    "1234",
}

// Default returns the configuration built from the defaults only.
func Default() *Config {
	cfg, err := load(koanf.New("."), "")
	if err != nil {
		// defaults are static; a failure here is a programming error
		panic(err)
	}
	return cfg
}

// Load resolves the configuration: defaults, then the optional yaml file,
// then .env, then process environment variables.
func Load(configFile ...string) (*Config, error) {
	path := defaultConfigFile
	if len(configFile) > 0 && configFile[0] != "" {
		path = configFile[0]
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "load .env failed")
	}

	k := koanf.New(".")
	return load(k, path)
}

func load(k *koanf.Koanf, path string) (*Config, error) {
	for key, val := range defaults {
		if err := k.Set(key, val); err != nil {
			return nil, errors.Wrapf(err, "set default %s", key)
		}
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "read %s failed", path)
			}
		}

		if err := k.Load(env.Provider(".", env.Opt{
			TransformFunc: func(key, value string) (string, any) {
				key = strings.ToLower(key)
				if _, known := defaults[key]; !known {
					return "", nil
				}
				return key, value
			},
		}), nil); err != nil {
			return nil, errors.Wrap(err, "load env variables failed")
		}
	}

	cfg := new(Config)
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshal config failed")
	}
	return cfg, nil
}

// AllowedOrigins returns the CORS allow-list, including FrontendURL.
func (c *Config) AllowedOrigins() []string {
	origins := splitList(c.CORSAllowedOrigins)
	if c.FrontendURL != "" {
		origins = append(origins, strings.TrimRight(c.FrontendURL, "/"))
	}
	return origins
}

// Proxies returns the trusted reverse proxies.
func (c *Config) Proxies() []string {
	return splitList(c.TrustedProxies)
}

// IsProduction reports whether the service runs in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
