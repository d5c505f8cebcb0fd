package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding config keys,
// e.g. ADMINKIT_API_BASE_URL for api.base_url.
const EnvPrefix = "ADMINKIT"

// Config represents the complete adminkit configuration
type Config struct {
	API        APIConfig        `mapstructure:"api" yaml:"api"`
	Loader     LoaderConfig     `mapstructure:"loader" yaml:"loader"`
	Navigation NavigationConfig `mapstructure:"navigation" yaml:"navigation"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Theme      ThemeConfig      `mapstructure:"theme" yaml:"theme"`
}

// APIConfig controls the API client
type APIConfig struct {
	// BaseURL is prepended to relative endpoints
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
	// Timeout bounds each request attempt (0 = no timeout)
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
	// Retries is the number of extra attempts after a retryable failure
	Retries int `mapstructure:"retries" yaml:"retries"`
	// RetryBaseDelay is the backoff base; attempt n waits base * 2^n
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	// Cache controls GET response caching
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`
	// Security controls default headers and CSRF handling
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
	// RateLimit throttles outgoing requests
	RateLimit RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// CacheConfig controls the response cache
type CacheConfig struct {
	// TTL is how long a cached response stays fresh
	TTL time.Duration `mapstructure:"ttl" yaml:"ttl"`
	// Size bounds the number of cached responses
	Size int `mapstructure:"size" yaml:"size"`
}

// SecurityConfig controls request security settings
type SecurityConfig struct {
	// Headers are sent with every request. Keys are case-insensitive.
	Headers map[string]string `mapstructure:"headers" yaml:"headers"`
	CSRF    CSRFConfig        `mapstructure:"csrf" yaml:"csrf"`
}

// CSRFConfig controls CSRF token acquisition
type CSRFConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Endpoint returns the token, relative to the base URL
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
	// Header carries the token on requests
	Header string `mapstructure:"header" yaml:"header"`
	// Field is the JSON field holding the token in the endpoint response
	Field string `mapstructure:"field" yaml:"field"`
}

// RateLimitConfig throttles outgoing requests
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate (0 = unlimited)
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// LoaderConfig controls loading indicators
type LoaderConfig struct {
	// DefaultTimeout hides a loader that was never hidden (0 = never)
	DefaultTimeout time.Duration `mapstructure:"default_timeout" yaml:"default_timeout"`
}

// NavigationConfig describes the sidebar navigation
type NavigationConfig struct {
	// Home is the title of the first breadcrumb
	Home  string    `mapstructure:"home" yaml:"home"`
	Items []NavItem `mapstructure:"items" yaml:"items"`
}

// NavItem is a navigation entry
type NavItem struct {
	Path     string    `mapstructure:"path" yaml:"path"`
	Title    string    `mapstructure:"title" yaml:"title"`
	Icon     string    `mapstructure:"icon" yaml:"icon,omitempty"`
	Children []NavItem `mapstructure:"children" yaml:"children,omitempty"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled writes logs to a file in Dir (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the minimum log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the log directory (default: the config directory)
	Dir string `mapstructure:"dir" yaml:"dir,omitempty"`
}

// ThemeConfig controls terminal presentation
type ThemeConfig struct {
	// Name of a built-in theme (default: "default")
	Name string `mapstructure:"name" yaml:"name"`
	// File is an optional YAML theme file overriding Name
	File string `mapstructure:"file" yaml:"file,omitempty"`
}

// ResolveDir returns the log directory, defaulting to the config directory.
func (l *LoggingConfig) ResolveDir() string {
	if l.Dir == "" {
		return ConfigDir()
	}
	return l.Dir
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "http://localhost:8080/api",
			Timeout:        30 * time.Second,
			Retries:        3,
			RetryBaseDelay: time.Second,
			Cache: CacheConfig{
				TTL:  5 * time.Minute,
				Size: 256,
			},
			Security: SecurityConfig{
				Headers: map[string]string{
					"accept":           "application/json",
					"x-requested-with": "XMLHttpRequest",
				},
				CSRF: CSRFConfig{
					Enabled:  false,
					Endpoint: "/csrf-token",
					Header:   "X-CSRF-Token",
					Field:    "csrfToken",
				},
			},
			RateLimit: RateLimitConfig{
				RequestsPerSecond: 0, // Unlimited
				Burst:             1,
			},
		},
		Loader: LoaderConfig{
			DefaultTimeout: 30 * time.Second,
		},
		Navigation: NavigationConfig{
			Home:  "Home",
			Items: []NavItem{},
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
		},
		Theme: ThemeConfig{
			Name: "default",
		},
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// API defaults
	viper.SetDefault("api.base_url", defaults.API.BaseURL)
	viper.SetDefault("api.timeout", defaults.API.Timeout)
	viper.SetDefault("api.retries", defaults.API.Retries)
	viper.SetDefault("api.retry_base_delay", defaults.API.RetryBaseDelay)
	viper.SetDefault("api.cache.ttl", defaults.API.Cache.TTL)
	viper.SetDefault("api.cache.size", defaults.API.Cache.Size)
	viper.SetDefault("api.security.headers", defaults.API.Security.Headers)
	viper.SetDefault("api.security.csrf.enabled", defaults.API.Security.CSRF.Enabled)
	viper.SetDefault("api.security.csrf.endpoint", defaults.API.Security.CSRF.Endpoint)
	viper.SetDefault("api.security.csrf.header", defaults.API.Security.CSRF.Header)
	viper.SetDefault("api.security.csrf.field", defaults.API.Security.CSRF.Field)
	viper.SetDefault("api.rate_limit.requests_per_second", defaults.API.RateLimit.RequestsPerSecond)
	viper.SetDefault("api.rate_limit.burst", defaults.API.RateLimit.Burst)

	// Loader defaults
	viper.SetDefault("loader.default_timeout", defaults.Loader.DefaultTimeout)

	// Navigation defaults
	viper.SetDefault("navigation.home", defaults.Navigation.Home)
	viper.SetDefault("navigation.items", defaults.Navigation.Items)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	// Theme defaults
	viper.SetDefault("theme.name", defaults.Theme.Name)
	viper.SetDefault("theme.file", defaults.Theme.File)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// Watch re-loads the configuration whenever the config file changes and
// passes the result to onChange. A file that fails to load or validate is
// reported through err and cfg is nil.
func Watch(onChange func(cfg *Config, err error)) {
	viper.OnConfigChange(func(fsnotify.Event) {
		onChange(Load())
	})
	viper.WatchConfig()
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "adminkit")
	}
	// Fall back to ~/.config/adminkit
	home, err := os.UserHomeDir()
	if err != nil {
		return ".adminkit"
	}
	return filepath.Join(home, ".config", "adminkit")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
