package config

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "api.cache.ttl")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// ValidLogLevels returns the list of valid log levels
func ValidLogLevels() []string {
	return []string{"debug", "info", "warn", "error"}
}

// Limits enforced by Validate.
const (
	maxRetries   = 10
	maxCacheSize = 100000
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateAPI()...)
	errors = append(errors, c.validateLoader()...)
	errors = append(errors, c.validateNavigation()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateTheme()...)

	return errors
}

// validateAPI validates the APIConfig
func (c *Config) validateAPI() []ValidationError {
	var errors []ValidationError
	api := c.API

	if api.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   api.BaseURL,
			Message: "must not be empty",
		})
	} else if u, err := url.Parse(api.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   api.BaseURL,
			Message: fmt.Sprintf("is not a valid URL: %v", err),
		})
	} else if !u.IsAbs() && !strings.HasPrefix(api.BaseURL, "/") {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   api.BaseURL,
			Message: "must be an absolute URL or start with /",
		})
	} else if u.IsAbs() && u.Scheme != "http" && u.Scheme != "https" {
		errors = append(errors, ValidationError{
			Field:   "api.base_url",
			Value:   api.BaseURL,
			Message: "scheme must be http or https",
		})
	}

	if api.Timeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "api.timeout",
			Value:   api.Timeout,
			Message: "must be non-negative",
		})
	}

	if api.Retries < 0 || api.Retries > maxRetries {
		errors = append(errors, ValidationError{
			Field:   "api.retries",
			Value:   api.Retries,
			Message: fmt.Sprintf("must be between 0 and %d", maxRetries),
		})
	}

	if api.RetryBaseDelay < 0 {
		errors = append(errors, ValidationError{
			Field:   "api.retry_base_delay",
			Value:   api.RetryBaseDelay,
			Message: "must be non-negative",
		})
	}

	if api.Cache.TTL < 0 {
		errors = append(errors, ValidationError{
			Field:   "api.cache.ttl",
			Value:   api.Cache.TTL,
			Message: "must be non-negative",
		})
	}

	// Zero falls back to the client default
	if api.Cache.Size < 0 || api.Cache.Size > maxCacheSize {
		errors = append(errors, ValidationError{
			Field:   "api.cache.size",
			Value:   api.Cache.Size,
			Message: fmt.Sprintf("must be between 0 and %d", maxCacheSize),
		})
	}

	errors = append(errors, c.validateCSRF()...)

	if api.RateLimit.RequestsPerSecond < 0 {
		errors = append(errors, ValidationError{
			Field:   "api.rate_limit.requests_per_second",
			Value:   api.RateLimit.RequestsPerSecond,
			Message: "must be non-negative",
		})
	}
	if api.RateLimit.RequestsPerSecond > 0 && api.RateLimit.Burst < 1 {
		errors = append(errors, ValidationError{
			Field:   "api.rate_limit.burst",
			Value:   api.RateLimit.Burst,
			Message: "must be at least 1 when rate limiting is enabled",
		})
	}

	return errors
}

// validateCSRF validates the CSRFConfig
func (c *Config) validateCSRF() []ValidationError {
	csrf := c.API.Security.CSRF
	if !csrf.Enabled {
		return nil
	}

	var errors []ValidationError
	if csrf.Endpoint == "" {
		errors = append(errors, ValidationError{
			Field:   "api.security.csrf.endpoint",
			Value:   csrf.Endpoint,
			Message: "must not be empty when csrf is enabled",
		})
	}
	if csrf.Header == "" || strings.ContainsAny(csrf.Header, " \t:") {
		errors = append(errors, ValidationError{
			Field:   "api.security.csrf.header",
			Value:   csrf.Header,
			Message: "must be a valid header name",
		})
	}
	return errors
}

// validateLoader validates the LoaderConfig
func (c *Config) validateLoader() []ValidationError {
	var errors []ValidationError

	if c.Loader.DefaultTimeout < 0 {
		errors = append(errors, ValidationError{
			Field:   "loader.default_timeout",
			Value:   c.Loader.DefaultTimeout,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateNavigation validates the navigation items
func (c *Config) validateNavigation() []ValidationError {
	seen := make(map[string]bool)
	return validateNavItems(c.Navigation.Items, "navigation.items", seen)
}

func validateNavItems(items []NavItem, prefix string, seen map[string]bool) []ValidationError {
	var errors []ValidationError

	for i, it := range items {
		field := fmt.Sprintf("%s[%d]", prefix, i)
		if !strings.HasPrefix(it.Path, "/") {
			errors = append(errors, ValidationError{
				Field:   field + ".path",
				Value:   it.Path,
				Message: "must start with /",
			})
		} else if seen[it.Path] {
			errors = append(errors, ValidationError{
				Field:   field + ".path",
				Value:   it.Path,
				Message: "duplicate navigation path",
			})
		}
		seen[it.Path] = true

		if strings.TrimSpace(it.Title) == "" {
			errors = append(errors, ValidationError{
				Field:   field + ".title",
				Value:   it.Title,
				Message: "must not be empty",
			})
		}
		errors = append(errors, validateNavItems(it.Children, field+".children", seen)...)
	}

	return errors
}

// validateLogging validates the LoggingConfig
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// Validate log level
	if c.Logging.Level != "" && !slices.Contains(ValidLogLevels(), c.Logging.Level) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(ValidLogLevels(), ", ")),
		})
	}

	if strings.ContainsRune(c.Logging.Dir, '\x00') {
		errors = append(errors, ValidationError{
			Field:   "logging.dir",
			Value:   c.Logging.Dir,
			Message: "contains invalid null character",
		})
	}

	return errors
}

// validateTheme validates the ThemeConfig. Theme names are resolved by the
// styles package; only syntax is checked here.
func (c *Config) validateTheme() []ValidationError {
	var errors []ValidationError

	if c.Theme.Name != "" && strings.ContainsAny(c.Theme.Name, `/\ `) {
		errors = append(errors, ValidationError{
			Field:   "theme.name",
			Value:   c.Theme.Name,
			Message: "must not contain path separators or spaces",
		})
	}
	if c.Theme.File != "" && !strings.HasSuffix(c.Theme.File, ".yaml") && !strings.HasSuffix(c.Theme.File, ".yml") {
		errors = append(errors, ValidationError{
			Field:   "theme.file",
			Value:   c.Theme.File,
			Message: "must be a .yaml or .yml file",
		})
	}

	return errors
}
