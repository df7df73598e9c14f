// Package config handles application configuration loading from YAML files and environment variables.
package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	contextutils "hirequiz/internal/utils"

	"gopkg.in/yaml.v3"
)

// ProviderConfig defines the structure for a single completion provider
type ProviderConfig struct {
	Name string `json:"name" yaml:"name"`
	Code string `json:"code" yaml:"code"`
	URL  string `json:"url,omitempty" yaml:"url,omitempty"`
	// SupportsSchema reports whether the provider accepts a schema constraint
	// on the completion request. Providers without it get prompt-embedded
	// structure guidance instead.
	SupportsSchema bool      `json:"supports_schema,omitempty" yaml:"supports_schema,omitempty"`
	APIKey         string    `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Models         []AIModel `json:"models" yaml:"models"`
}

// AIModel represents an AI model configuration
type AIModel struct {
	Name      string `json:"name" yaml:"name"`
	Code      string `json:"code" yaml:"code"`
	MaxTokens int    `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
}

// GenerationConfig holds the retry, timeout and fallback policy for the
// generation executor. It is constructed once and never mutated afterward;
// the service treats it as read-only and shares it across concurrent calls.
type GenerationConfig struct {
	// MaxRetries is the number of extra attempts after the first failure.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
	// RetryDelay is the delay before the first retry; each further retry
	// doubles it.
	RetryDelay time.Duration `json:"retry_delay" yaml:"retry_delay"`
	// Timeout bounds each individual generation attempt, not the whole
	// operation. Worst-case wall clock is roughly (MaxRetries+1) * Timeout
	// per model in the fallback chain.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
	// DefaultModel is used when a request carries no explicit model.
	DefaultModel string `json:"default_model" yaml:"default_model"`
	// FallbackModels are tried in order after the requested model exhausts
	// its retry budget.
	FallbackModels []string `json:"fallback_models" yaml:"fallback_models"`
	// Locale controls the language of generated question text and of
	// user-facing error messages. JSON keys stay English regardless.
	Locale string `json:"locale" yaml:"locale"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Port                     string   `json:"port" yaml:"port"`
	Debug                    bool     `json:"debug" yaml:"debug"`
	LogLevel                 string   `json:"log_level" yaml:"log_level"`
	CORSOrigins              []string `json:"cors_origins" yaml:"cors_origins"`
	MaxConcurrentGenerations int      `json:"max_concurrent_generations" yaml:"max_concurrent_generations"`
	MaxPerCaller             int      `json:"max_per_caller" yaml:"max_per_caller"`
}

// OpenTelemetryConfig holds all OpenTelemetry-related configuration
type OpenTelemetryConfig struct {
	Endpoint       string            `json:"endpoint" yaml:"endpoint"`
	Protocol       string            `json:"protocol" yaml:"protocol"` // "grpc" or "http"
	Insecure       bool              `json:"insecure" yaml:"insecure"`
	Headers        map[string]string `json:"headers" yaml:"headers"`
	ServiceName    string            `json:"service_name" yaml:"service_name"`
	ServiceVersion string            `json:"service_version" yaml:"service_version"`
	EnableTracing  bool              `json:"enable_tracing" yaml:"enable_tracing"`
	EnableMetrics  bool              `json:"enable_metrics" yaml:"enable_metrics"`
	EnableLogging  bool              `json:"enable_logging" yaml:"enable_logging"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"`
}

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `json:"server" yaml:"server"`

	// Completion providers, in no particular order. The first provider whose
	// model list contains a requested model serves that model.
	Providers []ProviderConfig `json:"providers" yaml:"providers"`

	Generation GenerationConfig `json:"generation" yaml:"generation"`

	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// ProviderForModel returns the provider configuration serving the given model
// code, or nil when no configured provider lists it.
func (c *Config) ProviderForModel(model string) *ProviderConfig {
	for i := range c.Providers {
		for _, m := range c.Providers[i].Models {
			if m.Code == model {
				return &c.Providers[i]
			}
		}
	}
	return nil
}

// MaxTokensForModel returns the configured token limit for a model, falling
// back to DefaultMaxTokens when none is configured.
func (c *Config) MaxTokensForModel(model string) int {
	for i := range c.Providers {
		for _, m := range c.Providers[i].Models {
			if m.Code == model && m.MaxTokens > 0 {
				return m.MaxTokens
			}
		}
	}
	return DefaultMaxTokens
}

// applyDefaults fills zero values with the package defaults so a partially
// specified YAML file still yields a usable configuration.
func (c *Config) applyDefaults() {
	if c.Generation.MaxRetries == 0 {
		c.Generation.MaxRetries = DefaultMaxRetries
	}
	if c.Generation.RetryDelay == 0 {
		c.Generation.RetryDelay = DefaultRetryDelay
	}
	if c.Generation.Timeout == 0 {
		c.Generation.Timeout = GenerationRequestTimeout
	}
	if c.Generation.Locale == "" {
		c.Generation.Locale = "it"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.MaxConcurrentGenerations == 0 {
		c.Server.MaxConcurrentGenerations = DefaultMaxConcurrentGenerations
	}
	if c.Server.MaxPerCaller == 0 {
		c.Server.MaxPerCaller = DefaultMaxPerCaller
	}
}

// NewConfig loads configuration from a YAML file first, then overrides with environment variables
func NewConfig() (result0 *Config, err error) {
	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	return config, nil
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnvWithPrefix(c, "")
}

// overrideStructFromEnvWithPrefix recursively overrides struct fields with environment variables
func overrideStructFromEnvWithPrefix(v interface{}, prefix string) {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Ptr {
		val = val.Elem()
	}

	if val.Kind() != reflect.Struct {
		return
	}

	typ := val.Type()
	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if !field.CanSet() {
			continue
		}

		yamlTag := fieldType.Tag.Get("yaml")
		if yamlTag == "" || yamlTag == "-" {
			continue
		}
		yamlTag = strings.Split(yamlTag, ",")[0]

		envKey := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
		if prefix != "" {
			envKey = prefix + "_" + envKey
		}

		switch field.Kind() {
		case reflect.String:
			if envVal := os.Getenv(envKey); envVal != "" {
				field.SetString(envVal)
			}
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if envVal := os.Getenv(envKey); envVal != "" {
				// time.Duration fields accept "30s" style values
				if field.Type() == reflect.TypeOf(time.Duration(0)) {
					if d, err := time.ParseDuration(envVal); err == nil {
						field.SetInt(int64(d))
						continue
					}
				}
				if intVal, err := strconv.ParseInt(envVal, 10, 64); err == nil {
					field.SetInt(intVal)
				}
			}
		case reflect.Float32, reflect.Float64:
			if envVal := os.Getenv(envKey); envVal != "" {
				if floatVal, err := strconv.ParseFloat(envVal, 64); err == nil {
					field.SetFloat(floatVal)
				}
			}
		case reflect.Bool:
			if envVal := os.Getenv(envKey); envVal != "" {
				if boolVal, err := strconv.ParseBool(envVal); err == nil {
					field.SetBool(boolVal)
				}
			}
		case reflect.Slice:
			if envVal := os.Getenv(envKey); envVal != "" {
				if field.Type().Elem().Kind() == reflect.String {
					slice := strings.Split(envVal, ",")
					field.Set(reflect.ValueOf(slice))
				}
			}
		case reflect.Struct:
			if field.CanAddr() {
				fieldPrefix := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
				if prefix != "" {
					fieldPrefix = prefix + "_" + fieldPrefix
				}
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), fieldPrefix)
			}
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				fieldPrefix := strings.ToUpper(strings.ReplaceAll(yamlTag, "-", "_"))
				if prefix != "" {
					fieldPrefix = prefix + "_" + fieldPrefix
				}
				overrideStructFromEnvWithPrefix(field.Interface(), fieldPrefix)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file with potential local overrides
func loadConfigWithOverrides() (result0 *Config, err error) {
	if envPath := os.Getenv("HIREQUIZ_CONFIG_FILE"); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	return loadConfigFromFile("config.yaml")
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (result0 *Config, err error) {
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var config Config
	if err := yaml.Unmarshal(yamlFile, &config); err != nil {
		return nil, err
	}

	return &config, nil
}
