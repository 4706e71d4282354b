// Package config handles application configuration loading from a YAML file
// with environment variable overrides.
package config

import (
	"os"
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	contextutils "translatorapp/internal/utils"

	"gopkg.in/yaml.v3"
)

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Port          string   `json:"port" yaml:"port"`
	SessionSecret string   `json:"session_secret" yaml:"session_secret"`
	Debug         bool     `json:"debug" yaml:"debug"`
	LogLevel      string   `json:"log_level" yaml:"log_level"`
	CORSOrigins   []string `json:"cors_origins" yaml:"cors_origins"`
}

// TranslationConfig configures the machine translation capability.
type TranslationConfig struct {
	// InferenceURL is the base URL of the OPUS-MT inference server.
	InferenceURL string `json:"inference_url" yaml:"inference_url"`
	// LanguageModels maps a base source language to its model identifier.
	LanguageModels map[string]string `json:"language_models" yaml:"language_models"`
	// FallbackModel is the multilingual-to-English model used when a
	// pair-specific model cannot be loaded.
	FallbackModel string `json:"fallback_model" yaml:"fallback_model"`
	// TargetLanguage is the fixed translation target.
	TargetLanguage string `json:"target_language" yaml:"target_language"`
	// MaxBatchBytes bounds the concatenated input length of one capability call.
	MaxBatchBytes int `json:"max_batch_bytes" yaml:"max_batch_bytes"`
	// MaxTextLength bounds the text accepted by the inline translate endpoints.
	MaxTextLength int `json:"max_text_length" yaml:"max_text_length"`
	// RequestTimeout bounds a single inference HTTP call.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// DetectionConfig configures the language detection capability.
type DetectionConfig struct {
	// Provider selects "llm" (Groq, OpenAI-compatible) or "heuristic".
	Provider string `json:"provider" yaml:"provider"`
	APIKey   string `json:"api_key" yaml:"api_key"`
	BaseURL  string `json:"base_url" yaml:"base_url"`
	Model    string `json:"model" yaml:"model"`
	// MaxSampleBytes bounds the text sample sent to the detector.
	MaxSampleBytes int `json:"max_sample_bytes" yaml:"max_sample_bytes"`
}

// StorageConfig configures upload and artifact directories.
type StorageConfig struct {
	UploadDir   string `json:"upload_dir" yaml:"upload_dir"`
	ArtifactDir string `json:"artifact_dir" yaml:"artifact_dir"`
	// MaxUploadBytes bounds the accepted upload size.
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes"`
	// ArtifactRetention is how long artifacts are kept before the cleanup
	// sweep removes them.
	ArtifactRetention time.Duration `json:"artifact_retention" yaml:"artifact_retention"`
	// CleanupInterval is how often the retention sweep runs.
	CleanupInterval time.Duration `json:"cleanup_interval" yaml:"cleanup_interval"`
}

// SessionConfig configures the live-typing incremental sessions.
type SessionConfig struct {
	// IdleTimeout is the inactivity window after which a live session is dropped.
	IdleTimeout time.Duration `json:"idle_timeout" yaml:"idle_timeout"`
	// SweepInterval is how often expired sessions are collected.
	SweepInterval time.Duration `json:"sweep_interval" yaml:"sweep_interval"`
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
	UseAutoSDK     bool              `json:"use_auto_sdk" yaml:"use_auto_sdk"`
	SamplingRate   float64           `json:"sampling_rate" yaml:"sampling_rate"`
}

// Config holds all configuration for the application
type Config struct {
	Server        ServerConfig        `json:"server" yaml:"server"`
	Translation   TranslationConfig   `json:"translation" yaml:"translation"`
	Detection     DetectionConfig     `json:"detection" yaml:"detection"`
	Storage       StorageConfig       `json:"storage" yaml:"storage"`
	Session       SessionConfig       `json:"session" yaml:"session"`
	OpenTelemetry OpenTelemetryConfig `json:"open_telemetry" yaml:"open_telemetry"`

	// Internal fields
	IsTest bool `json:"is_test" yaml:"is_test"`
}

// SupportedLanguages returns the base language codes with a dedicated model,
// sorted for stable output.
func (c *Config) SupportedLanguages() []string {
	langs := make([]string, 0, len(c.Translation.LanguageModels))
	for lang := range c.Translation.LanguageModels {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// ModelForLanguage returns the model identifier for a base source language
// and whether a dedicated model exists for it.
func (c *Config) ModelForLanguage(lang string) (string, bool) {
	model, ok := c.Translation.LanguageModels[lang]
	return model, ok
}

// NewConfig loads configuration from the YAML file first, then overrides
// with environment variables, then applies defaults for anything unset.
func NewConfig() (*Config, error) {
	config, err := loadConfigWithOverrides()
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config: %w", err)
	}

	config.overrideFromEnv()
	config.applyDefaults()

	return config, nil
}

// applyDefaults fills zero values with working defaults so the service can
// start from an empty config file.
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = "info"
	}
	if c.Server.SessionSecret == "" {
		c.Server.SessionSecret = "dev-secret-key"
	}
	if c.Translation.InferenceURL == "" {
		c.Translation.InferenceURL = "http://localhost:8000"
	}
	if c.Translation.TargetLanguage == "" {
		c.Translation.TargetLanguage = "en"
	}
	if c.Translation.FallbackModel == "" {
		c.Translation.FallbackModel = "opus-mt-mul-en"
	}
	if len(c.Translation.LanguageModels) == 0 {
		c.Translation.LanguageModels = map[string]string{
			"pt": "opus-mt-pt-en",
			"es": "opus-mt-es-en",
			"fr": "opus-mt-fr-en",
			"de": "opus-mt-de-en",
			"it": "opus-mt-it-en",
		}
	}
	if c.Translation.MaxBatchBytes <= 0 {
		c.Translation.MaxBatchBytes = 1800
	}
	if c.Translation.MaxTextLength <= 0 {
		c.Translation.MaxTextLength = 20000
	}
	if c.Translation.RequestTimeout <= 0 {
		c.Translation.RequestTimeout = 60 * time.Second
	}
	if c.Detection.Provider == "" {
		if c.Detection.APIKey != "" {
			c.Detection.Provider = "llm"
		} else {
			c.Detection.Provider = "heuristic"
		}
	}
	if c.Detection.BaseURL == "" {
		c.Detection.BaseURL = "https://api.groq.com/openai/v1"
	}
	if c.Detection.Model == "" {
		c.Detection.Model = "llama-3.1-8b-instant"
	}
	if c.Detection.MaxSampleBytes <= 0 {
		c.Detection.MaxSampleBytes = 1000
	}
	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = "uploads"
	}
	if c.Storage.ArtifactDir == "" {
		c.Storage.ArtifactDir = "uploads"
	}
	if c.Storage.MaxUploadBytes <= 0 {
		c.Storage.MaxUploadBytes = 16 << 20
	}
	if c.Storage.ArtifactRetention <= 0 {
		c.Storage.ArtifactRetention = 24 * time.Hour
	}
	if c.Storage.CleanupInterval <= 0 {
		c.Storage.CleanupInterval = time.Hour
	}
	if c.Session.IdleTimeout <= 0 {
		c.Session.IdleTimeout = 10 * time.Minute
	}
	if c.Session.SweepInterval <= 0 {
		c.Session.SweepInterval = time.Minute
	}
	if c.OpenTelemetry.ServiceName == "" {
		c.OpenTelemetry.ServiceName = "translator-backend"
	}
	if c.OpenTelemetry.Protocol == "" {
		c.OpenTelemetry.Protocol = "grpc"
	}
	if c.OpenTelemetry.SamplingRate == 0 {
		c.OpenTelemetry.SamplingRate = 1.0
	}
}

// overrideFromEnv overrides config values with environment variables using reflection
func (c *Config) overrideFromEnv() {
	overrideStructFromEnvWithPrefix(c, "")
}

// overrideStructFromEnvWithPrefix recursively overrides struct fields with
// environment variables derived from the yaml tags (SECTION_FIELD form).
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
				// time.Duration fields accept "10m" style values
				if field.Type() == reflect.TypeOf(time.Duration(0)) {
					if d, err := time.ParseDuration(envVal); err == nil {
						field.SetInt(int64(d))
					}
					continue
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
				overrideStructFromEnvWithPrefix(field.Addr().Interface(), envKey)
			}
		case reflect.Ptr:
			if !field.IsNil() && field.Elem().Kind() == reflect.Struct {
				overrideStructFromEnvWithPrefix(field.Interface(), envKey)
			}
		}
	}
}

// loadConfigWithOverrides loads the config file, honoring TRANSLATOR_CONFIG_FILE.
func loadConfigWithOverrides() (*Config, error) {
	if envPath := os.Getenv("TRANSLATOR_CONFIG_FILE"); envPath != "" {
		config, err := loadConfigFromFile(envPath)
		if err != nil {
			return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to load config from %s: %w", envPath, err)
		}
		return config, nil
	}

	// Missing default config.yaml is fine: defaults + env cover everything.
	config, err := loadConfigFromFile("config.yaml")
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	return config, nil
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
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
