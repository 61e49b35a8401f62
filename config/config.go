package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"inference-gateway/models"

	"github.com/joho/godotenv"
)

const (
	BackendHuggingFace = "huggingface"
	BackendStub        = "stub"
)

// defaultModels are the hosted models each task kind is dispatched to
// unless HF_MODEL_<TASK> overrides them.
var defaultModels = map[models.TaskKind]string{
	models.KindTextToImage:     "stabilityai/stable-diffusion-xl-base-1.0",
	models.KindImageToImage:    "stabilityai/stable-diffusion-xl-refiner-1.0",
	models.KindObjectDetection: "facebook/detr-resnet-50",
	models.KindVisualQA:        "dandelin/vilt-b32-finetuned-vqa",
	models.KindSpeechToText:    "openai/whisper-large-v3",
	models.KindTextToSpeech:    "espnet/kan-bayashi_ljspeech_vits",
	models.KindTranslate:       "facebook/nllb-200-distilled-600M",
	models.KindAudioToAudio:    "speechbrain/sepformer-wham",
}

// ProviderConfig is resolved once at startup and is read-only afterwards.
type ProviderConfig struct {
	Endpoint string
	Model    string
	Token    string
}

// URL returns the request URL for the configured model.
func (p ProviderConfig) URL() string {
	return strings.TrimRight(p.Endpoint, "/") + "/" + p.Model
}

// Config holds all configuration for the inference gateway
type Config struct {
	// Server configuration
	Port               string
	AllowedOrigins     []string
	RateLimitPerMinute int

	// Logging
	LogLevel  string
	LogFormat string

	// Provider configuration
	ProviderBackend string
	HFToken         string
	HFEndpoint      string
	Providers       map[models.TaskKind]ProviderConfig
	ProviderTimeout time.Duration
	MaxRetries      int
	RetryBase       time.Duration
	MaxRetryWait    time.Duration

	// Media
	MediaMaxBytes int64
	DisplaySize   models.Size

	// Run history
	HistoryEnabled bool
	DBHost         string
	DBPort         string
	DBUser         string
	DBPassword     string
	DBName         string

	// Run events, disabled when AMQPURL is empty
	AMQPURL        string
	AMQPExchange   string
	AMQPRoutingKey string

	// ObserverBuffer bounds run records queued for history and events
	ObserverBuffer int
}

// Load loads configuration from a .env file, if present, and the
// environment.
func Load() *Config {
	// Missing .env is fine; the process environment still applies.
	_ = godotenv.Load()

	config := &Config{
		Port:               getEnv("PORT", "8080"),
		AllowedOrigins:     getStringSliceEnv("ALLOWED_ORIGINS", "*"),
		RateLimitPerMinute: getIntEnv("RATE_LIMIT_PER_MINUTE", 60),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		ProviderBackend: getEnv("PROVIDER_BACKEND", BackendHuggingFace),
		HFToken:         getEnv("HF_API_TOKEN", ""),
		HFEndpoint:      getEnv("HF_ENDPOINT", "https://api-inference.huggingface.co/models"),
		ProviderTimeout: getDurationEnv("PROVIDER_TIMEOUT", 60*time.Second),
		MaxRetries:      getIntEnv("PROVIDER_MAX_RETRIES", 3),
		RetryBase:       getDurationEnv("PROVIDER_RETRY_BASE", 2*time.Second),
		MaxRetryWait:    getDurationEnv("PROVIDER_MAX_RETRY_WAIT", 30*time.Second),

		MediaMaxBytes: int64(getIntEnv("MEDIA_MAX_BYTES", 20<<20)),
		DisplaySize: models.Size{
			Width:  getIntEnv("DISPLAY_WIDTH", 350),
			Height: getIntEnv("DISPLAY_HEIGHT", 350),
		},

		HistoryEnabled: getBoolEnv("HISTORY_ENABLED", false),
		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         getEnv("DB_PORT", "3306"),
		DBUser:         getEnv("DB_USER", "server"),
		DBPassword:     getEnv("DB_PASSWORD", "secret_app"),
		DBName:         getEnv("DB_NAME", "inference"),

		AMQPURL:        getEnv("AMQP_URL", ""),
		AMQPExchange:   getEnv("AMQP_EXCHANGE", "inference"),
		AMQPRoutingKey: getEnv("AMQP_ROUTING_KEY", "inference.run"),

		ObserverBuffer: getIntEnv("OBSERVER_BUFFER", 1024),
	}

	config.Providers = make(map[models.TaskKind]ProviderConfig, len(models.AllKinds))
	for _, kind := range models.AllKinds {
		config.Providers[kind] = ProviderConfig{
			Endpoint: config.HFEndpoint,
			Model:    getEnv(modelEnvKey(kind), defaultModels[kind]),
			Token:    config.HFToken,
		}
	}

	return config
}

// Validate reports configuration the service cannot start with.
func (c *Config) Validate() error {
	switch c.ProviderBackend {
	case BackendHuggingFace:
		if c.HFToken == "" {
			return fmt.Errorf("HF_API_TOKEN is required when PROVIDER_BACKEND=%s", BackendHuggingFace)
		}
	case BackendStub:
	default:
		return fmt.Errorf("unknown PROVIDER_BACKEND %q", c.ProviderBackend)
	}
	for _, kind := range models.AllKinds {
		if c.Providers[kind].Model == "" {
			return fmt.Errorf("no model configured for %s", kind)
		}
	}
	if c.DisplaySize.Width <= 0 || c.DisplaySize.Height <= 0 {
		return fmt.Errorf("display size must be positive, got %dx%d", c.DisplaySize.Width, c.DisplaySize.Height)
	}
	if c.MediaMaxBytes <= 0 {
		return fmt.Errorf("MEDIA_MAX_BYTES must be positive")
	}
	if c.ProviderTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("PROVIDER_MAX_RETRIES must not be negative")
	}
	return nil
}

// modelEnvKey maps a task kind to its override key, e.g.
// object-detection -> HF_MODEL_OBJECT_DETECTION.
func modelEnvKey(kind models.TaskKind) string {
	return "HF_MODEL_" + strings.ToUpper(strings.ReplaceAll(string(kind), "-", "_"))
}

// getStringSliceEnv gets a comma-separated string environment variable and returns it as a string slice
func getStringSliceEnv(key, defaultValue string) []string {
	value := getEnv(key, defaultValue)
	if value == "" {
		return []string{}
	}
	var values []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDurationEnv gets a duration environment variable or returns a default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getIntEnv gets an integer environment variable or returns a default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
