// Package config provides application configuration loading.
// This is part of the platform layer and contains no business logic.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// =============================================================================
// Module-Specific Config Interfaces (Principle of Least Privilege)
// =============================================================================

// DatabaseConfig provides database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig provides settings for the HTTP server.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetCORSAllowCreds() bool
}

// SchedulerConfig provides settings for the asynq task queue.
type SchedulerConfig interface {
	GetRedisURL() string
	GetWorkerConcurrency() int
}

// MinIOConfig provides settings for MinIO S3-compatible storage.
type MinIOConfig interface {
	GetMinIOEndpoint() string
	GetMinIOAccessKey() string
	GetMinIOSecretKey() string
	GetMinIOUseSSL() bool
	GetMinIOMaxFileSize() int64
	GetMinioBucketShelfPhotos() string
	GetMinioBucketVoiceNotes() string
	IsMinIOEnabled() bool
}

// VisionConfig provides settings for the Gemini vision extraction adapter.
type VisionConfig interface {
	GetGeminiAPIKey() string
	GetVisionModel() string
	GetVisionTimeout() time.Duration
}

// DebateConfig provides settings for the multi-agent debate engine.
type DebateConfig interface {
	GetGeminiAPIKey() string
	GetOpenAICompatBaseURL() string
	GetOpenAICompatAPIKey() string
	GetOpenAICompatModel() string
	GetDebateArchetypesPath() string
	GetDebateAgentTimeout() time.Duration
	GetDebateAgentRetries() int
}

// SpeechConfig provides settings for the text-to-speech client.
type SpeechConfig interface {
	GetSpeechAPIURL() string
	GetSpeechAPIKey() string
	GetSpeechVoiceID() string
	IsSpeechEnabled() bool
	IsVoiceRequired() bool
}

// WhatsAppConfig provides settings for the WhatsApp gateway client.
type WhatsAppConfig interface {
	GetWhatsAppBaseURL() string
	GetWhatsAppUsername() string
	GetWhatsAppPassword() string
	GetWhatsAppNumber() string
	IsWhatsAppEnabled() bool
}

// =============================================================================
// Main Config Struct
// =============================================================================

// Config holds all application configuration values.
type Config struct {
	Env                     string
	HTTPAddr                string
	DatabaseURL             string
	RedisURL                string
	WorkerConcurrency       int
	CORSAllowAll            bool
	CORSOrigins             []string
	CORSAllowCreds          bool
	AppBaseURL              string
	MinIOEndpoint           string
	MinIOAccessKey          string
	MinIOSecretKey          string
	MinIOUseSSL             bool
	MinIOMaxFileSize        int64
	MinioBucketShelfPhotos  string
	MinioBucketVoiceNotes   string
	GeminiAPIKey            string
	VisionModel             string
	VisionTimeout           time.Duration
	OpenAICompatBaseURL     string
	OpenAICompatAPIKey      string
	OpenAICompatModel       string
	DebateArchetypesPath    string
	DebateAgentTimeout      time.Duration
	DebateAgentRetries      int
	SpeechAPIURL            string
	SpeechAPIKey            string
	SpeechVoiceID           string
	VoiceRequired           bool
	WhatsAppBaseURL         string
	WhatsAppUsername        string
	WhatsAppPassword        string
	WhatsAppNumber          string
}

// =============================================================================
// Interface Implementations
// =============================================================================

// DatabaseConfig implementation
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTPConfig implementation
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetCORSAllowCreds() bool  { return c.CORSAllowCreds }

// SchedulerConfig implementation
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetWorkerConcurrency() int { return c.WorkerConcurrency }

// MinIOConfig implementation
func (c *Config) GetMinIOEndpoint() string   { return c.MinIOEndpoint }
func (c *Config) GetMinIOAccessKey() string  { return c.MinIOAccessKey }
func (c *Config) GetMinIOSecretKey() string  { return c.MinIOSecretKey }
func (c *Config) GetMinIOUseSSL() bool       { return c.MinIOUseSSL }
func (c *Config) GetMinIOMaxFileSize() int64 { return c.MinIOMaxFileSize }
func (c *Config) GetMinioBucketShelfPhotos() string {
	return c.MinioBucketShelfPhotos
}
func (c *Config) GetMinioBucketVoiceNotes() string {
	return c.MinioBucketVoiceNotes
}
func (c *Config) IsMinIOEnabled() bool { return c.MinIOEndpoint != "" }

// VisionConfig implementation
func (c *Config) GetGeminiAPIKey() string         { return c.GeminiAPIKey }
func (c *Config) GetVisionModel() string          { return c.VisionModel }
func (c *Config) GetVisionTimeout() time.Duration { return c.VisionTimeout }

// DebateConfig implementation
func (c *Config) GetOpenAICompatBaseURL() string      { return c.OpenAICompatBaseURL }
func (c *Config) GetOpenAICompatAPIKey() string       { return c.OpenAICompatAPIKey }
func (c *Config) GetOpenAICompatModel() string        { return c.OpenAICompatModel }
func (c *Config) GetDebateArchetypesPath() string     { return c.DebateArchetypesPath }
func (c *Config) GetDebateAgentTimeout() time.Duration { return c.DebateAgentTimeout }
func (c *Config) GetDebateAgentRetries() int          { return c.DebateAgentRetries }

// SpeechConfig implementation
func (c *Config) GetSpeechAPIURL() string  { return c.SpeechAPIURL }
func (c *Config) GetSpeechAPIKey() string  { return c.SpeechAPIKey }
func (c *Config) GetSpeechVoiceID() string { return c.SpeechVoiceID }
func (c *Config) IsSpeechEnabled() bool    { return c.SpeechAPIKey != "" }
func (c *Config) IsVoiceRequired() bool    { return c.VoiceRequired }

// WhatsAppConfig implementation
func (c *Config) GetWhatsAppBaseURL() string  { return c.WhatsAppBaseURL }
func (c *Config) GetWhatsAppUsername() string { return c.WhatsAppUsername }
func (c *Config) GetWhatsAppPassword() string { return c.WhatsAppPassword }
func (c *Config) GetWhatsAppNumber() string   { return c.WhatsAppNumber }
func (c *Config) IsWhatsAppEnabled() bool     { return c.WhatsAppBaseURL != "" }

// GetAppBaseURL returns the public base URL used for presigned links and QR codes.
func (c *Config) GetAppBaseURL() string { return c.AppBaseURL }

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	cfg := &Config{
		Env:                    getEnv("APP_ENV", "development"),
		HTTPAddr:               getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		RedisURL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
		WorkerConcurrency:      mustInt(getEnv("WORKER_CONCURRENCY", "10")),
		CORSAllowAll:           corsAllowAll,
		CORSOrigins:            corsOrigins,
		CORSAllowCreds:         strings.EqualFold(getEnv("CORS_ALLOW_CREDENTIALS", "true"), "true"),
		AppBaseURL:             getEnv("APP_BASE_URL", "http://localhost:8080"),
		MinIOEndpoint:          getEnv("MINIO_ENDPOINT", ""),
		MinIOAccessKey:         getEnv("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey:         getEnv("MINIO_SECRET_KEY", ""),
		MinIOUseSSL:            strings.EqualFold(getEnv("MINIO_USE_SSL", "false"), "true"),
		MinIOMaxFileSize:       mustInt64(getEnv("MINIO_MAX_FILE_SIZE", "16777216")),
		MinioBucketShelfPhotos: getEnv("MINIO_BUCKET_SHELF_PHOTOS", "shelf-photos"),
		MinioBucketVoiceNotes:  getEnv("MINIO_BUCKET_VOICE_NOTES", "voice-notes"),
		GeminiAPIKey:           getEnv("GEMINI_API_KEY", ""),
		VisionModel:            getEnv("VISION_MODEL", "gemini-2.0-flash"),
		VisionTimeout:          mustDuration(getEnv("VISION_TIMEOUT", "45s")),
		OpenAICompatBaseURL:    getEnv("OPENAI_COMPAT_BASE_URL", ""),
		OpenAICompatAPIKey:     getEnv("OPENAI_COMPAT_API_KEY", ""),
		OpenAICompatModel:      getEnv("OPENAI_COMPAT_MODEL", "llama-3.3-70b-versatile"),
		DebateArchetypesPath:   getEnv("DEBATE_ARCHETYPES_PATH", ""),
		DebateAgentTimeout:     mustDuration(getEnv("DEBATE_AGENT_TIMEOUT", "30s")),
		DebateAgentRetries:     mustInt(getEnv("DEBATE_AGENT_RETRIES", "2")),
		SpeechAPIURL:           getEnv("SPEECH_API_URL", "https://api.elevenlabs.io"),
		SpeechAPIKey:           getEnv("SPEECH_API_KEY", ""),
		SpeechVoiceID:          getEnv("SPEECH_VOICE_ID", "21m00Tcm4TlvDq8ikWAM"),
		VoiceRequired:          strings.EqualFold(getEnv("VOICE_REQUIRED", "false"), "true"),
		WhatsAppBaseURL:        getEnv("WHATSAPP_BASE_URL", ""),
		WhatsAppUsername:       getEnv("WHATSAPP_USERNAME", ""),
		WhatsAppPassword:       getEnv("WHATSAPP_PASSWORD", ""),
		WhatsAppNumber:         getEnv("WHATSAPP_NUMBER", ""),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if cfg.DebateAgentRetries < 0 {
		return nil, fmt.Errorf("DEBATE_AGENT_RETRIES cannot be negative")
	}
	if cfg.CORSAllowAll && cfg.CORSAllowCreds {
		return nil, fmt.Errorf("CORS_ALLOW_CREDENTIALS cannot be true when CORS_ALLOW_ALL is true")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func mustInt(value string) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return 0
	}
	return result
}

func mustInt64(value string) int64 {
	result, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0
	}
	return result
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
