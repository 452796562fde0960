package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Speech driver names accepted by SPEECH_DRIVER.
const (
	DriverWebSocket = "websocket"
	DriverCommand   = "command"
	DriverMock      = "mock"
)

type Config struct {
	Port string

	// Auth. Empty disables authentication.
	APIKey string

	// Worker pool
	WorkerCount  int
	MaxQueueSize int

	// Upload limits
	MaxUploadBytes int64

	// Retention
	JobTTL      time.Duration
	DocumentTTL time.Duration

	// Chunking
	ChunkMaxLength  int
	ChunkBreakRatio float64

	// PDF
	PDFFallbackPdftotext bool

	// Speech
	SpeechDriver  string
	SpeechCommand string
	SpeechArgs    []string
	SpeechWPM     int

	// Reading
	ReadAcrossPages bool

	LogLevel slog.Level
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() Config {
	godotenv.Load()

	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("READALOUD_API_KEY"),

		WorkerCount:  envInt("WORKER_COUNT", 2),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", 100),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", 52428800), // 50MB

		JobTTL:      envDuration("JOB_TTL", 1*time.Hour),
		DocumentTTL: envDuration("DOCUMENT_TTL", 24*time.Hour),

		ChunkMaxLength:  envInt("CHUNK_MAX_LENGTH", 500),
		ChunkBreakRatio: envFloat("CHUNK_BREAK_RATIO", 0.7),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", true),

		SpeechDriver:  strings.ToLower(envOr("SPEECH_DRIVER", DriverWebSocket)),
		SpeechCommand: envOr("SPEECH_COMMAND", "espeak-ng"),
		SpeechArgs:    strings.Fields(envOr("SPEECH_ARGS", "--stdin")),
		SpeechWPM:     envInt("SPEECH_WPM", 175),

		ReadAcrossPages: envBool("READ_ACROSS_PAGES", false),

		LogLevel: envLevel("LOG_LEVEL", slog.LevelInfo),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 100
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.ChunkMaxLength <= 0 {
		cfg.ChunkMaxLength = 500
	}
	if cfg.SpeechWPM <= 0 {
		cfg.SpeechWPM = 175
	}

	return cfg
}

func (c Config) Validate() error {
	switch c.SpeechDriver {
	case DriverWebSocket, DriverCommand, DriverMock:
	default:
		return fmt.Errorf("SPEECH_DRIVER must be one of websocket, command, mock (got %q)", c.SpeechDriver)
	}
	if c.SpeechDriver == DriverCommand && c.SpeechCommand == "" {
		return fmt.Errorf("SPEECH_COMMAND is required for the command driver")
	}
	if c.ChunkBreakRatio <= 0 || c.ChunkBreakRatio >= 1 {
		return fmt.Errorf("CHUNK_BREAK_RATIO must be between 0 and 1 (got %v)", c.ChunkBreakRatio)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envLevel(key string, fallback slog.Level) slog.Level {
	if v := os.Getenv(key); v != "" {
		var level slog.Level
		if err := level.UnmarshalText([]byte(v)); err == nil {
			return level
		}
	}
	return fallback
}
