// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/ironsheep/focus-ocr/internal/detection"
	"github.com/ironsheep/focus-ocr/internal/imaging"
	"github.com/ironsheep/focus-ocr/internal/logger"
	"github.com/ironsheep/focus-ocr/internal/ocr"
)

// Config holds all configuration for the service
type Config struct {
	// Server
	Host        string
	Port        int
	DownloadDir string
	MaxUploadMB int

	// MaxImagePixels caps declared image dimensions before decoding
	MaxImagePixels int

	// OCR
	OCREngine        string
	OCRLanguage      string
	ScoreThreshold   float64
	OverlapThreshold float64
	OCRConcurrency   int
	OCRTimeout       time.Duration
	OCRMaxSide       int
	TessdataPrefix   string

	// Google Cloud Vision
	GoogleCredentials     string
	GoogleCredentialsFile string

	// Retention of saved images
	RetentionMaxAge   time.Duration
	RetentionSchedule string

	// Logging
	LogLevel      string
	LogFormat     string
	LogTimeFormat string
	LogOutput     string
}

// LoadDotEnv loads a .env file into the environment when one exists. Variables
// already set win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	p := &parser{}
	config := &Config{
		Host:        getEnv("HOST", "0.0.0.0"),
		Port:        p.intVar("PORT", 8000),
		DownloadDir: getEnv("DOWNLOAD_DIR", "downloads"),
		MaxUploadMB: p.intVar("MAX_UPLOAD_MB", 20),

		MaxImagePixels: p.intVar("MAX_IMAGE_PIXELS", imaging.DefaultMaxPixels),

		OCREngine:        strings.ToLower(getEnv("OCR_ENGINE", "tesseract")),
		OCRLanguage:      getEnv("OCR_LANGUAGE", "eng"),
		ScoreThreshold:   p.floatVar("OCR_SCORE_THRESHOLD", ocr.DefaultScoreThreshold),
		OverlapThreshold: p.floatVar("OCR_OVERLAP_THRESHOLD", detection.DefaultOverlapThreshold),
		OCRConcurrency:   p.intVar("OCR_CONCURRENCY", 1),
		OCRTimeout:       p.durationVar("OCR_TIMEOUT", 60*time.Second),
		OCRMaxSide:       p.intVar("OCR_MAX_SIDE", 0),
		TessdataPrefix:   getEnv("OCR_TESSDATA_PREFIX", ""),

		GoogleCredentials:     getEnv("GOOGLE_CREDENTIALS", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_APPLICATION_CREDENTIALS", ""),

		RetentionMaxAge:   p.durationVar("RETENTION_MAX_AGE", 0),
		RetentionSchedule: getEnv("RETENTION_SCHEDULE", "@hourly"),

		LogLevel:      getEnv("LOG_LEVEL", "info"),
		LogFormat:     getEnv("LOG_FORMAT", "console"),
		LogTimeFormat: getEnv("LOG_TIME_FORMAT", "2006-01-02T15:04:05Z07:00"),
		LogOutput:     getEnv("LOG_OUTPUT", "stdout"),
	}
	if p.err != nil {
		return nil, fmt.Errorf("config validation failed: %w", p.err)
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

// validate checks that settings are within range
func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DownloadDir == "" {
		return fmt.Errorf("DOWNLOAD_DIR must not be empty")
	}
	if c.MaxUploadMB < 1 {
		return fmt.Errorf("MAX_UPLOAD_MB must be positive, got %d", c.MaxUploadMB)
	}
	if c.MaxImagePixels < 1 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be positive, got %d", c.MaxImagePixels)
	}
	switch c.OCREngine {
	case "tesseract", "vision":
	default:
		return fmt.Errorf("OCR_ENGINE must be tesseract or vision, got %q", c.OCREngine)
	}
	if c.ScoreThreshold < 0 || c.ScoreThreshold > 1 {
		return fmt.Errorf("OCR_SCORE_THRESHOLD must be within [0, 1], got %g", c.ScoreThreshold)
	}
	if c.OverlapThreshold < 0 || c.OverlapThreshold > 1 {
		return fmt.Errorf("OCR_OVERLAP_THRESHOLD must be within [0, 1], got %g", c.OverlapThreshold)
	}
	if c.OCRConcurrency < 1 {
		return fmt.Errorf("OCR_CONCURRENCY must be at least 1, got %d", c.OCRConcurrency)
	}
	if c.OCRTimeout <= 0 {
		return fmt.Errorf("OCR_TIMEOUT must be positive, got %s", c.OCRTimeout)
	}
	if c.OCRMaxSide < 0 {
		return fmt.Errorf("OCR_MAX_SIDE must not be negative, got %d", c.OCRMaxSide)
	}
	if c.RetentionMaxAge < 0 {
		return fmt.Errorf("RETENTION_MAX_AGE must not be negative, got %s", c.RetentionMaxAge)
	}
	if c.RetentionMaxAge > 0 {
		if _, err := cron.ParseStandard(c.RetentionSchedule); err != nil {
			return fmt.Errorf("RETENTION_SCHEDULE %q: %w", c.RetentionSchedule, err)
		}
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// MaxUploadBytes returns the upload limit in bytes.
func (c *Config) MaxUploadBytes() int {
	return c.MaxUploadMB << 20
}

// GetLoggerConfig returns logger configuration
func (c *Config) GetLoggerConfig() logger.LogConfig {
	return logger.LogConfig{
		Level:      c.LogLevel,
		Format:     c.LogFormat,
		TimeFormat: c.LogTimeFormat,
		Output:     c.LogOutput,
	}
}

// OCRConfig returns the engine configuration.
func (c *Config) OCRConfig() ocr.Config {
	return ocr.Config{
		Engine:          c.OCREngine,
		Language:        c.OCRLanguage,
		TessdataPrefix:  c.TessdataPrefix,
		MaxSide:         c.OCRMaxSide,
		Concurrency:     c.OCRConcurrency,
		CredentialsJSON: c.GoogleCredentials,
		CredentialsFile: c.GoogleCredentialsFile,
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("%s=%q: %w", key, value, err)
	}
}

func (p *parser) intVar(key string, defaultValue int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return v
}

func (p *parser) floatVar(key string, defaultValue float64) float64 {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return v
}

// durationVar accepts Go durations ("90s") and bare numbers of seconds.
func (p *parser) durationVar(key string, defaultValue time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		p.fail(key, raw, err)
		return defaultValue
	}
	return v
}
