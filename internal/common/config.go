package common

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	OCR      OCRConfig
	Pipeline PipelineConfig
	Export   ExportConfig
}

// OCRConfig holds OCR-provider configuration.
type OCRConfig struct {
	Languages   []string
	TessdataDir string
	PSM         int
}

// PipelineConfig holds orchestration thresholds and toggles.
type PipelineConfig struct {
	EnableContextUnderstanding bool
	EnableStructuredExtraction bool
	MaxProcessingTime          time.Duration
	QualityThreshold           float64
}

// ExportConfig holds export-related configuration.
type ExportConfig struct {
	SheetName string
}

// LoadConfig loads configuration from environment variables. A .env file in
// the working directory is merged in first when present.
func LoadConfig(logger *slog.Logger) *Config {
	if logger == nil {
		logger = slog.Default()
	}
	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	return &Config{
		OCR: OCRConfig{
			Languages:   getEnvAsList("OCR_LANGUAGES", []string{"eng"}),
			TessdataDir: getEnv("TESSDATA_PREFIX", ""),
			PSM:         getEnvAsInt("OCR_PSM", 0),
		},
		Pipeline: PipelineConfig{
			EnableContextUnderstanding: getEnvAsBool("ENABLE_CONTEXT_UNDERSTANDING", true),
			EnableStructuredExtraction: getEnvAsBool("ENABLE_STRUCTURED_EXTRACTION", true),
			MaxProcessingTime:          getEnvAsDuration("MAX_PROCESSING_TIME", 30*time.Second),
			QualityThreshold:           getEnvAsFloat64("QUALITY_THRESHOLD", 0.6),
		},
		Export: ExportConfig{
			SheetName: getEnv("EXPORT_SHEET_NAME", "Documents"),
		},
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if s := strings.TrimSpace(p); s != "" {
				out = append(out, s)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
