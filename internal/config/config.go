// SPDX-License-Identifier: Apache-2.0

// Package config reads engine settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"go.uber.org/zap/zapcore"

	"github.com/notariaproj/notaria-mcp/internal/common"
	"github.com/notariaproj/notaria-mcp/internal/mapping"
	"github.com/notariaproj/notaria-mcp/internal/validation"
)

// Config holds all engine configuration
type Config struct {
	Registry   RegistryConfig
	Mapping    MappingConfig
	Validation ValidationConfig
	Server     ServerConfig
	Log        LogConfig
}

// RegistryConfig selects the schema registry file
type RegistryConfig struct {
	// Path of an external registry YAML; empty uses the embedded one.
	Path string
}

// MappingConfig holds placeholder mapping thresholds
type MappingConfig struct {
	MinSimilarity    float64
	MaxUnmappedRatio float64
}

// ValidationConfig holds field validation scoring constants
type ValidationConfig struct {
	PresenceThreshold float64
	CrossCheckPenalty float64
	OutOfRangePenalty float64
	StructuralCap     float64
	LowConfidence     float64
	MaxAgeYears       int
	// ReviewConfidence is the overall confidence under which a report needs review.
	ReviewConfidence float64
}

// ServerConfig holds serve command settings
type ServerConfig struct {
	// MetricsAddr enables the Prometheus /metrics listener when non-empty.
	MetricsAddr string
}

// LogConfig holds logger settings
type LogConfig struct {
	Level string
}

// Load reads the given .env files (".env" when none is given) into the
// environment, without overriding variables already set, and then calls
// FromEnv. Missing files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, common.NewConfigurationError(".env", "load environment file", err)
	}
	return FromEnv(), nil
}

// FromEnv loads configuration from environment variables. Malformed numbers
// fall back to their defaults.
func FromEnv() *Config {
	defaults := validation.DefaultSettings()
	return &Config{
		Registry: RegistryConfig{
			Path: getEnv("NOTARIA_REGISTRY_PATH", ""),
		},
		Mapping: MappingConfig{
			MinSimilarity:    getEnvAsFloat("NOTARIA_MIN_SIMILARITY", mapping.DefaultMinSimilarity),
			MaxUnmappedRatio: getEnvAsFloat("NOTARIA_MAX_UNMAPPED_RATIO", mapping.DefaultMaxUnmappedRatio),
		},
		Validation: ValidationConfig{
			PresenceThreshold: getEnvAsFloat("NOTARIA_PRESENCE_THRESHOLD", defaults.PresenceThreshold),
			CrossCheckPenalty: getEnvAsFloat("NOTARIA_CROSSCHECK_PENALTY", defaults.CrossCheckPenalty),
			OutOfRangePenalty: getEnvAsFloat("NOTARIA_RANGE_PENALTY", defaults.OutOfRangePenalty),
			StructuralCap:     getEnvAsFloat("NOTARIA_STRUCTURAL_CAP", defaults.StructuralCap),
			LowConfidence:     getEnvAsFloat("NOTARIA_LOW_CONFIDENCE", defaults.LowConfidence),
			MaxAgeYears:       getEnvAsInt("NOTARIA_MAX_AGE_YEARS", defaults.MaxAgeYears),
			ReviewConfidence:  getEnvAsFloat("NOTARIA_REVIEW_CONFIDENCE", 0.7),
		},
		Server: ServerConfig{
			MetricsAddr: getEnv("NOTARIA_METRICS_ADDR", ""),
		},
		Log: LogConfig{
			Level: getEnv("NOTARIA_LOG_LEVEL", "info"),
		},
	}
}

// ValidationSettings converts the validation block for the validator.
func (c *Config) ValidationSettings() validation.Settings {
	return validation.Settings{
		PresenceThreshold: c.Validation.PresenceThreshold,
		CrossCheckPenalty: c.Validation.CrossCheckPenalty,
		OutOfRangePenalty: c.Validation.OutOfRangePenalty,
		StructuralCap:     c.Validation.StructuralCap,
		LowConfidence:     c.Validation.LowConfidence,
		MaxAgeYears:       c.Validation.MaxAgeYears,
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

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// Validate rejects settings outside their meaningful range.
func (c *Config) Validate() error {
	ratios := []struct {
		name  string
		value float64
	}{
		{"NOTARIA_MIN_SIMILARITY", c.Mapping.MinSimilarity},
		{"NOTARIA_MAX_UNMAPPED_RATIO", c.Mapping.MaxUnmappedRatio},
		{"NOTARIA_PRESENCE_THRESHOLD", c.Validation.PresenceThreshold},
		{"NOTARIA_CROSSCHECK_PENALTY", c.Validation.CrossCheckPenalty},
		{"NOTARIA_RANGE_PENALTY", c.Validation.OutOfRangePenalty},
		{"NOTARIA_STRUCTURAL_CAP", c.Validation.StructuralCap},
		{"NOTARIA_LOW_CONFIDENCE", c.Validation.LowConfidence},
		{"NOTARIA_REVIEW_CONFIDENCE", c.Validation.ReviewConfidence},
	}
	for _, r := range ratios {
		// NaN compares false against both bounds.
		if math.IsNaN(r.value) || math.IsInf(r.value, 0) || r.value < 0 || r.value > 1 {
			return common.NewConfigurationError("environment", fmt.Sprintf("%s must be within [0,1], got %g", r.name, r.value), nil)
		}
	}
	if c.Validation.MaxAgeYears <= 0 {
		return common.NewConfigurationError("environment", fmt.Sprintf("NOTARIA_MAX_AGE_YEARS must be positive, got %d", c.Validation.MaxAgeYears), nil)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return common.NewConfigurationError("environment", "NOTARIA_LOG_LEVEL", err)
	}
	return nil
}
