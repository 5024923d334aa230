/*
 * This file is part of Voxrec (https://github.com/voxlabs/voxrec).
 * Copyright (C) 2025 Vox Labs
 *
 * This program is free software: you can redistribute it and/or modify
 * it under the terms of the GNU Affero General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
 * GNU Affero General Public License for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program. If not, see <https://www.gnu.org/licenses/>.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the voxrec core
type Config struct {
	Recording     RecordingConfig
	Transcription TranscriptionConfig
	Storage       StorageConfig
	Logging       LoggingConfig
	NATS          NATSConfig
}

// RecordingConfig holds audio capture configuration
type RecordingConfig struct {
	Dir        string // Directory for recorded audio artifacts
	SampleRate int    // Capture sample rate in Hz
	Channels   int    // Capture channel count
	BitDepth   int    // PCM bit depth
}

// TranscriptionConfig holds segmentation and provider dispatch configuration
type TranscriptionConfig struct {
	Provider         string        // Selected provider: "on_device", "google", "openai"
	WindowSeconds    float64       // Fixed segmentation window size
	MaxAttempts      int           // Total attempts per cloud call
	BaseRetryDelay   time.Duration // First backoff delay, doubled per retry
	FailureThreshold int           // Consecutive failures before preemptive fallback
	MaxConcurrent    int           // Upper bound for window workers (processing is sequential today)
	GoogleURL        string        // Speech recognize endpoint
	OpenAIURL        string        // Audio transcriptions endpoint
	RequestTimeout   time.Duration // HTTP timeout per provider call
	WhisperModelPath string        // On-device whisper model
	TempDir          string        // Per-window temp artifacts
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DBPath string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// NATSConfig holds session-event publishing configuration.
// An empty URL disables publishing entirely.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	config := &Config{
		Recording: RecordingConfig{
			Dir:        getEnvString("VOXREC_RECORDING_DIR", "./data/recordings"),
			SampleRate: getEnvInt("VOXREC_SAMPLE_RATE", 44100),
			Channels:   getEnvInt("VOXREC_CHANNELS", 1),
			BitDepth:   getEnvInt("VOXREC_BIT_DEPTH", 16),
		},
		Transcription: TranscriptionConfig{
			Provider:         getEnvString("VOXREC_PROVIDER", "on_device"),
			WindowSeconds:    getEnvFloat64("VOXREC_WINDOW_SECONDS", 30.0),
			MaxAttempts:      getEnvInt("VOXREC_MAX_ATTEMPTS", 3),
			BaseRetryDelay:   getEnvDuration("VOXREC_BASE_RETRY_DELAY", time.Second),
			FailureThreshold: getEnvInt("VOXREC_FAILURE_THRESHOLD", 5),
			MaxConcurrent:    getEnvInt("VOXREC_MAX_CONCURRENT", 3),
			GoogleURL:        getEnvString("VOXREC_GOOGLE_URL", "https://speech.googleapis.com/v1/speech:recognize"),
			OpenAIURL:        getEnvString("VOXREC_OPENAI_URL", "https://api.openai.com/v1/audio/transcriptions"),
			RequestTimeout:   getEnvDuration("VOXREC_REQUEST_TIMEOUT", 30*time.Second),
			WhisperModelPath: getEnvString("VOXREC_WHISPER_MODEL", "./models/ggml-tiny.bin"),
			TempDir:          getEnvString("VOXREC_TEMP_DIR", os.TempDir()),
		},
		Storage: StorageConfig{
			DBPath: getEnvString("VOXREC_DB_PATH", "./data/voxrec.db"),
		},
		Logging: LoggingConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		NATS: NATSConfig{
			URL:           getEnvString("NATS_URL", ""),
			SubjectPrefix: getEnvString("NATS_SUBJECT_PREFIX", "voxrec.sessions"),
			MaxReconnect:  getEnvInt("NATS_MAX_RECONNECT", 10),
			ReconnectWait: getEnvDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
	}

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validate checks if the configuration is valid
func (c *Config) validate() error {
	if c.Recording.SampleRate <= 0 {
		return fmt.Errorf("invalid sample rate: %d", c.Recording.SampleRate)
	}

	if c.Recording.Channels <= 0 {
		return fmt.Errorf("invalid channel count: %d", c.Recording.Channels)
	}

	if c.Recording.BitDepth != 16 && c.Recording.BitDepth != 24 && c.Recording.BitDepth != 32 {
		return fmt.Errorf("unsupported bit depth: %d", c.Recording.BitDepth)
	}

	if c.Transcription.WindowSeconds <= 0 {
		return fmt.Errorf("window seconds must be positive: %f", c.Transcription.WindowSeconds)
	}

	if c.Transcription.MaxAttempts <= 0 {
		return fmt.Errorf("max attempts must be positive: %d", c.Transcription.MaxAttempts)
	}

	if c.Transcription.FailureThreshold <= 0 {
		return fmt.Errorf("failure threshold must be positive: %d", c.Transcription.FailureThreshold)
	}

	if c.Transcription.MaxConcurrent <= 0 {
		return fmt.Errorf("max concurrent must be positive: %d", c.Transcription.MaxConcurrent)
	}

	switch c.Transcription.Provider {
	case "on_device", "google", "openai":
	default:
		return fmt.Errorf("unknown provider: %s", c.Transcription.Provider)
	}

	return nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
