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
	"os"
	"testing"
	"time"
)

var configEnvVars = []string{
	"VOXREC_RECORDING_DIR", "VOXREC_SAMPLE_RATE", "VOXREC_CHANNELS", "VOXREC_BIT_DEPTH",
	"VOXREC_PROVIDER", "VOXREC_WINDOW_SECONDS", "VOXREC_MAX_ATTEMPTS", "VOXREC_BASE_RETRY_DELAY",
	"VOXREC_FAILURE_THRESHOLD", "VOXREC_MAX_CONCURRENT", "VOXREC_GOOGLE_URL", "VOXREC_OPENAI_URL",
	"VOXREC_REQUEST_TIMEOUT", "VOXREC_WHISPER_MODEL", "VOXREC_TEMP_DIR", "VOXREC_DB_PATH",
	"LOG_LEVEL", "LOG_FORMAT", "NATS_URL", "NATS_SUBJECT_PREFIX", "NATS_MAX_RECONNECT",
	"NATS_RECONNECT_WAIT",
}

func clearEnvVars() {
	for _, key := range configEnvVars {
		_ = os.Unsetenv(key)
	}
}

func TestLoad_DefaultValues(t *testing.T) {
	clearEnvVars()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Recording.Dir != "./data/recordings" {
		t.Errorf("Recording.Dir = %q, want %q", cfg.Recording.Dir, "./data/recordings")
	}
	if cfg.Recording.SampleRate != 44100 {
		t.Errorf("Recording.SampleRate = %d, want %d", cfg.Recording.SampleRate, 44100)
	}
	if cfg.Recording.Channels != 1 {
		t.Errorf("Recording.Channels = %d, want %d", cfg.Recording.Channels, 1)
	}

	if cfg.Transcription.Provider != "on_device" {
		t.Errorf("Transcription.Provider = %q, want %q", cfg.Transcription.Provider, "on_device")
	}
	if cfg.Transcription.WindowSeconds != 30.0 {
		t.Errorf("Transcription.WindowSeconds = %f, want %f", cfg.Transcription.WindowSeconds, 30.0)
	}
	if cfg.Transcription.MaxAttempts != 3 {
		t.Errorf("Transcription.MaxAttempts = %d, want %d", cfg.Transcription.MaxAttempts, 3)
	}
	if cfg.Transcription.BaseRetryDelay != time.Second {
		t.Errorf("Transcription.BaseRetryDelay = %v, want %v", cfg.Transcription.BaseRetryDelay, time.Second)
	}
	if cfg.Transcription.FailureThreshold != 5 {
		t.Errorf("Transcription.FailureThreshold = %d, want %d", cfg.Transcription.FailureThreshold, 5)
	}
	if cfg.Transcription.MaxConcurrent != 3 {
		t.Errorf("Transcription.MaxConcurrent = %d, want %d", cfg.Transcription.MaxConcurrent, 3)
	}

	if cfg.Storage.DBPath != "./data/voxrec.db" {
		t.Errorf("Storage.DBPath = %q, want %q", cfg.Storage.DBPath, "./data/voxrec.db")
	}

	// NATS publishing defaults to disabled
	if cfg.NATS.URL != "" {
		t.Errorf("NATS.URL = %q, want empty", cfg.NATS.URL)
	}
	if cfg.NATS.SubjectPrefix != "voxrec.sessions" {
		t.Errorf("NATS.SubjectPrefix = %q, want %q", cfg.NATS.SubjectPrefix, "voxrec.sessions")
	}
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config)
	}{
		{
			name: "provider selection",
			envVars: map[string]string{
				"VOXREC_PROVIDER":   "google",
				"VOXREC_GOOGLE_URL": "http://localhost:9000/recognize",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Transcription.Provider != "google" {
					t.Errorf("Transcription.Provider = %q, want %q", cfg.Transcription.Provider, "google")
				}
				if cfg.Transcription.GoogleURL != "http://localhost:9000/recognize" {
					t.Errorf("Transcription.GoogleURL = %q", cfg.Transcription.GoogleURL)
				}
			},
		},
		{
			name: "retry tuning",
			envVars: map[string]string{
				"VOXREC_MAX_ATTEMPTS":      "5",
				"VOXREC_BASE_RETRY_DELAY":  "500ms",
				"VOXREC_FAILURE_THRESHOLD": "2",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.Transcription.MaxAttempts != 5 {
					t.Errorf("MaxAttempts = %d, want 5", cfg.Transcription.MaxAttempts)
				}
				if cfg.Transcription.BaseRetryDelay != 500*time.Millisecond {
					t.Errorf("BaseRetryDelay = %v, want 500ms", cfg.Transcription.BaseRetryDelay)
				}
				if cfg.Transcription.FailureThreshold != 2 {
					t.Errorf("FailureThreshold = %d, want 2", cfg.Transcription.FailureThreshold)
				}
			},
		},
		{
			name: "NATS publishing enabled",
			envVars: map[string]string{
				"NATS_URL":            "nats://localhost:4222",
				"NATS_SUBJECT_PREFIX": "recorder.sessions",
			},
			validate: func(t *testing.T, cfg *Config) {
				if cfg.NATS.URL != "nats://localhost:4222" {
					t.Errorf("NATS.URL = %q", cfg.NATS.URL)
				}
				if cfg.NATS.SubjectPrefix != "recorder.sessions" {
					t.Errorf("NATS.SubjectPrefix = %q", cfg.NATS.SubjectPrefix)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			for key, value := range tt.envVars {
				_ = os.Setenv(key, value)
			}
			defer clearEnvVars()

			cfg, err := Load()
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			tt.validate(t, cfg)
		})
	}
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
	}{
		{"zero sample rate", map[string]string{"VOXREC_SAMPLE_RATE": "0"}},
		{"unsupported bit depth", map[string]string{"VOXREC_BIT_DEPTH": "12"}},
		{"negative window", map[string]string{"VOXREC_WINDOW_SECONDS": "-1"}},
		{"zero attempts", map[string]string{"VOXREC_MAX_ATTEMPTS": "0"}},
		{"zero threshold", map[string]string{"VOXREC_FAILURE_THRESHOLD": "0"}},
		{"unknown provider", map[string]string{"VOXREC_PROVIDER": "azure"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			for key, value := range tt.envVars {
				_ = os.Setenv(key, value)
			}
			defer clearEnvVars()

			if _, err := Load(); err == nil {
				t.Error("Load() expected error, got nil")
			}
		})
	}
}
