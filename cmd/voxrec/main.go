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

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/voxlabs/voxrec/internal/audio"
	"github.com/voxlabs/voxrec/internal/capture"
	"github.com/voxlabs/voxrec/internal/config"
	"github.com/voxlabs/voxrec/internal/controller"
	"github.com/voxlabs/voxrec/internal/logging"
	"github.com/voxlabs/voxrec/internal/messaging"
	"github.com/voxlabs/voxrec/internal/secrets"
	"github.com/voxlabs/voxrec/internal/storage"
	"github.com/voxlabs/voxrec/internal/transcribe"
)

func main() {
	// Initialize structured logging
	if err := logging.Initialize(); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.Close()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := os.MkdirAll(cfg.Recording.Dir, 0o755); err != nil {
		log.Fatalf("Failed to create recording directory: %v", err)
	}

	db, err := storage.NewDatabase(storage.DatabaseConfig{Path: cfg.Storage.DBPath})
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer func() { _ = db.Close() }()
	store := storage.NewSessionStore(db)

	// Credentials: in-memory overrides layered over VOXREC_-prefixed env vars
	secretStore := secrets.NewLayered(secrets.NewMemoryStore(), secrets.NewEnvStore())

	codec := audio.NewCodec()

	local, err := transcribe.NewLocalTranscriber(cfg.Transcription.WhisperModelPath, codec)
	if err != nil {
		log.Fatalf("Failed to initialize on-device transcriber: %v", err)
	}
	defer func() { _ = local.Close() }()

	cloud := map[transcribe.Provider]transcribe.Transcriber{
		transcribe.ProviderGoogle: transcribe.NewGoogleClient(
			cfg.Transcription.GoogleURL, secretStore, codec, cfg.Transcription.RequestTimeout),
		transcribe.ProviderOpenAI: transcribe.NewOpenAIClient(
			cfg.Transcription.OpenAIURL, secretStore, cfg.Transcription.RequestTimeout),
	}

	dispatcher := transcribe.NewDispatcher(local, cloud, transcribe.NewFailureTracker(), transcribe.DispatchConfig{
		MaxAttempts:      cfg.Transcription.MaxAttempts,
		BaseRetryDelay:   cfg.Transcription.BaseRetryDelay,
		FailureThreshold: cfg.Transcription.FailureThreshold,
	})

	provider, err := transcribe.ParseProvider(cfg.Transcription.Provider)
	if err != nil {
		log.Fatalf("Invalid provider: %v", err)
	}

	orchestrator := transcribe.NewOrchestrator(store, codec, dispatcher, transcribe.OrchestratorConfig{
		WindowSeconds: cfg.Transcription.WindowSeconds,
		Provider:      provider,
		TempDir:       cfg.Transcription.TempDir,
		MaxConcurrent: cfg.Transcription.MaxConcurrent,
	})

	publisher := messaging.NewSessionEventPublisher(
		cfg.NATS.URL, cfg.NATS.SubjectPrefix, cfg.NATS.MaxReconnect, cfg.NATS.ReconnectWait)
	if err := publisher.Connect(); err != nil {
		// Recording works without a broker; events are best-effort
		logging.LogError(err, "NATS unavailable, continuing without session events")
	}
	defer publisher.Close()

	// No microphone hardware in the daemon build; a synthetic device stands
	// in and generates input in real time
	device := capture.NewSyntheticInputDevice()
	coord := capture.NewInterruptionCoordinator(capture.NoopAudioSession{})
	guard := capture.NewBackgroundExecutionGuard(capture.ProcessExecutionHost{Budget: 10 * time.Minute})
	engine := capture.NewRecordingEngine(device, coord, guard, capture.EngineConfig{
		Dir:        cfg.Recording.Dir,
		SampleRate: cfg.Recording.SampleRate,
		Channels:   cfg.Recording.Channels,
		BitDepth:   cfg.Recording.BitDepth,
	})
	defer engine.Close()

	ctrl := controller.New(engine, coord, store, orchestrator, publisher, cfg.Transcription.Provider)
	defer ctrl.Close()

	logging.Sugar.Infow("🚀 voxrec starting",
		"provider", cfg.Transcription.Provider,
		"window_seconds", cfg.Transcription.WindowSeconds,
		"db_path", cfg.Storage.DBPath,
		"recording_dir", cfg.Recording.Dir,
	)

	sess, err := ctrl.StartRecording()
	if err != nil {
		log.Fatalf("Failed to start recording: %v", err)
	}
	logging.Sugar.Infow("🎙️  Recording", "session_id", sess.ID, "path", sess.AudioFilePath)

	// Feed synthetic input until shutdown
	feedDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-feedDone:
				return
			case <-ticker.C:
				device.Feed(1.0)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	close(feedDone)
	logging.Sugar.Infow("🛑 Shutting down", "signal", sig.String())

	stopped, err := ctrl.StopRecording(context.Background())
	if err != nil {
		log.Fatalf("Failed to stop recording: %v", err)
	}
	logging.Sugar.Infow("⏹️  Recording stopped",
		"session_id", stopped.ID,
		"duration", stopped.Duration)

	// Let the pipeline finish before exiting
	ctrl.Wait()

	final, err := ctrl.Session(stopped.ID)
	if err != nil {
		log.Fatalf("Failed to load processed session: %v", err)
	}
	for _, seg := range final.SortedSegments() {
		logging.Sugar.Infow("📝 Segment",
			"index", seg.Index,
			"start", seg.StartTime,
			"status", string(seg.Status),
			"text", seg.Text,
		)
	}
}
