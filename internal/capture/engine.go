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

package capture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"go.uber.org/zap"

	"github.com/voxlabs/voxrec/internal/audio"
	"github.com/voxlabs/voxrec/internal/logging"
)

var (
	ErrPermissionDenied = errors.New("microphone permission not granted")
	ErrAlreadyRecording = errors.New("engine is already recording")
	ErrNotPaused        = errors.New("engine is not paused")
)

// EngineState is the recording engine state
type EngineState int

const (
	EngineIdle EngineState = iota
	EngineRecording
	EnginePaused
)

func (s EngineState) String() string {
	switch s {
	case EngineRecording:
		return "recording"
	case EnginePaused:
		return "paused"
	default:
		return "idle"
	}
}

// InputStream is a running capture stream
type InputStream interface {
	Stop() error
}

// InputDevice abstracts the capture hardware. Start pushes buffers to
// deliver until the returned stream stops.
type InputDevice interface {
	PermissionGranted() bool
	Start(sampleRate, channels, bitDepth int, deliver func(*gaudio.IntBuffer)) (InputStream, error)
}

// EngineConfig sets the recording format and output location
type EngineConfig struct {
	Dir        string
	SampleRate int
	Channels   int
	BitDepth   int
}

// captureResources bundles everything a live capture holds open. Acquired
// together in Start and released together on every exit path, so no partial
// teardown can leak a stream, encoder, or file handle.
type captureResources struct {
	stream InputStream
	enc    *wav.Encoder
	file   *os.File
}

func (r *captureResources) release() error {
	var firstErr error
	if r.stream != nil {
		if err := r.stream.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.enc != nil {
		if err := r.enc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// RecordingEngine captures audio to a WAV artifact. It subscribes to the
// interruption coordinator so system interruptions pause delivery without
// tearing down the file, and resumption picks up the same handle.
type RecordingEngine struct {
	device InputDevice
	coord  *InterruptionCoordinator
	guard  *BackgroundExecutionGuard
	cfg    EngineConfig

	mu        sync.Mutex
	state     EngineState
	res       *captureResources
	path      string
	startedAt time.Time

	stopWatch chan struct{}
}

// NewRecordingEngine wires the engine to its device, coordinator, and
// guard, and starts following coordinator events
func NewRecordingEngine(device InputDevice, coord *InterruptionCoordinator, guard *BackgroundExecutionGuard, cfg EngineConfig) *RecordingEngine {
	e := &RecordingEngine{
		device:    device,
		coord:     coord,
		guard:     guard,
		cfg:       cfg,
		stopWatch: make(chan struct{}),
	}
	go e.watch(coord.Subscribe())
	return e
}

// watch applies coordinator events: interruptions pause capture, a
// resume-advisable ending resumes it
func (e *RecordingEngine) watch(events <-chan Event) {
	for {
		select {
		case <-e.stopWatch:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			switch ev.Type {
			case EventInterruptionBegan:
				e.Pause()
			case EventInterruptionEnded:
				if ev.ResumeAdvisable {
					if err := e.Resume(); err != nil && !errors.Is(err, ErrNotPaused) {
						logging.LogError(err, "Failed to resume after interruption")
					}
				}
			}
		}
	}
}

// Close stops the event watcher. The engine must be idle.
func (e *RecordingEngine) Close() {
	close(e.stopWatch)
}

// State returns the engine state
func (e *RecordingEngine) State() EngineState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Path returns the artifact path of the current or last recording
func (e *RecordingEngine) Path() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.path
}

// Start begins a new recording and returns the artifact path. It fails
// without side effects when permission is missing, the session cannot
// activate, or the file cannot be created.
func (e *RecordingEngine) Start() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != EngineIdle {
		return "", ErrAlreadyRecording
	}
	if !e.device.PermissionGranted() {
		return "", ErrPermissionDenied
	}
	if err := e.coord.Activate(); err != nil {
		return "", err
	}

	path := filepath.Join(e.cfg.Dir, audio.GenerateFileName())
	file, err := os.Create(path)
	if err != nil {
		_ = e.coord.Deactivate()
		return "", fmt.Errorf("failed to create recording artifact: %w", err)
	}

	enc := wav.NewEncoder(file, e.cfg.SampleRate, e.cfg.BitDepth, e.cfg.Channels, 1)
	res := &captureResources{enc: enc, file: file}

	stream, err := e.device.Start(e.cfg.SampleRate, e.cfg.Channels, e.cfg.BitDepth, e.deliver)
	if err != nil {
		_ = res.release()
		_ = os.Remove(path)
		_ = e.coord.Deactivate()
		return "", fmt.Errorf("failed to start capture: %w", err)
	}
	res.stream = stream

	e.res = res
	e.path = path
	e.state = EngineRecording
	e.startedAt = time.Now()

	if err := e.guard.Begin("recording"); err != nil {
		logging.LogWarn("Recording without background execution guard", zap.Error(err))
	}

	logging.LogCaptureEvent("", "recording_started", zap.String("path", path))
	return path, nil
}

// deliver appends a captured buffer to the open artifact. Paused capture
// drops buffers without touching the file handle.
func (e *RecordingEngine) deliver(buf *gaudio.IntBuffer) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != EngineRecording || e.res == nil {
		return
	}
	if err := e.res.enc.Write(buf); err != nil {
		logging.LogError(err, "Failed to write captured buffer",
			zap.String("path", e.path))
	}
}

// Pause suspends buffer delivery. The stream, encoder, and file stay open
// for resume.
func (e *RecordingEngine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != EngineRecording {
		return
	}
	e.state = EnginePaused
	logging.LogCaptureEvent("", "recording_paused")
}

// Resume restarts buffer delivery into the same artifact. The audio
// session must be active again; a paused engine under an interrupted
// session stays paused.
func (e *RecordingEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != EnginePaused {
		return ErrNotPaused
	}
	if e.coord.State() != StateActive {
		return ErrCannotResume
	}
	e.state = EngineRecording
	logging.LogCaptureEvent("", "recording_resumed")
	return nil
}

// Stop tears down the capture resources jointly, deactivates the session,
// and returns the elapsed recording time. Zero when never started.
func (e *RecordingEngine) Stop() (float64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == EngineIdle {
		return 0, nil
	}

	elapsed := time.Since(e.startedAt).Seconds()

	err := e.res.release()
	e.res = nil
	e.state = EngineIdle

	e.guard.End()
	if dErr := e.coord.Deactivate(); dErr != nil && err == nil {
		err = dErr
	}

	logging.LogCaptureEvent("", "recording_stopped",
		zap.Float64("elapsed", elapsed),
		zap.String("path", e.path))
	return elapsed, err
}
