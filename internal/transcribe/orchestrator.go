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

package transcribe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/voxlabs/voxrec/internal/audio"
	"github.com/voxlabs/voxrec/internal/logging"
	"github.com/voxlabs/voxrec/internal/session"
	"github.com/voxlabs/voxrec/internal/storage"
)

// SessionSaver persists pipeline state transitions. Deleted sessions report
// storage.ErrSessionNotFound, which the pipeline tolerates as a no-op.
type SessionSaver interface {
	SetProcessing(sessionID string, processing bool) error
	SaveProcessingResult(sess *session.RecordingSession, segments []*session.TranscriptionSegment) error
}

// Dispatching routes one audio chunk to a transcription provider
type Dispatching interface {
	Dispatch(ctx context.Context, provider Provider, audioPath string) (*Result, error)
}

// OrchestratorConfig tunes the segmentation pipeline
type OrchestratorConfig struct {
	WindowSeconds float64
	Provider      Provider
	TempDir       string

	// MaxConcurrent caps any future parallel window processing. Windows are
	// currently processed sequentially; the cap is recorded for tuning.
	MaxConcurrent int
}

// Orchestrator splits a finished recording into fixed windows, transcribes
// each through the dispatcher, and reconciles the results into persistent
// segments keyed by window index.
type Orchestrator struct {
	store    SessionSaver
	codec    *audio.Codec
	dispatch Dispatching
	cfg      OrchestratorConfig
}

// NewOrchestrator wires the pipeline
func NewOrchestrator(store SessionSaver, codec *audio.Codec, dispatch Dispatching, cfg OrchestratorConfig) *Orchestrator {
	if cfg.WindowSeconds <= 0 {
		cfg.WindowSeconds = 30.0
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = 3
	}
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Orchestrator{store: store, codec: codec, dispatch: dispatch, cfg: cfg}
}

// Process transcribes the session's audio artifact window by window and
// persists the reconciled segments. Whatever happens, the session never
// stays flagged as processing: every exit path clears the flag before
// returning. A session deleted while processing is a no-op, not an error.
func (o *Orchestrator) Process(ctx context.Context, sess *session.RecordingSession) error {
	if err := o.store.SetProcessing(sess.ID, true); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			return nil
		}
		return fmt.Errorf("failed to mark session processing: %w", err)
	}
	sess.IsProcessing = true

	// Synthetic preview artifacts never reach a provider
	if audio.IsMockArtifact(sess.AudioFilePath) {
		logging.LogTranscription(sess.ID, 0, zap.String("outcome", "mock_short_circuit"))
		seg := session.NewSegment(sess.ID, 0, 0)
		seg.Status = session.StatusCompleted
		seg.Text = "Preview artifact; transcription skipped."
		return o.finish(sess, sess.Duration, []*session.TranscriptionSegment{seg}, nil)
	}

	info, err := o.codec.Open(sess.AudioFilePath)
	if err != nil {
		logging.LogError(err, "Failed to open recording artifact",
			zap.String("session_id", sess.ID))
		seg := session.NewSegment(sess.ID, 0, 0)
		seg.Status = session.StatusFailed
		seg.ErrorMessage = err.Error()
		return o.finish(sess, sess.Duration, []*session.TranscriptionSegment{seg}, err)
	}

	// Re-measure: the duration captured at stop time can drift from the
	// finalized file
	duration := info.Duration()
	count := int(math.Ceil(duration / o.cfg.WindowSeconds))
	framesPerWindow := int64(o.cfg.WindowSeconds * float64(info.SampleRate))

	logging.LogCaptureEvent(sess.ID, "processing_started",
		zap.Float64("duration", duration),
		zap.Int("window_count", count))

	segments := make([]*session.TranscriptionSegment, 0, count)
	for i := 0; i < count; i++ {
		segments = append(segments, o.processWindow(ctx, sess, i, framesPerWindow))
	}

	return o.finish(sess, duration, segments, nil)
}

// processWindow extracts one window into a per-index temp artifact,
// dispatches it, and returns the resulting segment. The temp artifact is
// removed whatever the outcome.
func (o *Orchestrator) processWindow(ctx context.Context, sess *session.RecordingSession, index int, framesPerWindow int64) *session.TranscriptionSegment {
	seg := session.NewSegment(sess.ID, index, float64(index)*o.cfg.WindowSeconds)

	tmp := filepath.Join(o.cfg.TempDir, fmt.Sprintf("%s_win_%d.wav", sess.ID, index))
	defer func() { _ = os.Remove(tmp) }()

	start := int64(index) * framesPerWindow
	if err := o.codec.ExtractWindow(sess.AudioFilePath, tmp, start, framesPerWindow); err != nil {
		seg.Status = session.StatusFailed
		seg.ErrorMessage = err.Error()
		return seg
	}

	res, err := o.dispatch.Dispatch(ctx, o.cfg.Provider, tmp)
	if err != nil {
		logging.LogTranscription(sess.ID, index, zap.String("outcome", "failed"), zap.Error(err))
		seg.Status = session.StatusFailed
		seg.ErrorMessage = err.Error()
		return seg
	}

	seg.Text = res.Text
	if res.FallbackResolved {
		seg.Status = session.StatusCompletedLocal
	} else {
		seg.Status = session.StatusCompleted
	}
	logging.LogTranscription(sess.ID, index,
		zap.String("outcome", string(seg.Status)),
		zap.String("resolved_by", string(res.ResolvedBy)))
	return seg
}

// finish clears the processing flag and saves the reconciled result in one
// transaction. cause carries a pipeline error that should still propagate
// after the flag is cleared.
func (o *Orchestrator) finish(sess *session.RecordingSession, duration float64, segments []*session.TranscriptionSegment, cause error) error {
	sess.Duration = duration
	sess.IsProcessing = false
	mergeSegments(sess, segments)

	if err := o.store.SaveProcessingResult(sess, segments); err != nil {
		if errors.Is(err, storage.ErrSessionNotFound) {
			// Deleted mid-flight; nothing left to update
			return nil
		}
		return fmt.Errorf("failed to save processing result: %w", err)
	}
	return cause
}

// mergeSegments reconciles results into the in-memory session by window
// index, mirroring what the store does to the persisted rows
func mergeSegments(sess *session.RecordingSession, segments []*session.TranscriptionSegment) {
	for _, seg := range segments {
		if existing := sess.SegmentByIndex(seg.Index); existing != nil {
			existing.StartTime = seg.StartTime
			existing.Text = seg.Text
			existing.Status = seg.Status
			existing.ErrorMessage = seg.ErrorMessage
			continue
		}
		sess.Segments = append(sess.Segments, seg)
	}
}
