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

// Package controller wires user start/stop intent to the recording engine
// and hands finished sessions to the transcription pipeline.
package controller

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/voxlabs/voxrec/internal/capture"
	"github.com/voxlabs/voxrec/internal/logging"
	"github.com/voxlabs/voxrec/internal/session"
)

// ErrNoActiveRecording is returned by Stop without a matching Start
var ErrNoActiveRecording = errors.New("no recording in progress")

// SessionStore is the persistence surface the controller needs
type SessionStore interface {
	Insert(sess *session.RecordingSession) error
	GetByID(id string) (*session.RecordingSession, error)
	List() ([]*session.RecordingSession, error)
	Delete(id string) error
}

// Processor runs the transcription pipeline over a finished session
type Processor interface {
	Process(ctx context.Context, sess *session.RecordingSession) error
}

// EventPublisher announces session lifecycle events. Implementations must
// be safe to call whether or not a broker is configured.
type EventPublisher interface {
	PublishRecordingStarted(sessionID, audioFilePath string) error
	PublishRecordingStopped(sessionID string, duration float64) error
	PublishInterruptionBegan(sessionID string, derived bool) error
	PublishInterruptionEnded(sessionID string, resumed bool) error
	PublishProcessingFinished(sessionID string, segmentCount int, provider string) error
}

// RecordingSessionController is the top-level coordinator: it drives the
// engine, persists sessions, kicks off transcription on stop, and fans
// lifecycle events out to the publisher.
type RecordingSessionController struct {
	engine    *capture.RecordingEngine
	coord     *capture.InterruptionCoordinator
	store     SessionStore
	processor Processor
	publisher EventPublisher
	provider  string

	mu      sync.Mutex
	current *session.RecordingSession

	wg        sync.WaitGroup
	stopWatch chan struct{}
}

// New creates the controller and starts forwarding interruption events to
// the publisher
func New(engine *capture.RecordingEngine, coord *capture.InterruptionCoordinator, store SessionStore, processor Processor, publisher EventPublisher, provider string) *RecordingSessionController {
	c := &RecordingSessionController{
		engine:    engine,
		coord:     coord,
		store:     store,
		processor: processor,
		publisher: publisher,
		provider:  provider,
		stopWatch: make(chan struct{}),
	}
	go c.watchInterruptions(coord.Subscribe())
	return c
}

func (c *RecordingSessionController) watchInterruptions(events <-chan capture.Event) {
	for {
		select {
		case <-c.stopWatch:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}

			c.mu.Lock()
			sessionID := ""
			if c.current != nil {
				sessionID = c.current.ID
			}
			c.mu.Unlock()
			if sessionID == "" {
				continue
			}

			switch ev.Type {
			case capture.EventInterruptionBegan:
				if err := c.publisher.PublishInterruptionBegan(sessionID, ev.Derived); err != nil {
					logging.LogWarn("Failed to publish interruption event", zap.Error(err))
				}
			case capture.EventInterruptionEnded:
				if err := c.publisher.PublishInterruptionEnded(sessionID, ev.ResumeAdvisable); err != nil {
					logging.LogWarn("Failed to publish interruption event", zap.Error(err))
				}
			}
		}
	}
}

// StartRecording begins capture and persists the new session
func (c *RecordingSessionController) StartRecording() (*session.RecordingSession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		return nil, capture.ErrAlreadyRecording
	}

	path, err := c.engine.Start()
	if err != nil {
		return nil, err
	}

	sess := session.NewRecordingSession(path)
	if err := c.store.Insert(sess); err != nil {
		_, _ = c.engine.Stop()
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}
	c.current = sess

	if err := c.publisher.PublishRecordingStarted(sess.ID, path); err != nil {
		logging.LogWarn("Failed to publish recording start", zap.Error(err))
	}
	return sess, nil
}

// StopRecording stops capture and hands the finished session to the
// pipeline asynchronously. The returned session carries the elapsed
// duration; segments arrive once processing completes.
func (c *RecordingSessionController) StopRecording(ctx context.Context) (*session.RecordingSession, error) {
	c.mu.Lock()
	sess := c.current
	c.current = nil
	c.mu.Unlock()

	if sess == nil {
		return nil, ErrNoActiveRecording
	}

	elapsed, err := c.engine.Stop()
	if err != nil {
		logging.LogError(err, "Engine stop reported error", zap.String("session_id", sess.ID))
	}
	sess.Duration = elapsed

	if err := c.publisher.PublishRecordingStopped(sess.ID, elapsed); err != nil {
		logging.LogWarn("Failed to publish recording stop", zap.Error(err))
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if err := c.processor.Process(ctx, sess); err != nil {
			logging.LogError(err, "Transcription pipeline failed", zap.String("session_id", sess.ID))
		}
		if err := c.publisher.PublishProcessingFinished(sess.ID, len(sess.Segments), c.provider); err != nil {
			logging.LogWarn("Failed to publish processing finish", zap.Error(err))
		}
	}()

	return sess, nil
}

// Sessions lists all sessions, newest first
func (c *RecordingSessionController) Sessions() ([]*session.RecordingSession, error) {
	return c.store.List()
}

// Session fetches one session with its segments
func (c *RecordingSessionController) Session(id string) (*session.RecordingSession, error) {
	return c.store.GetByID(id)
}

// DeleteSession removes the session, its segments, and the backing audio
// artifact. Deleting while the pipeline is mid-flight is safe; the
// pipeline treats the vanished session as a no-op.
func (c *RecordingSessionController) DeleteSession(id string) error {
	sess, err := c.store.GetByID(id)
	if err != nil {
		return err
	}
	if err := c.store.Delete(id); err != nil {
		return err
	}

	if sess.AudioFilePath != "" {
		if err := os.Remove(sess.AudioFilePath); err != nil && !os.IsNotExist(err) {
			logging.LogWarn("Failed to remove audio artifact",
				zap.String("path", sess.AudioFilePath), zap.Error(err))
		}
	}

	logging.LogCaptureEvent(id, "session_deleted")
	return nil
}

// Wait blocks until all in-flight pipeline runs finish
func (c *RecordingSessionController) Wait() {
	c.wg.Wait()
}

// Close stops the event watcher after draining in-flight work
func (c *RecordingSessionController) Close() {
	c.Wait()
	close(c.stopWatch)
}
