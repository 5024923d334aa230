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

package session

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// SegmentStatus tracks the transcription lifecycle of a single segment
type SegmentStatus string

const (
	StatusPending    SegmentStatus = "pending"
	StatusQueued     SegmentStatus = "queued"
	StatusProcessing SegmentStatus = "processing"
	StatusCompleted  SegmentStatus = "completed"
	// StatusCompletedLocal marks a segment that succeeded through the
	// on-device fallback rather than the selected cloud provider, so the UI
	// and analytics can tell fallback occurred.
	StatusCompletedLocal SegmentStatus = "completed_local"
	StatusFailed         SegmentStatus = "failed"
)

// IsValid reports whether the status is one of the known variants
func (s SegmentStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusQueued, StatusProcessing, StatusCompleted, StatusCompletedLocal, StatusFailed:
		return true
	}
	return false
}

// IsTerminal reports whether the segment has finished processing
func (s SegmentStatus) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedLocal, StatusFailed:
		return true
	}
	return false
}

// RecordingSession is one recorded take and its transcription segments.
// Duration is only meaningful once recording has stopped; while IsProcessing
// is true segment contents may be incomplete or in a transient status.
type RecordingSession struct {
	ID            string    `json:"id" db:"id"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	Duration      float64   `json:"duration" db:"duration"`
	AudioFilePath string    `json:"audio_file_path" db:"audio_file_path"`
	IsProcessing  bool      `json:"is_processing" db:"is_processing"`

	// Segments are owned exclusively by the session (cascade delete) and are
	// held in insertion order; use SortedSegments for display.
	Segments []*TranscriptionSegment `json:"segments"`
}

// TranscriptionSegment is one fixed-duration window of a recording.
// Index is the window index and the stable reconciliation key; StartTime is
// seconds from session start.
type TranscriptionSegment struct {
	ID           string        `json:"id" db:"id"`
	SessionID    string        `json:"session_id" db:"session_id"`
	Index        int           `json:"segment_index" db:"segment_index"`
	StartTime    float64       `json:"start_time" db:"start_time"`
	Text         string        `json:"text" db:"text"`
	Status       SegmentStatus `json:"status" db:"status"`
	ErrorMessage string        `json:"error_message,omitempty" db:"error_message"`
}

// NewRecordingSession creates a session for a freshly started recording
func NewRecordingSession(audioFilePath string) *RecordingSession {
	return &RecordingSession{
		ID:            uuid.New().String(),
		CreatedAt:     time.Now(),
		Duration:      0,
		AudioFilePath: audioFilePath,
		IsProcessing:  false,
	}
}

// NewSegment creates a segment owned by the session
func NewSegment(sessionID string, index int, startTime float64) *TranscriptionSegment {
	return &TranscriptionSegment{
		ID:        uuid.New().String(),
		SessionID: sessionID,
		Index:     index,
		StartTime: startTime,
		Status:    StatusPending,
	}
}

// IsValid checks structural invariants before persistence
func (rs *RecordingSession) IsValid() error {
	if rs.ID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if rs.AudioFilePath == "" {
		return fmt.Errorf("session audio file path cannot be empty")
	}
	if rs.Duration < 0 {
		return fmt.Errorf("session duration cannot be negative: %f", rs.Duration)
	}
	for _, seg := range rs.Segments {
		if err := seg.IsValid(); err != nil {
			return err
		}
	}
	return nil
}

// IsValid checks structural invariants before persistence
func (ts *TranscriptionSegment) IsValid() error {
	if ts.ID == "" {
		return fmt.Errorf("segment ID cannot be empty")
	}
	if ts.Index < 0 {
		return fmt.Errorf("segment index cannot be negative: %d", ts.Index)
	}
	if ts.StartTime < 0 {
		return fmt.Errorf("segment start time cannot be negative: %f", ts.StartTime)
	}
	if !ts.Status.IsValid() {
		return fmt.Errorf("unknown segment status: %q", ts.Status)
	}
	return nil
}

// SortedSegments returns the segments ordered by start time. Insertion order
// is not guaranteed to match chronological order once segments are updated in
// place, so consumers must use this before display.
func (rs *RecordingSession) SortedSegments() []*TranscriptionSegment {
	sorted := make([]*TranscriptionSegment, len(rs.Segments))
	copy(sorted, rs.Segments)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].StartTime < sorted[j].StartTime
	})
	return sorted
}

// SegmentByIndex returns the segment with the given window index, or nil
func (rs *RecordingSession) SegmentByIndex(index int) *TranscriptionSegment {
	for _, seg := range rs.Segments {
		if seg.Index == index {
			return seg
		}
	}
	return nil
}
