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

package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/voxlabs/voxrec/internal/session"
)

// ErrSessionNotFound is returned when a session id has no row. Callers that
// race with deletion treat it as a no-op rather than a failure.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore handles database operations for recording sessions and their
// transcription segments
type SessionStore struct {
	db *Database
}

// NewSessionStore creates a new session store
func NewSessionStore(db *Database) *SessionStore {
	return &SessionStore{db: db}
}

// Insert stores a new recording session (and any segments it already owns)
func (s *SessionStore) Insert(sess *session.RecordingSession) error {
	if err := sess.IsValid(); err != nil {
		return fmt.Errorf("invalid recording session: %w", err)
	}

	tx, err := s.db.DB().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.Exec(`
		INSERT INTO recording_sessions (id, created_at, duration, audio_file_path, is_processing)
		VALUES (?, ?, ?, ?, ?)`,
		sess.ID, sess.CreatedAt, sess.Duration, sess.AudioFilePath, sess.IsProcessing,
	)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	for _, seg := range sess.Segments {
		if err := upsertSegment(tx, seg); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// UpdateSession persists the session's mutable fields
func (s *SessionStore) UpdateSession(sess *session.RecordingSession) error {
	result, err := s.db.DB().Exec(`
		UPDATE recording_sessions
		SET duration = ?, audio_file_path = ?, is_processing = ?
		WHERE id = ?`,
		sess.Duration, sess.AudioFilePath, sess.IsProcessing, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SetProcessing flips the session's processing flag
func (s *SessionStore) SetProcessing(sessionID string, processing bool) error {
	result, err := s.db.DB().Exec(
		"UPDATE recording_sessions SET is_processing = ? WHERE id = ?",
		processing, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to set processing flag: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// GetByID retrieves a session with its segments loaded in index order
func (s *SessionStore) GetByID(sessionID string) (*session.RecordingSession, error) {
	row := s.db.DB().QueryRow(`
		SELECT id, created_at, duration, audio_file_path, is_processing
		FROM recording_sessions
		WHERE id = ?`, sessionID)

	sess, err := scanSession(row)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.DB().Query(`
		SELECT id, session_id, segment_index, start_time, text, status, error_message
		FROM transcription_segments
		WHERE session_id = ?
		ORDER BY segment_index ASC`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var seg session.TranscriptionSegment
		if err := rows.Scan(&seg.ID, &seg.SessionID, &seg.Index, &seg.StartTime,
			&seg.Text, &seg.Status, &seg.ErrorMessage); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		sess.Segments = append(sess.Segments, &seg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating segments: %w", err)
	}

	return sess, nil
}

// List retrieves all sessions sorted by creation time descending. Segments
// are not loaded; use GetByID for a full session.
func (s *SessionStore) List() ([]*session.RecordingSession, error) {
	rows, err := s.db.DB().Query(`
		SELECT id, created_at, duration, audio_file_path, is_processing
		FROM recording_sessions
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*session.RecordingSession
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// Delete removes a session; its segments go with it via cascade
func (s *SessionStore) Delete(sessionID string) error {
	result, err := s.db.DB().Exec("DELETE FROM recording_sessions WHERE id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// SaveProcessingResult writes the orchestrator's outcome in one transaction:
// session duration and processing flag plus every segment, upserted by
// (session_id, segment_index). Returns ErrSessionNotFound if the session was
// deleted while processing was in flight.
func (s *SessionStore) SaveProcessingResult(sess *session.RecordingSession, segments []*session.TranscriptionSegment) error {
	tx, err := s.db.DB().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.Exec(`
		UPDATE recording_sessions
		SET duration = ?, is_processing = ?
		WHERE id = ?`,
		sess.Duration, sess.IsProcessing, sess.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrSessionNotFound
	}

	for _, seg := range segments {
		if err := upsertSegment(tx, seg); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// upsertSegment inserts or updates a segment keyed by (session_id, segment_index)
func upsertSegment(tx *sql.Tx, seg *session.TranscriptionSegment) error {
	if err := seg.IsValid(); err != nil {
		return fmt.Errorf("invalid segment: %w", err)
	}

	_, err := tx.Exec(`
		INSERT INTO transcription_segments
			(id, session_id, segment_index, start_time, text, status, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, segment_index) DO UPDATE SET
			start_time = excluded.start_time,
			text = excluded.text,
			status = excluded.status,
			error_message = excluded.error_message`,
		seg.ID, seg.SessionID, seg.Index, seg.StartTime, seg.Text, seg.Status, seg.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert segment %d: %w", seg.Index, err)
	}
	return nil
}

// scanSession scans a session row from either *sql.Row or *sql.Rows
func scanSession(scanner interface {
	Scan(dest ...interface{}) error
}) (*session.RecordingSession, error) {
	var sess session.RecordingSession
	err := scanner.Scan(&sess.ID, &sess.CreatedAt, &sess.Duration,
		&sess.AudioFilePath, &sess.IsProcessing)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &sess, nil
}
