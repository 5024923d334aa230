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
	"sync"
	"testing"
	"time"
)

type fakeExtension struct {
	mu        sync.Mutex
	remaining time.Duration
	ended     bool
}

func (e *fakeExtension) Remaining() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.remaining
}

func (e *fakeExtension) End() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ended = true
}

type fakeHost struct {
	ext *fakeExtension
	err error
}

func (h *fakeHost) Extend(label string) (ExecutionExtension, error) {
	if h.err != nil {
		return nil, h.err
	}
	return h.ext, nil
}

func TestGuardBeginEnd(t *testing.T) {
	ext := &fakeExtension{remaining: 5 * time.Minute}
	guard := NewBackgroundExecutionGuard(&fakeHost{ext: ext})

	if err := guard.Begin("recording"); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if guard.Remaining() != 5*time.Minute {
		t.Errorf("Remaining() = %v, want 5m", guard.Remaining())
	}

	if err := guard.Begin("recording"); err == nil {
		t.Error("second Begin() expected error")
	}

	guard.End()
	ext.mu.Lock()
	ended := ext.ended
	ext.mu.Unlock()
	if !ended {
		t.Error("End() must release the host extension")
	}
	if guard.Remaining() != 0 {
		t.Errorf("Remaining() = %v after End, want 0", guard.Remaining())
	}

	// End is idempotent
	guard.End()
}

func TestGuardHostDenial(t *testing.T) {
	guard := NewBackgroundExecutionGuard(&fakeHost{err: errors.New("background not permitted")})

	if err := guard.Begin("recording"); err == nil {
		t.Fatal("Begin() expected error when host denies extension")
	}
	if guard.Remaining() != 0 {
		t.Errorf("Remaining() = %v, want 0", guard.Remaining())
	}
}

func TestGuardExpirySignal(t *testing.T) {
	ext := &fakeExtension{remaining: 0}
	guard := NewBackgroundExecutionGuard(&fakeHost{ext: ext})

	if err := guard.Begin("recording"); err != nil {
		t.Fatal(err)
	}
	defer guard.End()

	select {
	case <-guard.Expired():
	case <-time.After(3 * time.Second):
		t.Fatal("expiry signal never fired")
	}
}
