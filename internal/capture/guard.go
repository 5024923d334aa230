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
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voxlabs/voxrec/internal/logging"
)

// expiryWarning is the remaining-time mark at which the guard starts
// warning that the host will reclaim execution
const expiryWarning = 30 * time.Second

// ExecutionExtension is one granted slice of extended execution time
type ExecutionExtension interface {
	Remaining() time.Duration
	End()
}

// HostExecutionExtender grants extended execution when the process is
// backgrounded mid-recording
type HostExecutionExtender interface {
	Extend(label string) (ExecutionExtension, error)
}

// BackgroundExecutionGuard holds an execution extension open for the
// duration of a recording and watches the remaining time, warning as
// expiry approaches and signaling when it arrives.
type BackgroundExecutionGuard struct {
	host HostExecutionExtender

	mu      sync.Mutex
	ext     ExecutionExtension
	done    chan struct{}
	expired chan struct{}
	warned  bool
}

// NewBackgroundExecutionGuard creates an inactive guard
func NewBackgroundExecutionGuard(host HostExecutionExtender) *BackgroundExecutionGuard {
	return &BackgroundExecutionGuard{host: host}
}

// Begin requests extended execution and starts the expiry monitor. Calling
// Begin while a guard is active is an error; End first.
func (g *BackgroundExecutionGuard) Begin(label string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ext != nil {
		return fmt.Errorf("execution guard already active")
	}

	ext, err := g.host.Extend(label)
	if err != nil {
		return fmt.Errorf("host denied execution extension: %w", err)
	}

	g.ext = ext
	g.done = make(chan struct{})
	g.expired = make(chan struct{})
	g.warned = false

	go g.monitor(g.done, g.expired)

	logging.LogCaptureEvent("", "execution_guard_began",
		zap.String("label", label),
		zap.Duration("remaining", ext.Remaining()))
	return nil
}

// End releases the extension and stops the monitor. Safe to call when
// inactive.
func (g *BackgroundExecutionGuard) End() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.ext == nil {
		return
	}
	close(g.done)
	g.ext.End()
	g.ext = nil
	logging.LogCaptureEvent("", "execution_guard_ended")
}

// Remaining returns the time left on the current extension, zero when
// inactive
func (g *BackgroundExecutionGuard) Remaining() time.Duration {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.ext == nil {
		return 0
	}
	return g.ext.Remaining()
}

// Expired signals when the host reclaims execution. The channel closes at
// expiry; it is only valid between Begin and End.
func (g *BackgroundExecutionGuard) Expired() <-chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.expired
}

// monitor polls remaining time once a second
func (g *BackgroundExecutionGuard) monitor(done <-chan struct{}, expired chan<- struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
		}

		g.mu.Lock()
		if g.ext == nil {
			g.mu.Unlock()
			return
		}
		remaining := g.ext.Remaining()
		warn := remaining <= expiryWarning && !g.warned
		if warn {
			g.warned = true
		}
		g.mu.Unlock()

		if warn {
			logging.LogWarn("Background execution expiring soon",
				zap.Duration("remaining", remaining))
		}
		if remaining <= 0 {
			logging.LogWarn("Background execution expired")
			close(expired)
			return
		}
	}
}
