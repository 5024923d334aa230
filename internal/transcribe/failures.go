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

import "sync"

// FailureTracker counts consecutive failures per cloud provider. The counts
// live for the process lifetime and are shared across all pipeline runs; any
// success resets the provider's streak.
type FailureTracker struct {
	mu     sync.Mutex
	counts map[Provider]int
}

// NewFailureTracker creates a tracker with all streaks at zero
func NewFailureTracker() *FailureTracker {
	return &FailureTracker{counts: make(map[Provider]int)}
}

// Count returns the provider's current consecutive-failure streak
func (t *FailureTracker) Count(provider Provider) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.counts[provider]
}

// RecordFailure increments the provider's streak by one and returns the new
// count. One exhausted dispatch counts once, regardless of attempts made.
func (t *FailureTracker) RecordFailure(provider Provider) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[provider]++
	return t.counts[provider]
}

// RecordSuccess resets the provider's streak to zero
func (t *FailureTracker) RecordSuccess(provider Provider) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[provider] = 0
}

// Seed sets a provider's streak directly
func (t *FailureTracker) Seed(provider Provider, count int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[provider] = count
}
