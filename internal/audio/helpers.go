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

package audio

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// mockMarkers flag artifacts that must never reach a real provider.
// Test fixtures and previews carry one of these in their name.
var mockMarkers = []string{"PREVIEW_MOCK", "SAFE_PREVIEW_MOCK", "MOCK"}

// IsMockArtifact reports whether the artifact name marks synthetic/preview
// data. Matching is case-insensitive and substring-based.
func IsMockArtifact(name string) bool {
	upper := strings.ToUpper(filepath.Base(name))
	for _, marker := range mockMarkers {
		if strings.Contains(upper, marker) {
			return true
		}
	}
	return false
}

// GenerateFileName returns a unique recording artifact name
func GenerateFileName() string {
	return fmt.Sprintf("rec_%d_%s.wav", time.Now().Unix(), uuid.New().String()[:8])
}

// IsValidAudioFile reports whether the file extension is a supported
// recording format
func IsValidAudioFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".wav"
}

// FormatFileSize formats a byte count for display, e.g. "1.2 MB"
func FormatFileSize(bytes int64) string {
	switch {
	case bytes >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(1<<20))
	case bytes >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
