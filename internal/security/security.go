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

package security

import (
	"errors"
	"regexp"
	"strings"
)

var (
	// ErrInvalidArtifactName is returned when an audio artifact name is unsafe
	ErrInvalidArtifactName = errors.New("invalid artifact name")

	// artifactNamePattern allows only safe filename characters
	artifactNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// SanitizeLogInput removes newline characters to prevent log injection attacks.
// This function should be used for all user-controlled data before logging.
func SanitizeLogInput(input string) string {
	sanitized := strings.ReplaceAll(input, "\n", "")
	sanitized = strings.ReplaceAll(sanitized, "\r", "")
	return sanitized
}

// ValidateArtifactName ensures an audio artifact name contains only safe
// characters and cannot traverse outside the recordings directory. Artifact
// names are stored as relative paths, so path separators are rejected outright.
func ValidateArtifactName(name string) error {
	if name == "" {
		return ErrInvalidArtifactName
	}

	if strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return ErrInvalidArtifactName
	}

	if !artifactNamePattern.MatchString(name) {
		return ErrInvalidArtifactName
	}

	return nil
}
