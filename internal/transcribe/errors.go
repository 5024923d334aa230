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
	"errors"
	"fmt"
)

// Kind classifies transcription failures. Retryability drives the dispatch
// retry loop; everything else aborts immediately.
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindDeviceUnavailable
	KindRecognitionFailed
	KindNoTranscription
	KindAudioProcessing
	KindAuthentication
	KindRateLimited
	KindRemoteServer
	KindNetwork
	KindMissingCredential
	KindServiceUnavailable
	KindAllRetriesExhausted
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindDeviceUnavailable:
		return "device_unavailable"
	case KindRecognitionFailed:
		return "recognition_failed"
	case KindNoTranscription:
		return "no_transcription"
	case KindAudioProcessing:
		return "audio_processing"
	case KindAuthentication:
		return "authentication"
	case KindRateLimited:
		return "rate_limited"
	case KindRemoteServer:
		return "remote_server"
	case KindNetwork:
		return "network"
	case KindMissingCredential:
		return "missing_credential"
	case KindServiceUnavailable:
		return "service_unavailable"
	case KindAllRetriesExhausted:
		return "all_retries_exhausted"
	default:
		return "unknown"
	}
}

// Retryable reports whether a failure of this kind may succeed on retry
func (k Kind) Retryable() bool {
	switch k {
	case KindNetwork, KindRateLimited, KindRemoteServer:
		return true
	}
	return false
}

// Error is a classified transcription failure
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NewError creates a classified error without a cause
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WrapError creates a classified error wrapping an underlying cause
func WrapError(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the classification from an error chain; unclassified
// errors report KindUnknown
func KindOf(err error) Kind {
	var te *Error
	if errors.As(err, &te) {
		return te.Kind
	}
	return KindUnknown
}

// IsRetryable reports whether the error chain carries a retryable kind
func IsRetryable(err error) bool {
	return KindOf(err).Retryable()
}
