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
	"fmt"

	"github.com/voxlabs/voxrec/internal/secrets"
)

// Provider identifies a transcription backend
type Provider string

const (
	ProviderOnDevice Provider = "on_device"
	ProviderGoogle   Provider = "google"
	ProviderOpenAI   Provider = "openai"
)

// ParseProvider validates a provider identifier from configuration
func ParseProvider(s string) (Provider, error) {
	switch Provider(s) {
	case ProviderOnDevice, ProviderGoogle, ProviderOpenAI:
		return Provider(s), nil
	}
	return "", fmt.Errorf("unknown transcription provider %q", s)
}

// DisplayName returns a human-readable provider name
func (p Provider) DisplayName() string {
	switch p {
	case ProviderOnDevice:
		return "On-Device"
	case ProviderGoogle:
		return "Google Speech-to-Text"
	case ProviderOpenAI:
		return "OpenAI Whisper"
	default:
		return string(p)
	}
}

// IsCloud reports whether the provider makes network calls
func (p Provider) IsCloud() bool {
	return p == ProviderGoogle || p == ProviderOpenAI
}

// RequiresCredential reports whether the provider needs a stored API key
func (p Provider) RequiresCredential() bool {
	return p.IsCloud()
}

// CredentialKey returns the secret-store key for the provider's API key.
// Empty for providers that need no credential.
func (p Provider) CredentialKey() string {
	switch p {
	case ProviderGoogle:
		return secrets.KeyGoogleSpeechAPI
	case ProviderOpenAI:
		return secrets.KeyOpenAIWhisper
	}
	return ""
}

// Transcriber converts one audio artifact to text. Implementations classify
// failures as *Error so the dispatcher can decide on retry and fallback.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}
