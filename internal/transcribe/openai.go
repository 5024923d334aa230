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
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/voxlabs/voxrec/internal/logging"
	"github.com/voxlabs/voxrec/internal/secrets"
)

// DefaultOpenAIURL is the audio transcription endpoint
const DefaultOpenAIURL = "https://api.openai.com/v1/audio/transcriptions"

const openAIModel = "whisper-1"

// OpenAIClient transcribes via the OpenAI-style transcription API. The
// artifact uploads as-is in a multipart form; no re-encoding happens here.
type OpenAIClient struct {
	url        string
	store      secrets.Store
	httpClient *http.Client
}

// NewOpenAIClient creates a client for the given endpoint. An empty url
// selects the production endpoint.
func NewOpenAIClient(url string, store secrets.Store, timeout time.Duration) *OpenAIClient {
	if url == "" {
		url = DefaultOpenAIURL
	}
	return &OpenAIClient{
		url:        url,
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type openAIResponse struct {
	Text string `json:"text"`
}

// Transcribe uploads the artifact and returns the transcript text
func (c *OpenAIClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	key, err := c.store.Get(secrets.KeyOpenAIWhisper)
	if err != nil {
		return "", NewError(KindMissingCredential, "no OpenAI API key stored")
	}

	f, err := os.Open(audioPath)
	if err != nil {
		return "", WrapError(KindAudioProcessing, "failed to open audio artifact", err)
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("model", openAIModel); err != nil {
		return "", WrapError(KindUnknown, "failed to build form", err)
	}
	part, err := form.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", WrapError(KindUnknown, "failed to build form", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", WrapError(KindAudioProcessing, "failed to read audio artifact", err)
	}
	if err := form.Close(); err != nil {
		return "", WrapError(KindUnknown, "failed to finalize form", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &body)
	if err != nil {
		return "", WrapError(KindUnknown, "failed to build request", err)
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", form.FormDataContentType())

	logging.LogProviderCall(string(ProviderOpenAI), "transcribe")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", WrapError(KindNetwork, "transcription request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode, ProviderOpenAI); err != nil {
		return "", err
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", WrapError(KindUnknown, "malformed transcription response", err)
	}

	text := strings.TrimSpace(parsed.Text)
	if text == "" {
		return "", NewError(KindNoTranscription, "transcription returned no text")
	}
	return text, nil
}
