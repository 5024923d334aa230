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
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/voxlabs/voxrec/internal/audio"
	"github.com/voxlabs/voxrec/internal/logging"
	"github.com/voxlabs/voxrec/internal/secrets"
)

// DefaultGoogleURL is the synchronous recognition endpoint
const DefaultGoogleURL = "https://speech.googleapis.com/v1/speech:recognize"

// GoogleClient transcribes via the Google-style speech recognition API.
// Uploads carry raw LINEAR16 content, so every artifact is re-encoded to
// mono 16-bit 16 kHz before the call.
type GoogleClient struct {
	url        string
	store      secrets.Store
	codec      *audio.Codec
	httpClient *http.Client
	language   string
	model      string
}

// NewGoogleClient creates a client for the given endpoint. An empty url
// selects the production endpoint.
func NewGoogleClient(url string, store secrets.Store, codec *audio.Codec, timeout time.Duration) *GoogleClient {
	if url == "" {
		url = DefaultGoogleURL
	}
	return &GoogleClient{
		url:        url,
		store:      store,
		codec:      codec,
		httpClient: &http.Client{Timeout: timeout},
		language:   "en-US",
		model:      "latest_long",
	}
}

type googleRecognitionConfig struct {
	Encoding                   string `json:"encoding"`
	SampleRateHertz            int    `json:"sampleRateHertz"`
	LanguageCode               string `json:"languageCode"`
	EnableAutomaticPunctuation bool   `json:"enableAutomaticPunctuation"`
	Model                      string `json:"model"`
}

type googleRequest struct {
	Config googleRecognitionConfig `json:"config"`
	Audio  struct {
		Content string `json:"content"`
	} `json:"audio"`
}

type googleResponse struct {
	Results []struct {
		Alternatives []struct {
			Transcript string  `json:"transcript"`
			Confidence float64 `json:"confidence"`
		} `json:"alternatives"`
	} `json:"results"`
}

// Transcribe re-encodes the artifact to LINEAR16 and runs one recognition
// request. Errors come back classified; retrying is the dispatcher's job.
func (c *GoogleClient) Transcribe(ctx context.Context, audioPath string) (string, error) {
	key, err := c.store.Get(secrets.KeyGoogleSpeechAPI)
	if err != nil {
		return "", NewError(KindMissingCredential, "no Google Speech API key stored")
	}

	logging.LogProviderCall(string(ProviderGoogle), "convert")
	content, err := c.codec.ConvertToLinear16(audioPath)
	if err != nil {
		return "", WrapError(KindAudioProcessing, "LINEAR16 conversion failed", err)
	}

	reqBody := googleRequest{
		Config: googleRecognitionConfig{
			Encoding:                   "LINEAR16",
			SampleRateHertz:            audio.Linear16SampleRate,
			LanguageCode:               c.language,
			EnableAutomaticPunctuation: true,
			Model:                      c.model,
		},
	}
	reqBody.Audio.Content = base64.StdEncoding.EncodeToString(content)

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", WrapError(KindUnknown, "failed to encode request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url+"?key="+key, bytes.NewReader(payload))
	if err != nil {
		return "", WrapError(KindUnknown, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logging.LogProviderCall(string(ProviderGoogle), "recognize")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", WrapError(KindNetwork, "recognition request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if err := classifyStatus(resp.StatusCode, ProviderGoogle); err != nil {
		return "", err
	}

	var parsed googleResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", WrapError(KindUnknown, "malformed recognition response", err)
	}

	var transcript strings.Builder
	for _, result := range parsed.Results {
		if len(result.Alternatives) == 0 {
			continue
		}
		if transcript.Len() > 0 {
			transcript.WriteByte(' ')
		}
		transcript.WriteString(result.Alternatives[0].Transcript)
	}

	text := strings.TrimSpace(transcript.String())
	if text == "" {
		return "", NewError(KindNoTranscription, "recognition returned no transcript")
	}
	return text, nil
}

// classifyStatus maps a non-200 HTTP status to a classified error
func classifyStatus(status int, provider Provider) error {
	switch {
	case status == http.StatusOK:
		return nil
	case status == http.StatusUnauthorized:
		return NewError(KindAuthentication, fmt.Sprintf("%s rejected credentials", provider.DisplayName()))
	case status == http.StatusTooManyRequests:
		return NewError(KindRateLimited, fmt.Sprintf("%s rate limit exceeded", provider.DisplayName()))
	case status >= 500 && status <= 599:
		return NewError(KindRemoteServer, fmt.Sprintf("%s server error (HTTP %d)", provider.DisplayName(), status))
	default:
		return NewError(KindUnknown, fmt.Sprintf("%s unexpected HTTP %d", provider.DisplayName(), status))
	}
}
