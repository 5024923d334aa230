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
	"encoding/base64"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	gaudio "github.com/go-audio/audio"

	"github.com/voxlabs/voxrec/internal/audio"
	"github.com/voxlabs/voxrec/internal/secrets"
)

// newTestArtifact writes a short mono WAV and returns its path
func newTestArtifact(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chunk.wav")
	frames := 8000
	buf := &gaudio.IntBuffer{
		Format:         &gaudio.Format{NumChannels: 1, SampleRate: 8000},
		Data:           make([]int, frames),
		SourceBitDepth: 16,
	}
	for i := range buf.Data {
		buf.Data[i] = int(5000 * math.Sin(2*math.Pi*200*float64(i)/8000))
	}
	if err := audio.NewCodec().Write(buf, path); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	return path
}

func googleStore(t *testing.T) secrets.Store {
	t.Helper()
	store := secrets.NewMemoryStore()
	if err := store.Put(secrets.KeyGoogleSpeechAPI, "g-key"); err != nil {
		t.Fatal(err)
	}
	return store
}

func TestGoogleTranscribe_RequestShape(t *testing.T) {
	var gotQuery string
	var gotReq googleRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("key")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("request decode error = %v", err)
		}
		_, _ = w.Write([]byte(`{"results":[{"alternatives":[{"transcript":"hello","confidence":0.92}]},{"alternatives":[{"transcript":"world","confidence":0.88}]}]}`))
	}))
	defer srv.Close()

	client := NewGoogleClient(srv.URL, googleStore(t), audio.NewCodec(), 5*time.Second)
	text, err := client.Transcribe(context.Background(), newTestArtifact(t))
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if text != "hello world" {
		t.Errorf("Transcribe() = %q, want %q", text, "hello world")
	}

	if gotQuery != "g-key" {
		t.Errorf("key query param = %q, want stored key", gotQuery)
	}
	if gotReq.Config.Encoding != "LINEAR16" {
		t.Errorf("encoding = %q, want LINEAR16", gotReq.Config.Encoding)
	}
	if gotReq.Config.SampleRateHertz != audio.Linear16SampleRate {
		t.Errorf("sampleRateHertz = %d, want %d", gotReq.Config.SampleRateHertz, audio.Linear16SampleRate)
	}
	if !gotReq.Config.EnableAutomaticPunctuation {
		t.Error("enableAutomaticPunctuation not set")
	}

	content, err := base64.StdEncoding.DecodeString(gotReq.Audio.Content)
	if err != nil {
		t.Fatalf("audio content is not base64: %v", err)
	}
	// 1 s of 8 kHz source upsampled to 16 kHz int16
	if len(content) < 30000 {
		t.Errorf("decoded content = %d bytes, want ~32000", len(content))
	}
}

func TestGoogleTranscribe_StatusMapping(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   Kind
	}{
		{"auth", http.StatusUnauthorized, "", KindAuthentication},
		{"rate limit", http.StatusTooManyRequests, "", KindRateLimited},
		{"server error", http.StatusInternalServerError, "", KindRemoteServer},
		{"bad gateway", http.StatusBadGateway, "", KindRemoteServer},
		{"teapot", http.StatusTeapot, "", KindUnknown},
		{"empty transcript", http.StatusOK, `{"results":[]}`, KindNoTranscription},
	}

	artifact := newTestArtifact(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			client := NewGoogleClient(srv.URL, googleStore(t), audio.NewCodec(), 5*time.Second)
			_, err := client.Transcribe(context.Background(), artifact)
			if KindOf(err) != tt.want {
				t.Errorf("KindOf(err) = %v, want %v (err: %v)", KindOf(err), tt.want, err)
			}
		})
	}
}

func TestGoogleTranscribe_MissingCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("network call made without credential")
	}))
	defer srv.Close()

	client := NewGoogleClient(srv.URL, secrets.NewMemoryStore(), audio.NewCodec(), 5*time.Second)
	_, err := client.Transcribe(context.Background(), newTestArtifact(t))
	if KindOf(err) != KindMissingCredential {
		t.Errorf("KindOf(err) = %v, want missing_credential", KindOf(err))
	}
}

func TestGoogleTranscribe_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	client := NewGoogleClient(srv.URL, googleStore(t), audio.NewCodec(), time.Second)
	_, err := client.Transcribe(context.Background(), newTestArtifact(t))
	if KindOf(err) != KindNetwork {
		t.Errorf("KindOf(err) = %v, want network", KindOf(err))
	}
	if !IsRetryable(err) {
		t.Error("network error must be retryable")
	}
}
