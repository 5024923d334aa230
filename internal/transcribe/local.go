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

//go:build whisper

package transcribe

import (
	"context"
	"encoding/binary"
	"os"
	"strings"

	"github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"

	"github.com/voxlabs/voxrec/internal/audio"
	"github.com/voxlabs/voxrec/internal/logging"
)

// LocalTranscriber runs on-device transcription through whisper.cpp. It
// needs no credentials or network and serves as the fallback for degraded
// cloud providers.
type LocalTranscriber struct {
	model     whisper.Model
	codec     *audio.Codec
	modelPath string
}

// NewLocalTranscriber loads the whisper model from disk
func NewLocalTranscriber(modelPath string, codec *audio.Codec) (*LocalTranscriber, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, NewError(KindDeviceUnavailable, "whisper model not found at "+modelPath)
	}

	model, err := whisper.New(modelPath)
	if err != nil {
		return nil, WrapError(KindDeviceUnavailable, "failed to load whisper model", err)
	}

	if logging.Sugar != nil {
		logging.Sugar.Infow("✅ Whisper model loaded", "path", modelPath)
	}
	return &LocalTranscriber{
		model:     model,
		codec:     codec,
		modelPath: modelPath,
	}, nil
}

// Transcribe converts the artifact to 16 kHz mono samples and runs the model
func (lt *LocalTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	if lt.model == nil {
		return "", NewError(KindDeviceUnavailable, "whisper model not initialized")
	}

	pcm, err := lt.codec.ConvertToLinear16(audioPath)
	if err != nil {
		return "", WrapError(KindAudioProcessing, "failed to prepare audio for whisper", err)
	}

	samples := make([]float32, len(pcm)/2)
	for i := range samples {
		samples[i] = float32(int16(binary.LittleEndian.Uint16(pcm[i*2:]))) / 32768.0
	}

	wctx, err := lt.model.NewContext()
	if err != nil {
		return "", WrapError(KindRecognitionFailed, "failed to create whisper context", err)
	}

	logging.LogProviderCall(string(ProviderOnDevice), "process")
	if err := wctx.Process(samples, nil, nil, nil); err != nil {
		return "", WrapError(KindRecognitionFailed, "whisper processing failed", err)
	}

	var transcript strings.Builder
	for {
		segment, err := wctx.NextSegment()
		if err != nil {
			break
		}
		transcript.WriteString(segment.Text)
	}

	text := strings.TrimSpace(transcript.String())
	if text == "" {
		return "", NewError(KindNoTranscription, "whisper produced no transcript")
	}
	return text, nil
}

// Close releases the whisper model
func (lt *LocalTranscriber) Close() error {
	if lt.model != nil {
		lt.model.Close()
		if logging.Sugar != nil {
			logging.Sugar.Info("🧠 Whisper model closed")
		}
	}
	return nil
}
