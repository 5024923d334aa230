//go:build !whisper

package transcribe

import (
	"context"

	"github.com/voxlabs/voxrec/internal/audio"
)

// LocalTranscriber stub implementation when whisper is disabled
type LocalTranscriber struct {
	modelPath string
}

// NewLocalTranscriber creates a stub transcriber when whisper is disabled
func NewLocalTranscriber(modelPath string, codec *audio.Codec) (*LocalTranscriber, error) {
	return &LocalTranscriber{modelPath: modelPath}, nil
}

// Transcribe stub implementation returns a classified unavailable error
func (lt *LocalTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	return "", NewError(KindDeviceUnavailable, "on-device transcription disabled (build with -tags whisper to enable)")
}

// Close stub implementation
func (lt *LocalTranscriber) Close() error {
	return nil
}
