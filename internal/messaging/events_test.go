package messaging

import (
	"testing"
	"time"
)

func TestDisabledPublisherIsNoOp(t *testing.T) {
	pub := NewSessionEventPublisher("", "", -1, 2*time.Second)

	if pub.Enabled() {
		t.Error("Enabled() = true with no URL")
	}
	if err := pub.Connect(); err != nil {
		t.Errorf("Connect() error = %v, want no-op", err)
	}
	if pub.IsConnected() {
		t.Error("IsConnected() = true for disabled publisher")
	}

	// All publishes succeed silently so callers never branch on messaging
	if err := pub.PublishRecordingStarted("s1", "rec.wav"); err != nil {
		t.Errorf("PublishRecordingStarted() error = %v", err)
	}
	if err := pub.PublishRecordingStopped("s1", 12.5); err != nil {
		t.Errorf("PublishRecordingStopped() error = %v", err)
	}
	if err := pub.PublishInterruptionBegan("s1", true); err != nil {
		t.Errorf("PublishInterruptionBegan() error = %v", err)
	}
	if err := pub.PublishInterruptionEnded("s1", false); err != nil {
		t.Errorf("PublishInterruptionEnded() error = %v", err)
	}
	if err := pub.PublishProcessingFinished("s1", 7, "google"); err != nil {
		t.Errorf("PublishProcessingFinished() error = %v", err)
	}

	pub.Close()
}

func TestSubjectConstruction(t *testing.T) {
	pub := NewSessionEventPublisher("nats://localhost:4222", "", -1, time.Second)
	if got := pub.subjectFor(suffixRecordingStarted); got != "voxrec.sessions.recording.started" {
		t.Errorf("subjectFor() = %q, want default prefix", got)
	}

	custom := NewSessionEventPublisher("nats://localhost:4222", "myapp.rec", -1, time.Second)
	if got := custom.subjectFor(suffixProcessingFinished); got != "myapp.rec.processing.finished" {
		t.Errorf("subjectFor() = %q, want custom prefix", got)
	}
}

func TestPublishWithoutConnect(t *testing.T) {
	pub := NewSessionEventPublisher("nats://localhost:4222", "", -1, time.Second)

	if err := pub.PublishRecordingStarted("s1", "rec.wav"); err == nil {
		t.Error("publish before Connect() expected error for enabled publisher")
	}
}
