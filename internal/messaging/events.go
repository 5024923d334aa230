package messaging

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
)

// SessionEvent is a recording lifecycle event published for downstream
// consumers (sync services, analytics)
type SessionEvent struct {
	SessionID     string  `json:"session_id"`
	AudioFilePath string  `json:"audio_file_path,omitempty"`
	Duration      float64 `json:"duration,omitempty"`
	SegmentCount  int     `json:"segment_count,omitempty"`
	Provider      string  `json:"provider,omitempty"`
	Detail        string  `json:"detail,omitempty"`
	Timestamp     int64   `json:"timestamp"`
}

// Subject suffixes under the configured prefix
const (
	suffixRecordingStarted   = "recording.started"
	suffixRecordingStopped   = "recording.stopped"
	suffixInterruptionBegan  = "interruption.began"
	suffixInterruptionEnded  = "interruption.ended"
	suffixProcessingFinished = "processing.finished"
)

// DefaultSubjectPrefix prefixes all session event subjects
const DefaultSubjectPrefix = "voxrec.sessions"

// SessionEventPublisher publishes session lifecycle events over NATS.
// An empty URL disables publishing entirely; every method is then a no-op,
// so callers never need to branch on whether messaging is configured.
type SessionEventPublisher struct {
	conn          *nats.Conn
	url           string
	prefix        string
	maxReconnect  int
	reconnectWait time.Duration
}

// NewSessionEventPublisher creates a publisher. Empty url means disabled.
func NewSessionEventPublisher(url, prefix string, maxReconnect int, reconnectWait time.Duration) *SessionEventPublisher {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &SessionEventPublisher{
		url:           url,
		prefix:        prefix,
		maxReconnect:  maxReconnect,
		reconnectWait: reconnectWait,
	}
}

// Enabled reports whether a NATS URL is configured
func (p *SessionEventPublisher) Enabled() bool {
	return p.url != ""
}

// Connect establishes the NATS connection with retry logic. No-op when
// disabled.
func (p *SessionEventPublisher) Connect() error {
	if !p.Enabled() {
		log.Println("📭 Session event publishing disabled (no NATS URL)")
		return nil
	}

	log.Printf("🔌 Connecting to NATS at %s", p.url)

	opts := []nats.Option{
		nats.Name("voxrec"),
		nats.ReconnectWait(p.reconnectWait),
		nats.MaxReconnects(p.maxReconnect),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("⚠️  NATS disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("🔄 NATS reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Println("🔌 NATS connection closed")
		}),
	}

	conn, err := nats.Connect(p.url, opts...)
	if err != nil {
		return fmt.Errorf("failed to connect to NATS: %w", err)
	}

	p.conn = conn
	log.Printf("✅ Connected to NATS server at %s", conn.ConnectedUrl())
	return nil
}

func (p *SessionEventPublisher) subjectFor(suffix string) string {
	return p.prefix + "." + suffix
}

func (p *SessionEventPublisher) publish(suffix string, event *SessionEvent) error {
	if !p.Enabled() {
		return nil
	}
	if p.conn == nil {
		return fmt.Errorf("NATS connection not established")
	}

	event.Timestamp = time.Now().Unix()
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal session event: %w", err)
	}

	subject := p.subjectFor(suffix)
	if err := p.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}
	return nil
}

// PublishRecordingStarted announces a new recording session
func (p *SessionEventPublisher) PublishRecordingStarted(sessionID, audioFilePath string) error {
	return p.publish(suffixRecordingStarted, &SessionEvent{
		SessionID:     sessionID,
		AudioFilePath: audioFilePath,
	})
}

// PublishRecordingStopped announces a finished recording with its elapsed
// duration
func (p *SessionEventPublisher) PublishRecordingStopped(sessionID string, duration float64) error {
	return p.publish(suffixRecordingStopped, &SessionEvent{
		SessionID: sessionID,
		Duration:  duration,
	})
}

// PublishInterruptionBegan announces a capture interruption. Detail
// distinguishes host-signaled interruptions from input-loss ones.
func (p *SessionEventPublisher) PublishInterruptionBegan(sessionID string, derived bool) error {
	detail := "system"
	if derived {
		detail = "input_lost"
	}
	return p.publish(suffixInterruptionBegan, &SessionEvent{
		SessionID: sessionID,
		Detail:    detail,
	})
}

// PublishInterruptionEnded announces the end of an interruption
func (p *SessionEventPublisher) PublishInterruptionEnded(sessionID string, resumed bool) error {
	detail := "could_not_resume"
	if resumed {
		detail = "resumed"
	}
	return p.publish(suffixInterruptionEnded, &SessionEvent{
		SessionID: sessionID,
		Detail:    detail,
	})
}

// PublishProcessingFinished announces a completed transcription pipeline
// run
func (p *SessionEventPublisher) PublishProcessingFinished(sessionID string, segmentCount int, provider string) error {
	return p.publish(suffixProcessingFinished, &SessionEvent{
		SessionID:    sessionID,
		SegmentCount: segmentCount,
		Provider:     provider,
	})
}

// Close closes the NATS connection
func (p *SessionEventPublisher) Close() {
	if p.conn != nil {
		p.conn.Close()
		log.Println("🔌 NATS connection closed")
	}
}

// IsConnected reports whether the publisher has a live connection
func (p *SessionEventPublisher) IsConnected() bool {
	return p.conn != nil && p.conn.IsConnected()
}
