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

// Package capture owns the recording survival machinery: the audio-session
// interruption state machine, the background execution guard, and the
// recording engine that writes captured buffers to disk.
package capture

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/voxlabs/voxrec/internal/audio"
	"github.com/voxlabs/voxrec/internal/logging"
)

// Sentinel conditions surfaced to the session controller. Each one maps to
// distinct user-visible status text.
var (
	ErrCannotResume  = errors.New("recording could not resume after interruption")
	ErrNoViableInput = errors.New("no audio input available")
)

// SessionState is the audio-session activation state
type SessionState int

const (
	StateIdle SessionState = iota
	StateActive
	StateInterrupted
)

func (s SessionState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StateInterrupted:
		return "interrupted"
	default:
		return "idle"
	}
}

// EventType tags coordinator notifications
type EventType int

const (
	EventInterruptionBegan EventType = iota
	EventInterruptionEnded
	EventRouteChanged
)

// Event is a typed coordinator notification. Dependents subscribe to a
// channel instead of registering a single callback, so any number of them
// can observe the session.
type Event struct {
	Type EventType

	// ResumeAdvisable carries the host's hint on InterruptionEnded
	ResumeAdvisable bool

	// Route carries the new hardware path on RouteChanged
	Route audio.Route

	// Derived marks interruptions inferred from input loss rather than
	// signaled by the host
	Derived bool
}

// AudioSession abstracts the host's single global audio-session resource
type AudioSession interface {
	Activate() error
	Deactivate() error
}

const eventBuffer = 16

// InterruptionCoordinator owns the audio-session state machine. It reacts
// to host interruption begin/end signals and route changes, and publishes
// typed events to subscribers.
type InterruptionCoordinator struct {
	mu           sync.Mutex
	state        SessionState
	session      AudioSession
	route        audio.Route
	shouldResume bool
	inputError   string
	subscribers  []chan Event
}

// NewInterruptionCoordinator creates an idle coordinator over the host
// audio session
func NewInterruptionCoordinator(session AudioSession) *InterruptionCoordinator {
	return &InterruptionCoordinator{
		session: session,
		route:   audio.BuiltInMicRoute,
	}
}

// Subscribe returns a channel of coordinator events. Slow subscribers drop
// events rather than block the state machine.
func (c *InterruptionCoordinator) Subscribe() <-chan Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch := make(chan Event, eventBuffer)
	c.subscribers = append(c.subscribers, ch)
	return ch
}

func (c *InterruptionCoordinator) publish(ev Event) {
	for _, ch := range c.subscribers {
		select {
		case ch <- ev:
		default:
			logging.LogWarn("Dropping coordinator event for slow subscriber",
				zap.Int("event_type", int(ev.Type)))
		}
	}
}

// State returns the current session state
func (c *InterruptionCoordinator) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentRoute returns the last observed hardware route
func (c *InterruptionCoordinator) CurrentRoute() audio.Route {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.route
}

// InputError returns the surfaced route problem, empty when input is fine
func (c *InterruptionCoordinator) InputError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputError
}

// Activate configures and activates the audio session, moving idle to
// active. Activation failure leaves the coordinator idle; the caller may
// retry.
func (c *InterruptionCoordinator) Activate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateActive {
		return nil
	}
	if err := c.session.Activate(); err != nil {
		return fmt.Errorf("failed to activate audio session: %w", err)
	}
	c.state = StateActive
	return nil
}

// Deactivate releases the audio session and returns to idle
func (c *InterruptionCoordinator) Deactivate() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateIdle {
		return nil
	}
	c.state = StateIdle
	c.shouldResume = false
	return c.session.Deactivate()
}

// BeginInterruption handles the host's interruption-began signal. The
// session moves to interrupted and dependents are told to pause capture,
// not stop it, so engine and file state survive for a fast resume.
func (c *InterruptionCoordinator) BeginInterruption() {
	c.mu.Lock()
	if c.state != StateActive {
		c.mu.Unlock()
		return
	}
	c.state = StateInterrupted
	c.shouldResume = true
	c.mu.Unlock()

	logging.LogCaptureEvent("", "interruption_began")
	c.publish(Event{Type: EventInterruptionBegan})
}

// EndInterruption handles the host's interruption-ended signal. Resuming
// requires both the host's advisability hint and the local one-shot resume
// flag; the flag clears whatever the outcome. Without resume advisability
// the session drops to idle and ErrCannotResume surfaces so the caller can
// stop and save what was recorded.
func (c *InterruptionCoordinator) EndInterruption(resumeAdvisable bool) error {
	c.mu.Lock()
	if c.state != StateInterrupted {
		c.mu.Unlock()
		return nil
	}

	resume := resumeAdvisable && c.shouldResume
	c.shouldResume = false

	if !resume {
		c.state = StateIdle
		c.mu.Unlock()
		logging.LogCaptureEvent("", "interruption_ended_no_resume")
		c.publish(Event{Type: EventInterruptionEnded, ResumeAdvisable: false})
		return ErrCannotResume
	}

	if err := c.session.Activate(); err != nil {
		c.state = StateIdle
		c.mu.Unlock()
		c.publish(Event{Type: EventInterruptionEnded, ResumeAdvisable: false})
		return fmt.Errorf("failed to reactivate audio session: %w", err)
	}
	c.state = StateActive
	c.mu.Unlock()

	logging.LogCaptureEvent("", "interruption_ended_resumed")
	c.publish(Event{Type: EventInterruptionEnded, ResumeAdvisable: true})
	return nil
}

// UpdateRoute handles a hardware route change. Losing the input device
// while active behaves like an interruption even though the host never
// signaled one. A viable device appearing clears the surfaced error but
// never auto-resumes capture; resumption only comes through EndInterruption.
func (c *InterruptionCoordinator) UpdateRoute(route audio.Route) {
	c.mu.Lock()
	c.route = route

	if !route.HasViableInput() {
		c.inputError = ErrNoViableInput.Error()
		derived := c.state == StateActive
		if derived {
			c.state = StateInterrupted
			c.shouldResume = true
		}
		c.mu.Unlock()

		logging.LogCaptureEvent("", "route_lost_input",
			zap.String("route", route.DisplayName()))
		c.publish(Event{Type: EventRouteChanged, Route: route})
		if derived {
			c.publish(Event{Type: EventInterruptionBegan, Derived: true})
		}
		return
	}

	c.inputError = ""
	c.mu.Unlock()

	logging.LogCaptureEvent("", "route_changed",
		zap.String("route", route.DisplayName()))
	c.publish(Event{Type: EventRouteChanged, Route: route})
}
