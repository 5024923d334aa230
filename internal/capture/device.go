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

package capture

import (
	"errors"
	"math"
	"sync"
	"time"

	gaudio "github.com/go-audio/audio"
)

// SyntheticInputDevice generates PCM on demand in place of microphone
// hardware. The daemon uses it for demo recordings; tests use it to feed
// exact durations.
type SyntheticInputDevice struct {
	mu         sync.Mutex
	permission bool
	deliver    func(*gaudio.IntBuffer)
	sampleRate int
	channels   int
	bitDepth   int
	started    bool
}

// NewSyntheticInputDevice creates a device with permission granted
func NewSyntheticInputDevice() *SyntheticInputDevice {
	return &SyntheticInputDevice{permission: true}
}

// DenyPermission makes subsequent starts fail the permission check
func (d *SyntheticInputDevice) DenyPermission() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.permission = false
}

func (d *SyntheticInputDevice) PermissionGranted() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.permission
}

func (d *SyntheticInputDevice) Start(sampleRate, channels, bitDepth int, deliver func(*gaudio.IntBuffer)) (InputStream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return nil, errors.New("synthetic device already streaming")
	}
	d.deliver = deliver
	d.sampleRate = sampleRate
	d.channels = channels
	d.bitDepth = bitDepth
	d.started = true
	return &syntheticStream{device: d}, nil
}

// Feed pushes the given amount of generated audio through the delivery
// callback in bounded chunks, as capture hardware would
func (d *SyntheticInputDevice) Feed(seconds float64) {
	d.mu.Lock()
	deliver := d.deliver
	rate := d.sampleRate
	channels := d.channels
	depth := d.bitDepth
	started := d.started
	d.mu.Unlock()

	if !started || deliver == nil {
		return
	}

	const chunk = 4096
	remaining := int(seconds * float64(rate))
	phase := 0
	for remaining > 0 {
		frames := chunk
		if frames > remaining {
			frames = remaining
		}
		buf := &gaudio.IntBuffer{
			Format:         &gaudio.Format{NumChannels: channels, SampleRate: rate},
			Data:           make([]int, frames*channels),
			SourceBitDepth: depth,
		}
		for i := 0; i < frames; i++ {
			sample := int(8000 * math.Sin(2*math.Pi*330*float64(phase+i)/float64(rate)))
			for ch := 0; ch < channels; ch++ {
				buf.Data[i*channels+ch] = sample
			}
		}
		deliver(buf)
		phase += frames
		remaining -= frames
	}
}

type syntheticStream struct {
	device *SyntheticInputDevice
}

func (s *syntheticStream) Stop() error {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	s.device.started = false
	s.device.deliver = nil
	return nil
}

// NoopAudioSession stands in for the host's global audio session where no
// real hardware session exists
type NoopAudioSession struct{}

func (NoopAudioSession) Activate() error   { return nil }
func (NoopAudioSession) Deactivate() error { return nil }

// ProcessExecutionHost grants wall-clock execution extensions of a fixed
// budget, standing in for the host OS background-task API
type ProcessExecutionHost struct {
	Budget time.Duration
}

func (h ProcessExecutionHost) Extend(label string) (ExecutionExtension, error) {
	return &processExtension{deadline: time.Now().Add(h.Budget)}, nil
}

type processExtension struct {
	deadline time.Time
}

func (e *processExtension) Remaining() time.Duration {
	remaining := time.Until(e.deadline)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (e *processExtension) End() {}
