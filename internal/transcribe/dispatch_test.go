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
	"testing"
	"time"
)

// fakeTranscriber scripts per-call outcomes
type fakeTranscriber struct {
	calls   int
	outcome func(call int) (string, error)
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f.calls++
	return f.outcome(f.calls)
}

func alwaysText(text string) *fakeTranscriber {
	return &fakeTranscriber{outcome: func(int) (string, error) { return text, nil }}
}

func alwaysErr(err error) *fakeTranscriber {
	return &fakeTranscriber{outcome: func(int) (string, error) { return "", err }}
}

// newTestDispatcher wires fakes and captures backoff sleeps
func newTestDispatcher(local, cloud *fakeTranscriber) (*Dispatcher, *FailureTracker, *[]time.Duration) {
	tracker := NewFailureTracker()
	d := NewDispatcher(local, map[Provider]Transcriber{ProviderGoogle: cloud}, tracker, DefaultDispatchConfig())

	var sleeps []time.Duration
	d.sleep = func(ctx context.Context, dur time.Duration) error {
		sleeps = append(sleeps, dur)
		return nil
	}
	return d, tracker, &sleeps
}

func TestDispatch_LocalDirect(t *testing.T) {
	local := alwaysText("local text")
	d, _, _ := newTestDispatcher(local, alwaysText("cloud text"))

	res, err := d.Dispatch(context.Background(), ProviderOnDevice, "a.wav")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Text != "local text" || res.ResolvedBy != ProviderOnDevice || res.FallbackResolved {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestDispatch_LocalErrorPropagates(t *testing.T) {
	local := alwaysErr(NewError(KindRecognitionFailed, "engine error"))
	d, _, _ := newTestDispatcher(local, alwaysText("cloud text"))

	_, err := d.Dispatch(context.Background(), ProviderOnDevice, "a.wav")
	if KindOf(err) != KindRecognitionFailed {
		t.Errorf("KindOf(err) = %v, want recognition_failed", KindOf(err))
	}
}

func TestDispatch_ThresholdSkipsNetwork(t *testing.T) {
	local := alwaysText("fallback text")
	cloud := alwaysText("cloud text")
	d, tracker, _ := newTestDispatcher(local, cloud)

	tracker.Seed(ProviderGoogle, 5)

	res, err := d.Dispatch(context.Background(), ProviderGoogle, "a.wav")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if cloud.calls != 0 {
		t.Errorf("cloud attempted %d calls, want 0 past threshold", cloud.calls)
	}
	if res.Text != "fallback text" || !res.FallbackResolved || res.ResolvedBy != ProviderOnDevice {
		t.Errorf("unexpected result %+v", res)
	}
}

func TestDispatch_RetryBackoffThenSuccess(t *testing.T) {
	cloud := &fakeTranscriber{outcome: func(call int) (string, error) {
		if call < 3 {
			return "", NewError(KindNetwork, "connection reset")
		}
		return "third time lucky", nil
	}}
	d, tracker, sleeps := newTestDispatcher(alwaysText("fallback"), cloud)
	tracker.Seed(ProviderGoogle, 3)

	res, err := d.Dispatch(context.Background(), ProviderGoogle, "a.wav")
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	if res.Text != "third time lucky" || res.ResolvedBy != ProviderGoogle {
		t.Errorf("unexpected result %+v", res)
	}
	if cloud.calls != 3 {
		t.Errorf("cloud calls = %d, want 3", cloud.calls)
	}

	// 1s then doubled to 2s, only between retryable failures
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Errorf("sleeps[%d] = %v, want %v", i, (*sleeps)[i], want[i])
		}
	}

	// Success resets the streak outright, not to seed-1
	if tracker.Count(ProviderGoogle) != 0 {
		t.Errorf("streak after success = %d, want 0", tracker.Count(ProviderGoogle))
	}
}

func TestDispatch_NonRetryableAbortsImmediately(t *testing.T) {
	cloud := alwaysErr(NewError(KindAuthentication, "bad key"))
	d, tracker, sleeps := newTestDispatcher(alwaysText("fallback"), cloud)

	_, err := d.Dispatch(context.Background(), ProviderGoogle, "a.wav")
	if KindOf(err) != KindAuthentication {
		t.Errorf("KindOf(err) = %v, want authentication", KindOf(err))
	}
	if cloud.calls != 1 {
		t.Errorf("cloud calls = %d, want 1 for non-retryable error", cloud.calls)
	}
	if len(*sleeps) != 0 {
		t.Errorf("backoff applied to non-retryable error: %v", *sleeps)
	}
	if tracker.Count(ProviderGoogle) != 1 {
		t.Errorf("streak = %d, want 1 per exhausted dispatch", tracker.Count(ProviderGoogle))
	}
}

func TestDispatch_ExhaustionIncrementsOnce(t *testing.T) {
	cloud := alwaysErr(NewError(KindRemoteServer, "HTTP 503"))
	d, tracker, _ := newTestDispatcher(alwaysText("fallback"), cloud)

	_, err := d.Dispatch(context.Background(), ProviderGoogle, "a.wav")
	if KindOf(err) != KindAllRetriesExhausted {
		t.Errorf("KindOf(err) = %v, want all_retries_exhausted", KindOf(err))
	}
	if cloud.calls != 3 {
		t.Errorf("cloud calls = %d, want 3", cloud.calls)
	}
	// Three attempts, one streak increment
	if tracker.Count(ProviderGoogle) != 1 {
		t.Errorf("streak = %d, want 1", tracker.Count(ProviderGoogle))
	}
}

func TestDispatch_ExhaustionCrossingThresholdFallsBack(t *testing.T) {
	cloud := alwaysErr(NewError(KindNetwork, "unreachable"))
	d, tracker, _ := newTestDispatcher(alwaysText("fallback text"), cloud)
	tracker.Seed(ProviderGoogle, 4)

	res, err := d.Dispatch(context.Background(), ProviderGoogle, "a.wav")
	if err != nil {
		t.Fatalf("Dispatch() error = %v, want in-dispatch fallback", err)
	}
	if !res.FallbackResolved || res.Text != "fallback text" {
		t.Errorf("unexpected result %+v", res)
	}
	if tracker.Count(ProviderGoogle) != 5 {
		t.Errorf("streak = %d, want 5", tracker.Count(ProviderGoogle))
	}
}

func TestDispatch_ResetOnSuccessRestartsStreak(t *testing.T) {
	// After a reset, fallback must again take a full threshold of failures
	call := 0
	cloud := &fakeTranscriber{outcome: func(int) (string, error) {
		call++
		if call == 1 {
			return "recovered", nil
		}
		return "", NewError(KindAuthentication, "bad key")
	}}
	d, tracker, _ := newTestDispatcher(alwaysText("fallback"), cloud)
	tracker.Seed(ProviderGoogle, 4)

	if _, err := d.Dispatch(context.Background(), ProviderGoogle, "a.wav"); err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}

	// Four more failures stay below the threshold
	for i := 0; i < 4; i++ {
		if _, err := d.Dispatch(context.Background(), ProviderGoogle, "a.wav"); err == nil {
			t.Fatalf("Dispatch() #%d expected error below threshold", i+1)
		}
	}
	if tracker.Count(ProviderGoogle) != 4 {
		t.Errorf("streak = %d, want 4", tracker.Count(ProviderGoogle))
	}

	// The fifth crosses it and falls back
	res, err := d.Dispatch(context.Background(), ProviderGoogle, "a.wav")
	if err != nil {
		t.Fatalf("Dispatch() error = %v, want fallback", err)
	}
	if !res.FallbackResolved {
		t.Error("expected fallback-resolved result at threshold")
	}
}

func TestDispatch_UnconfiguredCloudProvider(t *testing.T) {
	d := NewDispatcher(alwaysText("local"), nil, NewFailureTracker(), DefaultDispatchConfig())

	_, err := d.Dispatch(context.Background(), ProviderOpenAI, "a.wav")
	if KindOf(err) != KindServiceUnavailable {
		t.Errorf("KindOf(err) = %v, want service_unavailable", KindOf(err))
	}
}
