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
	"time"

	"go.uber.org/zap"

	"github.com/voxlabs/voxrec/internal/logging"
)

// Result is one dispatched transcription outcome. ResolvedBy names the
// provider that actually produced the text; FallbackResolved marks results
// the local provider produced in place of a degraded cloud provider.
type Result struct {
	Text             string
	ResolvedBy       Provider
	FallbackResolved bool
}

// DispatchConfig tunes the retry and fallback policy
type DispatchConfig struct {
	MaxAttempts      int
	BaseRetryDelay   time.Duration
	FailureThreshold int
}

// DefaultDispatchConfig matches the shipped policy: 3 attempts, 1 s base
// backoff doubling per retry, fallback after 5 consecutive failures.
func DefaultDispatchConfig() DispatchConfig {
	return DispatchConfig{
		MaxAttempts:      3,
		BaseRetryDelay:   time.Second,
		FailureThreshold: 5,
	}
}

// Dispatcher routes one audio chunk to a provider, applying retry with
// exponential backoff for cloud calls and demoting persistently failing
// cloud providers to the local transcriber.
type Dispatcher struct {
	local    Transcriber
	cloud    map[Provider]Transcriber
	failures *FailureTracker
	cfg      DispatchConfig

	// sleep is injectable so tests observe backoff without waiting
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher wires the provider set. The failure tracker is shared
// process-wide across pipeline runs.
func NewDispatcher(local Transcriber, cloud map[Provider]Transcriber, failures *FailureTracker, cfg DispatchConfig) *Dispatcher {
	return &Dispatcher{
		local:    local,
		cloud:    cloud,
		failures: failures,
		cfg:      cfg,
		sleep:    sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Dispatch transcribes one chunk with the chosen provider.
//
// Local routes directly. Cloud routes pre-check the provider's failure
// streak: at or past the threshold the network is skipped entirely and the
// local provider answers, tagged fallback-resolved. Below the threshold the
// cloud call runs with up to MaxAttempts attempts, backing off only between
// retryable failures. Success resets the streak. An exhausted dispatch
// increments the streak once; if that increment crosses the threshold the
// local provider answers this call too, otherwise the last error propagates.
func (d *Dispatcher) Dispatch(ctx context.Context, provider Provider, audioPath string) (*Result, error) {
	if !provider.IsCloud() {
		text, err := d.local.Transcribe(ctx, audioPath)
		if err != nil {
			return nil, err
		}
		return &Result{Text: text, ResolvedBy: ProviderOnDevice}, nil
	}

	client, ok := d.cloud[provider]
	if !ok {
		return nil, NewError(KindServiceUnavailable, "no client configured for "+provider.DisplayName())
	}

	if streak := d.failures.Count(provider); streak >= d.cfg.FailureThreshold {
		logging.LogWarn("Provider degraded, skipping network call",
			zap.String("provider", string(provider)),
			zap.Int("failure_streak", streak))
		return d.fallback(ctx, provider, audioPath)
	}

	text, err := d.attempt(ctx, provider, client, audioPath)
	if err == nil {
		d.failures.RecordSuccess(provider)
		return &Result{Text: text, ResolvedBy: provider}, nil
	}

	streak := d.failures.RecordFailure(provider)
	logging.LogError(err, "Cloud transcription exhausted",
		zap.String("provider", string(provider)),
		zap.Int("failure_streak", streak))

	if streak >= d.cfg.FailureThreshold {
		return d.fallback(ctx, provider, audioPath)
	}
	return nil, err
}

// attempt runs the cloud call with retry. Backoff doubles from the base
// delay and applies only before a retry of a retryable failure.
func (d *Dispatcher) attempt(ctx context.Context, provider Provider, client Transcriber, audioPath string) (string, error) {
	var lastErr error
	delay := d.cfg.BaseRetryDelay

	for i := 0; i < d.cfg.MaxAttempts; i++ {
		if i > 0 {
			if err := d.sleep(ctx, delay); err != nil {
				return "", WrapError(KindNetwork, "retry interrupted", err)
			}
			delay *= 2
		}

		text, err := client.Transcribe(ctx, audioPath)
		if err == nil {
			return text, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return "", err
		}
	}

	return "", WrapError(KindAllRetriesExhausted, provider.DisplayName()+" failed after retries", lastErr)
}

// fallback answers with the local provider on behalf of a degraded cloud
// provider. Local failures here propagate as-is; there is nothing further
// to fall back to.
func (d *Dispatcher) fallback(ctx context.Context, degraded Provider, audioPath string) (*Result, error) {
	logging.LogProviderCall(string(ProviderOnDevice), "fallback_for_"+string(degraded))
	text, err := d.local.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}
	return &Result{Text: text, ResolvedBy: ProviderOnDevice, FallbackResolved: true}, nil
}
