// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package backoff

import (
	"context"
	"time"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/clock"
)

const (
	Success = true
	Failure = false
)

// Backoff schedules periodic runs. After n consecutive failures,
// the next run is delayed by Period * 2^(n-1), with the exponent capped
// at MaxBackoffExponent (if non-zero).
type Backoff struct {
	Period             time.Duration
	Failures           uint
	MaxBackoffExponent uint
	Clock              clock.Clock

	lastRun time.Time
	nextRun time.Time
}

func (b *Backoff) StartRun() {
	b.lastRun = b.now()
}

func (b *Backoff) EndRun(success bool) time.Time {
	if success {
		b.Failures = 0
		b.nextRun = b.lastRun.Add(b.Period)
	} else {
		b.Failures++
		backoffExponent := b.Failures - 1
		if b.MaxBackoffExponent > 0 && backoffExponent > b.MaxBackoffExponent {
			backoffExponent = b.MaxBackoffExponent
		}
		b.nextRun = b.lastRun.Add(b.Period * time.Duration(pow(2, backoffExponent)))
	}
	return b.nextRun
}

// Wait blocks until the next run is due, or until ctx is done.
func (b *Backoff) Wait(ctx context.Context) error {
	d := b.nextRun.Sub(b.now())
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *Backoff) now() time.Time {
	if b.Clock == nil {
		return time.Now()
	}
	return b.Clock.Now()
}

func pow(base, exp uint) uint {
	r := uint(1)
	for exp > 0 {
		if exp&1 == 1 {
			r *= base
		}
		base *= base
		exp >>= 1
	}
	return r
}
