// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package journey

import (
	"fmt"
	"math"
	"time"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/time2"
)

// DelayedTime is a planned instant with a (possibly zero or negative) delay.
type DelayedTime struct {
	Planned time.Time
	Delay   time.Duration
}

// FromISO creates a DelayedTime from an ISO-8601 planned time and a delay in minutes.
// Returns nil if planned is empty. A nil delay is treated as no delay.
func FromISO(planned string, delayMinutes *int) (*DelayedTime, error) {
	if planned == "" {
		return nil, nil
	}

	t, err := time2.ParseISO(planned)
	if err != nil {
		return nil, err
	}

	d := &DelayedTime{Planned: t}
	if delayMinutes != nil {
		d.Delay = time.Duration(*delayMinutes) * time.Minute
	}
	return d, nil
}

// FromTimestamps creates a DelayedTime from a planned and an actual instant.
// Returns nil if planned is nil. A nil actual instant means no delay.
func FromTimestamps(planned, actual *time.Time) *DelayedTime {
	if planned == nil {
		return nil
	}
	if actual == nil {
		actual = planned
	}
	return &DelayedTime{Planned: *planned, Delay: actual.Sub(*planned)}
}

// FromUnixMillis works like FromTimestamps, but takes milliseconds since the Unix epoch.
func FromUnixMillis(planned, actual *int64) *DelayedTime {
	return FromTimestamps(millisToTime(planned), millisToTime(actual))
}

func millisToTime(ms *int64) *time.Time {
	if ms == nil {
		return nil
	}
	t := time2.FromUnixMillis(*ms)
	return &t
}

// Real returns the expected instant, Planned + Delay.
func (d DelayedTime) Real() time.Time {
	return d.Planned.Add(d.Delay)
}

// Equal reports whether both times describe the same real instant.
func (d DelayedTime) Equal(o DelayedTime) bool {
	return d.Real().Equal(o.Real())
}

// Compare orders DelayedTimes by their real instant.
func (d DelayedTime) Compare(o DelayedTime) int {
	return d.Real().Compare(o.Real())
}

// DelayMinutes returns the delay rounded to the nearest minute, halves to even.
func (d DelayedTime) DelayMinutes() int {
	return int(math.RoundToEven(d.Delay.Minutes()))
}

func (d DelayedTime) String() string {
	s := d.Real().Format("15:04")
	if d.Delay != 0 {
		s = fmt.Sprintf("%s <sup>%+d</sup>", s, d.DelayMinutes())
	}
	return s
}

func equalOptional(a, b *DelayedTime) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
