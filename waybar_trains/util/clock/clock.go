// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package clock

import "time"

// Clock provides the current time.
type Clock interface {
	Now() time.Time
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

// Mock always returns the time it was set to.
type Mock struct {
	t time.Time
}

func NewMockClock(t time.Time) *Mock {
	return &Mock{t: t}
}

func (m *Mock) Now() time.Time {
	return m.t
}

func (m *Mock) Set(t time.Time) {
	m.t = t
}

func (m *Mock) Advance(d time.Duration) {
	m.t = m.t.Add(d)
}
