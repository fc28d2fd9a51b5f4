// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package journey

import "strings"

// Stop is a station visited during a journey.
type Stop struct {
	Name      string
	ID        string
	Arrival   *DelayedTime
	Departure *DelayedTime
	Track     string
}

// EstimatedDeparture returns the departure time, falling back to the arrival time.
// Returns false for untimed stops.
func (s Stop) EstimatedDeparture() (DelayedTime, bool) {
	if s.Departure != nil {
		return *s.Departure, true
	} else if s.Arrival != nil {
		return *s.Arrival, true
	}
	return DelayedTime{}, false
}

func (s Stop) IsTimed() bool {
	return s.Arrival != nil || s.Departure != nil
}

func (s Stop) Equal(o Stop) bool {
	return s.Name == o.Name &&
		s.ID == o.ID &&
		s.Track == o.Track &&
		equalOptional(s.Arrival, o.Arrival) &&
		equalOptional(s.Departure, o.Departure)
}

func (s Stop) String() string {
	var b strings.Builder
	b.WriteString(s.Name)

	if s.Track != "" {
		b.WriteByte(' ')
		b.WriteString(s.Track)
	}

	if s.Arrival != nil && s.Departure != nil {
		b.WriteByte(' ')
		b.WriteString(s.Arrival.String())
		b.WriteString(" – ")
		b.WriteString(s.Departure.String())
	} else if t, ok := s.EstimatedDeparture(); ok {
		b.WriteByte(' ')
		b.WriteString(t.String())
	}

	return b.String()
}
