// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package journey

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	lineIcon  = "󰔬"
	speedIcon = "󰓅"
)

var ErrNextStopNotInItinerary = errors.New("next stop is not part of the itinerary")

// Status is a snapshot of the current journey, as reported by a single provider.
//
// Statuses are never modified after construction; WithNextStop returns a copy.
// If NextStop is set, it must be equal to exactly one element of Stops.
type Status struct {
	Provider    string
	Line        string
	LineID      string
	Vehicle     string
	Origin      string
	Destination string
	WagonClass  string
	Speed       *float64 // km/h
	Stops       []Stop
	NextStop    *Stop
}

// WithNextStop returns a copy of s with NextStop replaced.
func (s Status) WithNextStop(next *Stop) Status {
	s.Stops = slices.Clone(s.Stops)
	if next != nil {
		n := *next
		next = &n
	}
	s.NextStop = next
	return s
}

// WithEstimatedNextStop returns a copy of s with NextStop estimated with
// EstimateNextStop, or s unchanged if it already has a NextStop or no Stops.
func (s Status) WithEstimatedNextStop(now time.Time) Status {
	if s.NextStop != nil || len(s.Stops) == 0 {
		return s
	}

	if next, ok := EstimateNextStop(s.Stops, now); ok {
		return s.WithNextStop(&next)
	}
	return s
}

// Validate checks that NextStop, if set, appears exactly once in Stops.
func (s Status) Validate() error {
	if s.NextStop == nil {
		return nil
	}

	matches := 0
	for _, stop := range s.Stops {
		if stop.Equal(*s.NextStop) {
			matches++
		}
	}

	if matches != 1 {
		return fmt.Errorf("%w: %q matches %d stops", ErrNextStopNotInItinerary, s.NextStop.Name, matches)
	}
	return nil
}

// LineName returns the most descriptive name of the line,
// or an empty string if the provider did not report one.
func (s Status) LineName() string {
	switch {
	case s.Line != "":
		return s.Line
	case s.Vehicle != "" && s.LineID != "":
		return s.Vehicle + " " + s.LineID
	case s.Vehicle != "":
		return s.Vehicle
	default:
		return s.LineID
	}
}

// Text returns a short, single-line description of the journey.
func (s Status) Text() string {
	parts := make([]string, 0, 4)

	if line := s.LineName(); line != "" {
		parts = append(parts, lineIcon+" "+line)
	}

	if s.NextStop != nil {
		parts = append(parts, s.NextStop.String())
	} else {
		if s.Destination != "" {
			parts = append(parts, "→ "+s.Destination)
		}
		if s.Speed != nil && *s.Speed != 0 {
			parts = append(parts, fmt.Sprintf("%s %.0f km/h", speedIcon, *s.Speed))
		}
	}

	return strings.Join(parts, " ")
}

// Tooltip lists all stops starting at NextStop, one per line.
// The tooltip is empty if NextStop is not set or is not part of Stops.
func (s Status) Tooltip() string {
	if s.NextStop == nil {
		return ""
	}

	var lines []string
	emitting := false
	for _, stop := range s.Stops {
		if !emitting && stop.Equal(*s.NextStop) {
			emitting = true
		}
		if emitting {
			lines = append(lines, stop.String())
		}
	}
	return strings.Join(lines, "\n")
}
