// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package journey

import "time"

// GraceWindow is for how long after reaching the final stop it is still reported as the next one.
const GraceWindow = 30 * time.Minute

// EstimateNextStop returns the first timed stop departing (or arriving, if there's
// no departure time) strictly after now.
//
// If all stops were already passed, the last timed stop is returned
// as long as now is within GraceWindow of it. Untimed stops are never returned.
func EstimateNextStop(stops []Stop, now time.Time) (Stop, bool) {
	last := -1
	for i, stop := range stops {
		t, ok := stop.EstimatedDeparture()
		if !ok {
			continue
		}
		if t.Real().After(now) {
			return stop, true
		}
		last = i
	}

	if last >= 0 {
		t, _ := stops[last].EstimatedDeparture()
		if t.Real().Add(GraceWindow).After(now) {
			return stops[last], true
		}
	}

	return Stop{}, false
}
