// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package time2

import (
	"fmt"
	"time"
)

// naiveISOLayout is used for ISO-8601 strings without an UTC offset,
// which are then interpreted in GermanTimezone.
const naiveISOLayout = "2006-01-02T15:04:05"

type ErrInvalidTimestamp string

func (e ErrInvalidTimestamp) Error() string {
	return fmt.Sprintf("invalid timestamp: %q", string(e))
}

// FromUnixMillis converts milliseconds since the Unix epoch into a time in GermanTimezone.
func FromUnixMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(GermanTimezone)
}

// ParseISO parses an ISO-8601 date-time into GermanTimezone.
// Naive strings (without an UTC offset) are assumed to already be in GermanTimezone.
func ParseISO(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(GermanTimezone), nil
	}

	t, err := time.ParseInLocation(naiveISOLayout, s, GermanTimezone)
	if err != nil {
		return time.Time{}, ErrInvalidTimestamp(s)
	}
	return t, nil
}
