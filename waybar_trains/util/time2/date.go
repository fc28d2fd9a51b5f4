// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package time2

import (
	"fmt"
	"time"
)

// Date is a calendar date, used as the GTFS-Realtime trip start date.
type Date struct {
	Y    uint16
	M, D uint8
}

// DateOf returns the calendar date of t, in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{uint16(y), uint8(m), uint8(d)}
}

func (d Date) StringSeparator(sep string) string {
	return fmt.Sprintf("%04d%s%02d%s%02d", d.Y, sep, d.M, sep, d.D)
}

func (d Date) String() string {
	return d.StringSeparator("-")
}
