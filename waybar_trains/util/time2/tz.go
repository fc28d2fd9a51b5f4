// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package time2

import (
	"fmt"
	"time"
)

// GermanTimezone is used for all timestamps coming from onboard portals,
// as every supported operator runs trains in Germany.
var GermanTimezone *time.Location

func init() {
	var err error
	GermanTimezone, err = time.LoadLocation("Europe/Berlin")
	if err != nil {
		panic(fmt.Errorf("failed to load Europe/Berlin timezone: %w", err))
	}
}
