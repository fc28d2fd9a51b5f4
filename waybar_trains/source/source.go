// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/presence"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/provider"
)

var ErrUnknownNextStop = errors.New("next stop not found among stops")

// Options are shared by all providers created by All.
type Options struct {
	// Presence is used by all providers for the network presence check.
	// Must be created anew for every poll.
	Presence *presence.Checker

	// ODEGSessionID overrides the user session id sent to the ODEG portal.
	ODEGSessionID uuid.UUID
}

// All returns all known providers, in priority order.
// Every provider gets its own HTTP session.
func All(opts Options) []provider.Provider {
	return []provider.Provider{
		NewICEPortal(opts.Presence),
		NewZugportal(opts.Presence),
		NewODEG(opts.Presence, opts.ODEGSessionID),
	}
}

// Names returns the names of all known providers, in priority order.
func Names() []string {
	return []string{ICEPortalName, ZugportalName, ODEGName}
}

func isPresent(ctx context.Context, checker *presence.Checker, n presence.Network) bool {
	if checker == nil {
		return false
	}
	return checker.IsPresent(ctx, n)
}

// looseString accepts both JSON strings and numbers, as the portals
// are not consistent about the types of identifiers.
type looseString string

func (s *looseString) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = looseString(str)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*s = looseString(n.String())
	return nil
}
