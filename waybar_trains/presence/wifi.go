// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package presence

import (
	"context"
	"log/slog"

	"github.com/mdlayher/wifi"
)

// WiFi lists SSIDs of access points associated with station-mode
// wireless interfaces, through nl80211.
type WiFi struct{}

func (WiFi) SSIDs(ctx context.Context) ([]string, error) {
	c, err := wifi.New()
	if err != nil {
		return nil, err
	}
	defer c.Close()

	interfaces, err := c.Interfaces()
	if err != nil {
		return nil, err
	}

	var ssids []string
	for _, ifi := range interfaces {
		if ifi.Type != wifi.InterfaceTypeStation {
			continue
		}

		// Interfaces not associated with any access point have no BSS
		bss, err := c.BSS(ifi)
		if err != nil {
			slog.Debug("No BSS for interface", "interface", ifi.Name, "error", err)
			continue
		}

		if bss.SSID != "" {
			ssids = append(ssids, bss.SSID)
		}
	}

	return ssids, nil
}

// StaticSSIDs is an SSIDSource returning a fixed list of networks.
type StaticSSIDs []string

func (s StaticSSIDs) SSIDs(context.Context) ([]string, error) {
	return s, nil
}
