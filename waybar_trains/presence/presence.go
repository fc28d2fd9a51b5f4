// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package presence

import (
	"context"
	"log/slog"
	"net"
	"slices"
	"strings"
	"sync"
)

// Network describes how an operator's onboard network can be recognized.
type Network struct {
	// SSIDs are the names of the onboard WiFi networks.
	SSIDs []string

	// Hostname of the operator's portal, which must resolve to an address
	// starting with one of IPPrefixes. Empty Hostname skips the DNS check.
	Hostname   string
	IPPrefixes []string
}

// SSIDSource lists SSIDs of all access points the device is currently associated with.
type SSIDSource interface {
	SSIDs(ctx context.Context) ([]string, error)
}

// Resolver is satisfied by *net.Resolver.
type Resolver interface {
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Checker decides whether the device is plausibly connected to an operator's network.
//
// SSIDs are only enumerated once per Checker; a new Checker should be used for every poll.
type Checker struct {
	resolver Resolver
	ssids    func() ([]string, error)
}

func NewChecker(ctx context.Context, source SSIDSource, resolver Resolver) *Checker {
	if resolver == nil {
		resolver = net.DefaultResolver
	}
	return &Checker{
		resolver: resolver,
		ssids: sync.OnceValues(func() ([]string, error) {
			return source.SSIDs(ctx)
		}),
	}
}

// IsPresent returns true if the device is associated with one of n.SSIDs and
// n.Hostname resolves into the expected address range. Any failure is treated
// as the network not being present.
func (c *Checker) IsPresent(ctx context.Context, n Network) bool {
	connected, err := c.ssids()
	if err != nil {
		slog.Warn("Failed to list connected WiFi networks", "error", err)
		return false
	}

	if !slices.ContainsFunc(n.SSIDs, func(ssid string) bool { return slices.Contains(connected, ssid) }) {
		slog.Debug("Not connected to expected WiFi", "expected", n.SSIDs, "connected", connected)
		return false
	}

	if n.Hostname == "" {
		return true
	}

	addr, err := c.resolve4(ctx, n.Hostname)
	if err != nil {
		slog.Debug("Failed to resolve portal hostname", "hostname", n.Hostname, "error", err)
		return false
	}

	for _, prefix := range n.IPPrefixes {
		if strings.HasPrefix(addr, prefix) {
			return true
		}
	}

	slog.Debug("Portal hostname resolves outside of the onboard network", "hostname", n.Hostname, "addr", addr)
	return false
}

func (c *Checker) resolve4(ctx context.Context, host string) (string, error) {
	ips, err := c.resolver.LookupIP(ctx, "ip4", host)
	if err != nil {
		return "", err
	}

	for _, ip := range ips {
		if ip4 := ip.To4(); ip4 != nil {
			return ip4.String(), nil
		}
	}
	return "", &net.DNSError{Err: "no IPv4 address", Name: host, IsNotFound: true}
}
