// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/captive"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/journey"
)

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingDocument = errors.New("missing document")
)

// Documents are the raw JSON responses fetched from an operator's portal, by name.
type Documents map[string]json.RawMessage

// Decode unmarshals the document with the given name into v.
func (d Documents) Decode(name string, v any) error {
	raw, ok := d[name]
	if !ok {
		return fmt.Errorf("%w %q", ErrMissingDocument, name)
	}

	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Provider is an integration with a single operator's onboard portal.
type Provider interface {
	// Name identifies the provider in logs, fixtures and output.
	Name() string

	// IsPresent heuristically checks if the device is connected to the operator's network.
	IsPresent(ctx context.Context) bool

	// AttemptLogin logs into the portal, if it has a captive portal.
	// Providers without a login flow return captive.NotImplemented.
	AttemptLogin(ctx context.Context) (captive.Result, error)

	// FetchRaw downloads the operator's data.
	FetchRaw(ctx context.Context) (Documents, error)

	// Parse turns previously fetched data into a Status.
	// Returns nil, nil if the data doesn't describe any journey.
	Parse(Documents) (*journey.Status, error)
}

// Select returns providers with the given names, in the given order.
func Select(all []Provider, names []string) ([]Provider, error) {
	selected := make([]Provider, 0, len(names))
	for _, name := range names {
		p := Find(all, name)
		if p == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, name)
		}
		selected = append(selected, p)
	}
	return selected, nil
}

// Find returns the provider with the given name, or nil.
func Find(all []Provider, name string) Provider {
	for _, p := range all {
		if p.Name() == name {
			return p
		}
	}
	return nil
}
