// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package provider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/captive"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/journey"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/clock"
)

// Outcome summarizes how probing a single provider went.
type Outcome string

const (
	OutcomeAbsent  Outcome = "absent"  // not connected to the provider's network
	OutcomeEmpty   Outcome = "empty"   // data fetched, but no journey described
	OutcomeError   Outcome = "error"   // presence confirmed, but fetching or parsing failed
	OutcomeMatched Outcome = "matched" // status produced
)

// Observer is notified about the outcome of every probed provider.
type Observer interface {
	Probed(provider string, outcome Outcome)
}

// Result is the status produced by the first matching provider,
// together with the raw data it was parsed from.
type Result struct {
	Status  journey.Status
	Capture Capture
}

// Orchestrator asks providers, in order, for the current status.
// The first provider to return a status wins, subsequent providers are not tried.
type Orchestrator struct {
	Providers         []Provider
	Clock             clock.Clock
	SkipPresenceCheck bool
	SkipLogin         bool
	Observer          Observer
}

// Run returns the status of the first matching provider, or nil if no provider matched.
// Errors of individual providers are logged and never stop the loop.
func (o *Orchestrator) Run(ctx context.Context) *Result {
	for _, p := range o.Providers {
		logger := slog.With("provider", p.Name())

		r, outcome, err := o.probe(ctx, p, logger)
		o.observe(p.Name(), outcome)

		switch outcome {
		case OutcomeMatched:
			return r
		case OutcomeError:
			logger.Error("Failed to get status", "error", err)
		case OutcomeEmpty:
			logger.Debug("Provider has no current journey")
		}
	}
	return nil
}

// Replay feeds a capture through the provider named in it, using the capture's
// recorded time as "now" for next stop estimation. Returns nil, nil if the capture
// doesn't describe any journey.
func (o *Orchestrator) Replay(ctx context.Context, c *Capture) (*Result, error) {
	p := Find(o.Providers, c.Provider)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}

	r, outcome, err := o.complete(ctx, p, *c, slog.With("provider", p.Name()))
	o.observe(p.Name(), outcome)
	return r, err
}

func (o *Orchestrator) probe(ctx context.Context, p Provider, logger *slog.Logger) (r *Result, outcome Outcome, err error) {
	defer func() {
		if v := recover(); v != nil {
			r, outcome, err = nil, OutcomeError, fmt.Errorf("panic: %v", v)
		}
	}()

	logger.Debug("Getting status")
	if !o.SkipPresenceCheck && !p.IsPresent(ctx) {
		logger.Debug("Skipping, not connected to WiFi")
		return nil, OutcomeAbsent, nil
	}

	if !o.SkipLogin {
		o.login(ctx, p, logger)
	}

	fetchedAt := o.now()
	docs, err := p.FetchRaw(ctx)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("fetching data: %w", err)
	}
	logger.Debug("Fetched data", "documents", len(docs))

	return o.complete(ctx, p, Capture{Provider: p.Name(), CapturedAt: fetchedAt, Documents: docs}, logger)
}

func (o *Orchestrator) login(ctx context.Context, p Provider, logger *slog.Logger) {
	result, err := p.AttemptLogin(ctx)
	switch {
	case err != nil:
		logger.Warn("Captive portal login failed", "result", result, "error", err)
	case result == captive.Failed:
		logger.Warn("Captive portal login failed", "result", result)
	case result == captive.Success:
		logger.Info("Logged into captive portal")
	default:
		logger.Debug("Captive portal login not needed", "result", result)
	}
}

func (o *Orchestrator) complete(ctx context.Context, p Provider, c Capture, logger *slog.Logger) (*Result, Outcome, error) {
	status, err := p.Parse(c.Documents)
	if err != nil {
		return nil, OutcomeError, fmt.Errorf("parsing data: %w", err)
	} else if status == nil {
		return nil, OutcomeEmpty, nil
	}

	completed := status.WithEstimatedNextStop(c.CapturedAt)
	if completed.Provider == "" {
		completed.Provider = p.Name()
	}
	if err := completed.Validate(); err != nil {
		return nil, OutcomeError, err
	}

	if logger.Enabled(ctx, slog.LevelDebug) {
		logger.Debug("Got status", "status", spew.Sdump(completed))
	}

	return &Result{Status: completed, Capture: c}, OutcomeMatched, nil
}

func (o *Orchestrator) now() time.Time {
	if o.Clock == nil {
		return clock.Real{}.Now()
	}
	return o.Clock.Now()
}

func (o *Orchestrator) observe(provider string, outcome Outcome) {
	if o.Observer != nil {
		o.Observer.Probed(provider, outcome)
	}
}
