// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/backoff"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/journey"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/metrics"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/output"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/presence"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/provider"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/source"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/clock"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/secret"
)

const (
	odegSessionKey = "WAYBAR_TRAINS_ODEG_SESSION_ID"
	ssidKey        = "WAYBAR_TRAINS_SSID"
)

var (
	flagFixture     = flag.String("fixture", "", "parse a previously recorded capture instead of fetching live data")
	flagLoop        = flag.Duration("loop", 0, "when non-zero, print a status line continuously with the given period")
	flagMetricsFile = flag.String("metrics-file", "", "write Prometheus metrics to this file after every poll")
	flagNoConnCheck = flag.Bool("no-conn-check", false, "skip WiFi and DNS checks, ask every provider")
	flagNoLogin     = flag.Bool("no-login", false, "don't try to log into captive portals")
	flagProviders   = flag.String("providers", strings.Join(source.Names(), ","), "comma-separated providers to try, in order")
	flagReadable    = flag.Bool("readable", false, "dump output in human-readable format")
	flagRecord      = flag.String("record", "", "save raw data of the matched provider to this file (.gz to compress)")
	flagVerbose     = flag.Bool("verbose", false, "show DEBUG logging")
	flagFormat      = output.FormatWaybar
)

func init() {
	flag.Var(&flagFormat, "format", "output format: waybar, text or gtfs-rt")
}

type config struct {
	providers     []string
	odegSessionID uuid.UUID
	ssids         presence.SSIDSource
	recorder      *metrics.Recorder
	recordPath    string
	out           io.Writer
}

// logLevel keeps stderr quiet unless asked otherwise, as Waybar
// forwards it to the system journal.
func logLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	return slog.LevelWarn
}

func main() {
	if err := secret.LoadDotEnv(); err != nil {
		log.Fatal(err)
	}

	flag.Parse()
	slog.SetLogLoggerLevel(logLevel(*flagVerbose))

	cfg := config{
		providers:  parseList(*flagProviders),
		recordPath: *flagRecord,
		out:        os.Stdout,
	}

	var err error
	cfg.odegSessionID, err = odegSessionID()
	if err != nil {
		log.Fatal(err)
	}

	cfg.ssids, err = ssidSource()
	if err != nil {
		log.Fatal(err)
	}

	// Fail fast on unknown names
	if _, err := provider.Select(source.All(source.Options{}), cfg.providers); err != nil {
		log.Fatal(err)
	}

	if *flagMetricsFile != "" {
		cfg.recorder = metrics.NewRecorder()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *flagFixture != "":
		err = replay(ctx, cfg, *flagFixture)
	case *flagLoop == 0:
		_, err = poll(ctx, cfg)
	default:
		err = loop(ctx, cfg, *flagLoop)
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func odegSessionID() (uuid.UUID, error) {
	value, err := secret.FromEnvironmentOr(odegSessionKey, "")
	if err != nil {
		return uuid.Nil, err
	} else if value == "" {
		return uuid.Nil, nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%s: %w", odegSessionKey, err)
	}
	return id, nil
}

// ssidSource returns the SSIDs from the environment, if set,
// for machines without nl80211.
func ssidSource() (presence.SSIDSource, error) {
	value, err := secret.FromEnvironmentOr(ssidKey, "")
	if err != nil {
		return nil, err
	} else if ssids := parseList(value); len(ssids) > 0 {
		return presence.StaticSSIDs(ssids), nil
	}
	return presence.WiFi{}, nil
}

func parseList(s string) []string {
	var items []string
	for item := range strings.SplitSeq(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func loop(ctx context.Context, cfg config, period time.Duration) error {
	b := backoff.Backoff{Period: period, MaxBackoffExponent: 6}
	for {
		if err := b.Wait(ctx); err != nil {
			return err
		}

		b.StartRun()
		failed, err := poll(ctx, cfg)
		if err != nil {
			return err
		} else if failed {
			nextTry := b.EndRun(backoff.Failure)
			slog.Warn("All providers failed", "failures", b.Failures, "next_try", nextTry)
		} else {
			b.EndRun(backoff.Success)
		}
	}
}

// poll asks all providers for the current status and writes it out.
// failed is set if no provider matched and at least one of them errored.
func poll(ctx context.Context, cfg config) (failed bool, err error) {
	checker := presence.NewChecker(ctx, cfg.ssids, nil)
	providers, err := provider.Select(
		source.All(source.Options{Presence: checker, ODEGSessionID: cfg.odegSessionID}),
		cfg.providers,
	)
	if err != nil {
		return false, err
	}

	observer := &pollObserver{recorder: cfg.recorder}
	o := &provider.Orchestrator{
		Providers:         providers,
		Clock:             clock.Real{},
		SkipPresenceCheck: *flagNoConnCheck,
		SkipLogin:         *flagNoLogin,
		Observer:          observer,
	}

	result := o.Run(ctx)
	if result == nil {
		slog.Debug("No provider matched")
	}

	return result == nil && observer.errors > 0, finish(cfg, result, time.Now())
}

// finish saves the raw data of a live result, if requested, and writes it out.
// Failing to save the capture is not fatal, to keep the loop mode running.
func finish(cfg config, result *provider.Result, now time.Time) error {
	if result != nil && cfg.recordPath != "" {
		if err := result.Capture.Save(cfg.recordPath); err != nil {
			slog.Error("Failed to record provider data", "path", cfg.recordPath, "error", err)
		}
	}
	return emit(cfg, result, now)
}

func replay(ctx context.Context, cfg config, path string) error {
	c, err := provider.LoadCapture(path)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	providers, err := provider.Select(source.All(source.Options{ODEGSessionID: cfg.odegSessionID}), cfg.providers)
	if err != nil {
		return err
	}

	o := &provider.Orchestrator{
		Providers: providers,
		Observer:  &pollObserver{recorder: cfg.recorder},
	}
	result, err := o.Replay(ctx, c)
	if err != nil {
		return err
	}

	return emit(cfg, result, c.CapturedAt)
}

func emit(cfg config, result *provider.Result, now time.Time) error {
	var status *journey.Status
	if result != nil {
		status = &result.Status
	}

	if err := output.Write(cfg.out, flagFormat, status, now, *flagReadable); err != nil {
		return err
	}

	if cfg.recorder != nil {
		cfg.recorder.Record(result, now)
		if err := cfg.recorder.WriteFile(*flagMetricsFile); err != nil {
			slog.Error("Failed to write metrics", "path", *flagMetricsFile, "error", err)
		}
	}
	return nil
}

// pollObserver counts failed providers and forwards outcomes to the metrics recorder.
type pollObserver struct {
	recorder *metrics.Recorder
	errors   int
}

func (o *pollObserver) Probed(name string, outcome provider.Outcome) {
	if outcome == provider.OutcomeError {
		o.errors++
	}
	if o.recorder != nil {
		o.recorder.Probed(name, outcome)
	}
}
