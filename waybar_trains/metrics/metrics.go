// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

// Package metrics exports the outcome of polls in the Prometheus text format,
// for node_exporter's textfile collector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/provider"
)

const namespace = "waybar_trains"

// Recorder collects metrics of polls. It implements provider.Observer.
type Recorder struct {
	registry *prometheus.Registry

	probes    *prometheus.CounterVec
	polls     prometheus.Counter
	lastPoll  prometheus.Gauge
	matched   *prometheus.GaugeVec
	delay     *prometheus.GaugeVec
	speed     *prometheus.GaugeVec
	remaining *prometheus.GaugeVec
}

func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		probes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "probes_total",
			Help:      "Number of times a provider was asked for a status, by outcome.",
		}, []string{"provider", "outcome"}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "polls_total",
			Help:      "Number of completed polls.",
		}),
		lastPoll: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_poll_timestamp_seconds",
			Help:      "Unix time of the last completed poll.",
		}),
		matched: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "matched",
			Help:      "1 for the provider which produced the current status.",
		}, []string{"provider"}),
		delay: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "next_stop_delay_seconds",
			Help:      "Delay of the next stop's departure (or arrival).",
		}, []string{"provider", "line"}),
		speed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "speed_kilometers_per_hour",
			Help:      "Current speed of the vehicle, if reported.",
		}, []string{"provider", "line"}),
		remaining: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "remaining_stops",
			Help:      "Number of stops from the next one until the end of the journey.",
		}, []string{"provider", "line"}),
	}

	r.registry.MustRegister(r.probes, r.polls, r.lastPoll, r.matched, r.delay, r.speed, r.remaining)
	return r
}

func (r *Recorder) Probed(name string, outcome provider.Outcome) {
	r.probes.WithLabelValues(name, string(outcome)).Inc()
}

// Record replaces the journey metrics with the ones from the given poll result,
// which may be nil if no provider matched.
func (r *Recorder) Record(result *provider.Result, now time.Time) {
	r.polls.Inc()
	r.lastPoll.Set(float64(now.Unix()))

	r.matched.Reset()
	r.delay.Reset()
	r.speed.Reset()
	r.remaining.Reset()

	if result == nil {
		return
	}

	s := &result.Status
	line := s.LineName()
	r.matched.WithLabelValues(s.Provider).Set(1)

	if s.Speed != nil {
		r.speed.WithLabelValues(s.Provider, line).Set(*s.Speed)
	}

	if s.NextStop == nil {
		return
	}

	if t, ok := s.NextStop.EstimatedDeparture(); ok {
		r.delay.WithLabelValues(s.Provider, line).Set(t.Delay.Seconds())
	}

	for i := range s.Stops {
		if s.Stops[i].Equal(*s.NextStop) {
			r.remaining.WithLabelValues(s.Provider, line).Set(float64(len(s.Stops) - i))
			break
		}
	}
}

// WriteFile atomically writes all metrics to a file.
func (r *Recorder) WriteFile(path string) error {
	return prometheus.WriteToTextfile(path, r.registry)
}
