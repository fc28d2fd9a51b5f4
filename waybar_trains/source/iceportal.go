// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/captive"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/journey"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/presence"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/provider"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/http2"
)

const ICEPortalName = "iceportal"

// ICEPortalNetwork is WIFIonICE. iceportal.de resolves to a private
// address only when actually on board.
var ICEPortalNetwork = presence.Network{
	SSIDs:      []string{"WIFIonICE"},
	Hostname:   "iceportal.de",
	IPPrefixes: []string{"172."},
}

// ICEPortal reads journey information from DB's ICE Portal.
type ICEPortal struct {
	Presence  *presence.Checker
	Client    *http.Client
	TripURL   string
	StatusURL string
	Login     captive.Portal
}

func NewICEPortal(checker *presence.Checker) *ICEPortal {
	client := http2.NewSession()
	return &ICEPortal{
		Presence:  checker,
		Client:    client,
		TripURL:   "https://iceportal.de/api1/rs/tripInfo/trip",
		StatusURL: "https://iceportal.de/api1/rs/status",
		Login: captive.Portal{
			Client:      client,
			PageURL:     "https://login.wifionice.de/en/",
			Marker:      `name="CSRFToken"`,
			TokenCookie: "csrf",
			TokenField:  "CSRFToken",
			LoginURL:    "https://login.wifionice.de/en/",
			ExtraFields: url.Values{"login": {"true"}},
			HealthURL:   "https://login.wifionice.de/cna/health/venue",
		},
	}
}

func (*ICEPortal) Name() string {
	return ICEPortalName
}

func (p *ICEPortal) IsPresent(ctx context.Context) bool {
	return isPresent(ctx, p.Presence, ICEPortalNetwork)
}

func (p *ICEPortal) AttemptLogin(ctx context.Context) (captive.Result, error) {
	return p.Login.Login(ctx)
}

func (p *ICEPortal) FetchRaw(ctx context.Context) (provider.Documents, error) {
	trip, err := p.get(ctx, p.TripURL)
	if err != nil {
		return nil, err
	}

	status, err := p.get(ctx, p.StatusURL)
	if err != nil {
		return nil, err
	}

	return provider.Documents{"trip": trip, "status": status}, nil
}

func (p *ICEPortal) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return http2.GetRaw(p.Client, req)
}

type iceTrip struct {
	Trip struct {
		TrainType string      `json:"trainType"`
		VZN       looseString `json:"vzn"`
		StopInfo  struct {
			ActualNext       string `json:"actualNext"`
			FinalStationName string `json:"finalStationName"`
		} `json:"stopInfo"`
		Stops []iceStop `json:"stops"`
	} `json:"trip"`
}

type iceStop struct {
	Station struct {
		EvaNr string `json:"evaNr"`
		Name  string `json:"name"`
	} `json:"station"`
	Timetable struct {
		ScheduledArrivalTime   *int64 `json:"scheduledArrivalTime"`
		ActualArrivalTime      *int64 `json:"actualArrivalTime"`
		ScheduledDepartureTime *int64 `json:"scheduledDepartureTime"`
		ActualDepartureTime    *int64 `json:"actualDepartureTime"`
	} `json:"timetable"`
	Track struct {
		Actual string `json:"actual"`
	} `json:"track"`
}

func (s *iceStop) AsStop() journey.Stop {
	return journey.Stop{
		Name:      s.Station.Name,
		ID:        s.Station.EvaNr,
		Arrival:   journey.FromUnixMillis(s.Timetable.ScheduledArrivalTime, s.Timetable.ActualArrivalTime),
		Departure: journey.FromUnixMillis(s.Timetable.ScheduledDepartureTime, s.Timetable.ActualDepartureTime),
		Track:     s.Track.Actual,
	}
}

type iceStatus struct {
	WagonClass string   `json:"wagonClass"`
	Speed      *float64 `json:"speed"`
}

func (p *ICEPortal) Parse(docs provider.Documents) (*journey.Status, error) {
	var trip iceTrip
	if err := docs.Decode("trip", &trip); err != nil {
		return nil, err
	}

	var status iceStatus
	if err := docs.Decode("status", &status); err != nil {
		return nil, err
	}

	if trip.Trip.VZN == "" && len(trip.Trip.Stops) == 0 {
		return nil, nil
	}

	s := &journey.Status{
		Provider:    ICEPortalName,
		LineID:      string(trip.Trip.VZN),
		Vehicle:     trip.Trip.TrainType,
		Destination: trip.Trip.StopInfo.FinalStationName,
		WagonClass:  strings.ToLower(status.WagonClass),
		Speed:       status.Speed,
		Stops:       make([]journey.Stop, len(trip.Trip.Stops)),
	}

	for i := range trip.Trip.Stops {
		s.Stops[i] = trip.Trip.Stops[i].AsStop()
	}
	if len(s.Stops) > 0 {
		s.Origin = s.Stops[0].Name
	}

	// actualNext is empty after reaching the final stop,
	// or when the portal still shows the previous trip.
	if nextID := trip.Trip.StopInfo.ActualNext; nextID != "" {
		next := findStopByID(s.Stops, nextID)
		if next == nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownNextStop, nextID)
		}
		s.NextStop = next
	}

	return s, nil
}

func findStopByID(stops []journey.Stop, id string) *journey.Stop {
	for i := range stops {
		if stops[i].ID == id {
			return &stops[i]
		}
	}
	return nil
}
