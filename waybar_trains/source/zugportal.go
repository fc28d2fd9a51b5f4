// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"net/http"
	"net/url"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/captive"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/journey"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/presence"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/provider"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/http2"
)

const ZugportalName = "zugportal"

var ZugportalNetwork = presence.Network{
	SSIDs:      []string{"WIFI@DB"},
	Hostname:   "zugportal.de",
	IPPrefixes: []string{"192.168."},
}

// Zugportal reads journey information from the portal in DB Regio trains.
type Zugportal struct {
	Presence   *presence.Checker
	Client     *http.Client
	JourneyURL string
	Login      captive.Portal
}

func NewZugportal(checker *presence.Checker) *Zugportal {
	client := http2.NewSession()
	return &Zugportal{
		Presence:   checker,
		Client:     client,
		JourneyURL: "https://zugportal.de/@prd/zupo-travel-information/api/public/ri/journey",
		Login: captive.Portal{
			Client:      client,
			PageURL:     "https://wifi.bahn.de/",
			Marker:      `name="CSRFToken"`,
			TokenCookie: "csrf",
			TokenField:  "CSRFToken",
			LoginURL:    "https://wifi.bahn.de/",
			ExtraFields: url.Values{"login": {"true"}},
		},
	}
}

func (*Zugportal) Name() string {
	return ZugportalName
}

func (p *Zugportal) IsPresent(ctx context.Context) bool {
	return isPresent(ctx, p.Presence, ZugportalNetwork)
}

func (p *Zugportal) AttemptLogin(ctx context.Context) (captive.Result, error) {
	return p.Login.Login(ctx)
}

func (p *Zugportal) FetchRaw(ctx context.Context) (provider.Documents, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.JourneyURL, nil)
	if err != nil {
		return nil, err
	}

	doc, err := http2.GetRaw(p.Client, req)
	if err != nil {
		return nil, err
	}
	return provider.Documents{"journey": doc}, nil
}

type zugportalJourney struct {
	Name     string          `json:"name"`
	No       looseString     `json:"no"`
	Category string          `json:"category"`
	Stops    []zugportalStop `json:"stops"`
}

type zugportalStop struct {
	Station struct {
		EvaNo looseString `json:"evaNo"`
		Name  string      `json:"name"`
	} `json:"station"`
	ArrivalTime   *zugportalTime `json:"arrivalTime"`
	DepartureTime *zugportalTime `json:"departureTime"`
	Track         struct {
		Target     string `json:"target"`
		Prediction string `json:"prediction"`
	} `json:"track"`
}

type zugportalTime struct {
	TargetTimeInMs    *int64 `json:"targetTimeInMs"`
	PredictedTimeInMs *int64 `json:"predictedTimeInMs"`
}

func (t *zugportalTime) AsDelayedTime() *journey.DelayedTime {
	if t == nil {
		return nil
	}
	return journey.FromUnixMillis(t.TargetTimeInMs, t.PredictedTimeInMs)
}

func (s *zugportalStop) AsStop() journey.Stop {
	track := s.Track.Prediction
	if track == "" {
		track = s.Track.Target
	}

	return journey.Stop{
		Name:      s.Station.Name,
		ID:        string(s.Station.EvaNo),
		Arrival:   s.ArrivalTime.AsDelayedTime(),
		Departure: s.DepartureTime.AsDelayedTime(),
		Track:     track,
	}
}

func (*Zugportal) Parse(docs provider.Documents) (*journey.Status, error) {
	var j zugportalJourney
	if err := docs.Decode("journey", &j); err != nil {
		return nil, err
	}

	if j.Name == "" && j.No == "" && len(j.Stops) == 0 {
		return nil, nil
	}

	s := &journey.Status{
		Provider: ZugportalName,
		Line:     j.Name,
		LineID:   string(j.No),
		Vehicle:  j.Category,
		Stops:    make([]journey.Stop, len(j.Stops)),
	}

	for i := range j.Stops {
		s.Stops[i] = j.Stops[i].AsStop()
	}
	if len(s.Stops) > 0 {
		s.Origin = s.Stops[0].Name
		s.Destination = s.Stops[len(s.Stops)-1].Name
	}

	return s, nil
}
