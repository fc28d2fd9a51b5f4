// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package source

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/captive"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/journey"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/presence"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/provider"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/http2"
)

const ODEGName = "odeg"

// ODEGNetwork has no hostname check, as the portal is hosted
// on a public address.
var ODEGNetwork = presence.Network{
	SSIDs: []string{"ODEG Free WiFi"},
}

var (
	ODEGWidgetID      = uuid.MustParse("cc0504a8-8c1d-4898-b7e1-8eb1ca72f3be")
	ODEGUserSessionID = uuid.MustParse("e9fba063-7f3b-4131-adfc-6ce562855be1")
)

var ErrWidget = errors.New("portal returned a widget error")

//go:embed odeg_feed_widget.graphql
var odegFeedWidgetQuery string

// ODEG reads journey information from the Unwired portal
// in trains of Ostdeutsche Eisenbahn.
type ODEG struct {
	Presence      *presence.Checker
	Client        *http.Client
	GraphQLURL    string
	WidgetID      uuid.UUID
	UserSessionID uuid.UUID
}

// NewODEG creates an ODEG provider. A nil sessionID is replaced by ODEGUserSessionID.
func NewODEG(checker *presence.Checker, sessionID uuid.UUID) *ODEG {
	if sessionID == uuid.Nil {
		sessionID = ODEGUserSessionID
	}

	return &ODEG{
		Presence:      checker,
		Client:        http2.NewSession(),
		GraphQLURL:    "https://wasabi.hotspot-local.unwired.at/api/graphql",
		WidgetID:      ODEGWidgetID,
		UserSessionID: sessionID,
	}
}

func (*ODEG) Name() string {
	return ODEGName
}

func (p *ODEG) IsPresent(ctx context.Context) bool {
	return isPresent(ctx, p.Presence, ODEGNetwork)
}

func (*ODEG) AttemptLogin(context.Context) (captive.Result, error) {
	return captive.NotImplemented, nil
}

type graphQLRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Query         string         `json:"query"`
}

type feedWidgetResponse struct {
	Data struct {
		FeedWidget struct {
			Error *struct {
				Code    looseString `json:"error_code"`
				Message string      `json:"error_message"`
			} `json:"error"`
			Widget *struct {
				JSON string `json:"json"`
			} `json:"widget"`
		} `json:"feed_widget"`
	} `json:"data"`
}

func (p *ODEG) FetchRaw(ctx context.Context) (provider.Documents, error) {
	body, err := json.Marshal(graphQLRequest{
		OperationName: "feed_widget",
		Variables: map[string]any{
			"widget_id":       p.WidgetID.String(),
			"language":        "en",
			"user_session_id": p.UserSessionID.String(),
		},
		Query: odegFeedWidgetQuery,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.GraphQLURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http2.GetJSON[feedWidgetResponse](p.Client, req)
	if err != nil {
		return nil, err
	}

	feed := resp.Data.FeedWidget
	if feed.Error != nil {
		return nil, fmt.Errorf("%w %s: %s", ErrWidget, feed.Error.Code, feed.Error.Message)
	}

	// The journey is embedded as a JSON document inside a string.
	widget := json.RawMessage("null")
	if feed.Widget != nil && feed.Widget.JSON != "" {
		if !json.Valid([]byte(feed.Widget.JSON)) {
			return nil, fmt.Errorf("%w: widget json is malformed", ErrWidget)
		}
		widget = json.RawMessage(feed.Widget.JSON)
	}

	return provider.Documents{"widget": widget}, nil
}

type odegWidget struct {
	Course *struct {
		Line        string      `json:"line"`
		ID          looseString `json:"id"`
		Origin      string      `json:"origin"`
		Destination string      `json:"destination"`
		Stops       []odegStop  `json:"stops"`
	} `json:"course"`
}

type odegStop struct {
	Name             string `json:"name"`
	ArrivalPlanned   string `json:"arrivalPlanned"`
	ArrivalDelay     *int   `json:"arrivalDelay"`
	DeparturePlanned string `json:"departurePlanned"`
	DepartureDelay   *int   `json:"departureDelay"`
	Track            string `json:"track"`
}

func (s *odegStop) AsStop() (stop journey.Stop, err error) {
	stop.Name = s.Name
	stop.Track = s.Track

	stop.Arrival, err = journey.FromISO(s.ArrivalPlanned, s.ArrivalDelay)
	if err != nil {
		return stop, fmt.Errorf("%s: arrival: %w", s.Name, err)
	}

	stop.Departure, err = journey.FromISO(s.DeparturePlanned, s.DepartureDelay)
	if err != nil {
		return stop, fmt.Errorf("%s: departure: %w", s.Name, err)
	}

	return stop, nil
}

func (*ODEG) Parse(docs provider.Documents) (*journey.Status, error) {
	var w *odegWidget
	if err := docs.Decode("widget", &w); err != nil {
		return nil, err
	}

	if w == nil || w.Course == nil {
		return nil, nil
	}

	c := w.Course
	s := &journey.Status{
		Provider:    ODEGName,
		Line:        c.Line,
		LineID:      string(c.ID),
		Origin:      c.Origin,
		Destination: c.Destination,
		Stops:       make([]journey.Stop, len(c.Stops)),
	}

	for i := range c.Stops {
		stop, err := c.Stops[i].AsStop()
		if err != nil {
			return nil, err
		}
		s.Stops[i] = stop
	}

	return s, nil
}
