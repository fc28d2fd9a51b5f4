// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package source

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/captive"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/provider"
)

func replay(t *testing.T, path string) *provider.Result {
	t.Helper()

	c, err := provider.LoadCapture(path)
	require.NoError(t, err)

	o := &provider.Orchestrator{Providers: All(Options{})}
	r, err := o.Replay(context.Background(), c)
	require.NoError(t, err)
	require.NotNil(t, r)
	return r
}

func TestICEPortalCapture(t *testing.T) {
	s := replay(t, "testdata/iceportal.json").Status

	assert.Equal(t, ICEPortalName, s.Provider)
	assert.Equal(t, "ICE 1601", s.LineName())
	assert.Equal(t, "Berlin Hbf", s.Origin)
	assert.Equal(t, "München Hbf", s.Destination)
	assert.Equal(t, "second", s.WagonClass)
	require.NotNil(t, s.Speed)
	assert.Equal(t, 243.0, *s.Speed)
	require.Len(t, s.Stops, 5)

	require.NotNil(t, s.NextStop)
	assert.Equal(t, "8010222", s.NextStop.ID)
	assert.Equal(t, "󰔬 ICE 1601 Lutherstadt Wittenberg Hbf 2 12:10 <sup>+1</sup> – 12:12 <sup>+1</sup>", s.Text())
	assert.Equal(
		t,
		"Lutherstadt Wittenberg Hbf 2 12:10 <sup>+1</sup> – 12:12 <sup>+1</sup>\n"+
			"Leipzig Hbf 11 12:47 <sup>+2</sup> – 12:53 <sup>+1</sup>\n"+
			"München Hbf 21 16:32 <sup>+2</sup>",
		s.Tooltip(),
	)
}

func TestICEPortalUnknownNextStop(t *testing.T) {
	docs := provider.Documents{
		"trip":   json.RawMessage(`{"trip": {"trainType": "ICE", "vzn": "1601", "stopInfo": {"actualNext": "1"}, "stops": [{"station": {"evaNr": "2", "name": "Foo"}}]}}`),
		"status": json.RawMessage(`{}`),
	}

	_, err := (&ICEPortal{}).Parse(docs)
	assert.ErrorIs(t, err, ErrUnknownNextStop)
}

func TestICEPortalNoTrip(t *testing.T) {
	docs := provider.Documents{
		"trip":   json.RawMessage(`{"trip": {}}`),
		"status": json.RawMessage(`{"speed": 0}`),
	}

	s, err := (&ICEPortal{}).Parse(docs)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestICEPortalMissingDocument(t *testing.T) {
	_, err := (&ICEPortal{}).Parse(provider.Documents{"trip": json.RawMessage(`{}`)})
	assert.ErrorIs(t, err, provider.ErrMissingDocument)
}

func TestICEPortalFetchRaw(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /trip", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"trip": {"vzn": "1601"}}`)
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"speed": 120.4}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	p := NewICEPortal(nil)
	p.TripURL = server.URL + "/trip"
	p.StatusURL = server.URL + "/status"

	docs, err := p.FetchRaw(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"trip": {"vzn": "1601"}}`, string(docs["trip"]))
	assert.JSONEq(t, `{"speed": 120.4}`, string(docs["status"]))

	s, err := p.Parse(docs)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "󰔬 1601 󰓅 120 km/h", s.Text())
}

func TestICEPortalFetchRawFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	p := NewICEPortal(nil)
	p.TripURL = server.URL + "/trip"
	p.StatusURL = server.URL + "/status"

	_, err := p.FetchRaw(context.Background())
	assert.Error(t, err)
}

func TestZugportalCapture(t *testing.T) {
	s := replay(t, "testdata/zugportal.json").Status

	assert.Equal(t, ZugportalName, s.Provider)
	assert.Equal(t, "RE 1", s.LineName())
	assert.Equal(t, "4430", s.LineID)
	assert.Equal(t, "RE", s.Vehicle)
	assert.Equal(t, "Düsseldorf Hbf", s.Origin)
	assert.Equal(t, "Dortmund Hbf", s.Destination)
	require.Len(t, s.Stops, 4)

	require.NotNil(t, s.NextStop)
	assert.Equal(t, "8000098", s.NextStop.ID)
	assert.Equal(t, "󰔬 RE 1 Essen Hbf 3 19:42 <sup>+3</sup> – 19:44 <sup>+3</sup>", s.Text())
}

func TestZugportalEmpty(t *testing.T) {
	s, err := (&Zugportal{}).Parse(provider.Documents{"journey": json.RawMessage(`{}`)})
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestZugportalTrackFallsBackToTarget(t *testing.T) {
	docs := provider.Documents{"journey": json.RawMessage(`{
		"name": "RB 33",
		"no": "12345",
		"stops": [{"station": {"evaNo": 8000001, "name": "Foo"}, "track": {"target": "7"}}]
	}`)}

	s, err := (&Zugportal{}).Parse(docs)
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Len(t, s.Stops, 1)
	assert.Equal(t, "8000001", s.Stops[0].ID)
	assert.Equal(t, "7", s.Stops[0].Track)
	assert.Nil(t, s.Stops[0].Arrival)
	assert.Nil(t, s.Stops[0].Departure)
}

func TestZugportalFetchRaw(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"name": "RE 1", "stops": []}`)
	}))
	defer server.Close()

	p := NewZugportal(nil)
	p.JourneyURL = server.URL

	docs, err := p.FetchRaw(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"name": "RE 1", "stops": []}`, string(docs["journey"]))
}

func TestODEGCapture(t *testing.T) {
	s := replay(t, "testdata/odeg.json").Status

	assert.Equal(t, ODEGName, s.Provider)
	assert.Equal(t, "RE1", s.LineName())
	assert.Equal(t, "79013", s.LineID)
	assert.Equal(t, "Magdeburg Hbf", s.Origin)
	assert.Equal(t, "Eisenhüttenstadt", s.Destination)
	require.Len(t, s.Stops, 6)

	require.NotNil(t, s.NextStop)
	assert.Equal(t, "Potsdam Hbf", s.NextStop.Name)
	assert.Equal(t, "󰔬 RE1 Potsdam Hbf 08:30 <sup>+3</sup> – 08:32 <sup>+3</sup>", s.Text())

	// departures are read from departure fields
	burg := s.Stops[1]
	require.NotNil(t, burg.Arrival)
	require.NotNil(t, burg.Departure)
	assert.Equal(t, "07:37 <sup>+1</sup>", burg.Arrival.String())
	assert.Equal(t, "07:38 <sup>+1</sup>", burg.Departure.String())

	last := s.Stops[5]
	assert.NotNil(t, last.Arrival)
	assert.Nil(t, last.Departure)
}

func TestODEGNoCourse(t *testing.T) {
	for _, doc := range []string{`null`, `{}`, `{"course": null}`} {
		s, err := (&ODEG{}).Parse(provider.Documents{"widget": json.RawMessage(doc)})
		require.NoError(t, err, doc)
		assert.Nil(t, s, doc)
	}
}

func TestODEGInvalidTime(t *testing.T) {
	docs := provider.Documents{"widget": json.RawMessage(`{
		"course": {"line": "RE1", "stops": [{"name": "Foo", "arrivalPlanned": "yesterday"}]}
	}`)}

	_, err := (&ODEG{}).Parse(docs)
	assert.ErrorContains(t, err, "Foo: arrival")
}

func odegServer(t *testing.T, response string, body *graphQLRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(body))
		io.WriteString(w, response)
	}))
}

func TestODEGFetchRaw(t *testing.T) {
	var body graphQLRequest
	server := odegServer(
		t,
		`{"data": {"feed_widget": {"error": null, "widget": {"json": "{\"course\": {\"line\": \"RE1\", \"stops\": []}}"}}}}`,
		&body,
	)
	defer server.Close()

	sessionID := uuid.MustParse("0b9a3a38-35f4-4fb4-a0b1-1a4ae7b3a3d7")
	p := NewODEG(nil, sessionID)
	p.GraphQLURL = server.URL

	docs, err := p.FetchRaw(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, `{"course": {"line": "RE1", "stops": []}}`, string(docs["widget"]))

	assert.Equal(t, "feed_widget", body.OperationName)
	assert.Equal(t, sessionID.String(), body.Variables["user_session_id"])
	assert.Equal(t, ODEGWidgetID.String(), body.Variables["widget_id"])
	assert.Contains(t, body.Query, "query feed_widget(")

	s, err := p.Parse(docs)
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "RE1", s.Line)
}

func TestODEGFetchRawNoWidget(t *testing.T) {
	var body graphQLRequest
	server := odegServer(t, `{"data": {"feed_widget": {"error": null, "widget": null}}}`, &body)
	defer server.Close()

	p := NewODEG(nil, uuid.Nil)
	p.GraphQLURL = server.URL

	docs, err := p.FetchRaw(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ODEGUserSessionID.String(), body.Variables["user_session_id"])

	s, err := p.Parse(docs)
	require.NoError(t, err)
	assert.Nil(t, s)
}

func TestODEGFetchRawWidgetError(t *testing.T) {
	var body graphQLRequest
	server := odegServer(
		t,
		`{"data": {"feed_widget": {"error": {"error_code": 404, "error_message": "no such widget"}, "widget": null}}}`,
		&body,
	)
	defer server.Close()

	p := NewODEG(nil, uuid.Nil)
	p.GraphQLURL = server.URL

	_, err := p.FetchRaw(context.Background())
	assert.ErrorIs(t, err, ErrWidget)
	assert.ErrorContains(t, err, "no such widget")
}

func TestODEGHasNoLogin(t *testing.T) {
	r, err := NewODEG(nil, uuid.Nil).AttemptLogin(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, captive.NotImplemented, r)
}

func TestNotPresentWithoutChecker(t *testing.T) {
	for _, p := range All(Options{}) {
		assert.False(t, p.IsPresent(context.Background()), p.Name())
	}
}

func TestNames(t *testing.T) {
	all := All(Options{})
	names := Names()
	require.Len(t, names, len(all))
	for i, p := range all {
		assert.Equal(t, names[i], p.Name())
	}
}

func TestLooseString(t *testing.T) {
	var v struct {
		A looseString `json:"a"`
		B looseString `json:"b"`
		C looseString `json:"c"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": "x", "b": 4430, "c": null}`), &v))
	assert.Equal(t, looseString("x"), v.A)
	assert.Equal(t, looseString("4430"), v.B)
	assert.Equal(t, looseString(""), v.C)

	assert.Error(t, json.Unmarshal([]byte(`{"a": true}`), &v))
}
