// SPDX-FileCopyrightText: 2026 Mikołaj Kuranowski
// SPDX-License-Identifier: MIT

package output

import (
	"bytes"
	"io"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"

	"github.com/MKuranowski/WaybarTrains/waybar_trains/journey"
	"github.com/MKuranowski/WaybarTrains/waybar_trains/util/time2"
)

// Feed converts a Status into a GTFS-Realtime feed with a single TripUpdate.
// A nil status produces a feed without any entities.
func Feed(s *journey.Status, now time.Time) *gtfs.FeedMessage {
	g := &gtfs.FeedMessage{
		Header: &gtfs.FeedHeader{
			GtfsRealtimeVersion: ptr("2.0"),
			Incrementality:      ptr(gtfs.FeedHeader_FULL_DATASET),
			Timestamp:           ptr(uint64(now.Unix())),
		},
	}

	if s != nil {
		g.Entity = []*gtfs.FeedEntity{tripUpdate(s)}
	}
	return g
}

// TripID identifies the journey of a status in GTFS-Realtime feeds.
func TripID(s *journey.Status) string {
	id := s.LineID
	if id == "" {
		id = s.Line
	}
	return s.Provider + ":" + id
}

func tripUpdate(s *journey.Status) *gtfs.FeedEntity {
	id := TripID(s)

	g := new(gtfs.FeedEntity)
	g.Id = ptr(id)
	g.TripUpdate = new(gtfs.TripUpdate)
	g.TripUpdate.Trip = &gtfs.TripDescriptor{
		TripId:               ptr(id),
		ScheduleRelationship: ptr(gtfs.TripDescriptor_SCHEDULED),
	}
	if date, ok := startDate(s.Stops); ok {
		g.TripUpdate.Trip.StartDate = ptr(date.StringSeparator(""))
	}

	if label := s.LineName(); label != "" {
		g.TripUpdate.Vehicle = &gtfs.VehicleDescriptor{Label: ptr(label)}
	}

	g.TripUpdate.StopTimeUpdate = make([]*gtfs.TripUpdate_StopTimeUpdate, len(s.Stops))
	for i, stop := range s.Stops {
		g.TripUpdate.StopTimeUpdate[i] = stopTimeUpdate(i, stop)
	}

	return g
}

func startDate(stops []journey.Stop) (time2.Date, bool) {
	for _, stop := range stops {
		if stop.Departure != nil {
			return time2.DateOf(stop.Departure.Planned), true
		} else if stop.Arrival != nil {
			return time2.DateOf(stop.Arrival.Planned), true
		}
	}
	return time2.Date{}, false
}

func stopTimeUpdate(sequence int, s journey.Stop) *gtfs.TripUpdate_StopTimeUpdate {
	g := new(gtfs.TripUpdate_StopTimeUpdate)
	g.StopSequence = ptr(uint32(sequence))
	if s.ID != "" {
		g.StopId = ptr(s.ID)
	}

	if !s.IsTimed() {
		g.ScheduleRelationship = ptr(gtfs.TripUpdate_StopTimeUpdate_NO_DATA)
		return g
	}

	g.ScheduleRelationship = ptr(gtfs.TripUpdate_StopTimeUpdate_SCHEDULED)
	g.Arrival = stopTimeEvent(s.Arrival)
	g.Departure = stopTimeEvent(s.Departure)
	return g
}

func stopTimeEvent(t *journey.DelayedTime) *gtfs.TripUpdate_StopTimeEvent {
	if t == nil {
		return nil
	}
	return &gtfs.TripUpdate_StopTimeEvent{
		Time:  ptr(t.Real().Unix()),
		Delay: ptr(int32(t.Delay / time.Second)),
	}
}

// DumpGTFS writes the feed as binary protobuf, or as prototext if humanReadable is set.
func DumpGTFS(w io.Writer, feed *gtfs.FeedMessage, humanReadable bool) error {
	var data []byte
	var err error

	if humanReadable {
		data, err = prototext.MarshalOptions{Multiline: true}.Marshal(feed)
	} else {
		data, err = proto.Marshal(feed)
	}

	if err != nil {
		return err
	}

	_, err = io.Copy(w, bytes.NewReader(data))
	return err
}

func ptr[T any](thing T) *T {
	return &thing
}
