// Package gtfstest builds GTFS archives and GTFS-RT feeds for tests
package gtfstest

import (
	"archive/zip"
	"bytes"
	"strings"
	"testing"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
)

// Archive zips up the given files, each file being a list of csv lines
func Archive(t testing.TB, files map[string][]string) []byte {
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for filename, content := range files {
		f, err := w.Create(filename)
		require.NoError(t, err)
		_, err = f.Write([]byte(strings.Join(content, "\n")))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	return buf.Bytes()
}

type Vehicle struct {
	EntityID  string
	VehicleID string
	Label     string
	TripID    string
	RouteID   string

	Latitude   float32
	Longitude  float32
	Bearing    *float32
	NoPosition bool

	Timestamp uint64
}

type StopDelay struct {
	StopID    string
	Arrival   *int32
	Departure *int32
}

type TripUpdate struct {
	EntityID  string
	TripID    string
	RouteID   string
	VehicleID string
	Stops     []StopDelay
}

// VehicleFeed encodes a vehicle positions feed. Empty strings are left unset, even required fields.
func VehicleFeed(t testing.TB, headerTimestamp uint64, vehicles ...Vehicle) []byte {
	feed := newFeed(headerTimestamp)

	for _, vehicle := range vehicles {
		position := &gtfs.VehiclePosition{
			Trip: &gtfs.TripDescriptor{
				TripId:  optionalString(vehicle.TripID),
				RouteId: optionalString(vehicle.RouteID),
			},
		}

		if vehicle.VehicleID != "" || vehicle.Label != "" {
			position.Vehicle = &gtfs.VehicleDescriptor{
				Id:    optionalString(vehicle.VehicleID),
				Label: optionalString(vehicle.Label),
			}
		}
		if !vehicle.NoPosition {
			position.Position = &gtfs.Position{
				Latitude:  proto.Float32(vehicle.Latitude),
				Longitude: proto.Float32(vehicle.Longitude),
				Bearing:   vehicle.Bearing,
			}
		}
		if vehicle.Timestamp > 0 {
			position.Timestamp = proto.Uint64(vehicle.Timestamp)
		}

		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id:      optionalString(vehicle.EntityID),
			Vehicle: position,
		})
	}

	return marshal(t, feed)
}

func TripUpdateFeed(t testing.TB, headerTimestamp uint64, updates ...TripUpdate) []byte {
	feed := newFeed(headerTimestamp)

	for _, update := range updates {
		tripUpdate := &gtfs.TripUpdate{
			Trip: &gtfs.TripDescriptor{
				TripId:  optionalString(update.TripID),
				RouteId: optionalString(update.RouteID),
			},
		}
		if update.VehicleID != "" {
			tripUpdate.Vehicle = &gtfs.VehicleDescriptor{Id: proto.String(update.VehicleID)}
		}

		for _, stop := range update.Stops {
			stopTimeUpdate := &gtfs.TripUpdate_StopTimeUpdate{StopId: optionalString(stop.StopID)}
			if stop.Arrival != nil {
				stopTimeUpdate.Arrival = &gtfs.TripUpdate_StopTimeEvent{Delay: stop.Arrival}
			}
			if stop.Departure != nil {
				stopTimeUpdate.Departure = &gtfs.TripUpdate_StopTimeEvent{Delay: stop.Departure}
			}
			tripUpdate.StopTimeUpdate = append(tripUpdate.StopTimeUpdate, stopTimeUpdate)
		}

		feed.Entity = append(feed.Entity, &gtfs.FeedEntity{
			Id:         optionalString(update.EntityID),
			TripUpdate: tripUpdate,
		})
	}

	return marshal(t, feed)
}

func newFeed(headerTimestamp uint64) *gtfs.FeedMessage {
	header := &gtfs.FeedHeader{GtfsRealtimeVersion: proto.String("2.0")}
	if headerTimestamp > 0 {
		header.Timestamp = proto.Uint64(headerTimestamp)
	}

	return &gtfs.FeedMessage{Header: header}
}

func marshal(t testing.TB, feed *gtfs.FeedMessage) []byte {
	body, err := proto.MarshalOptions{AllowPartial: true}.Marshal(feed)
	require.NoError(t, err)

	return body
}

func optionalString(value string) *string {
	if value == "" {
		return nil
	}

	return proto.String(value)
}
