package gtfs

import (
	"fmt"
	"time"

	"github.com/MobilityData/gtfs-realtime-bindings/golang/gtfs"
	"github.com/rs/zerolog/log"
	"google.golang.org/protobuf/proto"
)

type EntityKind int

const (
	EntityUnknown EntityKind = iota
	EntityVehicle
	EntityTripUpdate
	EntityAlert
)

func (k EntityKind) String() string {
	switch k {
	case EntityVehicle:
		return "vehicle"
	case EntityTripUpdate:
		return "tripupdate"
	case EntityAlert:
		return "alert"
	default:
		return "unknown"
	}
}

// FeedMessage is a decoded GTFS-RT message with the protobuf optionals already flattened
type FeedMessage struct {
	HeaderTimestamp uint64
	Entities        []FeedEntity
}

// FeedEntity holds exactly one payload, selected by Kind.
// A protobuf entity carrying several payloads becomes several FeedEntity values sharing the ID.
type FeedEntity struct {
	ID        string
	Kind      EntityKind
	IsDeleted bool

	Vehicle    *VehicleRecord
	TripUpdate *TripUpdateRecord
}

type VehicleRecord struct {
	TripID  string
	RouteID string

	VehicleID    string
	VehicleLabel string

	HasPosition bool
	Latitude    float64
	Longitude   float64
	Bearing     float64

	// Zero when the feed did not report one
	Timestamp uint64
}

type TripUpdateRecord struct {
	TripID    string
	RouteID   string
	VehicleID string

	StopTimeUpdates []StopTimeUpdateRecord
}

type StopTimeUpdateRecord struct {
	StopID         string
	ArrivalDelay   *int32
	DepartureDelay *int32
}

// DecodeFeedMessage parses a GTFS-RT protobuf. Missing required proto2 fields are tolerated,
// plenty of publishers leave out entity ids or the feed version.
func DecodeFeedMessage(body []byte) (*FeedMessage, error) {
	feed := gtfs.FeedMessage{}
	err := proto.UnmarshalOptions{AllowPartial: true, DiscardUnknown: true}.Unmarshal(body, &feed)
	if err != nil {
		return nil, fmt.Errorf("decode gtfs-rt feed: %w", err)
	}

	message := &FeedMessage{
		HeaderTimestamp: feed.GetHeader().GetTimestamp(),
		Entities:        make([]FeedEntity, 0, len(feed.GetEntity())),
	}

	withVehicle := 0
	withTripUpdate := 0
	alertCount := 0

	for _, entity := range feed.GetEntity() {
		matched := false

		if vehicle := entity.GetVehicle(); vehicle != nil {
			message.Entities = append(message.Entities, FeedEntity{
				ID:        entity.GetId(),
				Kind:      EntityVehicle,
				IsDeleted: entity.GetIsDeleted(),
				Vehicle:   newVehicleRecord(vehicle),
			})
			withVehicle++
			matched = true
		}

		if tripUpdate := entity.GetTripUpdate(); tripUpdate != nil {
			message.Entities = append(message.Entities, FeedEntity{
				ID:         entity.GetId(),
				Kind:       EntityTripUpdate,
				IsDeleted:  entity.GetIsDeleted(),
				TripUpdate: newTripUpdateRecord(tripUpdate),
			})
			withTripUpdate++
			matched = true
		}

		if entity.GetAlert() != nil {
			message.Entities = append(message.Entities, FeedEntity{
				ID:        entity.GetId(),
				Kind:      EntityAlert,
				IsDeleted: entity.GetIsDeleted(),
			})
			alertCount++
			matched = true
		}

		if !matched {
			message.Entities = append(message.Entities, FeedEntity{
				ID:        entity.GetId(),
				Kind:      EntityUnknown,
				IsDeleted: entity.GetIsDeleted(),
			})
		}
	}

	log.Debug().
		Int("withvehicle", withVehicle).
		Int("withtripupdate", withTripUpdate).
		Int("alerts", alertCount).
		Int("total", len(feed.GetEntity())).
		Msg("Decoded GTFS-RT feed")

	return message, nil
}

func newVehicleRecord(vehicle *gtfs.VehiclePosition) *VehicleRecord {
	record := &VehicleRecord{
		TripID:       vehicle.GetTrip().GetTripId(),
		RouteID:      vehicle.GetTrip().GetRouteId(),
		VehicleID:    vehicle.GetVehicle().GetId(),
		VehicleLabel: vehicle.GetVehicle().GetLabel(),
		Timestamp:    vehicle.GetTimestamp(),
	}

	if position := vehicle.GetPosition(); position != nil {
		record.HasPosition = true
		record.Latitude = float64(position.GetLatitude())
		record.Longitude = float64(position.GetLongitude())
		record.Bearing = float64(position.GetBearing())
	}

	return record
}

func newTripUpdateRecord(tripUpdate *gtfs.TripUpdate) *TripUpdateRecord {
	record := &TripUpdateRecord{
		TripID:          tripUpdate.GetTrip().GetTripId(),
		RouteID:         tripUpdate.GetTrip().GetRouteId(),
		VehicleID:       tripUpdate.GetVehicle().GetId(),
		StopTimeUpdates: make([]StopTimeUpdateRecord, 0, len(tripUpdate.GetStopTimeUpdate())),
	}

	for _, stopTimeUpdate := range tripUpdate.GetStopTimeUpdate() {
		update := StopTimeUpdateRecord{
			StopID: stopTimeUpdate.GetStopId(),
		}

		if arrival := stopTimeUpdate.GetArrival(); arrival != nil && arrival.Delay != nil {
			delay := arrival.GetDelay()
			update.ArrivalDelay = &delay
		}
		if departure := stopTimeUpdate.GetDeparture(); departure != nil && departure.Delay != nil {
			delay := departure.GetDelay()
			update.DepartureDelay = &delay
		}

		record.StopTimeUpdates = append(record.StopTimeUpdates, update)
	}

	return record
}

// ResolveTimestamp picks the vehicle timestamp, then the feed header timestamp, then now
func ResolveTimestamp(vehicle *VehicleRecord, headerTimestamp uint64, now time.Time) int64 {
	if vehicle != nil && vehicle.Timestamp > 0 {
		return int64(vehicle.Timestamp)
	}
	if headerTimestamp > 0 {
		return int64(headerTimestamp)
	}

	return now.Unix()
}
