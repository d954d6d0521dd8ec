package database

import (
	"context"
	"errors"
	"strings"

	"github.com/travigo/livetransit/pkg/ctdf"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store reads and writes the transit collections in MongoDB
type Store struct {
	Database *mongo.Database

	DeleteBatchSize int
	InsertBatchSize int
}

func NewStore(database *mongo.Database) *Store {
	return &Store{
		Database:        database,
		DeleteBatchSize: DefaultDeleteBatchSize,
		InsertBatchSize: DefaultInsertBatchSize,
	}
}

func (s *Store) collection(name string) *mongo.Collection {
	return s.Database.Collection(name)
}

func (s *Store) ReplaceRoutes(ctx context.Context, routes []ctdf.Route) error {
	return replaceAll(ctx, s.collection(RoutesCollection), routes, s.DeleteBatchSize, s.InsertBatchSize)
}

func (s *Store) ReplaceTrips(ctx context.Context, trips []ctdf.Trip) error {
	return replaceAll(ctx, s.collection(TripsCollection), trips, s.DeleteBatchSize, s.InsertBatchSize)
}

func (s *Store) ReplaceVehiclePositions(ctx context.Context, vehicles []ctdf.VehiclePosition) error {
	return replaceAll(ctx, s.collection(VehiclePositionsCollection), vehicles, s.DeleteBatchSize, s.InsertBatchSize)
}

func (s *Store) ReplaceTripUpdates(ctx context.Context, tripUpdates []ctdf.TripUpdate) error {
	return replaceAll(ctx, s.collection(TripUpdatesCollection), tripUpdates, s.DeleteBatchSize, s.InsertBatchSize)
}

func (s *Store) GetTripRouteID(ctx context.Context, tripID string) (string, error) {
	var trip ctdf.Trip
	opts := options.FindOne().SetProjection(bson.M{"routeid": 1})

	err := s.collection(TripsCollection).FindOne(ctx, bson.M{"tripid": tripID}, opts).Decode(&trip)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", nil
	} else if err != nil {
		return "", err
	}

	return trip.RouteID, nil
}

func (s *Store) GetRouteShortName(ctx context.Context, routeID string) (string, error) {
	route, err := s.GetRoute(ctx, routeID)
	if err != nil || route == nil {
		return "", err
	}

	return route.ShortName, nil
}

// GetRoute returns nil when the route does not exist
func (s *Store) GetRoute(ctx context.Context, routeID string) (*ctdf.Route, error) {
	var route ctdf.Route

	err := s.collection(RoutesCollection).FindOne(ctx, bson.M{"routeid": routeID}).Decode(&route)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return &route, nil
}

type liveVehicleRecord struct {
	ctdf.VehiclePosition `bson:",inline"`

	Route *ctdf.Route `bson:"route"`
}

// GetLiveVehicles returns the current vehicle positions joined with their routes, optionally for one mode
func (s *Store) GetLiveVehicles(ctx context.Context, mode string) ([]ctdf.LiveVehicle, error) {
	pipeline := liveVehiclesPipeline(mode)

	cursor, err := s.collection(VehiclePositionsCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	var records []liveVehicleRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, err
	}

	vehicles := make([]ctdf.LiveVehicle, 0, len(records))
	for _, record := range records {
		vehicles = append(vehicles, ctdf.JoinRoute(record.VehiclePosition, record.Route))
	}

	return vehicles, nil
}

// GetReportsWithin returns reports whose location falls inside the box
func (s *Store) GetReportsWithin(ctx context.Context, box ctdf.BoundingBox) ([]ctdf.Report, error) {
	query := reportsWithinQuery(box)

	cursor, err := s.collection(ReportsCollection).Find(ctx, query)
	if err != nil {
		return nil, err
	}

	var reports []ctdf.Report
	if err := cursor.All(ctx, &reports); err != nil {
		return nil, err
	}

	return reports, nil
}

// GetTripUpdate returns nil when there is no live update for the trip
func (s *Store) GetTripUpdate(ctx context.Context, tripID string) (*ctdf.TripUpdate, error) {
	var tripUpdate ctdf.TripUpdate

	err := s.collection(TripUpdatesCollection).FindOne(ctx, bson.M{"tripid": tripID}).Decode(&tripUpdate)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return &tripUpdate, nil
}

func liveVehiclesPipeline(mode string) mongo.Pipeline {
	pipeline := mongo.Pipeline{}
	if mode != "" {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: bson.M{"mode": strings.ToUpper(mode)}}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         RoutesCollection,
			"localField":   "routeid",
			"foreignField": "routeid",
			"as":           "route",
		}}},
		bson.D{{Key: "$unwind", Value: bson.M{
			"path":                       "$route",
			"preserveNullAndEmptyArrays": true,
		}}},
	)

	return pipeline
}

func reportsWithinQuery(box ctdf.BoundingBox) bson.M {
	return bson.M{"location.coordinates": bson.M{"$geoWithin": bson.M{"$box": bson.A{
		bson.A{box.MinLng, box.MinLat},
		bson.A{box.MaxLng, box.MaxLat},
	}}}}
}

// CountRecords returns the number of documents in every transit collection
func (s *Store) CountRecords(ctx context.Context) (map[string]int64, error) {
	counts := map[string]int64{}

	for _, name := range []string{RoutesCollection, TripsCollection, VehiclePositionsCollection, TripUpdatesCollection, ReportsCollection} {
		count, err := s.collection(name).EstimatedDocumentCount(ctx)
		if err != nil {
			return nil, err
		}
		counts[name] = count
	}

	return counts, nil
}
