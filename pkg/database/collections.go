package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	RoutesCollection           = "routes"
	TripsCollection            = "trips"
	VehiclePositionsCollection = "vehicle_positions"
	TripUpdatesCollection      = "trip_updates"
	ReportsCollection          = "reports"
)

func createIndexes() {
	createIndex(RoutesCollection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "routeid", Value: 1}},
		},
	})

	// The realtime loader resolves every active trip through this index
	createIndex(TripsCollection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tripid", Value: 1}},
		},
	})

	createIndex(VehiclePositionsCollection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "vehicleid", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "mode", Value: 1}},
		},
	})

	createIndex(TripUpdatesCollection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "tripid", Value: 1}},
		},
	})

	createIndex(ReportsCollection, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "location.coordinates", Value: "2d"}},
		},
		{
			Keys: bson.D{{Key: "gtfsrouteid", Value: 1}},
		},
	})
}

func createIndex(collectionName string, indexes []mongo.IndexModel) {
	collection := GetCollection(collectionName)

	opts := options.CreateIndexes()
	_, err := collection.Indexes().CreateMany(context.Background(), indexes, opts)
	if err != nil {
		log.Error().Err(err).Str("collection", collectionName).Msg("Creating Index")
	}
}
