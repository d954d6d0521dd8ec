package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/travigo/livetransit/pkg/util"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultDeleteBatchSize = 1000
	DefaultInsertBatchSize = 500
)

// replaceAll empties the collection a page of ids at a time, then inserts the documents in chunks.
// Readers can see a partly empty collection while this runs.
func replaceAll[T any](ctx context.Context, collection *mongo.Collection, documents []T, deleteBatchSize int, insertBatchSize int) error {
	deleted, err := deleteAllPaginated(ctx, collection, deleteBatchSize)
	if err != nil {
		return fmt.Errorf("clear %s: %w", collection.Name(), err)
	}

	inserted := 0
	for _, chunk := range util.Chunk(documents, insertBatchSize) {
		models := make([]mongo.WriteModel, 0, len(chunk))
		for _, document := range chunk {
			models = append(models, mongo.NewInsertOneModel().SetDocument(document))
		}

		if _, err := collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false)); err != nil {
			return fmt.Errorf("insert into %s: %w", collection.Name(), err)
		}
		inserted += len(chunk)
	}

	log.Debug().
		Str("collection", collection.Name()).
		Int64("deleted", deleted).
		Int("inserted", inserted).
		Msg("Replaced collection")

	return nil
}

func deleteAllPaginated(ctx context.Context, collection *mongo.Collection, batchSize int) (int64, error) {
	var deleted int64

	for {
		opts := options.Find().SetProjection(bson.M{"_id": 1}).SetLimit(int64(batchSize))
		cursor, err := collection.Find(ctx, bson.M{}, opts)
		if err != nil {
			return deleted, err
		}

		var page []struct {
			ID interface{} `bson:"_id"`
		}
		if err := cursor.All(ctx, &page); err != nil {
			return deleted, err
		}
		if len(page) == 0 {
			return deleted, nil
		}

		ids := make(bson.A, 0, len(page))
		for _, document := range page {
			ids = append(ids, document.ID)
		}

		result, err := collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
		if err != nil {
			return deleted, err
		}
		deleted += result.DeletedCount

		if len(page) < batchSize {
			return deleted, nil
		}
	}
}
