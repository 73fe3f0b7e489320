package game

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "games"

type MongoRepo struct {
	collection *mongo.Collection
}

func NewMongoRepo(db *mongo.Database) *MongoRepo {
	return &MongoRepo{
		collection: db.Collection(CollectionName),
	}
}

// EnsureIndexes creates the indexes the reaper queries rely on.
func (r *MongoRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "last_update", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("failed to create game indexes: %w", err)
	}
	return nil
}

func (r *MongoRepo) Get(ctx context.Context, id string) (*Game, error) {
	var g Game
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&g)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch game: %w", err)
	}
	return &g, nil
}

func (r *MongoRepo) Create(ctx context.Context, g *Game) error {
	_, err := r.collection.InsertOne(ctx, g)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		return fmt.Errorf("failed to insert game: %w", err)
	}
	return nil
}

func (r *MongoRepo) Update(ctx context.Context, g *Game, prevTokenHash string) error {
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": g.ID, "turn_token_hash": prevTokenHash},
		bson.M{"$set": bson.M{
			"board_state":     g.BoardState,
			"status":          g.Status,
			"last_update":     g.LastUpdate,
			"turn_token_hash": g.TurnTokenHash,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrTokenMismatch
	}
	return nil
}

func (r *MongoRepo) Query(ctx context.Context, f Filter) iter.Seq2[*Game, error] {
	return func(yield func(*Game, error) bool) {
		cursor, err := r.collection.Find(ctx, mongoFilter(f), options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
		if err != nil {
			yield(nil, fmt.Errorf("failed to query games: %w", err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			var g Game
			if err := cursor.Decode(&g); err != nil {
				if !yield(nil, fmt.Errorf("failed to decode game: %w", err)) {
					return
				}
				continue
			}
			if !yield(&g, nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(nil, fmt.Errorf("game cursor: %w", err))
		}
	}
}

func (r *MongoRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return nil
}

func mongoFilter(f Filter) bson.M {
	filter := bson.M{}
	if f.Status != nil {
		filter["status"] = *f.Status
	}
	if !f.UpdatedBefore.IsZero() {
		filter["last_update"] = bson.M{"$lte": f.UpdatedBefore}
	}
	return filter
}
