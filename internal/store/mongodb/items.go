// Package mongodb stores items in a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/erazemk/fixitforward/internal/model"
)

// Connect dials uri and checks the server answers.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}
	return client, nil
}

// Items is an item repository on the "items" collection.
type Items struct {
	collection *mongo.Collection
}

// NewItems returns a repository on db.
func NewItems(db *mongo.Database) *Items {
	return &Items{collection: db.Collection("items")}
}

// EnsureIndexes creates the listing index.
func (r *Items) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("creating items index: %w", err)
	}
	return nil
}

func (r *Items) InsertItem(ctx context.Context, item *model.Item) error {
	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

func (r *Items) GetItem(ctx context.Context, id string) (*model.Item, error) {
	var item model.Item
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	normalize(&item)
	return &item, nil
}

func (r *Items) ListItems(ctx context.Context) ([]model.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	items := []model.Item{}
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	for i := range items {
		normalize(&items[i])
	}
	return items, nil
}

func (r *Items) UpdateItem(ctx context.Context, item *model.Item) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": item.ID}, item)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("item %s: %w", item.ID, model.ErrNotFound)
	}
	return nil
}

func normalize(item *model.Item) {
	item.CreatedAt = item.CreatedAt.UTC()
	item.UpdatedAt = item.UpdatedAt.UTC()
}
