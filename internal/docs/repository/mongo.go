package repository

import (
	"context"
	"time"

	"github.com/docufold/docufold/internal/docs"
	"github.com/docufold/docufold/pkg/logger"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoRepo implements Repository on a MongoDB collection. Slug uniqueness is
// enforced by a unique index, so the duplicate-key error from an insert or
// update is the authoritative conflict signal (the service's pre-check only
// exists for a friendlier message).
type MongoRepo struct {
	col *mongo.Collection
}

func NewMongoRepo(col *mongo.Collection) *MongoRepo {
	// A failed index build leaves slug uniqueness resting on the service's
	// racy pre-check, so it must not pass silently.
	for _, idx := range []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "slug", Value: 1}}, Options: options.Index().SetUnique(true)},
	} {
		if _, err := col.Indexes().CreateOne(context.Background(), idx); err != nil {
			logger.Errorf("failed to create document index %v: %v", idx.Keys, err)
		}
	}
	return &MongoRepo{col: col}
}

func (m *MongoRepo) Insert(ctx context.Context, d *docs.Document) (*docs.Document, error) {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now
	if _, err := m.col.InsertOne(ctx, d); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return d, nil
}

func (m *MongoRepo) GetByID(ctx context.Context, id string) (*docs.Document, error) {
	return m.findOne(ctx, bson.M{"id": id})
}

func (m *MongoRepo) GetBySlug(ctx context.Context, slug string) (*docs.Document, error) {
	return m.findOne(ctx, bson.M{"slug": slug})
}

func (m *MongoRepo) findOne(ctx context.Context, filter bson.M) (*docs.Document, error) {
	var d docs.Document
	if err := m.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &d, nil
}

// List returns all documents, newest first.
func (m *MongoRepo) List(ctx context.Context) ([]*docs.Document, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := m.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	out := []*docs.Document{}
	for cur.Next(ctx) {
		var d docs.Document
		if err := cur.Decode(&d); err != nil {
			return nil, err
		}
		out = append(out, &d)
	}
	return out, cur.Err()
}

func (m *MongoRepo) Update(ctx context.Context, id string, u Update) (*docs.Document, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if u.Title != nil {
		set["title"] = *u.Title
	}
	if u.Slug != nil {
		set["slug"] = *u.Slug
	}
	if u.FilePath != nil {
		set["filePath"] = *u.FilePath
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var d docs.Document
	if err := m.col.FindOneAndUpdate(ctx, bson.M{"id": id}, bson.M{"$set": set}, opts).Decode(&d); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateSlug
		}
		return nil, err
	}
	return &d, nil
}

func (m *MongoRepo) Delete(ctx context.Context, id string) error {
	res, err := m.col.DeleteOne(ctx, bson.M{"id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
