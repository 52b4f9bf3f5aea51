package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storyforge-backend/internal/domains/ai/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/pkg/database"
)

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(model.CollectionName)}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(model.CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "type", Value: 1}, {Key: "saved", Value: 1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}, Options: options.Index().SetSparse(true)},
	})
	if err != nil {
		return fmt.Errorf("create ai generation indexes: %w", err)
	}
	return nil
}

func scoped(projectID, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "project_id": projectID}
}

func (r *mongoRepository) Create(ctx context.Context, g *model.Generation) error {
	if g.ID.IsZero() {
		g.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, g); err != nil {
		return fmt.Errorf("insert generation: %w", err)
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Generation, error) {
	var g model.Generation
	if err := r.coll.FindOne(ctx, scoped(projectID, id)).Decode(&g); err != nil {
		if database.IsNotFound(err) {
			return nil, model.ErrGenerationNotFound
		}
		return nil, fmt.Errorf("find generation: %w", err)
	}
	return &g, nil
}

func (r *mongoRepository) List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter, page shared.Pagination) ([]*model.Generation, int64, error) {
	query := bson.M{"project_id": projectID}
	if filter.Type != "" {
		query["type"] = filter.Type
	}
	if filter.Saved != nil {
		query["saved"] = *filter.Saved
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count generations: %w", err)
	}

	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find generations: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]*model.Generation, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode generations: %w", err)
	}
	return out, total, nil
}

func (r *mongoRepository) SetSaved(ctx context.Context, projectID, id primitive.ObjectID, saved bool, at time.Time) error {
	res, err := r.coll.UpdateOne(ctx, scoped(projectID, id), bson.M{"$set": bson.M{
		"saved":      saved,
		"updated_at": at,
	}})
	if err != nil {
		return fmt.Errorf("update generation: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrGenerationNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, projectID, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, scoped(projectID, id))
	if err != nil {
		return fmt.Errorf("delete generation: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrGenerationNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("delete project generations: %w", err)
	}
	return res.DeletedCount, nil
}
