package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storyforge-backend/internal/domains/export/model"
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
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "updated_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create export indexes: %w", err)
	}
	return nil
}

func scoped(projectID, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "project_id": projectID}
}

func (r *mongoRepository) Create(ctx context.Context, e *model.Export) error {
	if e.ID.IsZero() {
		e.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, e); err != nil {
		return fmt.Errorf("insert export: %w", err)
	}
	return nil
}

func (r *mongoRepository) findOne(ctx context.Context, filter bson.M) (*model.Export, error) {
	var e model.Export
	if err := r.coll.FindOne(ctx, filter).Decode(&e); err != nil {
		if database.IsNotFound(err) {
			return nil, model.ErrExportNotFound
		}
		return nil, fmt.Errorf("find export: %w", err)
	}
	return &e, nil
}

func (r *mongoRepository) FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Export, error) {
	return r.findOne(ctx, scoped(projectID, id))
}

func (r *mongoRepository) Get(ctx context.Context, id primitive.ObjectID) (*model.Export, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoRepository) List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter, page shared.Pagination) ([]*model.Export, int64, error) {
	query := bson.M{"project_id": projectID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count exports: %w", err)
	}

	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find exports: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]*model.Export, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, 0, fmt.Errorf("decode exports: %w", err)
	}
	return out, total, nil
}

func (r *mongoRepository) Delete(ctx context.Context, projectID, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, scoped(projectID, id))
	if err != nil {
		return fmt.Errorf("delete export: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrExportNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("delete project exports: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *mongoRepository) IncrementDownloads(ctx context.Context, projectID, id primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx, scoped(projectID, id), bson.M{"$inc": bson.M{"download_count": 1}})
	if err != nil {
		return fmt.Errorf("increment downloads: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrExportNotFound
	}
	return nil
}

// =====================================================
// JOB STATE
// =====================================================

func (r *mongoRepository) transition(ctx context.Context, id primitive.ObjectID, from []model.Status, update bson.M) error {
	filter := bson.M{"_id": id, "status": bson.M{"$in": from}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update export %s: %w", id.Hex(), err)
	}
	if res.MatchedCount == 0 {
		return model.ErrStateChanged
	}
	return nil
}

var active = []model.Status{model.StatusPending, model.StatusProcessing}

func (r *mongoRepository) SetTask(ctx context.Context, id primitive.ObjectID, taskID string, at time.Time) error {
	return r.transition(ctx, id, active, bson.M{"$set": bson.M{
		"job.task_id":     taskID,
		"job.enqueued_at": at,
		"updated_at":      at,
	}})
}

func (r *mongoRepository) MarkProcessing(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	return r.transition(ctx, id, active, bson.M{
		"$set": bson.M{
			"status":         model.StatusProcessing,
			"job.started_at": at,
			"updated_at":     at,
		},
		"$inc": bson.M{"job.attempts": 1},
	})
}

func (r *mongoRepository) RecordFailure(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	return r.transition(ctx, id, active, bson.M{"$set": bson.M{
		"job.last_error": reason,
		"updated_at":     at,
	}})
}

func (r *mongoRepository) MarkCompleted(ctx context.Context, id primitive.ObjectID, file FileInfo, at time.Time) error {
	return r.transition(ctx, id, []model.Status{model.StatusProcessing}, bson.M{"$set": bson.M{
		"status":          model.StatusCompleted,
		"file_url":        file.URL,
		"file_key":        file.Key,
		"file_size":       file.Size,
		"job.finished_at": at,
		"job.last_error":  "",
		"updated_at":      at,
	}})
}

func (r *mongoRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string, at time.Time) error {
	return r.transition(ctx, id, active, bson.M{"$set": bson.M{
		"status":          model.StatusFailed,
		"job.finished_at": at,
		"job.last_error":  reason,
		"updated_at":      at,
	}})
}

func (r *mongoRepository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]*model.Export, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: 1}}).
		SetLimit(int64(limit))
	cursor, err := r.coll.Find(ctx, bson.M{
		"status":     model.StatusPending,
		"updated_at": bson.M{"$lt": cutoff},
	}, opts)
	if err != nil {
		return nil, fmt.Errorf("find stale exports: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]*model.Export, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode stale exports: %w", err)
	}
	return out, nil
}
