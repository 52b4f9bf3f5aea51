package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storyforge-backend/internal/domains/chapter/model"
	"storyforge-backend/pkg/database"
)

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(model.CollectionName)}
}

// EnsureIndexes: index (project_id, position) không unique vì reorder
// ghi từng document một
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(model.CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "position", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create chapter indexes: %w", err)
	}
	return nil
}

func scoped(projectID, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "project_id": projectID}
}

var byPosition = bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}}

func (r *mongoRepository) Create(ctx context.Context, c *model.Chapter) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert chapter: %w", err)
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Chapter, error) {
	var c model.Chapter
	if err := r.coll.FindOne(ctx, scoped(projectID, id)).Decode(&c); err != nil {
		if database.IsNotFound(err) {
			return nil, model.ErrChapterNotFound
		}
		return nil, fmt.Errorf("find chapter: %w", err)
	}
	return &c, nil
}

func (r *mongoRepository) List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter) ([]*model.Chapter, error) {
	query := bson.M{"project_id": projectID}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	opts := options.Find().SetSort(byPosition)
	if !filter.WithContent {
		opts.SetProjection(bson.M{"content": 0})
	}

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find chapters: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]*model.Chapter, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode chapters: %w", err)
	}
	return out, nil
}

func (r *mongoRepository) ListIDsByProject(ctx context.Context, projectID primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetSort(byPosition).SetProjection(bson.M{"_id": 1})
	cursor, err := r.coll.Find(ctx, bson.M{"project_id": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("find chapter ids: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode chapter ids: %w", err)
	}
	out := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.ID)
	}
	return out, nil
}

func (r *mongoRepository) MaxPosition(ctx context.Context, projectID primitive.ObjectID) (int, bool, error) {
	opts := options.FindOne().
		SetSort(bson.D{{Key: "position", Value: -1}}).
		SetProjection(bson.M{"position": 1})

	var row struct {
		Position int `bson:"position"`
	}
	if err := r.coll.FindOne(ctx, bson.M{"project_id": projectID}, opts).Decode(&row); err != nil {
		if database.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("find max chapter position: %w", err)
	}
	return row.Position, true, nil
}

func (r *mongoRepository) PositionTaken(ctx context.Context, projectID primitive.ObjectID, position int, exclude primitive.ObjectID) (bool, error) {
	query := bson.M{"project_id": projectID, "position": position}
	if !exclude.IsZero() {
		query["_id"] = bson.M{"$ne": exclude}
	}
	n, err := r.coll.CountDocuments(ctx, query, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count chapters at position: %w", err)
	}
	return n > 0, nil
}

func (r *mongoRepository) Update(ctx context.Context, c *model.Chapter, fields ...string) error {
	set, err := database.SetOf(c, append(fields, "updated_at")...)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, scoped(c.ProjectID, c.ID), bson.M{"$set": set})
}

func (r *mongoRepository) AppendEdit(ctx context.Context, c *model.Chapter, edit model.Edit, fields ...string) error {
	set, err := database.SetOf(c, append(fields, "updated_at")...)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, scoped(c.ProjectID, c.ID), bson.M{
		"$set":  set,
		"$push": bson.M{"edits": edit},
	})
}

func (r *mongoRepository) UpdatePosition(ctx context.Context, projectID, id primitive.ObjectID, position int) error {
	return r.updateOne(ctx, scoped(projectID, id), bson.M{
		"$set": bson.M{"position": position, "updated_at": time.Now()},
	})
}

func (r *mongoRepository) updateOne(ctx context.Context, filter, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update chapter: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrChapterNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, projectID, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, scoped(projectID, id))
	if err != nil {
		return fmt.Errorf("delete chapter: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrChapterNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("delete project chapters: %w", err)
	}
	return res.DeletedCount, nil
}
