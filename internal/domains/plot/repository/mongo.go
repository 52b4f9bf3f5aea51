package repository

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storyforge-backend/internal/domains/plot/model"
	"storyforge-backend/pkg/database"
)

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(model.CollectionName)}
}

func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(model.CollectionName).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "created_at", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create plot indexes: %w", err)
	}
	return nil
}

func scoped(projectID, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "project_id": projectID}
}

func (r *mongoRepository) Create(ctx context.Context, p *model.Plot) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if p.Elements == nil {
		p.Elements = []model.Element{}
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert plot: %w", err)
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Plot, error) {
	var p model.Plot
	if err := r.coll.FindOne(ctx, scoped(projectID, id)).Decode(&p); err != nil {
		if database.IsNotFound(err) {
			return nil, model.ErrPlotNotFound
		}
		return nil, fmt.Errorf("find plot: %w", err)
	}
	p.SortElements()
	return &p, nil
}

func (r *mongoRepository) List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter) ([]*model.Plot, error) {
	query := bson.M{"project_id": projectID}
	if filter.StructureType != "" {
		query["structure_type"] = filter.StructureType
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find plots: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]*model.Plot, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode plots: %w", err)
	}
	for _, p := range out {
		p.SortElements()
	}
	return out, nil
}

func (r *mongoRepository) Update(ctx context.Context, p *model.Plot, fields ...string) error {
	set, err := database.SetOf(p, append(fields, "updated_at")...)
	if err != nil {
		return err
	}
	res, err := r.coll.UpdateOne(ctx, scoped(p.ProjectID, p.ID), bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update plot: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrPlotNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, projectID, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, scoped(projectID, id))
	if err != nil {
		return fmt.Errorf("delete plot: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrPlotNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("delete project plots: %w", err)
	}
	return res.DeletedCount, nil
}
