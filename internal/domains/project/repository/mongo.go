package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storyforge-backend/internal/domains/project/model"
	"storyforge-backend/internal/shared"
	"storyforge-backend/pkg/database"
)

type mongoRepository struct {
	coll *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{coll: db.Collection(model.CollectionName)}
}

// EnsureIndexes tạo index cho owner và collaborator lookups
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(model.CollectionName).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}}},
		{Keys: bson.D{{Key: "collaborators.user_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create project indexes: %w", err)
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, p *model.Project) error {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert project: %w", err)
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Project, error) {
	var p model.Project
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if database.IsNotFound(err) {
			return nil, model.ErrProjectNotFound
		}
		return nil, fmt.Errorf("find project: %w", err)
	}
	return &p, nil
}

func (r *mongoRepository) List(ctx context.Context, filter ListFilter, page shared.Pagination) ([]*model.Project, int64, error) {
	query := bson.M{}
	switch filter.Scope {
	case model.ScopeOwned:
		query["owner_id"] = filter.UserID
	case model.ScopeShared:
		query["collaborators.user_id"] = filter.UserID
	default:
		query["$or"] = bson.A{
			bson.M{"owner_id": filter.UserID},
			bson.M{"collaborators.user_id": filter.UserID},
		}
	}
	if filter.Status != "" {
		query["status"] = filter.Status
	}

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}

	page = page.Normalize()
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(page.Skip()).
		SetLimit(int64(page.Limit))

	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer cursor.Close(ctx)

	projects := make([]*model.Project, 0)
	if err := cursor.All(ctx, &projects); err != nil {
		return nil, 0, fmt.Errorf("decode projects: %w", err)
	}
	return projects, total, nil
}

func (r *mongoRepository) Update(ctx context.Context, p *model.Project, fields ...string) error {
	set, err := database.SetOf(p, append(fields, "updated_at")...)
	if err != nil {
		return err
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": p.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if res.MatchedCount == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}

func (r *mongoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}

// =====================================================
// COLLABORATORS
// =====================================================

// AddCollaborator push có điều kiện: filter loại trừ user đã có trong array
// nên hai request đồng thời không tạo entry trùng
func (r *mongoRepository) AddCollaborator(ctx context.Context, projectID primitive.ObjectID, c model.Collaborator) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": projectID, "collaborators.user_id": bson.M{"$ne": c.UserID}},
		bson.M{
			"$push": bson.M{"collaborators": c},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("add collaborator: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missingOr(ctx, projectID, model.ErrCollaboratorExists)
	}
	return nil
}

func (r *mongoRepository) RemoveCollaborator(ctx context.Context, projectID, userID primitive.ObjectID) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": projectID, "collaborators.user_id": userID},
		bson.M{
			"$pull": bson.M{"collaborators": bson.M{"user_id": userID}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("remove collaborator: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missingOr(ctx, projectID, model.ErrCollaboratorNotFound)
	}
	return nil
}

func (r *mongoRepository) UpdateCollaboratorRole(ctx context.Context, projectID, userID primitive.ObjectID, role model.CollaboratorRole) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": projectID, "collaborators.user_id": userID},
		bson.M{"$set": bson.M{"collaborators.$.role": role, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("update collaborator role: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missingOr(ctx, projectID, model.ErrCollaboratorNotFound)
	}
	return nil
}

// missingOr phân biệt project không tồn tại với điều kiện array không thỏa
func (r *mongoRepository) missingOr(ctx context.Context, projectID primitive.ObjectID, err error) error {
	n, cErr := r.coll.CountDocuments(ctx, bson.M{"_id": projectID})
	if cErr != nil {
		return fmt.Errorf("count project: %w", cErr)
	}
	if n == 0 {
		return model.ErrProjectNotFound
	}
	return err
}
