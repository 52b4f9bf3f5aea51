package repository

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"storyforge-backend/internal/domains/character/model"
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
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "name", Value: 1}}},
		{Keys: bson.D{{Key: "project_id", Value: 1}, {Key: "relationships.character_id", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create character indexes: %w", err)
	}
	return nil
}

func scoped(projectID, id primitive.ObjectID) bson.M {
	return bson.M{"_id": id, "project_id": projectID}
}

func (r *mongoRepository) Create(ctx context.Context, c *model.Character) error {
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if _, err := r.coll.InsertOne(ctx, c); err != nil {
		return fmt.Errorf("insert character: %w", err)
	}
	return nil
}

func (r *mongoRepository) FindByID(ctx context.Context, projectID, id primitive.ObjectID) (*model.Character, error) {
	var c model.Character
	if err := r.coll.FindOne(ctx, scoped(projectID, id)).Decode(&c); err != nil {
		if database.IsNotFound(err) {
			return nil, model.ErrCharacterNotFound
		}
		return nil, fmt.Errorf("find character: %w", err)
	}
	return &c, nil
}

func (r *mongoRepository) FindMany(ctx context.Context, projectID primitive.ObjectID, ids []primitive.ObjectID) ([]*model.Character, error) {
	if len(ids) == 0 {
		return []*model.Character{}, nil
	}
	return r.find(ctx, bson.M{"project_id": projectID, "_id": bson.M{"$in": ids}})
}

func (r *mongoRepository) List(ctx context.Context, projectID primitive.ObjectID, filter ListFilter) ([]*model.Character, error) {
	query := bson.M{"project_id": projectID}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	if filter.Search != "" {
		query["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
	}
	return r.find(ctx, query)
}

func (r *mongoRepository) find(ctx context.Context, query bson.M) ([]*model.Character, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "name", Value: 1}, {Key: "_id", Value: 1}}).
		SetCollation(&options.Collation{Locale: "en", Strength: 2})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find characters: %w", err)
	}
	defer cursor.Close(ctx)

	out := make([]*model.Character, 0)
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode characters: %w", err)
	}
	return out, nil
}

func (r *mongoRepository) Update(ctx context.Context, c *model.Character, fields ...string) error {
	set, err := database.SetOf(c, append(fields, "updated_at")...)
	if err != nil {
		return err
	}
	return r.updateOne(ctx, scoped(c.ProjectID, c.ID), bson.M{"$set": set}, model.ErrCharacterNotFound)
}

func (r *mongoRepository) Delete(ctx context.Context, projectID, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, scoped(projectID, id))
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	if res.DeletedCount == 0 {
		return model.ErrCharacterNotFound
	}
	return nil
}

func (r *mongoRepository) DeleteByProject(ctx context.Context, projectID primitive.ObjectID) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"project_id": projectID})
	if err != nil {
		return 0, fmt.Errorf("delete project characters: %w", err)
	}
	return res.DeletedCount, nil
}

// =====================================================
// RELATIONSHIPS / POSSESSIONS
// =====================================================

// Các thao tác array dùng filter có điều kiện để atomic trên một document;
// matched = 0 thì phân biệt character không tồn tại với điều kiện array sai.

func (r *mongoRepository) AddRelationship(ctx context.Context, projectID, id primitive.ObjectID, rel model.Relationship) error {
	filter := scoped(projectID, id)
	filter["relationships.character_id"] = bson.M{"$ne": rel.CharacterID}
	return r.arrayUpdate(ctx, projectID, id, filter,
		bson.M{"$push": bson.M{"relationships": rel}},
		model.ErrRelationshipExists)
}

func (r *mongoRepository) UpdateRelationship(ctx context.Context, projectID, id primitive.ObjectID, rel model.Relationship) error {
	filter := scoped(projectID, id)
	filter["relationships.character_id"] = rel.CharacterID
	return r.arrayUpdate(ctx, projectID, id, filter,
		bson.M{"$set": bson.M{"relationships.$": rel}},
		model.ErrRelationshipNotFound)
}

func (r *mongoRepository) RemoveRelationship(ctx context.Context, projectID, id, target primitive.ObjectID) error {
	filter := scoped(projectID, id)
	filter["relationships.character_id"] = target
	return r.arrayUpdate(ctx, projectID, id, filter,
		bson.M{"$pull": bson.M{"relationships": bson.M{"character_id": target}}},
		model.ErrRelationshipNotFound)
}

func (r *mongoRepository) RemoveRelationshipsTo(ctx context.Context, projectID, target primitive.ObjectID) (int64, error) {
	res, err := r.coll.UpdateMany(ctx,
		bson.M{"project_id": projectID, "relationships.character_id": target},
		bson.M{
			"$pull": bson.M{"relationships": bson.M{"character_id": target}},
			"$set":  bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return 0, fmt.Errorf("remove relationships to %s: %w", target.Hex(), err)
	}
	return res.ModifiedCount, nil
}

func (r *mongoRepository) AddPossession(ctx context.Context, projectID, id, objectID primitive.ObjectID) error {
	filter := scoped(projectID, id)
	filter["possessions"] = bson.M{"$ne": objectID}
	return r.arrayUpdate(ctx, projectID, id, filter,
		bson.M{"$push": bson.M{"possessions": objectID}},
		model.ErrPossessionExists)
}

func (r *mongoRepository) RemovePossession(ctx context.Context, projectID, id, objectID primitive.ObjectID) error {
	filter := scoped(projectID, id)
	filter["possessions"] = objectID
	return r.arrayUpdate(ctx, projectID, id, filter,
		bson.M{"$pull": bson.M{"possessions": objectID}},
		model.ErrPossessionNotFound)
}

func (r *mongoRepository) arrayUpdate(ctx context.Context, projectID, id primitive.ObjectID, filter, update bson.M, condErr error) error {
	if set, ok := update["$set"].(bson.M); ok {
		set["updated_at"] = time.Now()
	} else {
		update["$set"] = bson.M{"updated_at": time.Now()}
	}

	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	if res.MatchedCount > 0 {
		return nil
	}

	n, err := r.coll.CountDocuments(ctx, scoped(projectID, id))
	if err != nil {
		return fmt.Errorf("count character: %w", err)
	}
	if n == 0 {
		return model.ErrCharacterNotFound
	}
	return condErr
}

func (r *mongoRepository) updateOne(ctx context.Context, filter, update bson.M, notFound error) error {
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	if res.MatchedCount == 0 {
		return notFound
	}
	return nil
}
