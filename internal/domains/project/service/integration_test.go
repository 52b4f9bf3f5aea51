//go:build integration

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/infrastructure/database"
	"storyforge-backend/internal/shared"
	"storyforge-backend/internal/testutil"
	pkgdb "storyforge-backend/pkg/database"

	aiRepo "storyforge-backend/internal/domains/ai/repository"
	chapterModel "storyforge-backend/internal/domains/chapter/model"
	chapterRepo "storyforge-backend/internal/domains/chapter/repository"
	chapterService "storyforge-backend/internal/domains/chapter/service"
	characterRepo "storyforge-backend/internal/domains/character/repository"
	exportRepo "storyforge-backend/internal/domains/export/repository"
	plotRepo "storyforge-backend/internal/domains/plot/repository"
	projectModel "storyforge-backend/internal/domains/project/model"
	projectRepo "storyforge-backend/internal/domains/project/repository"
	"storyforge-backend/internal/domains/project/service"
	userModel "storyforge-backend/internal/domains/user/model"
	userRepo "storyforge-backend/internal/domains/user/repository"
)

// MongoSuite chạy service thật trên MongoDB replica set (transaction thật)
type MongoSuite struct {
	suite.Suite
	ctx       context.Context
	container *mongodb.MongoDBContainer
	mongo     *database.MongoDB
	db        *mongo.Database

	users    userRepo.Repository
	projects service.Service
	chapters chapterService.Service
}

func TestMongoSuite(t *testing.T) {
	suite.Run(t, new(MongoSuite))
}

func (s *MongoSuite) SetupSuite() {
	s.ctx = context.Background()

	var err error
	s.container, err = mongodb.Run(s.ctx, "mongo:7", mongodb.WithReplicaSet("rs0"))
	require.NoError(s.T(), err, "Failed to start mongo container")

	uri, err := s.container.ConnectionString(s.ctx)
	require.NoError(s.T(), err)

	s.mongo = database.NewMongoDB(&database.DBConfig{
		URI:            uri,
		Database:       "storyforge_test",
		MaxRetries:     3,
		RetryDelay:     time.Second,
		MaxRetryDelay:  5 * time.Second,
		ConnectTimeout: 30 * time.Second,
	})
	require.NoError(s.T(), s.mongo.Connect(s.ctx))
	s.db = s.mongo.DB

	for _, ensure := range []func(context.Context, *mongo.Database) error{
		userRepo.EnsureIndexes, projectRepo.EnsureIndexes, characterRepo.EnsureIndexes,
		plotRepo.EnsureIndexes, chapterRepo.EnsureIndexes, exportRepo.EnsureIndexes, aiRepo.EnsureIndexes,
	} {
		require.NoError(s.T(), ensure(s.ctx, s.db))
	}

	tx := pkgdb.NewMongoTxManager(s.mongo.Client)
	projects := projectRepo.NewMongoRepository(s.db)
	chapters := chapterRepo.NewMongoRepository(s.db)
	checker := access.NewChecker(projects)

	s.users = userRepo.NewMongoRepository(s.db)
	s.projects = service.NewService(projects, checker, s.users, tx, testutil.NewObjectStore(),
		service.Child{Collection: "characters", Deleter: characterRepo.NewMongoRepository(s.db)},
		service.Child{Collection: "plots", Deleter: plotRepo.NewMongoRepository(s.db)},
		service.Child{Collection: "chapters", Deleter: chapters},
		service.Child{Collection: "exports", Deleter: exportRepo.NewMongoRepository(s.db)},
		service.Child{Collection: "ai_generations", Deleter: aiRepo.NewMongoRepository(s.db)},
	)
	s.chapters = chapterService.NewService(chapters, checker, tx)
}

func (s *MongoSuite) TearDownSuite() {
	if s.mongo != nil {
		_ = s.mongo.Close(s.ctx)
	}
	if err := testcontainers.TerminateContainer(s.container); err != nil {
		s.T().Logf("failed to terminate mongo container: %v", err)
	}
}

func (s *MongoSuite) newUser(name string) shared.Caller {
	u := &userModel.User{Email: name + "@example.com", Username: name, CreatedAt: time.Now()}
	s.Require().NoError(s.users.Create(s.ctx, u))
	return shared.Caller{UserID: u.ID.Hex(), Email: u.Email}
}

func (s *MongoSuite) TestDeleteCascadesInsideTransaction() {
	owner := s.newUser("cascade")

	p, err := s.projects.Create(s.ctx, owner, &projectModel.CreateProjectRequest{Title: "Cascade"})
	s.Require().NoError(err)

	for _, title := range []string{"One", "Two", "Three"} {
		_, err := s.chapters.Create(s.ctx, owner, &chapterModel.CreateChapterRequest{
			ProjectID: p.ID,
			Title:     title,
			Content:   "some words here",
		})
		s.Require().NoError(err)
	}

	out, err := s.projects.Delete(s.ctx, owner, &projectModel.DeleteProjectRequest{ID: p.ID})
	s.Require().NoError(err)
	s.True(out.Success)
	s.EqualValues(3, out.Removed["chapters"])

	pid, err := primitive.ObjectIDFromHex(p.ID)
	s.Require().NoError(err)
	n, err := s.db.Collection(chapterModel.CollectionName).CountDocuments(s.ctx, bson.M{"project_id": pid})
	s.Require().NoError(err)
	s.Zero(n)

	_, err = s.projects.GetByID(s.ctx, owner, &projectModel.GetProjectRequest{ID: p.ID})
	s.Error(err)
}

func (s *MongoSuite) TestChapterPositionsAndEdits() {
	owner := s.newUser("positions")

	p, err := s.projects.Create(s.ctx, owner, &projectModel.CreateProjectRequest{Title: "Ordered"})
	s.Require().NoError(err)

	first, err := s.chapters.Create(s.ctx, owner, &chapterModel.CreateChapterRequest{ProjectID: p.ID, Title: "First", Content: "Hello world"})
	s.Require().NoError(err)
	second, err := s.chapters.Create(s.ctx, owner, &chapterModel.CreateChapterRequest{ProjectID: p.ID, Title: "Second"})
	s.Require().NoError(err)

	s.Equal(0, first.Position)
	s.Equal(1, second.Position)
	s.Equal(2, first.WordCount)

	updated, err := s.chapters.UpdateContent(s.ctx, owner, &chapterModel.UpdateContentRequest{
		ProjectID: p.ID,
		ID:        first.ID,
		Content:   "Hello brave new world",
		Note:      "rewrite",
	})
	s.Require().NoError(err)
	s.Equal(4, updated.WordCount)
	s.Require().NotEmpty(updated.Edits)
	s.Equal("rewrite", updated.Edits[len(updated.Edits)-1].Note)

	got, err := s.chapters.GetByID(s.ctx, owner, &chapterModel.GetChapterRequest{ProjectID: p.ID, ID: first.ID})
	s.Require().NoError(err)
	s.Len(got.Edits, len(updated.Edits))
}
