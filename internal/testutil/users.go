package testutil

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storyforge-backend/internal/domains/user/model"
	"storyforge-backend/internal/domains/user/repository"
)

// UserRepo là fake của user repository, enforce unique email/username
type UserRepo struct {
	t *table[model.User]
}

var _ repository.Repository = (*UserRepo)(nil)

func NewUserRepo() *UserRepo {
	return &UserRepo{t: newTable[model.User]()}
}

func (r *UserRepo) conflict(u *model.User) error {
	for _, other := range r.t.rows {
		if other.ID == u.ID {
			continue
		}
		if other.Email == u.Email {
			return model.ErrEmailAlreadyExists
		}
		if other.Username == u.Username {
			return model.ErrUsernameTaken
		}
	}
	return nil
}

func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	r.t.put(u.ID, u)
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*model.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	u, ok := r.t.get(id)
	if !ok {
		return nil, model.ErrUserNotFound
	}
	return u, nil
}

func (r *UserRepo) findBy(match func(*model.User) bool) (*model.User, error) {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	found := r.t.filter(match)
	if len(found) == 0 {
		return nil, model.ErrUserNotFound
	}
	return found[0], nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Email == email })
}

func (r *UserRepo) FindByUsername(_ context.Context, username string) (*model.User, error) {
	return r.findBy(func(u *model.User) bool { return u.Username == username })
}

func (r *UserRepo) Update(_ context.Context, u *model.User, _ ...string) error {
	r.t.mu.Lock()
	defer r.t.mu.Unlock()
	if _, ok := r.t.rows[u.ID]; !ok {
		return model.ErrUserNotFound
	}
	if err := r.conflict(u); err != nil {
		return err
	}
	r.t.put(u.ID, u)
	return nil
}
