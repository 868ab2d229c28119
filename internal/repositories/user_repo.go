package repositories

import (
	"context"
	"strings"
	"sync"

	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/store"
)

type UserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id int) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

type userRepository struct {
	store store.Store
	mu    sync.Mutex
}

func NewUserRepository(st store.Store) UserRepository {
	return &userRepository{store: st}
}

func (r *userRepository) List(ctx context.Context) ([]models.User, error) {
	return readAll[models.User](ctx, r.store, store.CollectionUsers)
}

func (r *userRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].ID == id {
			return &users[i], nil
		}
	}
	return nil, common.NotFoundf("user %d not found", id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	users, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if strings.EqualFold(users[i].Username, username) {
			return &users[i], nil
		}
	}
	return nil, common.NotFoundf("user %q not found", username)
}

// Create assigns the next sequential id and rejects duplicate usernames.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	users, err := r.List(ctx)
	if err != nil {
		return err
	}
	maxID := 0
	for i := range users {
		if strings.EqualFold(users[i].Username, user.Username) {
			return common.Conflictf("user %q already exists", user.Username)
		}
		if users[i].ID > maxID {
			maxID = users[i].ID
		}
	}
	user.ID = maxID + 1
	users = append(users, *user)
	return writeAll(ctx, r.store, store.CollectionUsers, users)
}
