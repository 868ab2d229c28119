package repositories

import (
	"context"
	"sync"

	"stockroom/internal/models"
	"stockroom/internal/store"
)

// MovementRepository is append-only: movements are never edited or deleted.
type MovementRepository interface {
	List(ctx context.Context) ([]models.Movement, error)
	Append(ctx context.Context, movement *models.Movement) error
}

type movementRepository struct {
	store store.Store
	mu    sync.Mutex
}

func NewMovementRepository(st store.Store) MovementRepository {
	return &movementRepository{store: st}
}

func (r *movementRepository) List(ctx context.Context) ([]models.Movement, error) {
	return readAll[models.Movement](ctx, r.store, store.CollectionMovements)
}

func (r *movementRepository) Append(ctx context.Context, movement *models.Movement) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	movements, err := r.List(ctx)
	if err != nil {
		return err
	}
	maxID := 0
	for i := range movements {
		if movements[i].ID > maxID {
			maxID = movements[i].ID
		}
	}
	movement.ID = maxID + 1
	movements = append(movements, *movement)
	return writeAll(ctx, r.store, store.CollectionMovements, movements)
}
