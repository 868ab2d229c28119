package repositories

import (
	"context"
	"sync"

	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/store"
)

type RequestRepository interface {
	List(ctx context.Context) ([]models.Request, error)
	ListByRequester(ctx context.Context, requesterID int) ([]models.Request, error)
	GetByID(ctx context.Context, id int) (*models.Request, error)
	Create(ctx context.Context, request *models.Request) error
	Mutate(ctx context.Context, id int, fn func(*models.Request) error) (*models.Request, error)
}

type requestRepository struct {
	store store.Store
	mu    sync.Mutex
}

func NewRequestRepository(st store.Store) RequestRepository {
	return &requestRepository{store: st}
}

func (r *requestRepository) List(ctx context.Context) ([]models.Request, error) {
	return readAll[models.Request](ctx, r.store, store.CollectionRequests)
}

func (r *requestRepository) ListByRequester(ctx context.Context, requesterID int) ([]models.Request, error) {
	requests, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	own := make([]models.Request, 0, len(requests))
	for _, req := range requests {
		if req.RequesterID == requesterID {
			own = append(own, req)
		}
	}
	return own, nil
}

func (r *requestRepository) GetByID(ctx context.Context, id int) (*models.Request, error) {
	requests, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		if requests[i].ID == id {
			return &requests[i], nil
		}
	}
	return nil, common.NotFoundf("request %d not found", id)
}

func (r *requestRepository) Create(ctx context.Context, request *models.Request) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	requests, err := r.List(ctx)
	if err != nil {
		return err
	}
	maxID := 0
	for i := range requests {
		if requests[i].ID > maxID {
			maxID = requests[i].ID
		}
	}
	request.ID = maxID + 1
	requests = append(requests, *request)
	return writeAll(ctx, r.store, store.CollectionRequests, requests)
}

// Mutate applies fn to the stored request under the collection lock, so a
// state check and its transition persist as one step.
func (r *requestRepository) Mutate(ctx context.Context, id int, fn func(*models.Request) error) (*models.Request, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	requests, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range requests {
		if requests[i].ID == id {
			if err := fn(&requests[i]); err != nil {
				return nil, err
			}
			if err := writeAll(ctx, r.store, store.CollectionRequests, requests); err != nil {
				return nil, err
			}
			updated := requests[i]
			return &updated, nil
		}
	}
	return nil, common.NotFoundf("request %d not found", id)
}
