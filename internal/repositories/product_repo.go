package repositories

import (
	"context"
	"strings"
	"sync"

	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/store"
)

type ProductRepository interface {
	List(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	GetByCode(ctx context.Context, code string) (*models.Product, error)
	Create(ctx context.Context, product *models.Product) error
	Mutate(ctx context.Context, id int, fn func(*models.Product) error) (*models.Product, error)
	Delete(ctx context.Context, id int) error
}

type productRepository struct {
	store store.Store
	mu    sync.Mutex
}

func NewProductRepository(st store.Store) ProductRepository {
	return &productRepository{store: st}
}

func (r *productRepository) List(ctx context.Context) ([]models.Product, error) {
	return readAll[models.Product](ctx, r.store, store.CollectionProducts)
}

func (r *productRepository) GetByID(ctx context.Context, id int) (*models.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			return &products[i], nil
		}
	}
	return nil, common.NotFoundf("product %d not found", id)
}

// GetByCode matches case-insensitively with surrounding whitespace ignored.
func (r *productRepository) GetByCode(ctx context.Context, code string) (*models.Product, error) {
	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	wanted := strings.ToUpper(strings.TrimSpace(code))
	for i := range products {
		if strings.ToUpper(strings.TrimSpace(products[i].Code)) == wanted {
			return &products[i], nil
		}
	}
	return nil, common.NotFoundf("product with code %q not found", strings.TrimSpace(code))
}

// Create assigns the next sequential id (max existing + 1) and appends.
// Fails with a conflict when the code is already taken.
func (r *productRepository) Create(ctx context.Context, product *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.List(ctx)
	if err != nil {
		return err
	}
	wanted := strings.ToUpper(strings.TrimSpace(product.Code))
	maxID := 0
	for i := range products {
		if strings.ToUpper(strings.TrimSpace(products[i].Code)) == wanted {
			return common.Conflictf("product code %q already exists", product.Code)
		}
		if products[i].ID > maxID {
			maxID = products[i].ID
		}
	}
	product.ID = maxID + 1
	products = append(products, *product)
	return writeAll(ctx, r.store, store.CollectionProducts, products)
}

// Mutate applies fn to the stored product under the collection lock and
// persists the result, so a read-check-write sequence cannot interleave
// with another writer. fn returning an error aborts with nothing written.
func (r *productRepository) Mutate(ctx context.Context, id int, fn func(*models.Product) error) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range products {
		if products[i].ID == id {
			if err := fn(&products[i]); err != nil {
				return nil, err
			}
			if err := writeAll(ctx, r.store, store.CollectionProducts, products); err != nil {
				return nil, err
			}
			updated := products[i]
			return &updated, nil
		}
	}
	return nil, common.NotFoundf("product %d not found", id)
}

// Delete removes the product outright. Historical movements and requests
// keep their denormalized snapshots.
func (r *productRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	products, err := r.List(ctx)
	if err != nil {
		return err
	}
	for i := range products {
		if products[i].ID == id {
			products = append(products[:i], products[i+1:]...)
			return writeAll(ctx, r.store, store.CollectionProducts, products)
		}
	}
	return common.NotFoundf("product %d not found", id)
}
