package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/caching"
	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/repositories"
	"stockroom/internal/store"
)

// ledgerFailStore delegates to an inner store but fails every write to the
// movements collection once armed, so the ledger dies while product writes
// keep working.
type ledgerFailStore struct {
	store.Store
	fail bool
}

func (s *ledgerFailStore) WriteCollection(ctx context.Context, name string, data []byte) error {
	if s.fail && name == store.CollectionMovements {
		return errors.New("movements backend unreachable")
	}
	return s.Store.WriteCollection(ctx, name, data)
}

func TestApplyMovementEntry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 3, ReorderPoint: intPtr(5)}, "admin")
	require.NoError(t, err)
	require.True(t, product.NeedsReorder)

	update, err := env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementEntry, 7, "admin", "restock")
	require.NoError(t, err)
	assert.Equal(t, 10, update.Product.Stock)
	assert.False(t, update.Product.NeedsReorder)
	require.NotNil(t, update.Movement)
	assert.Equal(t, 3, update.Movement.StockBefore)
	assert.Equal(t, 10, update.Movement.StockAfter)
	assert.Equal(t, "restock", update.Movement.Notes)
	assert.Empty(t, update.Warning)
}

func TestApplyMovementExitFlagsReorder(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 10, ReorderPoint: intPtr(5)}, "admin")
	require.NoError(t, err)
	require.False(t, product.NeedsReorder)

	update, err := env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementExit, 6, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 4, update.Product.Stock)
	assert.True(t, update.Product.NeedsReorder, "stock fell to the threshold or below")
	assert.Equal(t, 10, update.Movement.StockBefore)
	assert.Equal(t, 4, update.Movement.StockAfter)
}

func TestApplyMovementExitToExactlyZero(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 5}, "admin")
	require.NoError(t, err)

	update, err := env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementExit, 5, "admin", "")
	require.NoError(t, err)
	assert.Equal(t, 0, update.Product.Stock)
	assert.True(t, update.Product.NeedsReorder)
}

func TestApplyMovementInsufficientStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 5}, "admin")
	require.NoError(t, err)

	_, err = env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementExit, 6, "admin", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInsufficientStock)

	// The failed exit leaves both the product and the ledger untouched.
	unchanged, err := env.productSvc.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, unchanged.Stock)

	movements, err := env.stockSvc.ListMovements(ctx)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, "initial stock", movements[0].Notes)
}

func TestApplyMovementValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 5}, "admin")
	require.NoError(t, err)

	_, err = env.stockSvc.ApplyMovement(ctx, product.ID, "transfer", 1, "admin", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementEntry, 0, "admin", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementExit, -2, "admin", "")
	assert.ErrorIs(t, err, common.ErrValidation)

	_, err = env.stockSvc.ApplyMovement(ctx, 99, models.MovementEntry, 1, "admin", "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestMovementsAccumulateDenormalizedHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 10}, "admin")
	require.NoError(t, err)

	_, err = env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementExit, 4, "operator", "ward 3")
	require.NoError(t, err)
	_, err = env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementEntry, 2, "admin", "return")
	require.NoError(t, err)

	movements, err := env.stockSvc.ListMovements(ctx)
	require.NoError(t, err)
	require.Len(t, movements, 3)

	// Each row snapshots product identity and before/after stock.
	exit := movements[1]
	assert.Equal(t, "PROD-001", exit.ProductCode)
	assert.Equal(t, "Gloves", exit.ProductName)
	assert.Equal(t, 10, exit.StockBefore)
	assert.Equal(t, 6, exit.StockAfter)
	assert.Equal(t, "operator", exit.Actor)

	entry := movements[2]
	assert.Equal(t, 6, entry.StockBefore)
	assert.Equal(t, 8, entry.StockAfter)
}

func TestApplyMovementLedgerFailureKeepsStockChange(t *testing.T) {
	fileStore, err := store.NewFileStore(t.TempDir())
	require.NoError(t, err)
	failing := &ledgerFailStore{Store: fileStore}
	cacheSvc := caching.NewNoopCacheService()
	productRepo := repositories.NewProductRepository(failing)
	movementRepo := repositories.NewMovementRepository(failing)
	productSvc := NewProductService(productRepo, movementRepo, cacheSvc)
	stockSvc := NewStockService(productRepo, movementRepo, cacheSvc)
	ctx := context.Background()

	product, err := productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 10}, "admin")
	require.NoError(t, err)

	failing.fail = true
	update, err := stockSvc.ApplyMovement(ctx, product.ID, models.MovementExit, 4, "admin", "")
	require.NoError(t, err, "the stock change stands when only the ledger write fails")
	assert.Equal(t, 6, update.Product.Stock)
	assert.Nil(t, update.Movement)
	assert.NotEmpty(t, update.Warning)

	// The stock write persisted; the ledger holds only the initial entry.
	failing.fail = false
	reloaded, err := productSvc.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, reloaded.Stock)

	movements, err := stockSvc.ListMovements(ctx)
	require.NoError(t, err)
	require.Len(t, movements, 1)
	assert.Equal(t, "initial stock", movements[0].Notes)
}

func TestConcurrentExitsNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 10}, "admin")
	require.NoError(t, err)

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.stockSvc.ApplyMovement(ctx, product.ID, models.MovementExit, 3, "admin", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, common.ErrInsufficientStock)
		}
	}
	assert.Equal(t, 3, succeeded, "only three exits of 3 fit in a stock of 10")

	final, err := env.productSvc.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, final.Stock)
	assert.GreaterOrEqual(t, final.Stock, 0, "stock must never go negative")
}
