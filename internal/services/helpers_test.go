package services

import (
	"testing"

	"stockroom/internal/caching"
	"stockroom/internal/repositories"
	"stockroom/internal/store"
)

// testEnv wires the full service stack against a file store in a temp
// directory, the same topology main uses minus redis and the scheduler.
type testEnv struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.MovementRepository
	requestRepo  repositories.RequestRepository
	userRepo     repositories.UserRepository

	authSvc    AuthService
	productSvc ProductService
	stockSvc   StockService
	requestSvc RequestService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	fileStore, err := store.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("creating file store: %v", err)
	}
	cacheSvc := caching.NewNoopCacheService()

	env := &testEnv{
		productRepo:  repositories.NewProductRepository(fileStore),
		movementRepo: repositories.NewMovementRepository(fileStore),
		requestRepo:  repositories.NewRequestRepository(fileStore),
		userRepo:     repositories.NewUserRepository(fileStore),
	}
	env.authSvc = NewAuthService(env.userRepo, "test-secret")
	env.productSvc = NewProductService(env.productRepo, env.movementRepo, cacheSvc)
	env.stockSvc = NewStockService(env.productRepo, env.movementRepo, cacheSvc)
	env.requestSvc = NewRequestService(env.requestRepo, env.productRepo, env.stockSvc)
	return env
}

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}
