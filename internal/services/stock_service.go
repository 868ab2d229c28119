package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"stockroom/internal/caching"
	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/repositories"
)

// StockUpdate is the result of one ledger operation. Warning is set when
// the stock write succeeded but the movement record could not be appended;
// the ledger is a record, not a guard, so the stock change stands.
type StockUpdate struct {
	Product  *models.Product  `json:"product"`
	Movement *models.Movement `json:"movement,omitempty"`
	Warning  string           `json:"warning,omitempty"`
}

// StockService is the only path that mutates product stock. Every mutation
// recomputes the reorder flag and appends a movement with before/after
// snapshots.
type StockService interface {
	ApplyMovement(ctx context.Context, productID int, kind models.MovementKind, quantity int, actor, notes string) (*StockUpdate, error)
	ListMovements(ctx context.Context) ([]models.Movement, error)
}

type stockService struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.MovementRepository
	cacheService caching.CacheService

	// Serializes the check-and-deduct sequence so two concurrent exits
	// cannot both pass the stock check.
	mu sync.Mutex
}

func NewStockService(productRepo repositories.ProductRepository, movementRepo repositories.MovementRepository, cacheService caching.CacheService) StockService {
	return &stockService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		cacheService: cacheService,
	}
}

func (s *stockService) ApplyMovement(ctx context.Context, productID int, kind models.MovementKind, quantity int, actor, notes string) (*StockUpdate, error) {
	if !kind.Valid() {
		return nil, common.Validationf("movement kind must be %q or %q", models.MovementEntry, models.MovementExit)
	}
	if quantity <= 0 {
		return nil, common.Validationf("quantity must be a positive integer")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var stockBefore int
	product, err := s.productRepo.Mutate(ctx, productID, func(p *models.Product) error {
		stockBefore = p.Stock
		switch kind {
		case models.MovementEntry:
			p.Stock += quantity
		case models.MovementExit:
			if quantity > p.Stock {
				return fmt.Errorf("%w: available %d, requested %d", common.ErrInsufficientStock, p.Stock, quantity)
			}
			p.Stock -= quantity
		}
		p.RecomputeReorder()
		return nil
	})
	if err != nil {
		return nil, err
	}

	if cacheErr := s.cacheService.InvalidateProducts(ctx); cacheErr != nil {
		log.Printf("failed to invalidate product cache: %v", cacheErr)
	}

	movement := &models.Movement{
		ProductID:   product.ID,
		ProductCode: product.Code,
		ProductName: product.Name,
		Kind:        kind,
		Quantity:    quantity,
		StockBefore: stockBefore,
		StockAfter:  product.Stock,
		Actor:       actor,
		Notes:       notes,
		Timestamp:   time.Now().UTC(),
	}
	if err := s.movementRepo.Append(ctx, movement); err != nil {
		// The stock write stands; surface the missing ledger entry.
		log.Printf("stock updated for product %d but movement log failed: %v", productID, err)
		return &StockUpdate{
			Product: product,
			Warning: "stock updated but the movement could not be recorded",
		}, nil
	}

	return &StockUpdate{Product: product, Movement: movement}, nil
}

func (s *stockService) ListMovements(ctx context.Context) ([]models.Movement, error) {
	return s.movementRepo.List(ctx)
}
