package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"stockroom/internal/caching"
	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/repositories"
)

// productCodeTTL bounds how stale a cached code lookup can get; every
// catalog or stock write also invalidates the cache outright.
const productCodeTTL = 5 * time.Minute

var codePattern = regexp.MustCompile(`^PROD-(\d+)$`)

// CreateProductInput is the validated shape for creating one product.
type CreateProductInput struct {
	Code         string
	Name         string
	Description  string
	Notes        string
	Stock        int
	ReorderPoint *int
}

// UpdateMetadataInput patches mutable catalog fields. Stock is deliberately
// absent: the stock ledger is the only path that touches stock.
type UpdateMetadataInput struct {
	Code         *string
	Name         *string
	Description  *string
	Notes        *string
	ReorderPoint *int
}

// ProductService owns the catalog: create, metadata update, delete, and
// code lookup. Stock mutation lives in StockService.
type ProductService interface {
	List(ctx context.Context) ([]models.Product, error)
	GetByID(ctx context.Context, id int) (*models.Product, error)
	FindByCode(ctx context.Context, code string) (*models.Product, error)
	Create(ctx context.Context, input CreateProductInput, actor string) (*models.Product, error)
	BulkCreate(ctx context.Context, inputs []CreateProductInput, actor string) ([]models.Product, error)
	UpdateMetadata(ctx context.Context, id int, patch UpdateMetadataInput) (*models.Product, error)
	Delete(ctx context.Context, id int) error
}

type productService struct {
	productRepo  repositories.ProductRepository
	movementRepo repositories.MovementRepository
	cacheService caching.CacheService

	// Serializes code generation so two concurrent creates cannot mint the
	// same PROD-NNN.
	mu sync.Mutex
}

func NewProductService(productRepo repositories.ProductRepository, movementRepo repositories.MovementRepository, cacheService caching.CacheService) ProductService {
	return &productService{
		productRepo:  productRepo,
		movementRepo: movementRepo,
		cacheService: cacheService,
	}
}

func (s *productService) List(ctx context.Context) ([]models.Product, error) {
	return s.productRepo.List(ctx)
}

func (s *productService) GetByID(ctx context.Context, id int) (*models.Product, error) {
	return s.productRepo.GetByID(ctx, id)
}

// FindByCode resolves a code case-insensitively, consulting the cache
// first. Cache failures fall through to the store.
func (s *productService) FindByCode(ctx context.Context, code string) (*models.Product, error) {
	if cached, err := s.cacheService.GetProduct(ctx, code); cached != nil {
		return cached, nil
	} else if err != nil {
		log.Printf("product cache lookup for %q failed: %v", code, err)
	}

	product, err := s.productRepo.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if cacheErr := s.cacheService.SetProduct(ctx, product, productCodeTTL); cacheErr != nil {
		log.Printf("failed to cache product %s: %v", product.Code, cacheErr)
	}
	return product, nil
}

func (s *productService) Create(ctx context.Context, input CreateProductInput, actor string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(ctx, input, actor)
}

// BulkCreate inserts many products under one lock so codes assigned within
// the batch stay strictly sequential. Rows are validated independently and
// the batch stops at the first failure, keeping already-created rows.
func (s *productService) BulkCreate(ctx context.Context, inputs []CreateProductInput, actor string) ([]models.Product, error) {
	if len(inputs) == 0 {
		return nil, common.Validationf("no products to create")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	created := make([]models.Product, 0, len(inputs))
	for i, input := range inputs {
		product, err := s.createLocked(ctx, input, actor)
		if err != nil {
			return created, fmt.Errorf("row %d: %w", i+1, err)
		}
		created = append(created, *product)
	}
	return created, nil
}

func (s *productService) createLocked(ctx context.Context, input CreateProductInput, actor string) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, common.Validationf("product name is required")
	}
	if input.Stock < 0 {
		return nil, common.Validationf("initial stock cannot be negative")
	}

	reorderPoint := models.DefaultReorderPoint
	if input.ReorderPoint != nil {
		if *input.ReorderPoint < 0 {
			return nil, common.Validationf("reorder point cannot be negative")
		}
		reorderPoint = *input.ReorderPoint
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		next, err := s.nextSequentialCode(ctx)
		if err != nil {
			return nil, err
		}
		code = next
	}

	product := &models.Product{
		Code:         code,
		Name:         name,
		Description:  strings.TrimSpace(input.Description),
		Notes:        strings.TrimSpace(input.Notes),
		Stock:        input.Stock,
		ReorderPoint: reorderPoint,
		CreatedAt:    time.Now().UTC(),
	}
	product.RecomputeReorder()

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	// Initial stock arrives through the ledger like any other entry.
	if product.Stock > 0 {
		movement := &models.Movement{
			ProductID:   product.ID,
			ProductCode: product.Code,
			ProductName: product.Name,
			Kind:        models.MovementEntry,
			Quantity:    product.Stock,
			StockBefore: 0,
			StockAfter:  product.Stock,
			Actor:       actor,
			Notes:       "initial stock",
			Timestamp:   time.Now().UTC(),
		}
		if err := s.movementRepo.Append(ctx, movement); err != nil {
			log.Printf("failed to record initial stock movement for %s: %v", product.Code, err)
		}
	}

	s.invalidateCache(ctx)
	return product, nil
}

// nextSequentialCode scans existing PROD-<digits> codes and takes max+1,
// zero-padded to three digits. Deleted codes leave permanent gaps; numbers
// are never reused.
func (s *productService) nextSequentialCode(ctx context.Context) (string, error) {
	products, err := s.productRepo.List(ctx)
	if err != nil {
		return "", err
	}
	maxSeq := 0
	for _, p := range products {
		match := codePattern.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(p.Code)))
		if match == nil {
			continue
		}
		if n, err := strconv.Atoi(match[1]); err == nil && n > maxSeq {
			maxSeq = n
		}
	}
	return fmt.Sprintf("PROD-%03d", maxSeq+1), nil
}

func (s *productService) UpdateMetadata(ctx context.Context, id int, patch UpdateMetadataInput) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, common.Validationf("product name cannot be empty")
	}
	if patch.ReorderPoint != nil && *patch.ReorderPoint < 0 {
		return nil, common.Validationf("reorder point cannot be negative")
	}
	if patch.Code != nil {
		newCode := strings.ToUpper(strings.TrimSpace(*patch.Code))
		if newCode == "" {
			return nil, common.Validationf("product code cannot be empty")
		}
		if existing, err := s.productRepo.GetByCode(ctx, newCode); err == nil && existing.ID != id {
			return nil, common.Conflictf("product code %q already exists", newCode)
		}
		patch.Code = &newCode
	}

	updated, err := s.productRepo.Mutate(ctx, id, func(p *models.Product) error {
		if patch.Code != nil {
			p.Code = *patch.Code
		}
		if patch.Name != nil {
			p.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Description != nil {
			p.Description = strings.TrimSpace(*patch.Description)
		}
		if patch.Notes != nil {
			p.Notes = strings.TrimSpace(*patch.Notes)
		}
		if patch.ReorderPoint != nil {
			p.ReorderPoint = *patch.ReorderPoint
			// Threshold moved, so the derived flag must follow.
			p.RecomputeReorder()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return updated, nil
}

func (s *productService) Delete(ctx context.Context, id int) error {
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *productService) invalidateCache(ctx context.Context) {
	if err := s.cacheService.InvalidateProducts(ctx); err != nil {
		log.Printf("failed to invalidate product cache: %v", err)
	}
}
