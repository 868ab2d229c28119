package caching

import (
	"context"
	"time"

	"stockroom/internal/models"
)

// noopCacheService satisfies CacheService when Redis is not configured.
// Lookups always miss and nothing is ever rate limited.
type noopCacheService struct{}

func NewNoopCacheService() CacheService {
	return noopCacheService{}
}

func (noopCacheService) GetProduct(context.Context, string) (*models.Product, error) {
	return nil, nil
}

func (noopCacheService) SetProduct(context.Context, *models.Product, time.Duration) error {
	return nil
}

func (noopCacheService) InvalidateProducts(context.Context) error { return nil }

func (noopCacheService) IsRateLimited(context.Context, string, int, time.Duration) (bool, error) {
	return false, nil
}

func (noopCacheService) Ping(context.Context) error { return nil }
