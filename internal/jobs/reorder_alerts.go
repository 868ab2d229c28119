package jobs

import (
	"context"
	"log"

	"stockroom/internal/repositories"
)

// ReorderAlertService sweeps the catalog for products at or below their
// reorder point. The flag itself is maintained by the stock ledger; the
// sweep only reports it.
type ReorderAlertService struct {
	productRepo repositories.ProductRepository
}

type ReorderAlert struct {
	ProductID    int
	Code         string
	Name         string
	Stock        int
	ReorderPoint int
}

func NewReorderAlertService(productRepo repositories.ProductRepository) *ReorderAlertService {
	return &ReorderAlertService{productRepo: productRepo}
}

func (a *ReorderAlertService) CheckReorder(ctx context.Context) ([]ReorderAlert, error) {
	products, err := a.productRepo.List(ctx)
	if err != nil {
		log.Printf("Failed to list products for reorder check: %v", err)
		return nil, err
	}

	var alerts []ReorderAlert
	for _, p := range products {
		if p.NeedsReorder {
			alerts = append(alerts, ReorderAlert{
				ProductID:    p.ID,
				Code:         p.Code,
				Name:         p.Name,
				Stock:        p.Stock,
				ReorderPoint: p.ReorderPoint,
			})
		}
	}
	return alerts, nil
}

func (a *ReorderAlertService) LogReorderAlerts(alerts []ReorderAlert) {
	if len(alerts) == 0 {
		log.Println("No products need reordering")
		return
	}

	log.Printf("Reorder alerts (%d products):", len(alerts))
	for _, alert := range alerts {
		log.Printf("- %s %q has %d units (reorder point: %d)",
			alert.Code,
			alert.Name,
			alert.Stock,
			alert.ReorderPoint)
	}
}

// ScheduledReorderCheck is the hourly job entry point.
func (a *ReorderAlertService) ScheduledReorderCheck(ctx context.Context) error {
	alerts, err := a.CheckReorder(ctx)
	if err != nil {
		log.Printf("Scheduled reorder check failed: %v", err)
		return err
	}
	a.LogReorderAlerts(alerts)
	return nil
}
