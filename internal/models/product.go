package models

import (
	"time"
)

// DefaultReorderPoint is applied when a product is created without one.
const DefaultReorderPoint = 2

// Product is a catalog entry keyed by a human-assigned code.
// NeedsReorder is derived from Stock and ReorderPoint; it is recomputed by
// the stock ledger on every stock mutation and must never be set by callers.
type Product struct {
	ID           int       `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	Notes        string    `json:"notes"`
	Stock        int       `json:"stock"`
	ReorderPoint int       `json:"reorderPoint"`
	NeedsReorder bool      `json:"needsReorder"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RecomputeReorder refreshes the derived NeedsReorder flag.
func (p *Product) RecomputeReorder() {
	p.NeedsReorder = p.Stock <= p.ReorderPoint
}
