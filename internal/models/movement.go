package models

import (
	"time"
)

// MovementKind distinguishes stock additions from subtractions.
type MovementKind string

const (
	MovementEntry MovementKind = "entry"
	MovementExit  MovementKind = "exit"
)

// Valid reports whether k is a known movement kind.
func (k MovementKind) Valid() bool {
	return k == MovementEntry || k == MovementExit
}

// Movement is an immutable ledger entry for a single stock change. Product
// fields are denormalized snapshots taken at write time, not live joins, so
// the history survives product deletion.
type Movement struct {
	ID          int          `json:"id"`
	ProductID   int          `json:"productId"`
	ProductCode string       `json:"productCode"`
	ProductName string       `json:"productName"`
	Kind        MovementKind `json:"kind"`
	Quantity    int          `json:"quantity"`
	StockBefore int          `json:"stockBefore"`
	StockAfter  int          `json:"stockAfter"`
	Actor       string       `json:"actor"`
	Notes       string       `json:"notes,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
}
