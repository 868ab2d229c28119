package models

import (
	"time"
)

// RequestState is the lifecycle state of an operator product request.
// Pending is the only non-terminal state.
type RequestState string

const (
	RequestPending  RequestState = "pending"
	RequestApproved RequestState = "approved"
	RequestRejected RequestState = "rejected"
)

// Request is an operator-initiated ask for stock, adjudicated by an admin.
// Product fields are snapshots taken at creation time.
type Request struct {
	ID                int          `json:"id"`
	ProductID         int          `json:"productId"`
	ProductCode       string       `json:"productCode"`
	ProductName       string       `json:"productName"`
	RequestedQuantity int          `json:"requestedQuantity"`
	Notes             string       `json:"notes,omitempty"`
	Requester         string       `json:"requester"`
	RequesterID       int          `json:"requesterId"`
	State             RequestState `json:"state"`
	ApprovedQuantity  *int         `json:"approvedQuantity"`
	Approver          *string      `json:"approver"`
	AdminNotes        *string      `json:"adminNotes"`
	RequestedAt       time.Time    `json:"requestedAt"`
	RespondedAt       *time.Time   `json:"respondedAt"`
}
