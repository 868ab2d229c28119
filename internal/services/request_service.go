package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/repositories"
)

// RequestService runs the request state machine:
// pending -> approved | rejected, both terminal. Approval deducts stock
// through the ledger before the transition is persisted, so an approval
// that would drive stock negative leaves the request pending.
type RequestService interface {
	Create(ctx context.Context, productCode string, requestedQuantity int, notes string, requester common.Identity) (*models.Request, error)
	Approve(ctx context.Context, requestID, approvedQuantity int, adminNotes string, approver common.Identity) (*models.Request, error)
	Reject(ctx context.Context, requestID int, adminNotes string, approver common.Identity) (*models.Request, error)
	// List returns all requests for admins and only the caller's own
	// requests for operators.
	List(ctx context.Context, caller common.Identity) ([]models.Request, error)
}

type requestService struct {
	requestRepo repositories.RequestRepository
	productRepo repositories.ProductRepository
	stockSvc    StockService

	// Serializes adjudication end to end: without it two approvals of
	// requests against the same product could both deduct stock after the
	// pending check but before the transition lands.
	mu sync.Mutex
}

func NewRequestService(requestRepo repositories.RequestRepository, productRepo repositories.ProductRepository, stockSvc StockService) RequestService {
	return &requestService{
		requestRepo: requestRepo,
		productRepo: productRepo,
		stockSvc:    stockSvc,
	}
}

func (s *requestService) Create(ctx context.Context, productCode string, requestedQuantity int, notes string, requester common.Identity) (*models.Request, error) {
	if strings.TrimSpace(productCode) == "" {
		return nil, common.Validationf("product code is required")
	}
	product, err := s.productRepo.GetByCode(ctx, productCode)
	if err != nil {
		return nil, err
	}

	// Absent or invalid quantities collapse to 1.
	if requestedQuantity <= 0 {
		requestedQuantity = 1
	}

	request := &models.Request{
		ProductID:         product.ID,
		ProductCode:       product.Code,
		ProductName:       product.Name,
		RequestedQuantity: requestedQuantity,
		Notes:             strings.TrimSpace(notes),
		Requester:         requester.Username,
		RequesterID:       requester.UserID,
		State:             models.RequestPending,
		RequestedAt:       time.Now().UTC(),
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, err
	}
	return request, nil
}

func (s *requestService) Approve(ctx context.Context, requestID, approvedQuantity int, adminNotes string, approver common.Identity) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.State != models.RequestPending {
		return nil, fmt.Errorf("%w: request %d is already %s", common.ErrInvalidState, requestID, request.State)
	}
	if _, err := s.productRepo.GetByID(ctx, request.ProductID); err != nil {
		return nil, err
	}

	if approvedQuantity <= 0 {
		approvedQuantity = request.RequestedQuantity
	}

	// InsufficientStock surfaces here and aborts with the request untouched.
	ledgerNotes := fmt.Sprintf("request #%d approved for %s", request.ID, request.Requester)
	if _, err := s.stockSvc.ApplyMovement(ctx, request.ProductID, models.MovementExit, approvedQuantity, approver.Username, ledgerNotes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return s.requestRepo.Mutate(ctx, requestID, func(r *models.Request) error {
		if r.State != models.RequestPending {
			return fmt.Errorf("%w: request %d is already %s", common.ErrInvalidState, requestID, r.State)
		}
		r.State = models.RequestApproved
		r.ApprovedQuantity = &approvedQuantity
		r.Approver = &approver.Username
		if adminNotes = strings.TrimSpace(adminNotes); adminNotes != "" {
			r.AdminNotes = &adminNotes
		}
		r.RespondedAt = &now
		return nil
	})
}

func (s *requestService) Reject(ctx context.Context, requestID int, adminNotes string, approver common.Identity) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	return s.requestRepo.Mutate(ctx, requestID, func(r *models.Request) error {
		if r.State != models.RequestPending {
			return fmt.Errorf("%w: request %d is already %s", common.ErrInvalidState, requestID, r.State)
		}
		r.State = models.RequestRejected
		r.Approver = &approver.Username
		if adminNotes = strings.TrimSpace(adminNotes); adminNotes != "" {
			r.AdminNotes = &adminNotes
		}
		r.RespondedAt = &now
		return nil
	})
}

func (s *requestService) List(ctx context.Context, caller common.Identity) ([]models.Request, error) {
	if caller.Role == models.RoleAdmin {
		return s.requestRepo.List(ctx)
	}
	return s.requestRepo.ListByRequester(ctx, caller.UserID)
}
