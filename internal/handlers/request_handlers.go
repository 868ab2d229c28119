package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/services"
)

// RequestHandlers exposes the request workflow.
type RequestHandlers struct {
	requestSvc services.RequestService
}

func NewRequestHandlers(requestSvc services.RequestService) *RequestHandlers {
	return &RequestHandlers{requestSvc: requestSvc}
}

// CreateRequestRequest is the operator ask payload. RequestedQuantity
// defaults to 1 when absent or invalid.
type CreateRequestRequest struct {
	ProductCode       string `json:"productCode"`
	RequestedQuantity int    `json:"requestedQuantity"`
	Notes             string `json:"notes"`
}

func (h *RequestHandlers) CreateRequest(c echo.Context) error {
	identity, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return respondError(c, common.ErrUnauthorized)
	}

	var req CreateRequestRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, common.Validationf("invalid request body"))
	}

	request, err := h.requestSvc.Create(c.Request().Context(), req.ProductCode, req.RequestedQuantity, req.Notes, identity)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, request)
}

// ListRequests returns everything for admins, own requests for operators.
func (h *RequestHandlers) ListRequests(c echo.Context) error {
	identity, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return respondError(c, common.ErrUnauthorized)
	}

	requests, err := h.requestSvc.List(c.Request().Context(), identity)
	if err != nil {
		return respondError(c, err)
	}
	if requests == nil {
		requests = []models.Request{}
	}
	return c.JSON(http.StatusOK, requests)
}

// UpdateRequestRequest constrains adjudication to the state transition and
// its annotations; arbitrary field overwrite is not accepted.
type UpdateRequestRequest struct {
	State            models.RequestState `json:"state"`
	ApprovedQuantity int                 `json:"approvedQuantity"`
	AdminNotes       string              `json:"adminNotes"`
}

func (h *RequestHandlers) UpdateRequest(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return respondError(c, common.Validationf("invalid request id"))
	}

	identity, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return respondError(c, common.ErrUnauthorized)
	}

	var req UpdateRequestRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, common.Validationf("invalid request body"))
	}

	var updated *models.Request
	switch req.State {
	case models.RequestApproved:
		updated, err = h.requestSvc.Approve(c.Request().Context(), id, req.ApprovedQuantity, req.AdminNotes, identity)
	case models.RequestRejected:
		updated, err = h.requestSvc.Reject(c.Request().Context(), id, req.AdminNotes, identity)
	default:
		return respondError(c, common.Validationf("state must be %q or %q", models.RequestApproved, models.RequestRejected))
	}
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}
