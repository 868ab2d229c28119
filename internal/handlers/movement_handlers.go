package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/services"
)

// MovementHandlers exposes the stock ledger.
type MovementHandlers struct {
	stockSvc services.StockService
}

func NewMovementHandlers(stockSvc services.StockService) *MovementHandlers {
	return &MovementHandlers{stockSvc: stockSvc}
}

// CreateMovementRequest is the direct entry/exit payload.
type CreateMovementRequest struct {
	ProductID int                 `json:"productId"`
	Kind      models.MovementKind `json:"kind"`
	Quantity  int                 `json:"quantity"`
	Notes     string              `json:"notes"`
}

func (h *MovementHandlers) CreateMovement(c echo.Context) error {
	identity, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return respondError(c, common.ErrUnauthorized)
	}

	var req CreateMovementRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, common.Validationf("invalid request body"))
	}

	update, err := h.stockSvc.ApplyMovement(c.Request().Context(), req.ProductID, req.Kind, req.Quantity, identity.Username, req.Notes)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, update)
}

func (h *MovementHandlers) ListMovements(c echo.Context) error {
	movements, err := h.stockSvc.ListMovements(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	if movements == nil {
		movements = []models.Movement{}
	}
	return c.JSON(http.StatusOK, movements)
}
