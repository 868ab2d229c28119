package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"stockroom/internal/common"
	"stockroom/internal/models"
	"stockroom/internal/services"
)

// ProductHandlers handles catalog CRUD and the stock-operation variant of
// product update.
type ProductHandlers struct {
	productSvc services.ProductService
	stockSvc   services.StockService
}

func NewProductHandlers(productSvc services.ProductService, stockSvc services.StockService) *ProductHandlers {
	return &ProductHandlers{
		productSvc: productSvc,
		stockSvc:   stockSvc,
	}
}

// ListProducts is public. With ?code= it answers a one-element or empty
// array rather than 404, which is what the lookup UI expects.
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()

	if code := c.QueryParam("code"); code != "" {
		product, err := h.productSvc.FindByCode(ctx, code)
		if err != nil {
			if errors.Is(err, common.ErrNotFound) {
				return c.JSON(http.StatusOK, []models.Product{})
			}
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, []models.Product{*product})
	}

	products, err := h.productSvc.List(ctx)
	if err != nil {
		return respondError(c, err)
	}
	if products == nil {
		products = []models.Product{}
	}
	return c.JSON(http.StatusOK, products)
}

func (h *ProductHandlers) GetProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return respondError(c, common.Validationf("invalid product id"))
	}
	product, err := h.productSvc.GetByID(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// CreateProductRequest is the admin product-creation payload. Code is
// optional; when empty the next sequential PROD-NNN is assigned.
type CreateProductRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Notes        string `json:"notes"`
	Stock        int    `json:"stock"`
	ReorderPoint *int   `json:"reorderPoint"`
}

func (r CreateProductRequest) toInput() services.CreateProductInput {
	return services.CreateProductInput{
		Code:         r.Code,
		Name:         r.Name,
		Description:  r.Description,
		Notes:        r.Notes,
		Stock:        r.Stock,
		ReorderPoint: r.ReorderPoint,
	}
}

func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	identity, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return respondError(c, common.ErrUnauthorized)
	}

	var req CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, common.Validationf("invalid request body"))
	}

	product, err := h.productSvc.Create(c.Request().Context(), req.toInput(), identity.Username)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// BulkCreateRequest carries rows parsed from a spreadsheet upload.
type BulkCreateRequest struct {
	Products []CreateProductRequest `json:"products"`
}

func (h *ProductHandlers) BulkCreateProducts(c echo.Context) error {
	identity, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return respondError(c, common.ErrUnauthorized)
	}

	var req BulkCreateRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, common.Validationf("invalid request body"))
	}

	inputs := make([]services.CreateProductInput, len(req.Products))
	for i, row := range req.Products {
		inputs[i] = row.toInput()
	}

	created, err := h.productSvc.BulkCreate(c.Request().Context(), inputs, identity.Username)
	if err != nil {
		// Rows created before the failing one stand; report both.
		return c.JSON(common.HTTPStatus(err), echo.Map{
			"error":   common.UserMessage(err),
			"created": created,
		})
	}
	return c.JSON(http.StatusCreated, echo.Map{"created": created})
}

// UpdateProductRequest covers both update semantics behind PUT. A non-empty
// Operation routes to the stock ledger; otherwise the payload patches
// catalog metadata. Stock can never be set here: only the ledger path
// moves stock, so the derived reorder flag cannot drift.
type UpdateProductRequest struct {
	Operation string `json:"operation"`
	Quantity  int    `json:"quantity"`

	Code         *string `json:"code"`
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	Notes        *string `json:"notes"`
	ReorderPoint *int    `json:"reorderPoint"`
	Stock        *int    `json:"stock"`
}

func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return respondError(c, common.Validationf("invalid product id"))
	}

	identity, ok := common.GetIdentityFromContext(c.Request().Context())
	if !ok {
		return respondError(c, common.ErrUnauthorized)
	}

	var req UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return respondError(c, common.Validationf("invalid request body"))
	}

	if req.Operation != "" {
		notes := ""
		if req.Notes != nil {
			notes = *req.Notes
		}
		update, err := h.stockSvc.ApplyMovement(c.Request().Context(), id, models.MovementKind(req.Operation), req.Quantity, identity.Username, notes)
		if err != nil {
			return respondError(c, err)
		}
		return c.JSON(http.StatusOK, update)
	}

	if req.Stock != nil {
		return respondError(c, common.Validationf("stock cannot be set directly; use a stock operation"))
	}

	product, err := h.productSvc.UpdateMetadata(c.Request().Context(), id, services.UpdateMetadataInput{
		Code:         req.Code,
		Name:         req.Name,
		Description:  req.Description,
		Notes:        req.Notes,
		ReorderPoint: req.ReorderPoint,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *ProductHandlers) DeleteProduct(c echo.Context) error {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return respondError(c, common.Validationf("invalid product id"))
	}
	if err := h.productSvc.Delete(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "product deleted"})
}
