package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockroom/internal/common"
	"stockroom/internal/models"
)

var (
	testAdmin    = common.Identity{UserID: 1, Username: "admin", Role: models.RoleAdmin}
	testOperator = common.Identity{UserID: 2, Username: "maria", Role: models.RoleOperator}
)

func TestCreateRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 8}, "admin")
	require.NoError(t, err)

	request, err := env.requestSvc.Create(ctx, "prod-001", 5, " for ward 3 ", testOperator)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, request.State)
	assert.Equal(t, product.ID, request.ProductID)
	assert.Equal(t, "PROD-001", request.ProductCode)
	assert.Equal(t, "Gloves", request.ProductName)
	assert.Equal(t, 5, request.RequestedQuantity)
	assert.Equal(t, "for ward 3", request.Notes)
	assert.Equal(t, "maria", request.Requester)
	assert.Nil(t, request.ApprovedQuantity)
	assert.Nil(t, request.RespondedAt)

	// Creating a request never touches stock.
	unchanged, err := env.productSvc.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 8, unchanged.Stock)
}

func TestCreateRequestDefaultsQuantityToOne(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 8}, "admin")
	require.NoError(t, err)

	request, err := env.requestSvc.Create(ctx, "PROD-001", 0, "", testOperator)
	require.NoError(t, err)
	assert.Equal(t, 1, request.RequestedQuantity)

	request, err = env.requestSvc.Create(ctx, "PROD-001", -4, "", testOperator)
	require.NoError(t, err)
	assert.Equal(t, 1, request.RequestedQuantity)
}

func TestCreateRequestUnknownProduct(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.requestSvc.Create(context.Background(), "PROD-404", 1, "", testOperator)
	assert.ErrorIs(t, err, common.ErrNotFound)

	_, err = env.requestSvc.Create(context.Background(), "  ", 1, "", testOperator)
	assert.ErrorIs(t, err, common.ErrValidation)
}

func TestApproveRequestDeductsStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 8, ReorderPoint: intPtr(2)}, "admin")
	require.NoError(t, err)
	request, err := env.requestSvc.Create(ctx, "PROD-001", 8, "", testOperator)
	require.NoError(t, err)

	approved, err := env.requestSvc.Approve(ctx, request.ID, 0, "take them all", testAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, approved.State)
	require.NotNil(t, approved.ApprovedQuantity)
	assert.Equal(t, 8, *approved.ApprovedQuantity, "zero approved quantity defaults to the requested quantity")
	require.NotNil(t, approved.Approver)
	assert.Equal(t, "admin", *approved.Approver)
	require.NotNil(t, approved.AdminNotes)
	assert.Equal(t, "take them all", *approved.AdminNotes)
	assert.NotNil(t, approved.RespondedAt)

	drained, err := env.productSvc.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, drained.Stock)
	assert.True(t, drained.NeedsReorder)

	// The approval left an exit in the ledger crediting the approver.
	movements, err := env.stockSvc.ListMovements(ctx)
	require.NoError(t, err)
	require.Len(t, movements, 2)
	last := movements[len(movements)-1]
	assert.Equal(t, models.MovementExit, last.Kind)
	assert.Equal(t, 8, last.Quantity)
	assert.Equal(t, "admin", last.Actor)
	assert.Contains(t, last.Notes, "maria")
}

func TestApprovePartialQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 10}, "admin")
	require.NoError(t, err)
	request, err := env.requestSvc.Create(ctx, "PROD-001", 8, "", testOperator)
	require.NoError(t, err)

	approved, err := env.requestSvc.Approve(ctx, request.ID, 3, "", testAdmin)
	require.NoError(t, err)
	assert.Equal(t, 8, approved.RequestedQuantity, "requested quantity is preserved for audit")
	require.NotNil(t, approved.ApprovedQuantity)
	assert.Equal(t, 3, *approved.ApprovedQuantity)
	assert.Nil(t, approved.AdminNotes)

	product, err := env.productSvc.FindByCode(ctx, "PROD-001")
	require.NoError(t, err)
	assert.Equal(t, 7, product.Stock)
}

func TestApproveInsufficientStockLeavesRequestPending(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 2}, "admin")
	require.NoError(t, err)
	request, err := env.requestSvc.Create(ctx, "PROD-001", 5, "", testOperator)
	require.NoError(t, err)

	_, err = env.requestSvc.Approve(ctx, request.ID, 0, "", testAdmin)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInsufficientStock)

	// The request stays pending and can be adjudicated again later.
	reloaded, err := env.requestRepo.GetByID(ctx, request.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, reloaded.State)
	assert.Nil(t, reloaded.RespondedAt)

	product, err := env.productSvc.FindByCode(ctx, "PROD-001")
	require.NoError(t, err)
	assert.Equal(t, 2, product.Stock)
}

func TestRejectRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 8}, "admin")
	require.NoError(t, err)
	request, err := env.requestSvc.Create(ctx, "PROD-001", 5, "", testOperator)
	require.NoError(t, err)

	rejected, err := env.requestSvc.Reject(ctx, request.ID, "not this quarter", testAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.RequestRejected, rejected.State)
	assert.Nil(t, rejected.ApprovedQuantity)
	require.NotNil(t, rejected.AdminNotes)
	assert.Equal(t, "not this quarter", *rejected.AdminNotes)
	assert.NotNil(t, rejected.RespondedAt)

	// Rejection never touches stock or the ledger.
	product, err := env.productSvc.FindByCode(ctx, "PROD-001")
	require.NoError(t, err)
	assert.Equal(t, 8, product.Stock)
}

func TestAdjudicatedRequestsAreTerminal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 20}, "admin")
	require.NoError(t, err)

	approvedReq, err := env.requestSvc.Create(ctx, "PROD-001", 2, "", testOperator)
	require.NoError(t, err)
	_, err = env.requestSvc.Approve(ctx, approvedReq.ID, 0, "", testAdmin)
	require.NoError(t, err)

	_, err = env.requestSvc.Approve(ctx, approvedReq.ID, 0, "", testAdmin)
	assert.ErrorIs(t, err, common.ErrInvalidState)
	_, err = env.requestSvc.Reject(ctx, approvedReq.ID, "", testAdmin)
	assert.ErrorIs(t, err, common.ErrInvalidState)

	rejectedReq, err := env.requestSvc.Create(ctx, "PROD-001", 2, "", testOperator)
	require.NoError(t, err)
	_, err = env.requestSvc.Reject(ctx, rejectedReq.ID, "", testAdmin)
	require.NoError(t, err)

	_, err = env.requestSvc.Approve(ctx, rejectedReq.ID, 0, "", testAdmin)
	assert.ErrorIs(t, err, common.ErrInvalidState)
}

func TestConcurrentApprovalDeductsOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 10}, "admin")
	require.NoError(t, err)
	request, err := env.requestSvc.Create(ctx, "PROD-001", 4, "", testOperator)
	require.NoError(t, err)

	const attempts = 5
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.requestSvc.Approve(ctx, request.ID, 0, "", testAdmin)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, common.ErrInvalidState)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one approval wins")

	product, err := env.productSvc.FindByCode(ctx, "PROD-001")
	require.NoError(t, err)
	assert.Equal(t, 6, product.Stock, "stock is deducted exactly once")
}

func TestConcurrentApprovalsOfSeparateRequestsNeverOversell(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 10}, "admin")
	require.NoError(t, err)

	// Two pending requests whose combined quantity exceeds available stock.
	first, err := env.requestSvc.Create(ctx, "PROD-001", 6, "", testOperator)
	require.NoError(t, err)
	second, err := env.requestSvc.Create(ctx, "PROD-001", 6, "", testOperator)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, id := range []int{first.ID, second.ID} {
		wg.Add(1)
		go func(i, id int) {
			defer wg.Done()
			_, errs[i] = env.requestSvc.Approve(ctx, id, 0, "", testAdmin)
		}(i, id)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, common.ErrInsufficientStock)
		}
	}
	require.Equal(t, 1, succeeded, "only one approval fits in the available stock")

	product, err := env.productSvc.FindByCode(ctx, "PROD-001")
	require.NoError(t, err)
	assert.Equal(t, 4, product.Stock, "the winning approval committed in full")

	// The losing request stays pending and can be adjudicated again.
	pending, approved := 0, 0
	requests, err := env.requestSvc.List(ctx, testAdmin)
	require.NoError(t, err)
	for _, r := range requests {
		switch r.State {
		case models.RequestPending:
			pending++
		case models.RequestApproved:
			approved++
		}
	}
	assert.Equal(t, 1, pending)
	assert.Equal(t, 1, approved)

	movements, err := env.stockSvc.ListMovements(ctx)
	require.NoError(t, err)
	assert.Len(t, movements, 2, "initial stock plus exactly one approval exit")
}

func TestListRequestsVisibility(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.productSvc.Create(ctx, CreateProductInput{Name: "Gloves", Stock: 20}, "admin")
	require.NoError(t, err)

	otherOperator := common.Identity{UserID: 3, Username: "jo", Role: models.RoleOperator}
	_, err = env.requestSvc.Create(ctx, "PROD-001", 1, "", testOperator)
	require.NoError(t, err)
	_, err = env.requestSvc.Create(ctx, "PROD-001", 2, "", testOperator)
	require.NoError(t, err)
	_, err = env.requestSvc.Create(ctx, "PROD-001", 3, "", otherOperator)
	require.NoError(t, err)

	all, err := env.requestSvc.List(ctx, testAdmin)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	mine, err := env.requestSvc.List(ctx, testOperator)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	for _, r := range mine {
		assert.Equal(t, testOperator.UserID, r.RequesterID)
	}
}
