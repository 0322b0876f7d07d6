package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/internal/core/ports/mocks"
	"ecommerce-backend/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

type catalogTestDeps struct {
	svc         *CatalogServiceImpl
	productRepo *mocks.MockProductRepository
	transactor  *mocks.MockDBTransactor
}

func setupCatalogService(t *testing.T) *catalogTestDeps {
	ctrl := gomock.NewController(t)
	d := &catalogTestDeps{
		productRepo: mocks.NewMockProductRepository(ctrl),
		transactor:  mocks.NewMockDBTransactor(ctrl),
	}
	d.svc = NewCatalogService(d.productRepo, d.transactor, zerolog.Nop())
	return d
}

func TestCatalogService_GetProductByID_NotFound(t *testing.T) {
	d := setupCatalogService(t)
	id := uuid.New()
	d.productRepo.EXPECT().GetByID(gomock.Any(), id).Return(nil, nil)

	_, err := d.svc.GetProductByID(context.Background(), id)
	assert.True(t, apperror.HasCode(err, apperror.CodeProductNotFound))
}

func TestCatalogService_ListProducts_EmptyIsNotNil(t *testing.T) {
	d := setupCatalogService(t)
	filter := ports.ProductFilter{InStockOnly: true, Search: "mug"}
	d.productRepo.EXPECT().List(gomock.Any(), filter).Return(nil, nil)

	products, err := d.svc.ListProducts(context.Background(), filter)
	require.NoError(t, err)
	assert.NotNil(t, products)
}

func TestCatalogService_CreateProduct(t *testing.T) {
	d := setupCatalogService(t)
	d.productRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	product, err := d.svc.CreateProduct(context.Background(), ports.ProductInput{
		Name:          "  Coffee Mug ",
		Price:         dec("12.50"),
		StockQuantity: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, "Coffee Mug", product.Name)
	assert.NotEqual(t, uuid.Nil, product.ID)
}

func TestCatalogService_CreateProduct_Validation(t *testing.T) {
	tests := []struct {
		name  string
		input ports.ProductInput
	}{
		{"blank name", ports.ProductInput{Name: "   ", Price: dec("1.00")}},
		{"long name", ports.ProductInput{Name: strings.Repeat("x", 256), Price: dec("1.00")}},
		{"zero price", ports.ProductInput{Name: "Mug", Price: dec("0")}},
		{"fractional cent", ports.ProductInput{Name: "Mug", Price: dec("1.001")}},
		{"price too large", ports.ProductInput{Name: "Mug", Price: dec("100000000.00")}},
		{"negative stock", ports.ProductInput{Name: "Mug", Price: dec("1.00"), StockQuantity: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupCatalogService(t)
			_, err := d.svc.CreateProduct(context.Background(), tt.input)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), err)
		})
	}
}

func TestCatalogService_CreateProduct_DuplicateName(t *testing.T) {
	d := setupCatalogService(t)
	d.productRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(ports.ErrDuplicate)

	_, err := d.svc.CreateProduct(context.Background(), ports.ProductInput{Name: "Mug", Price: dec("1.00")})
	assert.True(t, apperror.HasCode(err, apperror.CodeConflict))
}

func TestCatalogService_UpdateProduct_Partial(t *testing.T) {
	d := setupCatalogService(t)
	tx := &mockTx{}
	id := uuid.New()
	existing := &domain.Product{ID: id, Name: "Mug", Description: "old", Price: dec("5.00"), StockQuantity: 4}
	price := dec("6.50")

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.productRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, id).Return(existing, nil)
	d.productRepo.EXPECT().Update(gomock.Any(), tx, gomock.Any()).Return(nil)

	product, err := d.svc.UpdateProduct(context.Background(), id, ports.ProductUpdate{Price: &price})
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(price))
	assert.Equal(t, "old", product.Description)
	assert.Equal(t, 4, product.StockQuantity)
}

func TestCatalogService_UpdateProduct_RejectsNegativeStock(t *testing.T) {
	d := setupCatalogService(t)
	tx := &mockTx{}
	id := uuid.New()
	stock := -3

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.productRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, id).
		Return(&domain.Product{ID: id, Name: "Mug", Price: dec("5.00")}, nil)

	_, err := d.svc.UpdateProduct(context.Background(), id, ports.ProductUpdate{StockQuantity: &stock})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCatalogService_DeleteProduct(t *testing.T) {
	tests := []struct {
		name     string
		repoErr  error
		wantCode string
	}{
		{"deleted", nil, ""},
		{"missing", ports.ErrNotFound, apperror.CodeProductNotFound},
		{"ordered", ports.ErrReferenced, apperror.CodeProductInUse},
		{"db error", errors.New("conn reset"), apperror.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupCatalogService(t)
			d.productRepo.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(tt.repoErr)

			err := d.svc.DeleteProduct(context.Background(), uuid.New())
			if tt.wantCode == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, apperror.HasCode(err, tt.wantCode), err)
		})
	}
}

func TestCatalogService_ReduceStock(t *testing.T) {
	d := setupCatalogService(t)
	tx := &mockTx{}
	product := &domain.Product{ID: uuid.New(), Name: "Mug", StockQuantity: 5}

	d.productRepo.EXPECT().UpdateStock(gomock.Any(), tx, product.ID, 0).Return(nil)

	require.NoError(t, d.svc.ReduceStock(context.Background(), tx, product, 5))
	assert.Equal(t, 0, product.StockQuantity)
}

func TestCatalogService_ReduceStock_Insufficient(t *testing.T) {
	d := setupCatalogService(t)
	product := &domain.Product{ID: uuid.New(), Name: "Mug", StockQuantity: 2}

	err := d.svc.ReduceStock(context.Background(), &mockTx{}, product, 3)
	require.True(t, apperror.HasCode(err, apperror.CodeStockUnavailable))

	details, ok := apperror.StockUnavailableDetails(err)
	require.True(t, ok)
	assert.Equal(t, apperror.StockShortage{Product: "Mug", Requested: 3, Available: 2}, details)
	assert.Equal(t, 2, product.StockQuantity)
}

func TestCatalogService_ReduceStock_NonPositive(t *testing.T) {
	d := setupCatalogService(t)
	err := d.svc.ReduceStock(context.Background(), &mockTx{}, &domain.Product{StockQuantity: 5}, 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransaction))
}

func TestCatalogService_IncreaseStock(t *testing.T) {
	d := setupCatalogService(t)
	id := uuid.New()
	d.productRepo.EXPECT().IncrementStock(gomock.Any(), id, 12).Return(&domain.Product{ID: id, StockQuantity: 12}, nil)

	product, err := d.svc.IncreaseStock(context.Background(), id, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, product.StockQuantity)
}

func TestCatalogService_IncreaseStock_Errors(t *testing.T) {
	d := setupCatalogService(t)
	_, err := d.svc.IncreaseStock(context.Background(), uuid.New(), 0)
	assert.True(t, apperror.HasCode(err, apperror.CodeInvalidTransaction))

	d.productRepo.EXPECT().IncrementStock(gomock.Any(), gomock.Any(), 1).Return(nil, nil)
	_, err = d.svc.IncreaseStock(context.Background(), uuid.New(), 1)
	assert.True(t, apperror.HasCode(err, apperror.CodeProductNotFound))
}

func TestCatalogService_UpdateStock_Reduce(t *testing.T) {
	d := setupCatalogService(t)
	tx := &mockTx{}
	id := uuid.New()

	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.productRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, id).
		Return(&domain.Product{ID: id, Name: "Mug", StockQuantity: 10}, nil)
	d.productRepo.EXPECT().UpdateStock(gomock.Any(), tx, id, 7).Return(nil)

	product, err := d.svc.UpdateStock(context.Background(), id, 3, ports.StockOperationReduce)
	require.NoError(t, err)
	assert.Equal(t, 7, product.StockQuantity)
}

func TestCatalogService_UpdateStock_UnknownOperation(t *testing.T) {
	d := setupCatalogService(t)
	_, err := d.svc.UpdateStock(context.Background(), uuid.New(), 1, ports.StockOperation("set"))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCatalogService_CheckStockAvailability(t *testing.T) {
	id := uuid.New()
	tests := []struct {
		name      string
		product   *domain.Product
		quantity  int
		available bool
		message   string
	}{
		{"enough", &domain.Product{ID: id, StockQuantity: 5}, 5, true, ""},
		{"short", &domain.Product{ID: id, StockQuantity: 2}, 3, false, "Insufficient stock. Available: 2, Required: 3"},
		{"missing", nil, 1, false, "Product with ID " + id.String() + " not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := setupCatalogService(t)
			d.productRepo.EXPECT().GetByID(gomock.Any(), id).Return(tt.product, nil)

			ok, msg, err := d.svc.CheckStockAvailability(context.Background(), id, tt.quantity)
			require.NoError(t, err)
			assert.Equal(t, tt.available, ok)
			assert.Equal(t, tt.message, msg)
		})
	}
}

func TestCatalogService_BulkUpsertProducts(t *testing.T) {
	d := setupCatalogService(t)
	tx := &mockTx{}
	existing := &domain.Product{ID: uuid.New(), Name: "Mug", Price: dec("5.00"), StockQuantity: 1}

	d.productRepo.EXPECT().GetByName(gomock.Any(), "Mug").Return(existing, nil)
	d.transactor.EXPECT().Begin(gomock.Any()).Return(tx, nil)
	d.productRepo.EXPECT().GetByIDForUpdate(gomock.Any(), tx, existing.ID).Return(existing, nil)
	d.productRepo.EXPECT().Update(gomock.Any(), tx, gomock.Any()).Return(nil)

	d.productRepo.EXPECT().GetByName(gomock.Any(), "Plate").Return(nil, nil)
	d.productRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)

	result, err := d.svc.BulkUpsertProducts(context.Background(), []ports.ProductInput{
		{Name: "Mug", Price: dec("6.00"), StockQuantity: 9},
		{Name: "Plate", Price: dec("3.00"), StockQuantity: 2},
		{Name: "", Price: dec("1.00")},
		{Name: "Bowl", Price: dec("-1.00")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Unknown", result.Errors[0].Product)
	assert.Equal(t, "Bowl", result.Errors[1].Product)
	assert.Equal(t, 9, existing.StockQuantity)
}
