package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/money"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const maxProductNameLen = 255

// maxPrice is the largest value a NUMERIC(10,2) price column holds.
var maxPrice = decimal.RequireFromString("99999999.99")

// CatalogServiceImpl implements ports.CatalogService.
type CatalogServiceImpl struct {
	productRepo ports.ProductRepository
	transactor  ports.DBTransactor
	log         zerolog.Logger
}

// NewCatalogService creates a new CatalogServiceImpl.
func NewCatalogService(productRepo ports.ProductRepository, transactor ports.DBTransactor, log zerolog.Logger) *CatalogServiceImpl {
	return &CatalogServiceImpl{
		productRepo: productRepo,
		transactor:  transactor,
		log:         log,
	}
}

func (s *CatalogServiceImpl) GetProductByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get product: %w", err))
	}
	if product == nil {
		return nil, apperror.ProductNotFound(id)
	}
	return product, nil
}

func (s *CatalogServiceImpl) ListProducts(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	products, err := s.productRepo.List(ctx, filter)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list products: %w", err))
	}
	if products == nil {
		products = []domain.Product{}
	}
	return products, nil
}

func (s *CatalogServiceImpl) CreateProduct(ctx context.Context, input ports.ProductInput) (*domain.Product, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateProduct(input.Name, input.Price, input.StockQuantity); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	product := &domain.Product{
		ID:            uuid.New(),
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		StockQuantity: input.StockQuantity,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, mapProductWriteError("create product", err)
	}

	s.log.Info().
		Str("product_id", product.ID.String()).
		Str("name", product.Name).
		Msg("product created")

	return product, nil
}

// UpdateProduct applies a partial update under the product row lock.
func (s *CatalogServiceImpl) UpdateProduct(ctx context.Context, id uuid.UUID, update ports.ProductUpdate) (*domain.Product, error) {
	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	product, err := s.LockProduct(ctx, dbTx, id)
	if err != nil {
		return nil, err
	}

	if update.Name != nil {
		product.Name = strings.TrimSpace(*update.Name)
	}
	if update.Description != nil {
		product.Description = *update.Description
	}
	if update.Price != nil {
		product.Price = *update.Price
	}
	if update.StockQuantity != nil {
		product.StockQuantity = *update.StockQuantity
	}
	if err := validateProduct(product.Name, product.Price, product.StockQuantity); err != nil {
		return nil, err
	}
	product.UpdatedAt = time.Now().UTC()

	if err := s.productRepo.Update(ctx, dbTx, product); err != nil {
		return nil, mapProductWriteError("update product", err)
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().Str("product_id", id.String()).Msg("product updated")
	return product, nil
}

// DeleteProduct removes a product no order references.
func (s *CatalogServiceImpl) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	err := s.productRepo.Delete(ctx, id)
	switch {
	case err == nil:
		s.log.Info().Str("product_id", id.String()).Msg("product deleted")
		return nil
	case errors.Is(err, ports.ErrNotFound):
		return apperror.ProductNotFound(id)
	case errors.Is(err, ports.ErrReferenced):
		return apperror.ProductInUse(id)
	default:
		return apperror.InternalError(fmt.Errorf("delete product: %w", err))
	}
}

// LockProduct loads the product and holds its row lock until tx ends.
func (s *CatalogServiceImpl) LockProduct(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Product, error) {
	product, err := s.productRepo.GetByIDForUpdate(ctx, tx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("lock product: %w", err))
	}
	if product == nil {
		return nil, apperror.ProductNotFound(id)
	}
	return product, nil
}

// ReduceStock decrements a product locked by LockProduct on the same tx.
func (s *CatalogServiceImpl) ReduceStock(ctx context.Context, tx pgx.Tx, product *domain.Product, quantity int) error {
	available := product.StockQuantity
	if err := product.ReduceStock(quantity); err != nil {
		if errors.Is(err, domain.ErrInsufficientStock) {
			return apperror.StockUnavailable(product.Name, quantity, available)
		}
		return apperror.InvalidTransaction("Quantity must be positive")
	}
	if err := s.productRepo.UpdateStock(ctx, tx, product.ID, product.StockQuantity); err != nil {
		return apperror.InternalError(fmt.Errorf("update stock: %w", err))
	}
	return nil
}

// IncreaseStock restocks in a single atomic statement.
func (s *CatalogServiceImpl) IncreaseStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error) {
	if quantity <= 0 {
		return nil, apperror.InvalidTransaction("Quantity must be positive")
	}
	product, err := s.productRepo.IncrementStock(ctx, id, quantity)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("increment stock: %w", err))
	}
	if product == nil {
		return nil, apperror.ProductNotFound(id)
	}

	s.log.Info().
		Str("product_id", id.String()).
		Int("quantity", quantity).
		Int("stock", product.StockQuantity).
		Msg("product restocked")

	return product, nil
}

// UpdateStock is the admin stock adjustment. A reduction takes the row lock
// in its own transaction before checking the counter.
func (s *CatalogServiceImpl) UpdateStock(ctx context.Context, id uuid.UUID, quantity int, op ports.StockOperation) (*domain.Product, error) {
	switch op {
	case ports.StockOperationIncrease:
		return s.IncreaseStock(ctx, id, quantity)
	case ports.StockOperationReduce:
	default:
		return nil, apperror.Validation("operation must be reduce or increase")
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	product, err := s.LockProduct(ctx, dbTx, id)
	if err != nil {
		return nil, err
	}
	if err := s.ReduceStock(ctx, dbTx, product, quantity); err != nil {
		return nil, err
	}
	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	s.log.Info().
		Str("product_id", id.String()).
		Int("quantity", quantity).
		Int("stock", product.StockQuantity).
		Msg("product stock reduced")

	return product, nil
}

// CheckStockAvailability is an unlocked read. A missing product is reported
// as unavailable with a reason, not as an error.
func (s *CatalogServiceImpl) CheckStockAvailability(ctx context.Context, id uuid.UUID, quantity int) (bool, string, error) {
	product, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return false, "", apperror.InternalError(fmt.Errorf("get product: %w", err))
	}
	if product == nil {
		return false, fmt.Sprintf("Product with ID %s not found", id), nil
	}
	if !product.HasStock(quantity) {
		return false, fmt.Sprintf("Insufficient stock. Available: %d, Required: %d", product.StockQuantity, quantity), nil
	}
	return true, "", nil
}

// BulkUpsertProducts creates or updates products matched case-insensitively
// by name. Rows fail independently.
func (s *CatalogServiceImpl) BulkUpsertProducts(ctx context.Context, items []ports.ProductInput) (*ports.BulkUpsertResult, error) {
	result := &ports.BulkUpsertResult{Errors: []ports.BulkUpsertError{}}

	for _, item := range items {
		created, err := s.upsert(ctx, item)
		if err != nil {
			var appErr *apperror.AppError
			if errors.As(err, &appErr) && appErr.Code == apperror.CodeInternal {
				s.log.Warn().Err(err).Str("name", item.Name).Msg("bulk upsert row failed")
			}
			name := item.Name
			if name == "" {
				name = "Unknown"
			}
			result.Failed++
			result.Errors = append(result.Errors, ports.BulkUpsertError{Product: name, Error: errorMessage(err)})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
	}

	s.log.Info().
		Int("created", result.Created).
		Int("updated", result.Updated).
		Int("failed", result.Failed).
		Msg("bulk product import finished")

	return result, nil
}

func (s *CatalogServiceImpl) upsert(ctx context.Context, item ports.ProductInput) (bool, error) {
	item.Name = strings.TrimSpace(item.Name)
	if err := validateProduct(item.Name, item.Price, item.StockQuantity); err != nil {
		return false, err
	}

	existing, err := s.productRepo.GetByName(ctx, item.Name)
	if err != nil {
		return false, apperror.InternalError(fmt.Errorf("find product by name: %w", err))
	}
	if existing == nil {
		if _, err := s.CreateProduct(ctx, item); err != nil {
			return false, err
		}
		return true, nil
	}

	_, err = s.UpdateProduct(ctx, existing.ID, ports.ProductUpdate{
		Description:   &item.Description,
		Price:         &item.Price,
		StockQuantity: &item.StockQuantity,
	})
	return false, err
}

func validateProduct(name string, price decimal.Decimal, stock int) error {
	switch {
	case name == "":
		return apperror.Validation("name is required")
	case utf8.RuneCountInString(name) > maxProductNameLen:
		return apperror.Validation(fmt.Sprintf("name must be at most %d characters", maxProductNameLen))
	case !money.IsPositive(price):
		return apperror.Validation("price must be positive with at most 2 decimal places")
	case price.GreaterThan(maxPrice):
		return apperror.Validation("price exceeds the maximum of " + money.Format(maxPrice))
	case stock < 0:
		return apperror.Validation("stock_quantity must not be negative")
	}
	return nil
}

func mapProductWriteError(op string, err error) error {
	if errors.Is(err, ports.ErrDuplicate) {
		return apperror.Conflict("Product with this name already exists")
	}
	return apperror.InternalError(fmt.Errorf("%s: %w", op, err))
}

// errorMessage renders err for a client: domain messages as-is, internals opaque.
func errorMessage(err error) string {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return "Internal server error"
}
