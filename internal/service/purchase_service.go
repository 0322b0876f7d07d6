package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"
	"ecommerce-backend/pkg/apperror"
	"ecommerce-backend/pkg/money"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultIdempotencyTTL is how long a purchase result stays in the cache.
const DefaultIdempotencyTTL = 24 * time.Hour

// PurchaseServiceImpl implements ports.PurchaseService.
type PurchaseServiceImpl struct {
	catalog        ports.CatalogService
	wallet         ports.WalletService
	orderRepo      ports.OrderRepository
	idempRepo      ports.IdempotencyRepository
	idempCache     ports.IdempotencyCache
	transactor     ports.DBTransactor
	idempotencyTTL time.Duration
	log            zerolog.Logger
}

// NewPurchaseService creates a new PurchaseServiceImpl. A non-positive ttl
// falls back to DefaultIdempotencyTTL.
func NewPurchaseService(
	catalog ports.CatalogService,
	wallet ports.WalletService,
	orderRepo ports.OrderRepository,
	idempRepo ports.IdempotencyRepository,
	idempCache ports.IdempotencyCache,
	transactor ports.DBTransactor,
	ttl time.Duration,
	log zerolog.Logger,
) *PurchaseServiceImpl {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &PurchaseServiceImpl{
		catalog:        catalog,
		wallet:         wallet,
		orderRepo:      orderRepo,
		idempRepo:      idempRepo,
		idempCache:     idempCache,
		transactor:     transactor,
		idempotencyTTL: ttl,
		log:            log,
	}
}

// CreatePurchase buys quantity units of a product from the customer's wallet.
// Stock, balance, order and ledger entry change together or not at all.
// Locks are taken product first, then wallet.
func (s *PurchaseServiceImpl) CreatePurchase(ctx context.Context, req ports.PurchaseRequest) (result *ports.PurchaseResult, err error) {
	ctx, span := tracer.Start(ctx, "purchase.create", trace.WithAttributes(
		attribute.String("customer.id", req.CustomerID.String()),
		attribute.String("product.id", req.ProductID.String()),
		attribute.Int("quantity", req.Quantity),
	))
	defer func() { finishSpan(span, err) }()

	if req.Quantity <= 0 {
		return nil, apperror.InvalidTransaction("Quantity must be positive")
	}
	if req.Quantity > domain.MaxOrderQuantity {
		return nil, apperror.InvalidTransaction(fmt.Sprintf("Quantity must not exceed %d", domain.MaxOrderQuantity))
	}

	if len(req.IdempotencyKey) > domain.MaxClientIdempotencyKeyLength {
		return nil, apperror.Validation(fmt.Sprintf("idempotency key must be at most %d characters", domain.MaxClientIdempotencyKeyLength))
	}

	var idempKey string
	if req.IdempotencyKey != "" {
		idempKey = domain.BuildPurchaseIdempotencyKey(req.CustomerID, req.IdempotencyKey)
		replay, err := s.lookupReplay(ctx, idempKey)
		if err != nil {
			return nil, err
		}
		if replay != nil {
			return matchReplay(req, replay)
		}
	}

	dbTx, err := s.transactor.Begin(ctx)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("begin tx: %w", err))
	}
	defer dbTx.Rollback(ctx) //nolint:errcheck

	product, err := s.catalog.LockProduct(ctx, dbTx, req.ProductID)
	if err != nil {
		return nil, err
	}
	if !product.HasStock(req.Quantity) {
		return nil, apperror.StockUnavailable(product.Name, req.Quantity, product.StockQuantity)
	}

	unitPrice := product.Price
	total := product.TotalFor(req.Quantity)

	if !s.wallet.CheckSufficientBalance(ctx, req.CustomerID, total) {
		balance, err := s.wallet.GetBalance(ctx, req.CustomerID)
		if err != nil {
			return nil, err
		}
		return nil, apperror.InsufficientBalance(total, balance)
	}

	entry, err := s.wallet.DebitTx(ctx, dbTx, req.CustomerID, total,
		fmt.Sprintf("Purchase: %s x%d", product.Name, req.Quantity))
	if err != nil {
		return nil, err
	}

	if err := s.catalog.ReduceStock(ctx, dbTx, product, req.Quantity); err != nil {
		return nil, err
	}

	order := domain.Order{
		ID:         uuid.New(),
		CustomerID: req.CustomerID,
		ProductID:  product.ID,
		Quantity:   req.Quantity,
		UnitPrice:  unitPrice,
		TotalPrice: total,
		Status:     domain.OrderStatusCompleted,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.orderRepo.Create(ctx, dbTx, &order); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("create order: %w", err))
	}

	result = &ports.PurchaseResult{
		Order:            order,
		Transaction:      *entry,
		Product:          *product,
		TotalAmount:      total,
		RemainingBalance: entry.BalanceAfter,
	}

	var respJSON []byte
	if idempKey != "" {
		respJSON, err = json.Marshal(result)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
		}
		err = s.idempRepo.Create(ctx, dbTx, &domain.IdempotencyLog{
			Key:          idempKey,
			OrderID:      order.ID,
			ResponseJSON: respJSON,
			CreatedAt:    order.CreatedAt,
		})
		if errors.Is(err, ports.ErrDuplicate) {
			// A concurrent request with the same key committed first.
			_ = dbTx.Rollback(ctx)
			replay, err := s.replayStored(ctx, idempKey)
			if err != nil {
				return nil, err
			}
			return matchReplay(req, replay)
		}
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("save idempotency log: %w", err))
		}
	}

	if err := dbTx.Commit(ctx); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("commit tx: %w", err))
	}

	if idempKey != "" {
		if err := s.idempCache.Set(ctx, idempKey, respJSON, s.idempotencyTTL); err != nil {
			s.log.Warn().Err(err).Str("key", idempKey).Msg("failed to cache purchase result")
		}
	}

	s.log.Info().
		Str("order_id", order.ID.String()).
		Str("customer_id", req.CustomerID.String()).
		Str("product_id", product.ID.String()).
		Int("quantity", req.Quantity).
		Str("total", money.Format(total)).
		Msg("purchase completed")

	return result, nil
}

// lookupReplay checks the cache, then the durable log, for a stored result.
func (s *PurchaseServiceImpl) lookupReplay(ctx context.Context, key string) (*ports.PurchaseResult, error) {
	cached, err := s.idempCache.Get(ctx, key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("idempotency cache check failed, falling through to DB")
	}
	if cached != nil {
		return decodeReplay(cached)
	}

	stored, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if stored == nil {
		return nil, nil
	}
	return decodeReplay(stored.ResponseJSON)
}

func (s *PurchaseServiceImpl) replayStored(ctx context.Context, key string) (*ports.PurchaseResult, error) {
	stored, err := s.idempRepo.Get(ctx, key)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("db idempotency check: %w", err))
	}
	if stored == nil {
		return nil, apperror.InternalError(fmt.Errorf("idempotency key %q taken but not readable", key))
	}
	s.log.Info().Str("key", key).Msg("concurrent purchase replayed")
	return decodeReplay(stored.ResponseJSON)
}

// matchReplay refuses to replay a key that was first used for a different
// product or quantity.
func matchReplay(req ports.PurchaseRequest, replay *ports.PurchaseResult) (*ports.PurchaseResult, error) {
	if replay.Order.ProductID != req.ProductID || replay.Order.Quantity != req.Quantity {
		return nil, apperror.Conflict("idempotency key was already used for a different purchase")
	}
	return replay, nil
}

func decodeReplay(data []byte) (*ports.PurchaseResult, error) {
	var result ports.PurchaseResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("unmarshal stored purchase: %w", err))
	}
	result.Replayed = true
	return &result, nil
}

// GetCustomerOrders lists a customer's orders newest first.
func (s *PurchaseServiceImpl) GetCustomerOrders(ctx context.Context, customerID uuid.UUID, status *domain.OrderStatus) ([]domain.Order, error) {
	if status != nil && !status.Valid() {
		return nil, apperror.Validation("status must be COMPLETED, FAILED or PENDING")
	}
	orders, err := s.orderRepo.ListByCustomer(ctx, customerID, status)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("list orders: %w", err))
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

// GetOrderByID hides orders of other customers behind ORD_001.
func (s *PurchaseServiceImpl) GetOrderByID(ctx context.Context, id uuid.UUID, customerID *uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("get order: %w", err))
	}
	if order == nil || (customerID != nil && order.CustomerID != *customerID) {
		return nil, apperror.OrderNotFound(id)
	}
	return order, nil
}

func (s *PurchaseServiceImpl) GetOrderStatistics(ctx context.Context, customerID uuid.UUID) (*domain.OrderStats, error) {
	stats, err := s.orderRepo.GetStats(ctx, customerID)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("order stats: %w", err))
	}
	return stats, nil
}
