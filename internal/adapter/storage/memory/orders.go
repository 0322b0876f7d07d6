package memory

import (
	"context"
	"fmt"
	"slices"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// OrderRepo implements ports.OrderRepository.
type OrderRepo struct {
	s *Store
}

// NewOrderRepo creates an OrderRepo over s.
func NewOrderRepo(s *Store) *OrderRepo {
	return &OrderRepo{s: s}
}

// Create stages an order within tx. The customer and product must exist.
func (r *OrderRepo) Create(ctx context.Context, tx pgx.Tx, o *domain.Order) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	if o.Quantity < 1 {
		return fmt.Errorf("insert order: quantity %d violates orders_quantity_check", o.Quantity)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.users[o.CustomerID]; !ok {
		return fmt.Errorf("insert order: %w (orders_customer_id_fkey)", ports.ErrReferenced)
	}
	_, staged := t.products[o.ProductID]
	if _, ok := r.s.products[o.ProductID]; !ok && !staged {
		return fmt.Errorf("insert order: %w (orders_product_id_fkey)", ports.ErrReferenced)
	}
	t.orders = append(t.orders, *o)
	return nil
}

func (r *OrderRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[id]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

// ListByCustomer returns a customer's orders, newest first.
func (r *OrderRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, status *domain.OrderStatus) ([]domain.Order, error) {
	r.s.mu.Lock()
	var orders []domain.Order
	for _, o := range r.s.orders {
		if o.CustomerID != customerID {
			continue
		}
		if status != nil && o.Status != *status {
			continue
		}
		orders = append(orders, o)
	}
	r.s.mu.Unlock()

	slices.SortFunc(orders, func(a, b domain.Order) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return orders, nil
}

// GetStats aggregates a customer's orders. Only completed orders count
// towards the amount spent.
func (r *OrderRepo) GetStats(ctx context.Context, customerID uuid.UUID) (*domain.OrderStats, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stats := &domain.OrderStats{}
	for _, o := range r.s.orders {
		if o.CustomerID != customerID {
			continue
		}
		stats.TotalOrders++
		if o.Status == domain.OrderStatusCompleted {
			stats.CompletedOrders++
			stats.TotalSpent = stats.TotalSpent.Add(o.TotalPrice)
		}
	}
	return stats, nil
}

// IdempotencyRepo implements ports.IdempotencyRepository.
type IdempotencyRepo struct {
	s *Store
}

// NewIdempotencyRepo creates an IdempotencyRepo over s.
func NewIdempotencyRepo(s *Store) *IdempotencyRepo {
	return &IdempotencyRepo{s: s}
}

// Create stages log within tx. A second transaction inserting the same key
// waits for the first to finish, then fails with ports.ErrDuplicate if the
// first committed.
func (r *IdempotencyRepo) Create(ctx context.Context, tx pgx.Tx, log *domain.IdempotencyLog) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	if err := r.s.acquire(ctx, t, idempotencyLockKey(log.Key)); err != nil {
		return fmt.Errorf("insert idempotency log: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	_, committed := r.s.idempotency[log.Key]
	_, staged := t.idempotency[log.Key]
	if committed || staged {
		return fmt.Errorf("insert idempotency log: %w (idempotency_logs_pkey)", ports.ErrDuplicate)
	}
	stored := *log
	stored.ResponseJSON = slices.Clone(log.ResponseJSON)
	t.idempotency[log.Key] = stored
	return nil
}

func (r *IdempotencyRepo) Get(ctx context.Context, key string) (*domain.IdempotencyLog, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.idempotency[key]
	if !ok {
		return nil, nil
	}
	l.ResponseJSON = slices.Clone(l.ResponseJSON)
	return &l, nil
}

// AuditRepo implements ports.AuditRepository.
type AuditRepo struct {
	s *Store
}

// NewAuditRepo creates an AuditRepo over s.
func NewAuditRepo(s *Store) *AuditRepo {
	return &AuditRepo{s: s}
}

func (r *AuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.audit = append(r.s.audit, *log)
	return nil
}

// Entries returns a copy of the audit trail in insertion order.
func (r *AuditRepo) Entries() []domain.AuditLog {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return slices.Clone(r.s.audit)
}
