package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ProductRepo implements ports.ProductRepository.
type ProductRepo struct {
	s *Store
}

// NewProductRepo creates a ProductRepo over s.
func NewProductRepo(s *Store) *ProductRepo {
	return &ProductRepo{s: s}
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	if err := checkProduct(p); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[p.ID]; ok {
		return fmt.Errorf("insert product: %w (products_pkey)", ports.ErrDuplicate)
	}
	if r.nameTakenLocked(p.Name, p.ID, nil) {
		return fmt.Errorf("insert product: %w (uq_products_name_ci)", ports.ErrDuplicate)
	}
	r.s.products[p.ID] = *p
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// GetByIDForUpdate locks the product row until tx ends.
func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Product, error) {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return nil, err
	}
	if err := r.s.acquire(ctx, t, productLockKey(id)); err != nil {
		return nil, fmt.Errorf("get product for update: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.visibleLocked(t, id)
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (r *ProductRepo) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, p := range r.s.products {
		if strings.EqualFold(p.Name, name) {
			return &p, nil
		}
	}
	return nil, nil
}

// List returns committed products newest first.
func (r *ProductRepo) List(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	search := strings.ToLower(strings.TrimSpace(filter.Search))

	r.s.mu.Lock()
	var products []domain.Product
	for _, p := range r.s.products {
		if filter.InStockOnly && p.StockQuantity <= 0 {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Description), search) {
			continue
		}
		products = append(products, p)
	}
	r.s.mu.Unlock()

	slices.SortFunc(products, func(a, b domain.Product) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return products, nil
}

// Update stages every mutable column of p within tx.
func (r *ProductRepo) Update(ctx context.Context, tx pgx.Tx, p *domain.Product) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	if err := checkProduct(p); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if err := r.s.acquire(ctx, t, productLockKey(p.ID)); err != nil {
		return fmt.Errorf("update product: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.visibleLocked(t, p.ID)
	if !ok {
		return fmt.Errorf("product not found: %s", p.ID)
	}
	if r.nameTakenLocked(p.Name, p.ID, t) {
		return fmt.Errorf("update product: %w (uq_products_name_ci)", ports.ErrDuplicate)
	}
	stored.Name = p.Name
	stored.Description = p.Description
	stored.Price = p.Price
	stored.StockQuantity = p.StockQuantity
	stored.UpdatedAt = p.UpdatedAt
	t.products[p.ID] = stored
	return nil
}

// UpdateStock stages a new stock counter within tx.
func (r *ProductRepo) UpdateStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, stock int) error {
	t, err := r.s.txFrom(tx)
	if err != nil {
		return err
	}
	return r.setStock(ctx, t, id, func(int) int { return stock })
}

// IncrementStock adds quantity under the row lock and returns the committed
// row, or nil when the product does not exist.
func (r *ProductRepo) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error) {
	var updated *domain.Product
	err := r.s.autocommit(ctx, func(t *Tx) error {
		err := r.setStock(ctx, t, id, func(current int) int { return current + quantity })
		if err != nil {
			return err
		}
		p := t.products[id]
		updated = &p
		return nil
	})
	if err != nil {
		var missing missingProductError
		if errors.As(err, &missing) {
			return nil, nil
		}
		return nil, fmt.Errorf("increment product stock: %w", err)
	}
	return updated, nil
}

// Delete removes a product that no order references.
func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.autocommit(ctx, func(t *Tx) error {
		if err := r.s.acquire(ctx, t, productLockKey(id)); err != nil {
			return fmt.Errorf("delete product: %w", err)
		}

		r.s.mu.Lock()
		defer r.s.mu.Unlock()

		if _, ok := r.s.products[id]; !ok {
			return ports.ErrNotFound
		}
		for _, o := range r.s.orders {
			if o.ProductID == id {
				return fmt.Errorf("delete product: %w (orders_product_id_fkey)", ports.ErrReferenced)
			}
		}
		delete(r.s.products, id)
		return nil
	})
}

func (r *ProductRepo) setStock(ctx context.Context, t *Tx, id uuid.UUID, next func(current int) int) error {
	if err := r.s.acquire(ctx, t, productLockKey(id)); err != nil {
		return fmt.Errorf("update product stock: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.visibleLocked(t, id)
	if !ok {
		return missingProduct(id)
	}
	stock := next(p.StockQuantity)
	if stock < 0 {
		return fmt.Errorf("update product stock: stock %d violates products_stock_quantity_check", stock)
	}
	p.StockQuantity = stock
	p.UpdatedAt = time.Now().UTC()
	t.products[id] = p
	return nil
}

// visibleLocked returns the product as t sees it. Callers hold s.mu.
func (r *ProductRepo) visibleLocked(t *Tx, id uuid.UUID) (domain.Product, bool) {
	if p, ok := t.products[id]; ok {
		return p, true
	}
	p, ok := r.s.products[id]
	return p, ok
}

// nameTakenLocked reports whether another product already uses name,
// case-insensitively. Callers hold s.mu.
func (r *ProductRepo) nameTakenLocked(name string, self uuid.UUID, t *Tx) bool {
	for id, p := range r.s.products {
		if t != nil {
			if staged, ok := t.products[id]; ok {
				p = staged
			}
		}
		if id != self && strings.EqualFold(p.Name, name) {
			return true
		}
	}
	return false
}

func checkProduct(p *domain.Product) error {
	if p.Price.LessThan(minAmount) {
		return fmt.Errorf("price %s violates products_price_check", p.Price)
	}
	if p.StockQuantity < 0 {
		return fmt.Errorf("stock %d violates products_stock_quantity_check", p.StockQuantity)
	}
	return nil
}

type missingProductError struct{ id uuid.UUID }

func (e missingProductError) Error() string { return "product not found: " + e.id.String() }

func missingProduct(id uuid.UUID) error { return missingProductError{id: id} }
