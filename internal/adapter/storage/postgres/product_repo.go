package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ecommerce-backend/internal/core/domain"
	"ecommerce-backend/internal/core/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const productColumns = `id, name, description, price, stock_quantity, created_at, updated_at`

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ProductRepo implements ports.ProductRepository.
type ProductRepo struct {
	pool Pool
}

// NewProductRepo creates a new ProductRepo.
func NewProductRepo(pool Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

// Create inserts a product. A name clashing case-insensitively with an
// existing product yields ports.ErrDuplicate.
func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	query := `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.Name, p.Description, p.Price, p.StockQuantity, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return translate("insert product", err)
	}
	return nil
}

// GetByID fetches a product by UUID (non-locking read).
func (r *ProductRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	return scanProduct(r.pool.QueryRow(ctx, query, id), "get product by id")
}

// GetByIDForUpdate fetches a product and holds its row lock until tx ends.
// This MUST be called within a transaction.
func (r *ProductRepo) GetByIDForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	return scanProduct(tx.QueryRow(ctx, query, id), "get product for update")
}

// GetByName fetches a product by case-insensitive name.
func (r *ProductRepo) GetByName(ctx context.Context, name string) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE LOWER(name) = LOWER($1)`
	return scanProduct(r.pool.QueryRow(ctx, query, name), "get product by name")
}

// List returns products newest first.
func (r *ProductRepo) List(ctx context.Context, filter ports.ProductFilter) ([]domain.Product, error) {
	var conditions []string
	var args []any

	if filter.InStockOnly {
		conditions = append(conditions, "stock_quantity > 0")
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		args = append(args, "%"+likeEscaper.Replace(s)+"%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	query := `SELECT ` + productColumns + ` FROM products`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p := domain.Product{}
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// Update writes every mutable column of a product the caller has locked.
func (r *ProductRepo) Update(ctx context.Context, tx pgx.Tx, p *domain.Product) error {
	query := `UPDATE products SET name = $1, description = $2, price = $3, stock_quantity = $4, updated_at = $5
		WHERE id = $6`

	tag, err := tx.Exec(ctx, query, p.Name, p.Description, p.Price, p.StockQuantity, p.UpdatedAt, p.ID)
	if err != nil {
		return translate("update product", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found: %s", p.ID)
	}
	return nil
}

// UpdateStock sets the stock counter of a product the caller has locked.
func (r *ProductRepo) UpdateStock(ctx context.Context, tx pgx.Tx, id uuid.UUID, stock int) error {
	query := `UPDATE products SET stock_quantity = $1, updated_at = NOW() WHERE id = $2`

	tag, err := tx.Exec(ctx, query, stock, id)
	if err != nil {
		return translate("update product stock", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("product not found: %s", id)
	}
	return nil
}

// IncrementStock restocks in a single statement; the row update is atomic
// on its own so no explicit lock is taken.
func (r *ProductRepo) IncrementStock(ctx context.Context, id uuid.UUID, quantity int) (*domain.Product, error) {
	query := `UPDATE products SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + productColumns
	return scanProduct(r.pool.QueryRow(ctx, query, quantity, id), "increment product stock")
}

// Delete removes a product. Products referenced by orders yield ports.ErrReferenced.
func (r *ProductRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return translate("delete product", err)
	}
	if tag.RowsAffected() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func scanProduct(row pgx.Row, op string) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.StockQuantity, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}
